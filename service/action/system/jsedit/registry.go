package jsedit

import (
	"bytes"
	"context"
	"path"
	"reflect"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/sourcepatch/internal/location"
	"github.com/viant/sourcepatch/internal/pathlock"
	"github.com/viant/sourcepatch/model/types"
	"github.com/viant/sourcepatch/policy"
	"github.com/viant/sourcepatch/tracing"
	"go.uber.org/zap"
)

// Name of the system/jsedit action service.
const Name = "system/jsedit"

// ToolChangeProperty is the tool name of the changeProperty method.
const ToolChangeProperty = "js-change-property"

// Service replaces functions, methods and properties in JavaScript sources.
type Service struct {
	fs            afs.Service
	baseURL       string
	extensions    []string
	inferBodyOnly bool
	logger        *zap.Logger
	locker        *pathlock.Locker
}

// Option configures Service.
type Option func(s *Service)

// WithFS sets the storage service.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithBaseURL resolves relative file paths against baseURL.
func WithBaseURL(baseURL string) Option {
	return func(s *Service) { s.baseURL = baseURL }
}

// WithExtensions overrides the accepted file extensions.
func WithExtensions(extensions ...string) Option {
	return func(s *Service) { s.extensions = extensions }
}

// WithInferBodyOnly toggles inferring replaceBodyOnly when it is omitted.
func WithInferBodyOnly(infer bool) Option {
	return func(s *Service) { s.inferBodyOnly = infer }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithLocker shares a path locker with other mutating services.
func WithLocker(locker *pathlock.Locker) Option {
	return func(s *Service) { s.locker = locker }
}

// New creates the jsedit service instance.
func New(options ...Option) *Service {
	ret := &Service{inferBodyOnly: true, extensions: DefaultExtensions}
	for _, opt := range options {
		opt(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.logger == nil {
		ret.logger = zap.NewNop()
	}
	if ret.locker == nil {
		ret.locker = &pathlock.Locker{}
	}
	return ret
}

// Name returns service identifier.
func (s *Service) Name() string { return Name }

// Methods returns service method catalogue.
func (s *Service) Methods() types.Signatures {
	required := []string{"filePath", "target", "replacement"}
	if !s.inferBodyOnly {
		required = append(required, "replaceBodyOnly")
	}
	return []types.Signature{
		{
			Name:        "changeProperty",
			Tool:        ToolChangeProperty,
			Description: `Replace a function or property in a JS/JSCAD file. Use target like MyClass.constructor to update a class constructor. Use target "file" to replace the entire file (useful for empty files).`,
			Parameters: types.NewSchema(required,
				types.Property{Name: "filePath", Type: "string", Description: "Path to the .js or .jscad file to edit."},
				types.Property{Name: "target", Type: "string", Description: "Function or property to replace (e.g., main, MyClass.constructor, exports.main)."},
				types.Property{Name: "replacement", Type: "string", Description: "Replacement code for the target. For class methods, provide either the full member or just the body statements."},
				types.Property{Name: "replaceBodyOnly", Type: "boolean", Description: "Set true to replace only the function/method body, keeping the existing signature. Set false to replace the full node."}),
			Input:  reflect.TypeOf(&ChangePropertyInput{}),
			Output: reflect.TypeOf(&ChangePropertyOutput{}),
		},
	}
}

// Method maps method names to executable handlers.
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "changeproperty":
		return s.changeProperty, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

// ChangePropertyInput is the payload for Service.changeProperty.
type ChangePropertyInput struct {
	FilePath        string `json:"filePath"`
	Target          string `json:"target"`
	Replacement     string `json:"replacement"`
	ReplaceBodyOnly *bool  `json:"replaceBodyOnly,omitempty"`
}

// ChangePropertyOutput reports the edited file and target.
type ChangePropertyOutput struct {
	OK     bool   `json:"ok"`
	Path   string `json:"path"`
	Target string `json:"target"`
}

func (s *Service) changeProperty(ctx context.Context, in, out interface{}) (err error) {
	input, ok := in.(*ChangePropertyInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*ChangePropertyOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if strings.TrimSpace(input.FilePath) == "" {
		return types.NewToolInputError(`"filePath" must be a non-empty string.`)
	}
	if strings.TrimSpace(input.Target) == "" {
		return types.NewToolInputError(`"target" must be a non-empty string.`)
	}
	if strings.TrimSpace(input.Replacement) == "" {
		return types.NewToolInputError(`"replacement" must be a non-empty string.`)
	}
	target := strings.TrimSpace(input.Target)
	fileURL := location.Resolve(s.baseURL, strings.TrimSpace(input.FilePath))

	ctx, span := tracing.StartSpan(ctx, "jsedit."+ToolChangeProperty)
	span.WithAttributes(map[string]string{"path": fileURL, "target": target})
	defer func() { tracing.EndSpan(span, err) }()

	if err = policy.FromContext(ctx).Check(ctx, ToolChangeProperty, nil, fileURL); err != nil {
		return err
	}
	unlock := s.locker.Lock(fileURL)
	defer unlock()

	exists, err := s.fs.Exists(ctx, fileURL)
	if err != nil {
		return ioError("access", err)
	}
	if !exists {
		return newError(ErrFileNotFound, "File not found: %s", fileURL)
	}
	if !s.supported(fileURL) {
		return newError(ErrUnsupportedFileType, "Unsupported file type: %s", path.Ext(fileURL))
	}
	source, err := s.fs.DownloadWithURL(ctx, fileURL)
	if err != nil {
		return ioError("read", err)
	}
	bodyOnly, err := ResolveBodyOnly(input.ReplaceBodyOnly, input.Replacement, s.inferBodyOnly)
	if err != nil {
		return err
	}
	result, err := Replace(ctx, source, LanguageFor(fileURL), target, input.Replacement, bodyOnly, input.ReplaceBodyOnly != nil)
	if err != nil {
		return err
	}
	if !result.Reparsed {
		s.logger.Warn("rewritten source has syntax errors", zap.String("path", fileURL), zap.String("target", target))
	}
	if err = s.fs.Upload(ctx, fileURL, file.DefaultFileOsMode, bytes.NewReader(result.Source)); err != nil {
		return ioError("write", err)
	}
	output.OK = true
	output.Path = fileURL
	output.Target = target
	if result.Match == nil {
		output.Target = "file"
	}
	return nil
}

func (s *Service) supported(location string) bool {
	ext := strings.ToLower(path.Ext(location))
	for _, candidate := range s.extensions {
		if strings.ToLower(candidate) == ext {
			return true
		}
	}
	return false
}
