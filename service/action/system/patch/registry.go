package patch

import (
	"context"
	"reflect"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/sourcepatch/internal/pathlock"
	"github.com/viant/sourcepatch/model/types"
	"github.com/viant/sourcepatch/policy"
	"github.com/viant/sourcepatch/tracing"
	"go.uber.org/zap"
)

// Name of the system/patch action service.
const Name = "system/patch"

// Tool names the editing loop calls the methods by.
const (
	ToolApplyPatch   = "apply-patch"
	ToolDiffPatch    = "diff-patch"
	ToolDiffWrite    = "diff-write"
	ToolApplyUnified = "apply-unified-diff"
)

// Service exposes file patching as an action service. Every method call
// operates with its own ephemeral Session.
type Service struct {
	fs              afs.Service
	baseURL         string
	rollback        bool
	tolerateMissing bool
	logger          *zap.Logger
	locker          *pathlock.Locker
}

// Option configures Service.
type Option func(s *Service)

// WithFS sets the storage service.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithBaseURL resolves relative patch paths against baseURL.
func WithBaseURL(baseURL string) Option {
	return func(s *Service) { s.baseURL = baseURL }
}

// WithRollback toggles restoring already written files when a later directive fails.
func WithRollback(rollback bool) Option {
	return func(s *Service) { s.rollback = rollback }
}

// WithTolerateMissing makes line-addressed patches treat a missing file as empty.
func WithTolerateMissing(tolerate bool) Option {
	return func(s *Service) { s.tolerateMissing = tolerate }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithLocker shares a path locker with other mutating services.
func WithLocker(locker *pathlock.Locker) Option {
	return func(s *Service) { s.locker = locker }
}

// New creates the patch service instance.
func New(options ...Option) *Service {
	ret := &Service{rollback: true, tolerateMissing: true}
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
	return []types.Signature{
		{
			Name:        "apply",
			Tool:        ToolApplyPatch,
			Description: "Apply a patch to edit files (FREEFORM patch input).",
			Parameters: types.NewSchema([]string{"patch"},
				types.Property{Name: "patch", Type: "string", Description: `Unified patch text starting with "*** Begin Patch".`}),
			Input:  reflect.TypeOf(&ApplyInput{}),
			Output: reflect.TypeOf(&Output{}),
		},
		{
			Name:        "diffPatch",
			Tool:        ToolDiffPatch,
			Description: "Apply a unified diff patch to the target file. The patch must include at least one hunk header in the form:\n@@ -oldStart,oldCount +newStart,newCount @@\nInside hunks, every line must start with \"+\", \"-\", or a single leading space.",
			Parameters: types.NewSchema([]string{"file", "patch"},
				types.Property{Name: "file", Type: "string", Description: "Path to the file to patch."},
				types.Property{Name: "patch", Type: "string", Description: `Unified diff patch to apply to the file. Inside hunks, every line must start with "+", "-", or a single leading space.`}),
			Input:  reflect.TypeOf(&DiffPatchInput{}),
			Output: reflect.TypeOf(&Output{}),
		},
		{
			Name:        "write",
			Tool:        ToolDiffWrite,
			Description: "Write the updated content to disk, replacing the original content.",
			Parameters: types.NewSchema([]string{"before", "after", "path"},
				types.Property{Name: "before", Type: "string", Description: "Original content to diff from (can be empty)."},
				types.Property{Name: "after", Type: "string", Description: "Updated content to write (can be empty)."},
				types.Property{Name: "path", Type: "string", Description: "Output path to write."}),
			Input:  reflect.TypeOf(&WriteInput{}),
			Output: reflect.TypeOf(&Output{}),
		},
		{
			Name:        "applyUnified",
			Tool:        ToolApplyUnified,
			Description: "Applies a standard unified-diff patch (---/+++ headers, @@ hunks) to one or more files.",
			Parameters: types.NewSchema([]string{"patch"},
				types.Property{Name: "patch", Type: "string", Description: "Unified-diff text (---/+++ file headers with @@ hunk markers) to apply."}),
			Input:  reflect.TypeOf(&ApplyInput{}),
			Output: reflect.TypeOf(&Output{}),
		},
	}
}

// Method maps method names to executable handlers.
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "apply":
		return s.apply, nil
	case "diffpatch":
		return s.diffPatch, nil
	case "write":
		return s.write, nil
	case "applyunified":
		return s.applyUnified, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

// -------------------------------------------------------------------------
// I/O contracts
// -------------------------------------------------------------------------

// ApplyInput is the payload for Service.apply and Service.applyUnified.
type ApplyInput struct {
	Patch string `json:"patch"`
}

// DiffPatchInput is the payload for Service.diffPatch.
type DiffPatchInput struct {
	File  string  `json:"file"`
	Patch *string `json:"patch"`
}

// WriteInput is the payload for Service.write.
type WriteInput struct {
	Before *string `json:"before"`
	After  *string `json:"after"`
	Path   string  `json:"path"`
}

// Output reports the files changed by a patch. File is set when exactly one
// file was written and nothing was deleted; otherwise Files and Deleted are used.
type Output struct {
	OK      bool              `json:"ok"`
	File    *string           `json:"file,omitempty"`
	Files   map[string]string `json:"files,omitempty"`
	Deleted []string          `json:"deleted,omitempty"`
}

func (o *Output) set(changes *Changes) {
	o.OK = true
	if content, ok := changes.Single(); ok {
		o.File = &content
		return
	}
	if len(changes.Files) > 0 {
		o.Files = changes.Files
	}
	if len(changes.Deleted) > 0 {
		o.Deleted = changes.Deleted
	}
}

// -------------------------------------------------------------------------
// method executors
// -------------------------------------------------------------------------

func (s *Service) apply(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*ApplyInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if strings.TrimSpace(input.Patch) == "" {
		return types.NewToolInputError(`"patch" must be a non-empty string.`)
	}
	envelope, err := Parse(input.Patch)
	if err != nil {
		return err
	}
	changes, err := s.run(ctx, ToolApplyPatch, envelope.Paths(), func(ctx context.Context, session *Session) (*Changes, error) {
		return session.ApplyEnvelope(ctx, envelope)
	})
	if err != nil {
		return err
	}
	output.set(changes)
	return nil
}

func (s *Service) diffPatch(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*DiffPatchInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	location := strings.TrimSpace(input.File)
	if location == "" {
		return types.NewToolInputError(`"file" must be a non-empty string.`)
	}
	if input.Patch == nil {
		return types.NewToolInputError(`"patch" must be a string.`)
	}
	linePatch, err := ParseLineAddressed(*input.Patch)
	if err != nil {
		return err
	}
	changes, err := s.run(ctx, ToolDiffPatch, []string{location}, func(ctx context.Context, session *Session) (*Changes, error) {
		load := session.Load
		if s.tolerateMissing {
			load = session.LoadOrEmpty
		}
		current, err := load(ctx, location)
		if err != nil {
			return nil, err
		}
		updated, err := ApplyLinePatch(current, linePatch)
		if err != nil {
			return nil, err
		}
		if err = session.Write(ctx, location, updated); err != nil {
			return nil, err
		}
		changes := &Changes{Files: map[string]string{}}
		changes.written(location, updated)
		return changes, nil
	})
	if err != nil {
		return err
	}
	output.set(changes)
	return nil
}

func (s *Service) write(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*WriteInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if input.Before == nil {
		return types.NewToolInputError(`"before" must be a string.`)
	}
	if input.After == nil {
		return types.NewToolInputError(`"after" must be a string.`)
	}
	location := strings.TrimSpace(input.Path)
	if location == "" {
		return &Error{Kind: KindMalformed, Message: "No file path provided for diff-write."}
	}
	changes, err := s.run(ctx, ToolDiffWrite, []string{location}, func(ctx context.Context, session *Session) (*Changes, error) {
		if err := session.Write(ctx, location, *input.After); err != nil {
			return nil, err
		}
		written, err := session.LoadOrEmpty(ctx, location)
		if err != nil {
			return nil, err
		}
		changes := &Changes{Files: map[string]string{}}
		changes.written(location, written)
		return changes, nil
	})
	if err != nil {
		return err
	}
	output.set(changes)
	return nil
}

func (s *Service) applyUnified(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*ApplyInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if strings.TrimSpace(input.Patch) == "" {
		return types.NewToolInputError(`"patch" must be a non-empty string.`)
	}
	diffs, err := ParseUnified(input.Patch)
	if err != nil {
		return err
	}
	var paths []string
	for _, diff := range diffs {
		paths = append(paths, diff.OrigPath, diff.NewPath)
	}
	changes, err := s.run(ctx, ToolApplyUnified, paths, func(ctx context.Context, session *Session) (*Changes, error) {
		return session.ApplyUnified(ctx, diffs, s.tolerateMissing)
	})
	if err != nil {
		return err
	}
	output.set(changes)
	return nil
}

// run executes fn within a new session holding the locks of all paths. On
// failure the session is rolled back when rollback is enabled.
func (s *Service) run(ctx context.Context, tool string, paths []string, fn func(ctx context.Context, session *Session) (*Changes, error)) (changes *Changes, err error) {
	session := NewSession(s.fs, s.baseURL, s.rollback, s.logger)
	var locations []string
	for _, candidate := range paths {
		if candidate != "" {
			locations = append(locations, session.URL(candidate))
		}
	}

	ctx, span := tracing.StartSpan(ctx, "patch."+tool)
	span.WithAttributes(map[string]string{"session": session.ID, "paths": strings.Join(locations, ",")})
	defer func() { tracing.EndSpan(span, err) }()

	if err = policy.FromContext(ctx).Check(ctx, tool, nil, locations...); err != nil {
		return nil, err
	}
	unlock := s.locker.Lock(locations...)
	defer unlock()

	if changes, err = fn(ctx, session); err != nil {
		if s.rollback {
			if rollbackErr := session.Rollback(ctx); rollbackErr != nil {
				s.logger.Error("patch rollback failed", zap.String("session", session.ID), zap.Error(rollbackErr))
			}
		}
		_ = session.Commit()
		return nil, err
	}
	return changes, session.Commit()
}
