package sourcepatch

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/viant/afs"
	"github.com/viant/sourcepatch/extension"
	"github.com/viant/sourcepatch/internal/pathlock"
	"github.com/viant/sourcepatch/logging"
	"github.com/viant/sourcepatch/model/types"
	"github.com/viant/sourcepatch/policy"
	"github.com/viant/sourcepatch/service/action/system/jsedit"
	"github.com/viant/sourcepatch/service/action/system/patch"
	"github.com/viant/sourcepatch/tracing"
)

// Service exposes the file editing tools behind a single Execute entry point.
type Service struct {
	config            *Config
	fs                afs.Service
	logger            *logging.Logger
	policy            *policy.Policy
	locker            *pathlock.Locker
	actions           *extension.Actions
	extensionServices []types.Service
	initErr           error
}

// Result is the failure document returned by Execute.
type Result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ToolDescriptor describes a tool to the editing loop.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.logger == nil {
		s.logger = logging.Wrap(nil)
	}
	if s.policy == nil && s.config.Policy != nil {
		s.policy = policy.FromConfig(s.config.Policy)
	}
	s.locker = &pathlock.Locker{}
	s.actions = extension.NewActions()
	s.actions.Register(patch.New(
		patch.WithFS(s.fs),
		patch.WithBaseURL(s.config.BaseURL),
		patch.WithRollback(s.config.Patch.Rollback),
		patch.WithTolerateMissing(s.config.Patch.TolerateMissing),
		patch.WithLogger(s.logger.Zap()),
		patch.WithLocker(s.locker),
	))
	jsOptions := []jsedit.Option{
		jsedit.WithFS(s.fs),
		jsedit.WithBaseURL(s.config.BaseURL),
		jsedit.WithInferBodyOnly(s.config.Structural.InferBodyOnly),
		jsedit.WithLogger(s.logger.Zap()),
		jsedit.WithLocker(s.locker),
	}
	if len(s.config.Structural.Extensions) > 0 {
		jsOptions = append(jsOptions, jsedit.WithExtensions(s.config.Structural.Extensions...))
	}
	s.actions.Register(jsedit.New(jsOptions...))
	for _, service := range s.extensionServices {
		s.actions.Register(service)
	}
}

// Actions returns the action registry
func (s *Service) Actions() *extension.Actions {
	return s.actions
}

// Tools returns the tool catalogue sorted by name
func (s *Service) Tools() []*ToolDescriptor {
	var result []*ToolDescriptor
	for _, tool := range s.actions.Tools() {
		result = append(result, &ToolDescriptor{
			Name:        tool.Signature.Tool,
			Description: tool.Signature.Description,
			Parameters:  tool.Signature.Parameters,
		})
	}
	return result
}

// Call decodes args into the input of the named tool and runs it, returning
// the tool output.
func (s *Service) Call(ctx context.Context, name string, args []byte) (interface{}, error) {
	tool, ok := s.actions.LookupTool(name)
	if !ok {
		return nil, fmt.Errorf("Unknown tool: %s", name)
	}
	exec, err := tool.Service.Method(tool.Signature.Name)
	if err != nil {
		return nil, err
	}
	input := reflect.New(tool.Signature.Input.Elem()).Interface()
	if len(args) > 0 {
		if err = json.Unmarshal(args, input); err != nil {
			return nil, types.NewToolInputError("%v", err)
		}
	}
	output := reflect.New(tool.Signature.Output.Elem()).Interface()
	if s.policy != nil && policy.FromContext(ctx) == nil {
		ctx = policy.WithPolicy(ctx, s.policy)
	}
	if err = exec(ctx, input, output); err != nil {
		return nil, err
	}
	return output, nil
}

// Execute runs the named tool with JSON args and returns the JSON result.
// Failures are reported as {"ok":false,"error":...}; Execute never returns a Go error.
func (s *Service) Execute(ctx context.Context, name string, args []byte) []byte {
	started := time.Now()
	output, err := s.Call(ctx, name, args)
	s.logger.ToolExecuted(name, time.Since(started), err == nil, err)
	if err == nil {
		var data []byte
		if data, err = json.Marshal(output); err == nil {
			return data
		}
	}
	data, _ := json.Marshal(&Result{OK: false, Error: err.Error()})
	return data
}

// Close flushes the logger and the span exporter.
func (s *Service) Close(ctx context.Context) error {
	_ = s.logger.Close()
	return tracing.Shutdown(ctx)
}

// New creates the service with the default configuration adjusted by options.
func New(options ...Option) *Service {
	ret := &Service{config: DefaultConfig()}
	ret.init(options)
	return ret
}

// NewFromConfig validates cfg and creates the service; options are applied after cfg.
func NewFromConfig(cfg *Config, options ...Option) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	ret := &Service{config: cfg, logger: logger}
	if cfg.Tracing.Enabled {
		options = append([]Option{WithTracing(cfg.Tracing.ServiceName, cfg.Tracing.ServiceVersion, cfg.Tracing.OutputFile)}, options...)
	}
	ret.init(options)
	if ret.initErr != nil {
		return nil, ret.initErr
	}
	return ret, nil
}
