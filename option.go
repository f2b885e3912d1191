package sourcepatch

import (
	"github.com/viant/afs"
	"github.com/viant/sourcepatch/logging"
	"github.com/viant/sourcepatch/model/types"
	"github.com/viant/sourcepatch/policy"
	"github.com/viant/sourcepatch/tracing"
	"go.uber.org/zap"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures Service
type Option func(s *Service)

// WithConfig replaces the configuration the tool services are built from.
func WithConfig(cfg *Config) Option {
	return func(s *Service) { s.config = cfg }
}

// WithFS sets the storage service shared by all tools
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithBaseURL resolves relative tool paths against baseURL
func WithBaseURL(baseURL string) Option {
	return func(s *Service) { s.config.BaseURL = baseURL }
}

// WithRollback toggles the patch rollback journal
func WithRollback(rollback bool) Option {
	return func(s *Service) { s.config.Patch.Rollback = rollback }
}

// WithTolerateMissing makes diff-patch treat a missing file as empty
func WithTolerateMissing(tolerate bool) Option {
	return func(s *Service) { s.config.Patch.TolerateMissing = tolerate }
}

// WithExtensions sets the file extensions accepted by js-change-property
func WithExtensions(extensions ...string) Option {
	return func(s *Service) { s.config.Structural.Extensions = extensions }
}

// WithInferBodyOnly toggles inferring replaceBodyOnly when omitted
func WithInferBodyOnly(infer bool) Option {
	return func(s *Service) { s.config.Structural.InferBodyOnly = infer }
}

// WithPolicy sets the policy applied when the call context carries none
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logging.Wrap(logger) }
}

// WithExtensionServices registers additional action services next to the built-in tools
func WithExtensionServices(services ...types.Service) Option {
	return func(s *Service) {
		s.extensionServices = append(s.extensionServices, services...)
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		if err := tracing.Init(serviceName, serviceVersion, outputFile); err != nil {
			s.initErr = err
		}
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		if err := tracing.InitWithExporter(serviceName, serviceVersion, exporter); err != nil {
			s.initErr = err
		}
	}
}
