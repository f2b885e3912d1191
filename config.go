package sourcepatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/sourcepatch/internal/envexpr"
	"github.com/viant/sourcepatch/logging"
	"github.com/viant/sourcepatch/policy"
	"github.com/viant/sourcepatch/service/action/system/jsedit"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the service configuration. It
// can be populated from JSON or YAML; DefaultConfig carries the defaults.
type Config struct {
	// BaseURL resolves relative tool paths, e.g. file:///workspace or mem://localhost/ws.
	BaseURL    string           `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Patch      PatchConfig      `json:"patch" yaml:"patch"`
	Structural StructuralConfig `json:"structural" yaml:"structural"`
	Policy     *policy.Config   `json:"policy,omitempty" yaml:"policy,omitempty"`
	Tracing    TracingConfig    `json:"tracing" yaml:"tracing"`
	Log        *logging.Config  `json:"log,omitempty" yaml:"log,omitempty"`
}

// PatchConfig controls the patch tools.
type PatchConfig struct {
	Rollback        bool `json:"rollback" yaml:"rollback"`
	TolerateMissing bool `json:"tolerateMissing" yaml:"tolerateMissing"`
}

// StructuralConfig controls js-change-property.
type StructuralConfig struct {
	Extensions    []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	InferBodyOnly bool     `json:"inferBodyOnly" yaml:"inferBodyOnly"`
}

// TracingConfig enables OpenTelemetry spans; an empty OutputFile writes to stdout.
type TracingConfig struct {
	Enabled        bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	ServiceName    string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty" yaml:"serviceVersion,omitempty"`
	OutputFile     string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// DefaultConfig returns a Config populated with the default values used by New.
func DefaultConfig() *Config {
	return &Config{
		Patch: PatchConfig{
			Rollback:        true,
			TolerateMissing: true,
		},
		Structural: StructuralConfig{
			Extensions:    append([]string(nil), jsedit.DefaultExtensions...),
			InferBodyOnly: true,
		},
		Tracing: TracingConfig{ServiceName: "sourcepatch"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, ext := range c.Structural.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("structural.extensions: %q must start with '.'", ext))
		}
	}
	if c.Policy != nil {
		if err := c.Policy.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("policy: %w", err))
		}
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		errs = append(errs, errors.New("tracing.serviceName must be set when tracing is enabled"))
	}
	if c.Log != nil {
		switch strings.ToLower(c.Log.Level) {
		case "", "debug", "info", "warn", "error":
		default:
			errs = append(errs, fmt.Errorf("log.level: unsupported level %q", c.Log.Level))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML (or JSON) config from URL, expanding ${env.KEY}
// references. Omitted settings keep their defaults. Options are passed to the
// storage manager, e.g. an *embed.FS for embed:// URLs.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML (or JSON) config data over DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(envexpr.Expand(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
