// Package policy provides a simple, optional per-tool approval layer that can
// be attached to an invocation via context. Callers that do not embed a Policy
// keep the "auto" behaviour.

package policy

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Execution modes.
const (
	ModeAsk  = "ask"  // ask before every mutation
	ModeAuto = "auto" // execute automatically (default)
	ModeDeny = "deny" // block execution
)

// ErrDenied is returned when a policy rejects a tool call.
var ErrDenied = errors.New("denied by policy")

// AskFunc is invoked when Mode==ask. Returning true approves the call.
type AskFunc func(
	ctx context.Context,
	action string, // tool name
	args map[string]interface{}, // decoded tool arguments, may be nil
	p *Policy,
) bool

// Policy represents approval settings for tool invocations.
//
//   - Mode controls the high-level behaviour (ask / auto / deny).
//   - AllowList, BlockList filter tools regardless of Mode.
//   - AllowedPaths restricts mutated paths to the listed roots (empty => any).
//   - Ask is only used when Mode==ask.
//
// A nil *Policy means "execute everything automatically".
type Policy struct {
	Mode         string
	AllowList    []string
	BlockList    []string
	AllowedPaths []string
	Ask          AskFunc
}

// Config represents the declarative, serialisable part of a Policy.
type Config struct {
	Mode         string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList    []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList    []string `json:"block,omitempty" yaml:"block,omitempty"`
	AllowedPaths []string `json:"paths,omitempty" yaml:"paths,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:         p.Mode,
		AllowList:    append([]string(nil), p.AllowList...),
		BlockList:    append([]string(nil), p.BlockList...),
		AllowedPaths: append([]string(nil), p.AllowedPaths...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy (without AskFunc).
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:         c.Mode,
		AllowList:    append([]string(nil), c.AllowList...),
		BlockList:    append([]string(nil), c.BlockList...),
		AllowedPaths: append([]string(nil), c.AllowedPaths...),
	}
}

// Validate checks the mode value.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "", ModeAuto, ModeAsk, ModeDeny:
		return nil
	}
	return fmt.Errorf("unsupported policy mode: %q", c.Mode)
}

// IsAllowed evaluates AllowList / BlockList by case-insensitive exact match
// of the tool name.
func (p *Policy) IsAllowed(action string) bool {
	if p == nil {
		return true
	}

	normalized := strings.ToLower(action)

	// BlockList has priority.
	for _, b := range p.BlockList {
		if normalized == strings.ToLower(b) {
			return false
		}
	}
	if len(p.AllowList) == 0 {
		return true
	}
	for _, a := range p.AllowList {
		if normalized == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// IsPathAllowed reports whether location lies under one of AllowedPaths.
func (p *Policy) IsPathAllowed(location string) bool {
	if p == nil || len(p.AllowedPaths) == 0 {
		return true
	}
	candidate := cleanPath(location)
	for _, root := range p.AllowedPaths {
		root = cleanPath(root)
		if candidate == root || strings.HasPrefix(candidate, strings.TrimSuffix(root, "/")+"/") {
			return true
		}
	}
	return false
}

func cleanPath(location string) string {
	scheme := ""
	if idx := strings.Index(location, "://"); idx != -1 {
		scheme, location = location[:idx+3], location[idx+3:]
	}
	return scheme + path.Clean(location)
}

// Check applies the policy to a tool call touching paths.
func (p *Policy) Check(ctx context.Context, action string, args map[string]interface{}, paths ...string) error {
	if p == nil {
		return nil
	}
	if strings.EqualFold(p.Mode, ModeDeny) || !p.IsAllowed(action) {
		return fmt.Errorf("%s: %w", action, ErrDenied)
	}
	for _, candidate := range paths {
		if !p.IsPathAllowed(candidate) {
			return fmt.Errorf("%s: path %s: %w", action, candidate, ErrDenied)
		}
	}
	if strings.EqualFold(p.Mode, ModeAsk) && (p.Ask == nil || !p.Ask(ctx, action, args, p)) {
		return fmt.Errorf("%s: not approved: %w", action, ErrDenied)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy stored in ctx, or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
