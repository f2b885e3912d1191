package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_IsAllowed(t *testing.T) {
	var testCases = []struct {
		description string
		policy      *Policy
		action      string
		expect      bool
	}{
		{description: "nil policy", policy: nil, action: "apply-patch", expect: true},
		{description: "empty lists", policy: &Policy{}, action: "apply-patch", expect: true},
		{description: "blocked", policy: &Policy{BlockList: []string{"Diff-Write"}}, action: "diff-write", expect: false},
		{description: "allowed", policy: &Policy{AllowList: []string{"apply-patch"}}, action: "apply-patch", expect: true},
		{description: "not listed", policy: &Policy{AllowList: []string{"apply-patch"}}, action: "diff-patch", expect: false},
	}
	for _, testCase := range testCases {
		assert.EqualValues(t, testCase.expect, testCase.policy.IsAllowed(testCase.action), testCase.description)
	}
}

func TestPolicy_IsPathAllowed(t *testing.T) {
	var testCases = []struct {
		description string
		roots       []string
		path        string
		expect      bool
	}{
		{description: "no roots", path: "/etc/passwd", expect: true},
		{description: "under root", roots: []string{"/work/models"}, path: "/work/models/a.jscad", expect: true},
		{description: "root itself", roots: []string{"/work/models/"}, path: "/work/models", expect: true},
		{description: "sibling prefix", roots: []string{"/work/models"}, path: "/work/models2/a.jscad", expect: false},
		{description: "escape", roots: []string{"/work/models"}, path: "/work/models/../secret.js", expect: false},
		{description: "url root", roots: []string{"mem://localhost/ws"}, path: "mem://localhost/ws/a.js", expect: true},
	}
	for _, testCase := range testCases {
		p := &Policy{AllowedPaths: testCase.roots}
		assert.EqualValues(t, testCase.expect, p.IsPathAllowed(testCase.path), testCase.description)
	}
}

func TestPolicy_Check(t *testing.T) {
	ctx := context.Background()
	asked := 0
	approve := func(ctx context.Context, action string, args map[string]interface{}, p *Policy) bool {
		asked++
		return action == "apply-patch"
	}
	var testCases = []struct {
		description string
		policy      *Policy
		action      string
		paths       []string
		expectErr   bool
	}{
		{description: "nil", action: "apply-patch"},
		{description: "deny mode", policy: &Policy{Mode: ModeDeny}, action: "apply-patch", expectErr: true},
		{description: "path outside", policy: &Policy{AllowedPaths: []string{"/ws"}}, action: "diff-write", paths: []string{"/tmp/x"}, expectErr: true},
		{description: "ask approved", policy: &Policy{Mode: ModeAsk, Ask: approve}, action: "apply-patch"},
		{description: "ask rejected", policy: &Policy{Mode: ModeAsk, Ask: approve}, action: "diff-write", expectErr: true},
		{description: "ask without func", policy: &Policy{Mode: ModeAsk}, action: "diff-write", expectErr: true},
	}
	for _, testCase := range testCases {
		err := testCase.policy.Check(ctx, testCase.action, nil, testCase.paths...)
		if testCase.expectErr {
			assert.True(t, errors.Is(err, ErrDenied), testCase.description)
			continue
		}
		assert.NoError(t, err, testCase.description)
	}
	assert.EqualValues(t, 2, asked)
}

func TestConfig_RoundTrip(t *testing.T) {
	p := &Policy{Mode: ModeAuto, AllowList: []string{"a"}, BlockList: []string{"b"}, AllowedPaths: []string{"/ws"}}
	assert.EqualValues(t, &Policy{Mode: ModeAuto, AllowList: []string{"a"}, BlockList: []string{"b"}, AllowedPaths: []string{"/ws"}}, FromConfig(ToConfig(p)))
	assert.Nil(t, ToConfig(nil))
	assert.Error(t, (&Config{Mode: "maybe"}).Validate())
	assert.NoError(t, (&Config{Mode: "ASK"}).Validate())
}

func TestContext(t *testing.T) {
	p := &Policy{Mode: ModeAuto}
	ctx := WithPolicy(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
