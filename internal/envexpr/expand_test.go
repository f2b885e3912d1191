package envexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	testCases := []struct {
		name   string
		env    map[string]string
		input  string
		expect string
	}{
		{name: "plain", input: "rollback: true", expect: "rollback: true"},
		{name: "single", env: map[string]string{"SP_LEVEL": "debug"}, input: "level: ${env.SP_LEVEL}", expect: "level: debug"},
		{name: "multiple", env: map[string]string{"SP_A": "1", "SP_B": "2"}, input: "${env.SP_A}-${env.SP_B}-${env.SP_A}", expect: "1-2-1"},
		{name: "unset", input: "x=${env.SP_NOT_SET}-end", expect: "x=-end"},
		{name: "unterminated", env: map[string]string{"SP_X": "x"}, input: "start ${env.SP_X and more", expect: "start ${env.SP_X and more"},
		{name: "empty key", input: "oops ${env.} done", expect: "oops  done"},
		{name: "invalid key", env: map[string]string{"SP_Y": "y"}, input: "${env.a-b ${env.SP_Y}}", expect: "${env.a-b y}"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			assert.EqualValues(t, tc.expect, Expand(tc.input))
		})
	}
}
