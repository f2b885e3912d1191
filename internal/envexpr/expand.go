// Package envexpr expands ${env.KEY} references in configuration text.
package envexpr

import (
	"os"
	"strings"
	"unicode"
)

const prefix = "${env."

// Expand replaces every ${env.KEY} in text with the value of KEY, or "" when
// unset. An unterminated reference is kept as is; a reference whose key is
// not made of letters, digits or '_' keeps its prefix and scanning resumes
// right after it.
func Expand(text string) string {
	var b strings.Builder
	for {
		idx := strings.Index(text, prefix)
		if idx < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:idx])
		rest := text[idx+len(prefix):]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			b.WriteString(text[idx:])
			return b.String()
		}
		key := rest[:end]
		if !isKey(key) {
			b.WriteString(prefix)
			text = rest
			continue
		}
		b.WriteString(os.Getenv(key))
		text = rest[end+1:]
	}
}

func isKey(key string) bool {
	for _, r := range key {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}
