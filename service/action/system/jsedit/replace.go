package jsedit

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

var memberExpressions = []*regexp.Regexp{
	regexp.MustCompile(`^async\s+[A-Za-z_$][\w$]*\s*\(`),
	regexp.MustCompile(`^[A-Za-z_$][\w$]*\s*\(`),
	regexp.MustCompile(`^get\s+[A-Za-z_$][\w$]*`),
	regexp.MustCompile(`^set\s+[A-Za-z_$][\w$]*`),
	regexp.MustCompile(`^function\b`),
}

// looksLikeMember reports whether replacement reads as a complete member or
// function rather than a bare statement list.
func looksLikeMember(replacement string) bool {
	if strings.HasPrefix(replacement, "constructor") || strings.Contains(replacement, "=>") {
		return true
	}
	for _, expr := range memberExpressions {
		if expr.MatchString(replacement) {
			return true
		}
	}
	return false
}

func isBlock(text string) bool {
	return strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}")
}

// ResolveBodyOnly decides the replacement mode. An explicit flag always wins;
// otherwise the mode is inferred from the replacement text when infer is set.
func ResolveBodyOnly(explicit *bool, replacement string, infer bool) (bool, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if !infer {
		return false, newError(ErrBodyOnlyFlagRequired, `Invalid tool input: "replaceBodyOnly" must be provided.`)
	}
	trimmed := strings.TrimSpace(replacement)
	return !looksLikeMember(trimmed) || isBlock(trimmed), nil
}

// Edit is a planned byte range replacement.
type Edit struct {
	Range Range
	Text  string
}

// Apply returns source with the edit applied.
func (e *Edit) Apply(source []byte) []byte {
	result := make([]byte, 0, len(source)-(e.Range.End-e.Range.Start)+len(e.Text))
	result = append(result, source[:e.Range.Start]...)
	result = append(result, e.Text...)
	return append(result, source[e.Range.End:]...)
}

// Plan computes the edit replacing match with replacement. explicit reports
// whether the body-only mode was requested by the caller rather than inferred.
func Plan(match *MatchedNode, target TargetPath, replacement string, bodyOnly, explicit bool) (*Edit, error) {
	if match.Shorthand {
		return nil, newError(ErrShorthand, "Target %s is a shorthand property and cannot be replaced without an explicit value.", target)
	}
	text := strings.TrimSpace(replacement)
	edit := &Edit{Range: match.Range, Text: text}
	switch {
	case bodyOnly && match.Body != nil:
		edit.Range = *match.Body
		if !isBlock(text) {
			edit.Text = "{\n" + text + "\n}"
		}
	case bodyOnly && (explicit || !match.Value):
		return nil, newError(ErrBodyOnlyUnsupported, "Target %s does not support body-only replacement.", target)
	}
	if edit.Range.End <= edit.Range.Start {
		return nil, newError(ErrInvalidRange, "Failed to compute replacement range for %s.", target)
	}
	return edit, nil
}

// Result is the outcome of Replace.
type Result struct {
	Source []byte
	Match  *MatchedNode
	// Reparsed is false when the updated source no longer parses cleanly.
	Reparsed bool
}

// Replace locates target in source and replaces it. The "file" target
// replaces the entire source verbatim.
func Replace(ctx context.Context, source []byte, lang *sitter.Language, target, replacement string, bodyOnly, explicit bool) (*Result, error) {
	path := ParseTarget(target)
	if len(path) == 0 {
		return nil, newError(ErrInvalidTarget, "Target must include a function or property name.")
	}
	if path.IsFile() {
		return &Result{Source: []byte(replacement), Reparsed: true}, nil
	}
	doc, err := Parse(ctx, source, lang)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	match, ok := Locate(doc, path)
	if !ok {
		return nil, newError(ErrTargetNotFound, "Target not found: %s", target)
	}
	edit, err := Plan(match, path, replacement, bodyOnly, explicit)
	if err != nil {
		return nil, err
	}
	updated := edit.Apply(source)
	result := &Result{Source: updated, Match: match, Reparsed: true}
	reparsed, err := Parse(ctx, updated, lang)
	if err != nil {
		return nil, err
	}
	defer reparsed.Close()
	result.Reparsed = !reparsed.HasError()
	return result, nil
}
