package patch

// Parser for the "*** Begin Patch" envelope dialect. Marker lines are matched
// with github.com/viant/parsly tokens; hunk bodies are read line by line.

import (
	"fmt"
	"strings"

	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	tBeginPatch = iota + 1
	tEndPatch
	tAddFile
	tDeleteFile
	tUpdateFile
	tMoveTo
	tEndOfFile
	tHunkHeader
)

var (
	tokBeginPatch = parsly.NewToken(tBeginPatch, "BeginPatch", matcher.NewFragment("*** Begin Patch"))
	tokEndPatch   = parsly.NewToken(tEndPatch, "EndPatch", matcher.NewFragment("*** End Patch"))

	tokAddFile    = parsly.NewToken(tAddFile, "AddFile", matcher.NewFragment("*** Add File:"))
	tokDeleteFile = parsly.NewToken(tDeleteFile, "DeleteFile", matcher.NewFragment("*** Delete File:"))
	tokUpdateFile = parsly.NewToken(tUpdateFile, "UpdateFile", matcher.NewFragment("*** Update File:"))
	tokMoveTo     = parsly.NewToken(tMoveTo, "MoveTo", matcher.NewFragment("*** Move to:"))

	tokEndOfFile  = parsly.NewToken(tEndOfFile, "EndOfFile", matcher.NewFragment("*** End of File"))
	tokHunkHeader = parsly.NewToken(tHunkHeader, "HunkHeader", matcher.NewFragment("@@"))
)

// Parse parses envelope patch text. It performs no filesystem access.
func Parse(patchText string) (*Envelope, error) {
	p := &parser{cursor: parsly.NewCursor("patch", []byte(patchText), 0)}
	return p.parse()
}

type parser struct {
	cursor *parsly.Cursor
}

func (p *parser) parse() (*Envelope, error) {
	p.skipBlankLines()
	if rest, ok := p.marker(tokBeginPatch); !ok || strings.TrimSpace(rest) != "" {
		return nil, malformed(`missing "*** Begin Patch" header.`)
	}

	envelope := &Envelope{}
	for {
		p.skipBlankLines()
		if !p.cursor.HasMore() {
			return nil, malformed(`missing "*** End Patch" footer.`)
		}
		if line := p.peekLine(); strings.TrimSpace(line) == "*** End Patch" {
			p.marker(tokEndPatch)
			if len(envelope.Directives) == 0 {
				return nil, malformed("patch contains no file directives.")
			}
			return envelope, nil
		}

		var directive Directive
		var err error
		if path, ok := p.marker(tokAddFile); ok {
			directive, err = p.parseAddFile(strings.TrimSpace(path))
		} else if path, ok := p.marker(tokDeleteFile); ok {
			directive, err = p.parseDeleteFile(strings.TrimSpace(path))
		} else if path, ok := p.marker(tokUpdateFile); ok {
			directive, err = p.parseUpdateFile(strings.TrimSpace(path))
		} else {
			return nil, malformed("unexpected line %q.", p.peekLine())
		}
		if err != nil {
			return nil, err
		}
		envelope.Directives = append(envelope.Directives, directive)
	}
}

func (p *parser) parseAddFile(path string) (*AddFile, error) {
	if path == "" {
		return nil, malformed(`missing path in "*** Add File" header.`)
	}
	directive := &AddFile{Path: path}
	for p.cursor.HasMore() {
		line := p.peekLine()
		if isDirectiveBoundary(line) {
			break
		}
		if line == "" && p.onlyBlankBeforeBoundary() {
			p.skipBlankLines()
			break
		}
		if !strings.HasPrefix(line, "+") {
			return nil, malformed(`add file lines must start with "+".`)
		}
		p.consumeLine()
		directive.Lines = append(directive.Lines, line[1:])
	}
	if len(directive.Lines) == 0 {
		return nil, malformed("add file hunk has no content.")
	}
	return directive, nil
}

func (p *parser) parseDeleteFile(path string) (*DeleteFile, error) {
	if path == "" {
		return nil, malformed(`missing path in "*** Delete File" header.`)
	}
	return &DeleteFile{Path: path}, nil
}

func (p *parser) parseUpdateFile(path string) (*UpdateFile, error) {
	if path == "" {
		return nil, malformed(`missing path in "*** Update File" header.`)
	}
	directive := &UpdateFile{Path: path}
	if moveTo, ok := p.marker(tokMoveTo); ok {
		if directive.MoveTo = strings.TrimSpace(moveTo); directive.MoveTo == "" {
			return nil, malformed(`missing path in "*** Move to" header.`)
		}
	}

	var current *Hunk
	flush := func() {
		if current != nil && len(current.Lines) > 0 {
			directive.Hunks = append(directive.Hunks, *current)
		}
		current = nil
	}

	for p.cursor.HasMore() {
		line := p.peekLine()
		if isDirectiveBoundary(line) {
			break
		}
		if rest, ok := p.marker(tokEndOfFile); ok {
			if strings.TrimSpace(rest) != "" {
				return nil, malformed("unexpected line %q.", line)
			}
			directive.NoTrailingNewline = true
			continue
		}
		if header, ok := p.hunkHeader(); ok {
			flush()
			current = &Hunk{Header: header}
			continue
		}
		if line == "" && p.onlyBlankBeforeBoundary() {
			p.skipBlankLines()
			break
		}
		changeLine, err := parseChangeLine(line)
		if err != nil {
			return nil, err
		}
		p.consumeLine()
		if current == nil {
			current = &Hunk{}
		}
		current.Lines = append(current.Lines, changeLine)
	}
	flush()

	if len(directive.Hunks) == 0 && directive.MoveTo == "" {
		return nil, malformed("update file hunk for %q has no changes.", path)
	}
	return directive, nil
}

// parseChangeLine classifies a prefixed hunk line. Empty lines carry no prefix and are rejected.
func parseChangeLine(line string) (ChangeLine, error) {
	if line == "" {
		return ChangeLine{}, malformed(`empty line in hunk; an empty context line must be written as " ".`)
	}
	switch line[0] {
	case ' ':
		return ChangeLine{Kind: Context, Text: line[1:]}, nil
	case '+':
		return ChangeLine{Kind: Add, Text: line[1:]}, nil
	case '-':
		return ChangeLine{Kind: Remove, Text: line[1:]}, nil
	}
	return ChangeLine{}, &Error{Kind: KindMalformed, Message: fmt.Sprintf("Invalid patch line prefix: %q in line %q.", line[:1], line)}
}

// isDirectiveBoundary reports whether line starts the next directive or ends the envelope.
func isDirectiveBoundary(line string) bool {
	return strings.HasPrefix(line, "*** ") && !strings.HasPrefix(line, "*** End of File")
}

// ---------------- low-level helpers ----------------

// marker matches tok at the current line start and consumes the line, returning
// the text after the marker. The cursor is left untouched on mismatch.
func (p *parser) marker(tok *parsly.Token) (string, bool) {
	cur := p.cursor
	start := cur.Pos
	if cur.MatchOne(tok).Code != tok.Code {
		cur.Pos = start
		return "", false
	}
	return p.consumeLine(), true
}

// hunkHeader matches a bare "@@" line or an annotated "@@ text" line.
func (p *parser) hunkHeader() (string, bool) {
	line := p.peekLine()
	if line != "@@" && !strings.HasPrefix(line, "@@ ") {
		return "", false
	}
	rest, ok := p.marker(tokHunkHeader)
	return strings.TrimSpace(rest), ok
}

// consumeLine consumes the current line including its terminator and returns
// it without the line ending.
func (p *parser) consumeLine() string {
	cur := p.cursor
	start := cur.Pos
	for cur.Pos < cur.InputSize {
		if cur.Input[cur.Pos] == '\n' {
			line := string(cur.Input[start:cur.Pos])
			cur.Pos++
			return strings.TrimSuffix(line, "\r")
		}
		cur.Pos++
	}
	return strings.TrimSuffix(string(cur.Input[start:]), "\r")
}

func (p *parser) peekLine() string {
	cur := p.cursor
	i := cur.Pos
	for i < cur.InputSize && cur.Input[i] != '\n' {
		i++
	}
	return strings.TrimSuffix(string(cur.Input[cur.Pos:i]), "\r")
}

func (p *parser) skipBlankLines() {
	for p.cursor.HasMore() && strings.TrimSpace(p.peekLine()) == "" {
		p.consumeLine()
	}
}

// onlyBlankBeforeBoundary reports whether every line from the cursor up to the
// next directive boundary (or end of input) is blank.
func (p *parser) onlyBlankBeforeBoundary() bool {
	cur := p.cursor
	start := cur.Pos
	defer func() { cur.Pos = start }()
	for cur.HasMore() {
		line := p.consumeLine()
		if isDirectiveBoundary(line) {
			return true
		}
		if line != "" {
			return false
		}
	}
	return true
}
