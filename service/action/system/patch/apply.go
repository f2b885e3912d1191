package patch

import "strings"

// Text is file content split into lines without their terminators.
type Text struct {
	Lines           []string
	TrailingNewline bool
	// EOL is "\r\n" when the content uses CRLF line endings, "\n" otherwise.
	EOL string
}

// SplitText splits content on "\n" and "\r\n". A trailing newline does not
// produce an empty final line.
func SplitText(content string) *Text {
	text := &Text{EOL: "\n", TrailingNewline: strings.HasSuffix(content, "\n")}
	if strings.Contains(content, "\r\n") {
		text.EOL = "\r\n"
	}
	if content == "" {
		return text
	}
	text.Lines = strings.Split(content, "\n")
	for i, line := range text.Lines {
		text.Lines[i] = strings.TrimSuffix(line, "\r")
	}
	if text.TrailingNewline {
		text.Lines = text.Lines[:len(text.Lines)-1]
	}
	return text
}

// Join joins lines with the detected line ending, appending a final one when trailingNewline is set.
func (t *Text) Join(lines []string, trailingNewline bool) string {
	result := strings.Join(lines, t.EOL)
	if trailingNewline {
		result += t.EOL
	}
	return result
}

// ApplyUpdate applies context-search hunks to content. The trailing newline is
// kept when the content had one unless noTrailingNewline is set.
func ApplyUpdate(content string, hunks []Hunk, noTrailingNewline bool) (string, error) {
	text := SplitText(content)
	lines, err := ApplyHunks(text.Lines, hunks)
	if err != nil {
		return "", err
	}
	return text.Join(lines, text.TrailingNewline && !noTrailingNewline), nil
}

// ApplyHunks applies context-search hunks left to right. Each hunk is located
// by scanning forward from the end of the previous hunk's output, so hunks never
// match content that precedes an earlier one.
func ApplyHunks(lines []string, hunks []Hunk) ([]string, error) {
	working := lines
	cursor := 0
	for i := range hunks {
		hunk := &hunks[i]
		at, ok := locate(working, hunk.pattern(), cursor)
		if !ok {
			return nil, contextMismatch()
		}
		output := make([]string, 0, len(working)+len(hunk.Lines))
		output = append(output, working[:at]...)
		output, next, err := splice(output, working, at, hunk)
		if err != nil {
			return nil, err
		}
		written := len(output) - at
		working = append(output, working[next:]...)
		cursor = at + written
	}
	return working, nil
}

// locate returns the first index >= from where pattern matches lines exactly.
// An empty pattern matches at the end of lines.
func locate(lines, pattern []string, from int) (int, bool) {
	if len(pattern) == 0 {
		return len(lines), true
	}
	for idx := from; idx <= len(lines)-len(pattern); idx++ {
		matched := true
		for offset, expect := range pattern {
			if lines[idx+offset] != expect {
				matched = false
				break
			}
		}
		if matched {
			return idx, true
		}
	}
	return -1, false
}

// splice applies hunk lines to src starting at index at, appending the result
// to dst. It returns dst and the index of the first unconsumed src line.
func splice(dst, src []string, at int, hunk *Hunk) ([]string, int, error) {
	index := at
	for _, line := range hunk.Lines {
		switch line.Kind {
		case Add:
			dst = append(dst, line.Text)
			continue
		case Context, Remove:
			if index >= len(src) {
				return nil, 0, outOfBounds()
			}
			if src[index] != line.Text {
				return nil, 0, contextMismatch()
			}
			if line.Kind == Context {
				dst = append(dst, src[index])
			}
			index++
		}
	}
	return dst, index, nil
}
