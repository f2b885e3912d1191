package patch

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	sgdiff "github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

var lineHeaderExpr = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// LinePatch is a parsed line-addressed patch for a single file.
type LinePatch struct {
	Hunks []Hunk
	// NoTrailingNewline is set by "\ No newline at end of file" following an added line.
	NoTrailingNewline bool
}

// ParseLineAddressed parses "@@ -a,b +c,d @@" hunks. File identity lines
// (diff, index, ---, +++) are ignored.
func ParseLineAddressed(patchText string) (*LinePatch, error) {
	result := &LinePatch{}
	lines := strings.Split(strings.ReplaceAll(patchText, "\r\n", "\n"), "\n")
	current := -1
	var last LineKind = -1
	for i, line := range lines {
		if line == "" && i == len(lines)-1 {
			continue
		}
		if isFileIdentityLine(line) {
			continue
		}
		if match := lineHeaderExpr.FindStringSubmatch(line); match != nil {
			start, _ := strconv.Atoi(match[1])
			result.Hunks = append(result.Hunks, Hunk{Header: line, OrigStart: insertionStart(start, match[2] == "0")})
			current = len(result.Hunks) - 1
			last = -1
			continue
		}
		if strings.HasPrefix(line, `\ No newline at end of file`) {
			if last == Add {
				result.NoTrailingNewline = true
			}
			continue
		}
		if current < 0 {
			return nil, malformed("missing hunk header. Example:\n@@ -0,0 +1,1 @@\n+// line 1")
		}
		changeLine, err := parseChangeLine(line)
		if err != nil {
			return nil, err
		}
		result.Hunks[current].Lines = append(result.Hunks[current].Lines, changeLine)
		last = changeLine.Kind
	}
	return result, nil
}

// insertionStart converts a declared old start line to the line a hunk is
// applied at. A zero-length old range names the line after which to insert.
func insertionStart(start int, empty bool) int {
	if empty {
		return start + 1
	}
	return start
}

func isFileIdentityLine(line string) bool {
	for _, prefix := range []string{"diff ", "index ", "--- ", "+++ "} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// ApplyLineHunks applies hunks at their declared old-file line numbers. Hunks
// must be in non-decreasing, non-overlapping order; lines between hunks are
// copied verbatim.
func ApplyLineHunks(lines []string, hunks []Hunk) ([]string, error) {
	var output []string
	cursor := 0
	for i := range hunks {
		target := hunks[i].OrigStart - 1
		if target < 0 {
			target = 0
		}
		if cursor > target {
			return nil, overlap()
		}
		if cursor < target {
			if cursor < len(lines) {
				output = append(output, lines[cursor:min(target, len(lines))]...)
			}
			cursor = target
		}
		var err error
		if output, cursor, err = splice(output, lines, cursor, &hunks[i]); err != nil {
			return nil, err
		}
	}
	if cursor < len(lines) {
		output = append(output, lines[cursor:]...)
	}
	return output, nil
}

// ApplyLinePatch applies a line-addressed patch to content.
func ApplyLinePatch(content string, patch *LinePatch) (string, error) {
	text := SplitText(content)
	lines, err := ApplyLineHunks(text.Lines, patch.Hunks)
	if err != nil {
		return "", err
	}
	return text.Join(lines, text.TrailingNewline && !patch.NoTrailingNewline), nil
}

// FileDiff is one file section of a git or "diff -u" style multi-file patch.
type FileDiff struct {
	OrigPath string
	NewPath  string
	Patch    *LinePatch
}

// IsAdd reports whether the diff creates NewPath.
func (d *FileDiff) IsAdd() bool { return d.OrigPath == "" }

// IsDelete reports whether the diff removes OrigPath.
func (d *FileDiff) IsDelete() bool { return d.NewPath == "" }

// NewFileContent returns the content of a created file.
func (d *FileDiff) NewFileContent() (string, error) {
	lines, err := ApplyLineHunks(nil, d.Patch.Hunks)
	if err != nil {
		return "", err
	}
	text := &Text{EOL: "\n"}
	return text.Join(lines, len(lines) > 0 && !d.Patch.NoTrailingNewline), nil
}

// ParseUnified parses a multi-file unified diff with github.com/sourcegraph/go-diff.
func ParseUnified(patchText string) ([]*FileDiff, error) {
	fileDiffs, err := sgdiff.ParseMultiFileDiff([]byte(patchText))
	if err != nil {
		return nil, malformed("unable to parse unified diff: %v.", err)
	}
	if len(fileDiffs) == 0 {
		return nil, malformed("unified diff contains no files.")
	}
	var result []*FileDiff
	for _, fd := range fileDiffs {
		diff := &FileDiff{
			OrigPath: diffPath(fd.OrigName, "a/"),
			NewPath:  diffPath(fd.NewName, "b/"),
			Patch:    &LinePatch{},
		}
		if diff.OrigPath == "" && diff.NewPath == "" {
			return nil, malformed("missing file name in unified diff header.")
		}
		for _, h := range fd.Hunks {
			hunk, noTrailingNewline, err := convertHunk(h)
			if err != nil {
				return nil, err
			}
			diff.Patch.Hunks = append(diff.Patch.Hunks, hunk)
			if noTrailingNewline {
				diff.Patch.NoTrailingNewline = true
			}
		}
		result = append(result, diff)
	}
	return result, nil
}

func diffPath(name, prefix string) string {
	name = strings.TrimSpace(name)
	if name == devNull {
		return ""
	}
	return strings.TrimPrefix(name, prefix)
}

// convertHunk converts a go-diff hunk. go-diff drops the newline preceding a
// "\ No newline at end of file" marker that follows a new side line, so a body
// without a final newline means the new file has none.
func convertHunk(h *sgdiff.Hunk) (Hunk, bool, error) {
	hunk := Hunk{Header: strings.TrimSpace(h.Section), OrigStart: insertionStart(int(h.OrigStartLine), h.OrigLines == 0)}
	if len(h.Body) == 0 {
		return hunk, false, nil
	}
	noTrailingNewline := !bytes.HasSuffix(h.Body, []byte("\n"))
	body := bytes.TrimSuffix(h.Body, []byte("\n"))
	for _, line := range strings.Split(string(body), "\n") {
		changeLine, err := parseChangeLine(line)
		if err != nil {
			return hunk, false, err
		}
		hunk.Lines = append(hunk.Lines, changeLine)
	}
	return hunk, noTrailingNewline, nil
}
