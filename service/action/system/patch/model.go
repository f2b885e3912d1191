package patch

import "strings"

// LineKind classifies a hunk line.
type LineKind int

const (
	// Context must match the current line, which is kept.
	Context LineKind = iota
	// Add is inserted without being matched.
	Add
	// Remove must match the current line, which is dropped.
	Remove
)

// ChangeLine is a single typed hunk line without its prefix.
type ChangeLine struct {
	Kind LineKind
	Text string
}

// Hunk is an ordered block of change lines. OrigStart is the declared 1-based
// old-file line for line-addressed hunks and zero for context-search hunks.
type Hunk struct {
	Header    string
	OrigStart int
	Lines     []ChangeLine
}

// pattern returns the context and remove lines a hunk must match, in order.
func (h *Hunk) pattern() []string {
	var result []string
	for _, line := range h.Lines {
		if line.Kind != Add {
			result = append(result, line.Text)
		}
	}
	return result
}

// Directive is one top-level envelope instruction: *AddFile, *DeleteFile or *UpdateFile.
type Directive interface {
	directive()
	// Target returns the path the directive reads from or writes to.
	Target() string
}

// AddFile operation (*** Add File: path).
type AddFile struct {
	Path  string
	Lines []string
}

func (*AddFile) directive()       {}
func (d *AddFile) Target() string { return d.Path }

// Content returns the new file body terminated with a newline.
func (d *AddFile) Content() string {
	return strings.Join(d.Lines, "\n") + "\n"
}

// DeleteFile operation (*** Delete File: path).
type DeleteFile struct {
	Path string
}

func (*DeleteFile) directive()       {}
func (d *DeleteFile) Target() string { return d.Path }

// UpdateFile operation (*** Update File: path), optionally followed by *** Move to: path.
type UpdateFile struct {
	Path              string
	MoveTo            string
	Hunks             []Hunk
	NoTrailingNewline bool
}

func (*UpdateFile) directive()       {}
func (d *UpdateFile) Target() string { return d.Path }

// Destination returns the path updated content is written to.
func (d *UpdateFile) Destination() string {
	if d.MoveTo != "" {
		return d.MoveTo
	}
	return d.Path
}

// Envelope is a parsed patch submission.
type Envelope struct {
	Directives []Directive
}

// Paths returns every path touched by the envelope, in directive order.
func (e *Envelope) Paths() []string {
	var result []string
	for _, d := range e.Directives {
		result = append(result, d.Target())
		if u, ok := d.(*UpdateFile); ok && u.MoveTo != "" {
			result = append(result, u.MoveTo)
		}
	}
	return result
}
