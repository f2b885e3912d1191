package main

import (
	"fmt"
	"path"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"github.com/viant/afs"
)

func newDiffCmd() *cobra.Command {
	var contextLines int
	var name string
	var stat bool
	cmd := &cobra.Command{
		Use:   "diff BEFORE_URL AFTER_URL",
		Short: "Print a unified diff between two files, suitable for apply-unified-diff",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afs.New()
			before, err := fs.DownloadWithURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			after, err := fs.DownloadWithURL(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if name == "" {
				name = path.Base(args[1])
			}
			text, stats, err := generateDiff(string(before), string(after), name, contextLines)
			if err != nil {
				return err
			}
			if _, err = fmt.Fprint(cmd.OutOrStdout(), text); err != nil {
				return err
			}
			if stat {
				_, err = fmt.Fprintf(cmd.ErrOrStderr(), "%s | %d insertions(+), %d deletions(-)\n", name, stats.Added, stats.Removed)
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&contextLines, "context", "U", 3, "number of context lines")
	cmd.Flags().StringVarP(&name, "name", "n", "", "path written to the diff headers (default: base name of AFTER_URL)")
	cmd.Flags().BoolVar(&stat, "stat", false, "print added and removed line counts to stderr")
	return cmd
}

// diffStats counts changed lines of a generated diff.
type diffStats struct {
	Added   int
	Removed int
}

// generateDiff renders a git style unified diff of one file that
// apply-unified-diff accepts. Identical content yields an empty diff.
func generateDiff(before, after, name string, contextLines int) (string, diffStats, error) {
	if contextLines < 0 {
		contextLines = 3
	}
	if before == after {
		return "", diffStats{}, nil
	}
	a, b := difflib.SplitLines(before), difflib.SplitLines(after)
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  contextLines,
	})
	if err != nil {
		return "", diffStats{}, err
	}
	var stats diffStats
	for _, code := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch code.Tag {
		case 'r':
			stats.Removed += code.I2 - code.I1
			stats.Added += code.J2 - code.J1
		case 'd':
			stats.Removed += code.I2 - code.I1
		case 'i':
			stats.Added += code.J2 - code.J1
		}
	}
	return fmt.Sprintf("diff --git a/%s b/%s\n%s", name, name, text), stats, nil
}
