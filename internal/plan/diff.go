package plan

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// contextLines is the number of unchanged lines shown around each hunk.
const contextLines = 3

// FileDiff is the unified diff between two versions of one chart file.
type FileDiff struct {
	Unified string `json:"unified"`
	// Added and Removed count changed lines.
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Empty reports whether both versions were identical.
func (d *FileDiff) Empty() bool {
	return d == nil || d.Unified == ""
}

// Stat renders the line counts the way "git diff --stat" summarizes them.
func (d *FileDiff) Stat() string {
	return fmt.Sprintf("+%d -%d", d.Added, d.Removed)
}

// Diff compares two versions of a chart file. The labels name the two
// sides in the diff header.
func Diff(oldLabel, newLabel, oldText, newText string) (*FileDiff, error) {
	a := splitLines(oldText)
	b := splitLines(newText)

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: oldLabel,
		ToFile:   newLabel,
		Context:  contextLines,
	})
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}

	d := &FileDiff{Unified: unified}
	if unified == "" {
		return d, nil
	}

	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'r':
			d.Removed += op.I2 - op.I1
			d.Added += op.J2 - op.J1
		case 'd':
			d.Removed += op.I2 - op.I1
		case 'i':
			d.Added += op.J2 - op.J1
		}
	}

	return d, nil
}

// WriteDiff writes d, with ANSI colors when color is set.
func WriteDiff(w io.Writer, d *FileDiff, color bool) {
	if d.Empty() {
		_, _ = fmt.Fprintln(w, "No differences found.")
		return
	}

	for _, line := range strings.Split(strings.TrimSuffix(d.Unified, "\n"), "\n") {
		if color {
			line = colorize(line)
		}

		_, _ = fmt.Fprintln(w, line)
	}
}

func colorize(line string) string {
	const (
		red   = "\033[31m"
		green = "\033[32m"
		cyan  = "\033[36m"
		bold  = "\033[1m"
		reset = "\033[0m"
	)

	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		return bold + line + reset
	case strings.HasPrefix(line, "@@"):
		return cyan + line + reset
	case strings.HasPrefix(line, "-"):
		return red + line + reset
	case strings.HasPrefix(line, "+"):
		return green + line + reset
	default:
		return line
	}
}

// splitLines keeps line terminators, which difflib expects. Empty text is
// no lines at all so that a new file diffs as pure additions.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}
