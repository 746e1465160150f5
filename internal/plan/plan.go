package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmonroy/avionix/internal/chart"
)

// ChangeType represents the type of change detected.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// FileChange is one chart file that a rebuild would add, remove or modify.
type FileChange struct {
	Type ChangeType `json:"type"`
	// Path is relative to the chart directory.
	Path string    `json:"path"`
	Diff *FileDiff `json:"diff,omitempty"`
}

// Plan lists what writing a layout would change on disk.
type Plan struct {
	Chart   string       `json:"chart"`
	Dir     string       `json:"dir"`
	Changes []FileChange `json:"changes"`
}

// HasChanges reports whether writing the layout would change anything.
func (p *Plan) HasChanges() bool {
	return len(p.Changes) > 0
}

// Counts returns the number of changes of each type.
func (p *Plan) Counts() (added, removed, modified int) {
	for _, c := range p.Changes {
		switch c.Type {
		case ChangeAdded:
			added++
		case ChangeRemoved:
			removed++
		case ChangeModified:
			modified++
		}
	}

	return
}

// DiffLayout compares layout with the chart already written to chartDir.
// A missing chartDir means every file is added. Template files on disk
// that the layout no longer produces are reported as removed, since
// Layout.Write replaces the templates directory.
func DiffLayout(layout *chart.Layout, chartDir string) (*Plan, error) {
	existing, err := readChart(chartDir)
	if err != nil {
		return nil, err
	}

	p := &Plan{Chart: layout.Name, Dir: chartDir}
	produced := make(map[string]bool)

	for _, f := range layout.Files() {
		rel := filepath.ToSlash(f.Path)
		produced[rel] = true

		old, ok := existing[rel]
		if !ok {
			p.Changes = append(p.Changes, FileChange{Type: ChangeAdded, Path: rel})

			continue
		}

		if old == string(f.Data) {
			continue
		}

		d, err := Diff("a/"+rel, "b/"+rel, old, string(f.Data))
		if err != nil {
			return nil, fmt.Errorf("diffing %s: %w", rel, err)
		}

		p.Changes = append(p.Changes, FileChange{Type: ChangeModified, Path: rel, Diff: d})
	}

	for rel := range existing {
		if !produced[rel] && strings.HasPrefix(rel, chart.TemplatesDir+"/") {
			p.Changes = append(p.Changes, FileChange{Type: ChangeRemoved, Path: rel})
		}
	}

	sort.SliceStable(p.Changes, func(i, j int) bool {
		return p.Changes[i].Path < p.Changes[j].Path
	})

	return p, nil
}

// DiffDirs compares two chart directories file by file, treating oldDir
// as the baseline.
func DiffDirs(oldDir, newDir string) (*Plan, error) {
	oldFiles, err := readChart(oldDir)
	if err != nil {
		return nil, err
	}

	newFiles, err := readChart(newDir)
	if err != nil {
		return nil, err
	}

	if len(newFiles) == 0 {
		return nil, fmt.Errorf("%s contains no chart files", newDir)
	}

	p := &Plan{Chart: filepath.Base(newDir), Dir: newDir}

	for rel, data := range newFiles {
		old, ok := oldFiles[rel]
		if !ok {
			p.Changes = append(p.Changes, FileChange{Type: ChangeAdded, Path: rel})

			continue
		}

		if old == data {
			continue
		}

		d, err := Diff(
			filepath.ToSlash(filepath.Join(oldDir, rel)),
			filepath.ToSlash(filepath.Join(newDir, rel)),
			old, data)
		if err != nil {
			return nil, fmt.Errorf("diffing %s: %w", rel, err)
		}

		p.Changes = append(p.Changes, FileChange{Type: ChangeModified, Path: rel, Diff: d})
	}

	for rel := range oldFiles {
		if _, ok := newFiles[rel]; !ok {
			p.Changes = append(p.Changes, FileChange{Type: ChangeRemoved, Path: rel})
		}
	}

	sort.SliceStable(p.Changes, func(i, j int) bool {
		return p.Changes[i].Path < p.Changes[j].Path
	})

	return p, nil
}

// readChart loads the manifest and templates of the chart in dir, keyed by
// slash-separated relative path.
func readChart(dir string) (map[string]string, error) {
	files := make(map[string]string)

	manifest, err := os.ReadFile(filepath.Join(dir, chart.ManifestFile)) //nolint:gosec // chart directory from caller
	switch {
	case err == nil:
		files[chart.ManifestFile] = string(manifest)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("reading %s: %w", chart.ManifestFile, err)
	}

	tplDir := filepath.Join(dir, chart.TemplatesDir)

	entries, err := os.ReadDir(tplDir)
	if errors.Is(err, fs.ErrNotExist) {
		return files, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", tplDir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(tplDir, e.Name())) //nolint:gosec // chart directory from caller
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", e.Name(), err)
		}

		files[chart.TemplatesDir+"/"+e.Name()] = string(data)
	}

	return files, nil
}

// FormatPlan writes a human-readable plan to the given writer.
func FormatPlan(w io.Writer, p *Plan, color bool) {
	fmt.Fprintf(w, "Plan: %s (%s)\n", p.Chart, p.Dir)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	if !p.HasChanges() {
		fmt.Fprintln(w, "No changes detected.")

		return
	}

	for _, c := range p.Changes {
		if c.Diff != nil {
			fmt.Fprintf(w, "  %s%s (%s)\n", changeIcon(c.Type), c.Path, c.Diff.Stat())

			continue
		}

		fmt.Fprintf(w, "  %s%s\n", changeIcon(c.Type), c.Path)
	}

	for _, c := range p.Changes {
		if c.Diff == nil {
			continue
		}

		fmt.Fprintln(w)
		WriteDiff(w, c.Diff, color)
	}

	fmt.Fprintf(w, "\nSummary: %s\n", FormatCompactSummary(p))
}

// FormatPlanJSON writes the plan as JSON.
func FormatPlanJSON(w io.Writer, p *Plan) error {
	out := *p
	if out.Changes == nil {
		out.Changes = []FileChange{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

// FormatCompactSummary returns a single-line summary of the plan.
func FormatCompactSummary(p *Plan) string {
	if !p.HasChanges() {
		return "No changes detected."
	}

	added, removed, modified := p.Counts()

	var parts []string

	if added > 0 {
		parts = append(parts, fmt.Sprintf("%d files added", added))
	}

	if removed > 0 {
		parts = append(parts, fmt.Sprintf("%d files removed", removed))
	}

	if modified > 0 {
		parts = append(parts, fmt.Sprintf("%d files modified", modified))
	}

	return strings.Join(parts, ", ")
}

// changeIcon returns an icon/prefix for a change type.
func changeIcon(ct ChangeType) string {
	switch ct {
	case ChangeAdded:
		return "+ "
	case ChangeRemoved:
		return "- "
	case ChangeModified:
		return "~ "
	default:
		return "  "
	}
}
