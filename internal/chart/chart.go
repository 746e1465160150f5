// Package chart assembles typed Kubernetes objects into a Helm chart: a
// Chart.yaml manifest plus one template document per object.
//
// Assembly is pure. Every check (metadata, object names, template name
// collisions) runs before anything touches the filesystem, so an invalid
// descriptor never leaves a partially written chart behind.
package chart

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"k8s.io/apimachinery/pkg/api/validation/path"

	"github.com/dmonroy/avionix/internal/output"
	"github.com/dmonroy/avionix/pkg/document"
	"github.com/dmonroy/avionix/pkg/entity"
)

const (
	// ManifestFile is the name of the chart manifest.
	ManifestFile = "Chart.yaml"
	// TemplatesDir is the directory holding one document per object.
	TemplatesDir = "templates"
)

// Descriptor is the deployable unit: chart metadata plus the objects that
// become its templates, in order.
type Descriptor struct {
	Metadata Metadata
	Objects  []entity.Object
}

// Layout is an assembled chart held in memory.
type Layout struct {
	// Name is the chart name and the directory the chart is written to.
	Name string
	// Manifest is the content of Chart.yaml.
	Manifest []byte
	// Templates holds one rendered document per object, in object order.
	// Paths are relative to the templates directory.
	Templates []output.File
	// Dependencies are carried over from the descriptor metadata.
	Dependencies []Dependency
}

// TemplateName returns the template file name for an object of the given
// kind and name.
func TemplateName(kind, name string) string {
	return strings.ToLower(kind) + "-" + name + ".yaml"
}

// Assemble validates d and renders it into a Layout.
func Assemble(d Descriptor) (*Layout, error) {
	if err := d.Metadata.Validate(); err != nil {
		return nil, err
	}

	names, err := templateNames(d.Objects)
	if err != nil {
		return nil, err
	}

	manifest, err := d.Metadata.manifest()
	if err != nil {
		return nil, err
	}

	layout := &Layout{
		Name:         d.Metadata.Name,
		Manifest:     manifest,
		Templates:    make([]output.File, 0, len(d.Objects)),
		Dependencies: d.Metadata.Dependencies,
	}

	for i, obj := range d.Objects {
		data, err := Render(obj)
		if err != nil {
			return nil, fmt.Errorf("rendering objects[%d] (%s): %w", i, names[i], err)
		}

		layout.Templates = append(layout.Templates, output.File{Path: names[i], Data: data})
	}

	return layout, nil
}

// templateNames resolves the template file name of every object and
// rejects empty identifiers, unsafe names and collisions.
func templateNames(objects []entity.Object) ([]string, error) {
	names := make([]string, len(objects))
	seen := make(map[string]int, len(objects))

	for i, obj := range objects {
		subject := fmt.Sprintf("objects[%d]", i)

		if entity.IsNil(obj) {
			return nil, configErr(subject, "object is nil", nil)
		}

		kind, name := obj.Kind(), obj.ObjectName()

		if kind == "" {
			return nil, configErr(subject, "object kind is required", nil)
		}

		if problems := path.IsValidPathSegmentName(kind); len(problems) > 0 {
			return nil, configErr(subject, fmt.Sprintf("kind %q: %s", kind, strings.Join(problems, "; ")), nil)
		}

		if name == "" {
			return nil, configErr(subject, fmt.Sprintf("%s has no metadata.name", kind), nil)
		}

		if problems := path.IsValidPathSegmentName(name); len(problems) > 0 {
			return nil, configErr(subject, fmt.Sprintf("%s name %q: %s", kind, name, strings.Join(problems, "; ")), nil)
		}

		file := TemplateName(kind, name)

		if prev, dup := seen[file]; dup {
			return nil, configErr(subject,
				fmt.Sprintf("%s/%s resolves to template %q already used by objects[%d]", kind, name, file, prev), nil)
		}

		seen[file] = i
		names[i] = file
	}

	return names, nil
}

// Render serializes one object into its template document.
func Render(obj entity.Object) ([]byte, error) {
	m, err := entity.Serialize(obj)
	if err != nil {
		return nil, err
	}

	out, err := document.Emit(m)
	if err != nil {
		return nil, err
	}

	return escapeTemplateActions(out), nil
}

// escapeTemplateActions keeps Helm's template engine from interpreting
// "{{" that occurs in object data.
func escapeTemplateActions(b []byte) []byte {
	s := string(b)
	if !strings.Contains(s, "{{") {
		return b
	}

	return []byte(strings.ReplaceAll(s, "{{", `{{ "{{" }}`))
}

// Files lists the chart's files relative to the chart directory: the
// manifest first, then the templates in object order.
func (l *Layout) Files() []output.File {
	files := make([]output.File, 0, len(l.Templates)+1)
	files = append(files, output.File{Path: ManifestFile, Data: l.Manifest})

	for _, t := range l.Templates {
		files = append(files, output.File{Path: filepath.Join(TemplatesDir, t.Path), Data: t.Data})
	}

	return files
}

// HasRemoteDependencies reports whether any dependency must be fetched
// from a repository before installation.
func (l *Layout) HasRemoteDependencies() bool {
	for _, d := range l.Dependencies {
		if !d.IsLocal() {
			return true
		}
	}

	return false
}

// Write writes the chart to <dir>/<name>, replacing any templates left by an
// earlier build, and returns the chart directory.
func (l *Layout) Write(dir string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	chartDir := filepath.Join(dir, l.Name)
	tw := output.NewTreeWriter(chartDir, output.WithLogger(logger))

	if err := tw.Replace(TemplatesDir); err != nil {
		return "", fmt.Errorf("clearing templates of %s: %w", chartDir, err)
	}

	if err := tw.WriteFiles(l.Files()); err != nil {
		return "", fmt.Errorf("writing chart %s: %w", l.Name, err)
	}

	logger.Info("chart written",
		slog.String("chart", l.Name),
		slog.String("path", chartDir),
		slog.Int("templates", len(l.Templates)),
	)

	return chartDir, nil
}
