package chart

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"helm.sh/helm/v3/pkg/chart"
	helmloader "helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/engine"
)

// Load reads a chart directory the way Helm does.
func Load(dir string) (*chart.Chart, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("chart directory %q: %w", dir, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("chart reference %q is not a directory", dir)
	}

	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
		return nil, fmt.Errorf("chart directory %q has no %s: %w", dir, ManifestFile, err)
	}

	ch, err := helmloader.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading chart from %q: %w", dir, err)
	}

	return ch, nil
}

// RenderOptions configures RenderManifests.
type RenderOptions struct {
	ReleaseName string
	Namespace   string
}

// RenderManifests runs ch through Helm's template engine and returns the
// manifests Helm would send to the cluster, one document per template in
// template path order.
func RenderManifests(ctx context.Context, ch *chart.Chart, opts RenderOptions) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("rendering cancelled: %w", ctx.Err())
	default:
	}

	rendered, err := renderTemplates(ch, opts)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(rendered))
	for k := range rendered {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var buf bytes.Buffer

	for _, k := range keys {
		content := strings.TrimSpace(rendered[k])
		if content == "" || strings.HasSuffix(k, "NOTES.txt") {
			continue
		}

		if buf.Len() > 0 {
			buf.WriteString("---\n")
		}

		buf.WriteString(content)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// Lint loads the chart in dir and renders it. It reports templates whose
// rendered output differs from their file content, and vendored
// dependencies that do not satisfy their declared constraint. Charts
// assembled by this package contain no template actions, so a rendering
// difference means a template was edited by hand or escaping failed.
func Lint(ctx context.Context, dir string) ([]string, error) {
	ch, err := Load(dir)
	if err != nil {
		return nil, err
	}

	if err := ch.Validate(); err != nil {
		return nil, fmt.Errorf("validating chart %q: %w", dir, err)
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("lint cancelled: %w", ctx.Err())
	default:
	}

	rendered, err := renderTemplates(ch, RenderOptions{ReleaseName: "lint"})
	if err != nil {
		return nil, err
	}

	var problems []string

	for _, t := range ch.Templates {
		key := filepath.ToSlash(filepath.Join(ch.Name(), t.Name))

		src, err := unescapeTemplateActions(t.Data)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", t.Name, err))

			continue
		}

		if out, ok := rendered[key]; ok && out != src {
			problems = append(problems, fmt.Sprintf("%s: rendered output differs from template content", t.Name))
		}
	}

	for _, d := range CheckDependencies(ch, slog.New(slog.DiscardHandler)) {
		if d.State == DependencyMismatch {
			problems = append(problems, fmt.Sprintf("dependency %s: vendored version %s does not satisfy %q", d.Name, d.Actual, d.Constraint))
		}
	}

	sort.Strings(problems)

	return problems, nil
}

func renderTemplates(ch *chart.Chart, opts RenderOptions) (map[string]string, error) {
	if opts.ReleaseName == "" {
		opts.ReleaseName = "release"
	}

	if opts.Namespace == "" {
		opts.Namespace = "default"
	}

	vals, err := chartutil.ToRenderValues(ch, map[string]interface{}{}, chartutil.ReleaseOptions{
		Name:      opts.ReleaseName,
		Namespace: opts.Namespace,
		Revision:  1,
		IsInstall: true,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("preparing render values: %w", err)
	}

	eng := engine.Engine{Strict: true}

	rendered, err := eng.Render(ch, vals)
	if err != nil {
		return nil, fmt.Errorf("rendering templates: %w", err)
	}

	return rendered, nil
}

// unescapeTemplateActions reverses escapeTemplateActions.
func unescapeTemplateActions(b []byte) (string, error) {
	s := strings.ReplaceAll(string(b), `{{ "{{" }}`, "{{")
	if strings.Count(s, "{{") != strings.Count(string(b), `{{ "{{" }}`) {
		return "", fmt.Errorf("template contains unescaped actions")
	}

	return s, nil
}
