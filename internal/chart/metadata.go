package chart

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"helm.sh/helm/v3/pkg/chart"
	"k8s.io/apimachinery/pkg/api/validation/path"
	sigsyaml "sigs.k8s.io/yaml"
)

// DefaultAPIVersion is the chart API version used when none is given.
const DefaultAPIVersion = chart.APIVersionV2

// Metadata is the content of Chart.yaml.
type Metadata struct {
	// APIVersion is the chart API version; defaults to "v2".
	APIVersion  string
	Name        string
	Version     string
	AppVersion  string
	Description string
	// Type is "application" (the default) or "library".
	Type         string
	Dependencies []Dependency
}

// Dependency is a chart this chart depends on.
type Dependency struct {
	Name string
	// Version is a SemVer constraint, e.g. "~1.2.0" or ">=2.0.0 <3.0.0".
	// Empty accepts any version.
	Version    string
	Repository string
	// RepositoryName is the local alias used with "helm repo add". When
	// empty the dependency name is used.
	RepositoryName string
	Condition      string
	Alias          string
}

// RepoName returns the name under which the dependency's repository is
// registered locally.
func (d Dependency) RepoName() string {
	if d.RepositoryName != "" {
		return d.RepositoryName
	}

	return d.Name
}

// IsLocal reports whether the dependency is vendored from a file path
// rather than fetched from a repository.
func (d Dependency) IsLocal() bool {
	return d.Repository == "" || strings.HasPrefix(d.Repository, "file://")
}

// Validate checks the metadata and returns a *ConfigurationError for the
// first problem found.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return configErr("metadata.name", "chart name is required", nil)
	}

	if problems := path.IsValidPathSegmentName(m.Name); len(problems) > 0 {
		return configErr("metadata.name", fmt.Sprintf("%q is not a valid path segment: %s", m.Name, strings.Join(problems, "; ")), nil)
	}

	if strings.ContainsAny(m.Name, `\ `) {
		return configErr("metadata.name", fmt.Sprintf("%q must not contain spaces or backslashes", m.Name), nil)
	}

	if _, err := semver.NewVersion(m.Version); err != nil {
		return configErr("metadata.version", fmt.Sprintf("%q is not a SemVer version", m.Version), err)
	}

	for i, d := range m.Dependencies {
		subject := fmt.Sprintf("metadata.dependencies[%d]", i)

		if d.Name == "" {
			return configErr(subject, "dependency name is required", nil)
		}

		if d.Version == "" {
			continue
		}

		if _, err := semver.NewConstraint(d.Version); err != nil {
			return configErr(subject, fmt.Sprintf("%q is not a SemVer constraint", d.Version), err)
		}
	}

	if err := m.helm().Validate(); err != nil {
		return configErr("metadata", "rejected by helm", err)
	}

	return nil
}

// helm converts m into Helm's own metadata type.
func (m Metadata) helm() *chart.Metadata {
	md := &chart.Metadata{
		APIVersion:  m.APIVersion,
		Name:        m.Name,
		Version:     m.Version,
		AppVersion:  m.AppVersion,
		Description: m.Description,
		Type:        m.Type,
	}

	if md.APIVersion == "" {
		md.APIVersion = DefaultAPIVersion
	}

	for _, d := range m.Dependencies {
		md.Dependencies = append(md.Dependencies, &chart.Dependency{
			Name:       d.Name,
			Version:    d.Version,
			Repository: d.Repository,
			Condition:  d.Condition,
			Alias:      d.Alias,
		})
	}

	return md
}

// manifest renders Chart.yaml.
func (m Metadata) manifest() ([]byte, error) {
	out, err := sigsyaml.Marshal(m.helm())
	if err != nil {
		return nil, fmt.Errorf("marshaling Chart.yaml: %w", err)
	}

	return out, nil
}
