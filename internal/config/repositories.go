package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"

	sigsyaml "sigs.k8s.io/yaml"
)

// Repository is a chart repository registered with "helm repo add" before
// dependencies are fetched. Charts refer to it as "@<name>".
type Repository struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RepositoryConfig holds the repositories section of the config file
// (.avionix.yaml).
type RepositoryConfig struct {
	Repositories []Repository `json:"repositories,omitempty"`
}

// repoNamePattern matches names helm accepts for local repositories.
var repoNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ParseRepositories parses the repositories section from raw config file
// bytes.
func ParseRepositories(data []byte) (*RepositoryConfig, error) {
	var cfg RepositoryConfig

	if err := sigsyaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing repositories: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadRepositories reads the repositories section of the config file at
// path. An empty path yields an empty config.
func LoadRepositories(path string) (*RepositoryConfig, error) {
	if path == "" {
		return &RepositoryConfig{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is the resolved config file
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	return ParseRepositories(data)
}

// Validate checks the repository config for correctness.
func (c *RepositoryConfig) Validate() error {
	seen := make(map[string]bool, len(c.Repositories))

	for i, r := range c.Repositories {
		if r.Name == "" {
			return fmt.Errorf("repositories[%d]: name is required", i)
		}

		if !repoNamePattern.MatchString(r.Name) {
			return fmt.Errorf("repositories[%d]: name %q is invalid (must match %s)", i, r.Name, repoNamePattern.String())
		}

		if seen[r.Name] {
			return fmt.Errorf("repositories[%d]: duplicate name %q", i, r.Name)
		}

		seen[r.Name] = true

		u, err := url.Parse(r.URL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("repositories[%d]: url %q is not an absolute URL", i, r.URL)
		}

		switch u.Scheme {
		case "http", "https":
		default:
			return fmt.Errorf("repositories[%d]: url %q must use http or https", i, r.URL)
		}
	}

	return nil
}

// IsEmpty returns true if no repositories are configured.
func (c *RepositoryConfig) IsEmpty() bool {
	return len(c.Repositories) == 0
}
