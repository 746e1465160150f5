// Package version provides build-time metadata for the avionix binary and
// checks the version of the helm client it drives.
// Version, GitCommit, and BuildDate are injected at compile time via -ldflags.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SupportedHelm is the range of helm client versions whose CLI flags the
// orchestrator relies on.
const SupportedHelm = ">= 3.8.0-0"

// Build-time values injected via -ldflags.
var (
	version   = "dev"
	gitCommit = "none"
	buildDate = "unknown"
)

// Info holds the build metadata for the binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
	// HelmVersion is the helm client version, when it was queried.
	HelmVersion string `json:"helmVersion,omitempty"`
}

// GetInfo returns the current build information.
func GetInfo() Info {
	return Info{
		Version:   version,
		GitCommit: shortCommit(gitCommit),
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable single-line version string.
func (i Info) String() string {
	s := fmt.Sprintf("avionix %s (commit: %s, built: %s, %s %s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
	if i.HelmVersion != "" {
		s += ", helm " + i.HelmVersion
	}

	return s
}

// JSON returns the version info as indented JSON.
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling version info: %w", err)
	}

	return string(data), nil
}

// shortCommit truncates a commit SHA to 7 characters.
func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}

	return commit
}

// ParseHelm extracts the client version from "helm version --short"
// output, e.g. "v3.20.0+g1234567".
func ParseHelm(output string) (*semver.Version, error) {
	raw := strings.TrimSpace(output)
	if i := strings.IndexAny(raw, " \n"); i >= 0 {
		raw = raw[:i]
	}

	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing helm version %q: %w", strings.TrimSpace(output), err)
	}

	return v, nil
}

// CheckHelm reports an error when v is outside SupportedHelm.
func CheckHelm(v *semver.Version) error {
	c, err := semver.NewConstraint(SupportedHelm)
	if err != nil {
		return fmt.Errorf("parsing supported helm range: %w", err)
	}

	if !c.Check(v) {
		return fmt.Errorf("helm %s is not supported (need %s)", v, SupportedHelm)
	}

	return nil
}
