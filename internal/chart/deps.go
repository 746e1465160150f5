package chart

import (
	"log/slog"

	"github.com/Masterminds/semver/v3"
	"helm.sh/helm/v3/pkg/chart"
)

// DependencyState is the resolution state of a declared dependency.
type DependencyState string

const (
	// DependencyVendored means a matching chart is present in charts/.
	DependencyVendored DependencyState = "vendored"
	// DependencyMissing means the dependency has not been fetched.
	DependencyMissing DependencyState = "missing"
	// DependencyMismatch means the vendored chart does not satisfy the
	// declared version constraint.
	DependencyMismatch DependencyState = "version-mismatch"
)

// DependencyStatus describes one declared dependency of a loaded chart.
type DependencyStatus struct {
	Name       string
	Constraint string
	Repository string
	State      DependencyState
	// Actual is the version found in charts/, if any.
	Actual string
}

// CheckDependencies compares the dependencies declared in Chart.yaml with
// the charts vendored under charts/, in declaration order.
func CheckDependencies(ch *chart.Chart, logger *slog.Logger) []DependencyStatus {
	if ch.Metadata == nil || len(ch.Metadata.Dependencies) == 0 {
		return nil
	}

	if logger == nil {
		logger = slog.Default()
	}

	vendored := make(map[string]*chart.Chart, len(ch.Dependencies()))
	for _, sub := range ch.Dependencies() {
		if sub.Metadata != nil {
			vendored[sub.Metadata.Name] = sub
		}
	}

	statuses := make([]DependencyStatus, 0, len(ch.Metadata.Dependencies))

	for _, dep := range ch.Metadata.Dependencies {
		st := DependencyStatus{
			Name:       dep.Name,
			Constraint: dep.Version,
			Repository: dep.Repository,
		}

		sub, ok := vendored[dep.Name]

		switch {
		case !ok:
			st.State = DependencyMissing

			logger.Debug("dependency not vendored",
				slog.String("dependency", dep.Name),
				slog.String("repository", dep.Repository),
			)
		case dep.Version != "" && !versionSatisfied(dep.Version, sub.Metadata.Version):
			st.State = DependencyMismatch
			st.Actual = sub.Metadata.Version

			logger.Warn("dependency version mismatch",
				slog.String("dependency", dep.Name),
				slog.String("expected", dep.Version),
				slog.String("actual", sub.Metadata.Version),
			)
		default:
			st.State = DependencyVendored
			st.Actual = sub.Metadata.Version
		}

		statuses = append(statuses, st)
	}

	return statuses
}

// versionSatisfied reports whether actual satisfies constraint. Unparseable
// input never satisfies.
func versionSatisfied(constraint, actual string) bool {
	if constraint == actual {
		return true
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false
	}

	v, err := semver.NewVersion(actual)
	if err != nil {
		return false
	}

	return c.Check(v)
}
