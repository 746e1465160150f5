package cli

import (
	"context"
	"errors"
	"strings"

	helmchart "helm.sh/helm/v3/pkg/chart"

	"github.com/dmonroy/avionix/internal/chart"
	"github.com/dmonroy/avionix/internal/cluster"
	"github.com/dmonroy/avionix/internal/config"
	"github.com/dmonroy/avionix/internal/helm"
	"github.com/dmonroy/avionix/internal/logging"
)

// newRunner creates the runner used for helm and kubectl. Tests replace it.
var newRunner = func() helm.Runner { return helm.ExecRunner{} }

// newOrchestrator builds a helm orchestrator from the configuration in ctx.
func newOrchestrator(ctx context.Context, createNamespace bool) *helm.Orchestrator {
	cfg := config.FromContext(ctx)

	return helm.New(newRunner(),
		helm.WithBinary(cfg.HelmBinary),
		helm.WithKubeContext(cfg.KubeContext),
		helm.WithWait(cfg.Wait),
		helm.WithTimeout(cfg.Timeout),
		helm.WithCreateNamespace(createNamespace),
		helm.WithLogger(logging.FromContext(ctx)),
	)
}

// newClusterClient builds a kubectl client from the configuration in ctx.
func newClusterClient(ctx context.Context) *cluster.Client {
	cfg := config.FromContext(ctx)

	return &cluster.Client{
		Runner:      newRunner(),
		Binary:      cfg.KubectlBinary,
		KubeContext: cfg.KubeContext,
		Logger:      logging.FromContext(ctx),
	}
}

// classify maps an error onto the process exit code contract: invalid input
// is a usage error, a tool that ran and failed is a cluster error, anything
// else is a runtime error.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var (
		exitErr  *ExitError
		cfgErr   *chart.ConfigurationError
		queryErr *cluster.QueryError
	)

	switch {
	case errors.As(err, &exitErr):
		return err
	case errors.Is(err, helm.ErrInvalidRelease), errors.As(err, &cfgErr):
		return &ExitError{Code: exitUsage, Err: err}
	case helm.IsOperationFailure(err), errors.As(err, &queryErr):
		return &ExitError{Code: exitCluster, Err: err}
	default:
		return &ExitError{Code: exitRuntime, Err: err}
	}
}

// prepareDependencies registers the configured repositories and the
// repositories of http(s) dependencies, then fetches the dependencies of
// the chart in chartDir. Charts without dependencies are left alone.
func prepareDependencies(ctx context.Context, o *helm.Orchestrator, chartDir string, deps []*helmchart.Dependency) error {
	if len(deps) == 0 {
		return nil
	}

	repos, err := config.LoadRepositories(config.ConfigFileFromContext(ctx))
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	for _, r := range repos.Repositories {
		if err := o.RepoAdd(ctx, r.Name, r.URL); err != nil {
			return err
		}
	}

	for _, d := range deps {
		if !isHTTPRepository(d.Repository) {
			continue
		}

		if err := o.RepoAdd(ctx, d.Name, d.Repository); err != nil {
			return err
		}
	}

	return o.DependencyUpdate(ctx, chartDir)
}

// loadChart loads a chart directory given on the command line; failures
// are usage errors.
func loadChart(dir string) (*helmchart.Chart, error) {
	ch, err := chart.Load(dir)
	if err != nil {
		return nil, &ExitError{Code: exitUsage, Err: err}
	}

	return ch, nil
}

func isHTTPRepository(repo string) bool {
	return strings.HasPrefix(repo, "http://") || strings.HasPrefix(repo, "https://")
}
