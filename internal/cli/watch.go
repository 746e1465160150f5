package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmonroy/avionix/internal/chart"
	"github.com/dmonroy/avionix/internal/config"
	"github.com/dmonroy/avionix/internal/helm"
	"github.com/dmonroy/avionix/internal/logging"
	"github.com/dmonroy/avionix/internal/watch"
)

type watchOptions struct {
	releaseOptions

	debounce time.Duration
	lint     bool
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <chart-dir>",
		Short: "Watch a chart and keep its release up to date",
		Long: `Watch monitors a chart directory and deploys it whenever its files
change. The first run installs the release if it is absent; later runs
upgrade it.

File changes are debounced to avoid rapid re-runs. With --lint (enabled by
default) a chart that fails lint is not deployed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classify(runWatch(cmd.Context(), cmd, args[0], opts))
		},
	}

	registerInstallFlags(cmd.Flags(), &opts.releaseOptions)

	f := cmd.Flags()
	f.DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "debounce interval for file changes")
	f.BoolVar(&opts.lint, "lint", true, "lint the chart before each deployment")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, chartDir string, opts *watchOptions) error {
	if _, err := loadChart(chartDir); err != nil {
		return err
	}

	namespace := config.FromContext(ctx).Namespace
	o := newOrchestrator(ctx, opts.createNamespace)

	runFn := func(fnCtx context.Context, _ []string) (*watch.RunResult, error) {
		return deployOnce(fnCtx, o, chartDir, namespace, opts)
	}

	return watch.Run(ctx, watch.Options{
		ChartDir: chartDir,
		Debounce: opts.debounce,
		Lint:     opts.lint,
		LintFn:   lintChart,
		Logger:   logging.FromContext(ctx),
		Out:      cmd.ErrOrStderr(),
	}, runFn)
}

// deployOnce installs the chart when its release is absent and upgrades it
// otherwise.
func deployOnce(ctx context.Context, o *helm.Orchestrator, chartDir, namespace string, opts *watchOptions) (*watch.RunResult, error) {
	ch, err := chart.Load(chartDir)
	if err != nil {
		return nil, err
	}

	release := opts.release
	if release == "" {
		release = ch.Name()
	}

	if !opts.skipDeps {
		if err := prepareDependencies(ctx, o, chartDir, ch.Metadata.Dependencies); err != nil {
			return nil, err
		}
	}

	st, err := o.Status(ctx, release, namespace)
	if err != nil {
		return nil, err
	}

	action := "upgraded"

	if st.State == helm.StateAbsent {
		action = "installed"
		err = o.Install(ctx, chartDir, release, namespace)
	} else {
		err = o.Upgrade(ctx, chartDir, release, namespace)
	}

	if err != nil {
		return nil, err
	}

	return &watch.RunResult{Action: action, Templates: len(ch.Templates)}, nil
}

func lintChart(ctx context.Context, chartDir string) error {
	problems, err := chart.Lint(ctx, chartDir)
	if err != nil {
		return err
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}

	return nil
}
