package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmonroy/avionix/internal/chart"
	"github.com/dmonroy/avionix/internal/logging"
)

func newLintCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <chart-dir>",
		Short: "Check that a chart renders its templates unchanged",
		Long: `Lint loads the chart in <chart-dir>, validates its Chart.yaml and renders
every template through Helm's engine. A template whose rendered output
differs from its source, such as one edited by hand to contain template
actions, is reported, as is a vendored dependency outside its declared
version range. Dependencies that have not been fetched yet are noted.

Exit codes:
  0  No problems
  1  Problems found
  2  Invalid arguments or chart`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			problems, err := chart.Lint(ctx, args[0])
			if err != nil {
				return &ExitError{Code: exitUsage, Err: err}
			}

			w := cmd.OutOrStdout()

			if ch, loadErr := chart.Load(args[0]); loadErr == nil {
				for _, d := range chart.CheckDependencies(ch, logging.FromContext(ctx)) {
					if d.State == chart.DependencyMissing {
						_, _ = fmt.Fprintf(w, "  note: dependency %s is not vendored; install fetches it\n", d.Name)
					}
				}
			}

			for _, p := range problems {
				_, _ = fmt.Fprintf(w, "  - %s\n", p)
			}

			if len(problems) > 0 {
				return &ExitError{Code: exitRuntime, Err: fmt.Errorf("%d problem(s) found in %s", len(problems), args[0])}
			}

			_, _ = fmt.Fprintf(w, "%s: OK\n", args[0])

			return nil
		},
	}

	return cmd
}
