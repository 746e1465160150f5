package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmonroy/avionix/internal/version"
)

func newVersionCommand() *cobra.Command {
	var (
		jsonOutput bool
		checkHelm  bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Display the version, git commit, build date, Go version, and platform.

With --helm the helm client is queried as well and its version is checked
against the supported range.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetInfo()

			if checkHelm {
				ctx := cmd.Context()

				out, err := newOrchestrator(ctx, false).ClientVersion(ctx)
				if err != nil {
					return classify(err)
				}

				v, err := version.ParseHelm(out)
				if err != nil {
					return &ExitError{Code: exitRuntime, Err: err}
				}

				info.HelmVersion = v.String()

				if err := version.CheckHelm(v); err != nil {
					return &ExitError{Code: exitRuntime, Err: err}
				}
			}

			if jsonOutput {
				j, err := info.JSON()
				if err != nil {
					return err
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), j)

				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())

			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output version info as JSON")
	cmd.Flags().BoolVar(&checkHelm, "helm", false, "also report and check the helm client version")

	return cmd
}
