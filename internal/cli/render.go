package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmonroy/avionix/internal/chart"
	"github.com/dmonroy/avionix/internal/config"
	"github.com/dmonroy/avionix/internal/logging"
	"github.com/dmonroy/avionix/internal/output"
)

type renderOptions struct {
	releaseOptions

	output string
}

func newRenderCommand() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <chart-dir>",
		Short: "Render a chart to the manifests helm would apply",
		Long: `Render runs the chart's templates through Helm's engine, as "helm
template" would, and prints the resulting manifests as one multi-document
YAML stream. Nothing is sent to the cluster.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ch, err := loadChart(args[0])
			if err != nil {
				return err
			}

			release := opts.release
			if release == "" {
				release = ch.Name()
			}

			out, err := chart.RenderManifests(ctx, ch, chart.RenderOptions{
				ReleaseName: release,
				Namespace:   config.FromContext(ctx).Namespace,
			})
			if err != nil {
				return classify(err)
			}

			var w output.Writer = output.NewStdoutWriter(cmd.OutOrStdout())
			if opts.output != "" {
				w = output.NewFileWriter(opts.output, output.WithLogger(logging.FromContext(ctx)))
			}

			if err := w.Write(out); err != nil {
				return &ExitError{Code: exitRuntime, Err: fmt.Errorf("writing manifests: %w", err)}
			}

			return nil
		},
	}

	registerReleaseFlag(cmd.Flags(), &opts.releaseOptions)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write manifests to this file instead of stdout")

	return cmd
}
