package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmonroy/avionix/internal/config"
	"github.com/dmonroy/avionix/internal/helm"
)

func newInstallCommand() *cobra.Command {
	opts := &releaseOptions{}

	cmd := &cobra.Command{
		Use:   "install <chart-dir>",
		Short: "Install a chart as a new release",
		Long: `Install runs "helm install" for the chart in <chart-dir>.

When the chart declares dependencies, the repositories listed in the
config file and those of http(s) dependencies are added first and
"helm dependency update" fetches them.

Exit codes:
  0  Installed
  1  Error
  2  Invalid arguments or chart
  3  helm reported a failure (its output is printed verbatim)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classify(runInstall(cmd.Context(), cmd, args[0], opts, false))
		},
	}

	registerInstallFlags(cmd.Flags(), opts)

	return cmd
}

func newUpgradeCommand() *cobra.Command {
	opts := &releaseOptions{}

	cmd := &cobra.Command{
		Use:   "upgrade <chart-dir>",
		Short: "Upgrade an installed release to the chart",
		Long: `Upgrade runs "helm upgrade" for the chart in <chart-dir>. The release
must already be installed. If the upgrade fails the release is left in
whatever state helm reached; check it with "avionix status".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classify(runInstall(cmd.Context(), cmd, args[0], opts, true))
		},
	}

	registerInstallFlags(cmd.Flags(), opts)

	return cmd
}

func runInstall(ctx context.Context, cmd *cobra.Command, chartDir string, opts *releaseOptions, upgrade bool) error {
	ch, err := loadChart(chartDir)
	if err != nil {
		return err
	}

	release := opts.release
	if release == "" {
		release = ch.Name()
	}

	namespace := config.FromContext(ctx).Namespace
	o := newOrchestrator(ctx, opts.createNamespace)

	if !opts.skipDeps {
		if err := prepareDependencies(ctx, o, chartDir, ch.Metadata.Dependencies); err != nil {
			return err
		}
	}

	verb := "installed"

	if upgrade {
		verb = "upgraded"
		err = o.Upgrade(ctx, chartDir, release, namespace)
	} else {
		err = o.Install(ctx, chartDir, release, namespace)
	}

	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "release %q %s in namespace %q\n", release, verb, namespace)

	return nil
}

func newRollbackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback <release> [revision]",
		Short: "Roll a release back to an earlier revision",
		Long: `Rollback runs "helm rollback". Without a revision the release returns
to its previous revision.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			revision := 0

			if len(args) == 2 {
				r, err := strconv.Atoi(args[1])
				if err != nil || r < 1 {
					return &ExitError{Code: exitUsage, Err: fmt.Errorf("invalid revision %q: must be a positive integer", args[1])}
				}

				revision = r
			}

			ctx := cmd.Context()
			namespace := config.FromContext(ctx).Namespace

			if err := newOrchestrator(ctx, false).Rollback(ctx, args[0], namespace, revision); err != nil {
				return classify(err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "release %q rolled back in namespace %q\n", args[0], namespace)

			return nil
		},
	}

	return cmd
}

func newUninstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall <release>",
		Short: "Uninstall a release",
		Long: `Uninstall runs "helm uninstall". A release that does not exist is
treated as already uninstalled, so the command can be repeated safely.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			namespace := config.FromContext(ctx).Namespace

			if err := newOrchestrator(ctx, false).Uninstall(ctx, args[0], namespace); err != nil {
				return classify(err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "release %q uninstalled from namespace %q\n", args[0], namespace)

			return nil
		},
	}

	return cmd
}

func newStatusCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <release>",
		Short: "Show the state of a release as the cluster reports it",
		Long: `Status queries helm for the release. A release that does not exist is
reported as ABSENT. Use it after an interrupted or failed operation, whose
outcome is otherwise unknown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			namespace := config.FromContext(ctx).Namespace

			st, err := newOrchestrator(ctx, false).Status(ctx, args[0], namespace)
			if err != nil {
				return classify(err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")

				return enc.Encode(st)
			}

			writeStatus(cmd.OutOrStdout(), st)

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func writeStatus(w io.Writer, st *helm.ReleaseStatus) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	_, _ = fmt.Fprintf(tw, "NAME:\t%s\n", st.Name)
	_, _ = fmt.Fprintf(tw, "NAMESPACE:\t%s\n", st.Namespace)
	_, _ = fmt.Fprintf(tw, "STATE:\t%s\n", st.State)

	if st.State == helm.StateAbsent && st.Status == "" {
		return
	}

	_, _ = fmt.Fprintf(tw, "STATUS:\t%s\n", st.Status)
	_, _ = fmt.Fprintf(tw, "REVISION:\t%d\n", st.Revision)

	if st.Chart != "" {
		_, _ = fmt.Fprintf(tw, "CHART:\t%s-%s\n", st.Chart, st.ChartVersion)
	}

	if st.AppVersion != "" {
		_, _ = fmt.Fprintf(tw, "APP VERSION:\t%s\n", st.AppVersion)
	}

	if !st.LastDeployed.IsZero() {
		_, _ = fmt.Fprintf(tw, "LAST DEPLOYED:\t%s\n", st.LastDeployed.Format(time.RFC1123))
	}

	if st.Description != "" {
		_, _ = fmt.Fprintf(tw, "DESCRIPTION:\t%s\n", st.Description)
	}
}
