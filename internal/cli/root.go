// Package cli implements the cobra command tree for avionix.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmonroy/avionix/internal/config"
	"github.com/dmonroy/avionix/internal/logging"
)

// Process exit codes.
const (
	exitRuntime = 1
	exitUsage   = 2
	exitCluster = 3
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return exitRuntime
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "avionix",
		Short: "Build Helm charts from typed Kubernetes objects and manage their releases",
		Long: `avionix works with Helm charts assembled from typed Kubernetes objects:
one Chart.yaml plus one template per object.

It lints and renders those charts, previews what a rebuild changes, and
drives the helm CLI through a release's lifecycle: install, upgrade,
rollback, status and uninstall. Uninstalling a release that is already
gone succeeds, so teardown can always be retried.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: exitUsage, Err: err}
			}

			logger := logging.Setup(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = config.NewContextWithConfigFile(ctx, cfg.ConfigFile)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("helmBinary", cfg.HelmBinary),
				slog.String("namespace", cfg.Namespace),
				slog.String("configFile", cfg.ConfigFile),
			)

			return nil
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .avionix.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.String("helm-binary", config.DefaultHelmBinary, "helm executable")
	pf.String("kubectl-binary", config.DefaultKubectlBinary, "kubectl executable")
	pf.String("kube-context", "", "kubeconfig context to use")
	pf.StringP("namespace", "n", config.DefaultNamespace, "release namespace")
	pf.Duration("timeout", 0, "time helm waits for Kubernetes operations (0 = helm default)")
	pf.Bool("wait", false, "wait until resources are ready")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: exitUsage, Err: err}
	})

	// Register subcommands.
	cmd.AddCommand(
		newVersionCommand(),
		newLintCommand(),
		newRenderCommand(),
		newInstallCommand(),
		newUpgradeCommand(),
		newRollbackCommand(),
		newUninstallCommand(),
		newStatusCommand(),
		newDiffCommand(),
		newWatchCommand(),
		newGetCommand(),
		newCompletionCommand(),
	)

	return cmd
}
