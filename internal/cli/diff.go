package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmonroy/avionix/internal/config"
	"github.com/dmonroy/avionix/internal/plan"
)

type diffOptions struct {
	// Output format: "unified" (default), "json".
	format string
}

func newDiffCommand() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare two charts or two chart files",
		Long: `Diff compares two chart directories, or two single files, and prints
a unified diff of every file that changed. Use it to review what a rebuilt
chart changes before upgrading a release.

Exit codes:
  0  No differences
  1  Differences found, or error
  2  Invalid arguments`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "unified", "output format: unified, json")

	return cmd
}

func runDiff(cmd *cobra.Command, oldPath, newPath string, opts *diffOptions) error {
	if opts.format != "unified" && opts.format != "json" {
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("unknown format %q (supported: unified, json)", opts.format)}
	}

	oldDir, err := isDir(oldPath)
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	newDir, err := isDir(newPath)
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	if oldDir != newDir {
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("cannot compare a directory with a file")}
	}

	color := !config.FromContext(cmd.Context()).NoColor
	w := cmd.OutOrStdout()

	if !oldDir {
		d, err := diffFiles(oldPath, newPath)
		if err != nil {
			return &ExitError{Code: exitRuntime, Err: err}
		}

		if d.Empty() {
			return nil
		}

		if opts.format == "json" {
			p := &plan.Plan{
				Chart:   newPath,
				Dir:     newPath,
				Changes: []plan.FileChange{{Type: plan.ChangeModified, Path: newPath, Diff: d}},
			}

			if err := plan.FormatPlanJSON(w, p); err != nil {
				return &ExitError{Code: exitRuntime, Err: fmt.Errorf("formatting JSON: %w", err)}
			}
		} else {
			plan.WriteDiff(w, d, color)
		}

		return &ExitError{Code: exitRuntime, Err: fmt.Errorf("files differ")}
	}

	p, err := plan.DiffDirs(oldPath, newPath)
	if err != nil {
		return &ExitError{Code: exitRuntime, Err: err}
	}

	if opts.format == "json" {
		if err := plan.FormatPlanJSON(w, p); err != nil {
			return &ExitError{Code: exitRuntime, Err: fmt.Errorf("formatting JSON: %w", err)}
		}
	} else {
		plan.FormatPlan(w, p, color)
	}

	if p.HasChanges() {
		return &ExitError{Code: exitRuntime, Err: fmt.Errorf("charts differ: %s", plan.FormatCompactSummary(p))}
	}

	return nil
}

func diffFiles(oldPath, newPath string) (*plan.FileDiff, error) {
	oldData, err := os.ReadFile(oldPath) //nolint:gosec // user-provided path
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", oldPath, err)
	}

	newData, err := os.ReadFile(newPath) //nolint:gosec // user-provided path
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", newPath, err)
	}

	return plan.Diff(oldPath, newPath, string(oldData), string(newData))
}

func isDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("cannot access %s: %w", path, err)
	}

	return info.IsDir(), nil
}
