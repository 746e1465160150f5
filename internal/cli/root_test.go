package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmonroy/avionix/internal/chart"
	"github.com/dmonroy/avionix/internal/cluster"
	"github.com/dmonroy/avionix/internal/helm"
)

// ---------------------------------------------------------------------------
// Help output
// ---------------------------------------------------------------------------

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand("--help")
	require.NoError(t, err)

	for _, sub := range []string{
		"lint", "render", "install", "upgrade", "rollback", "uninstall",
		"status", "diff", "watch", "get", "version", "completion",
	} {
		assert.Contains(t, stdout, sub, "help should mention %q subcommand", sub)
	}

	for _, flag := range []string{
		"--config", "--log-level", "--log-format", "--no-color", "--quiet",
		"--helm-binary", "--kube-context", "--namespace", "--timeout", "--wait",
	} {
		assert.Contains(t, stdout, flag, "help should mention %q flag", flag)
	}
}

// ---------------------------------------------------------------------------
// Unknown flags → exit code 2
// ---------------------------------------------------------------------------

func TestRootCommand_UnknownFlag(t *testing.T) {
	_, _, err := executeCommand("--nonexistent")
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, exitUsage, exitErr.Code)
}

// ---------------------------------------------------------------------------
// SilenceErrors – cobra must not print errors itself
// ---------------------------------------------------------------------------

func TestRootCommand_SilenceErrors(t *testing.T) {
	_, stderr, err := executeCommand("--nonexistent")
	require.Error(t, err)
	assert.Empty(t, stderr, "cobra should not print errors to stderr (SilenceErrors)")
}

// ---------------------------------------------------------------------------
// Configuration errors → exit code 2
// ---------------------------------------------------------------------------

func TestRootCommand_InvalidConfig(t *testing.T) {
	_, _, err := executeCommand("--config", "/nonexistent/path.yaml", "lint", "my-chart")
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, exitUsage, exitErr.Code)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestRootCommand_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"log level", []string{"--log-level", "trace"}, "invalid log level"},
		{"log format", []string{"--log-format", "xml"}, "invalid log format"},
		{"namespace", []string{"--namespace", "Not_Valid"}, "namespace"},
		{"timeout", []string{"--timeout=-1s"}, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useRunner(t, nil)

			_, _, err := executeCommand(append(tt.args, "lint", "my-chart")...)
			require.Error(t, err)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, exitUsage, exitErr.Code)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// ---------------------------------------------------------------------------
// Error classification
// ---------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	opErr := &helm.InstallError{OperationError: helm.OperationError{Op: "install", Release: "demo", ExitCode: 1}}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid release", helm.ErrInvalidRelease, exitUsage},
		{"invalid chart", &chart.ConfigurationError{Subject: "metadata.name", Reason: "is required"}, exitUsage},
		{"helm failed", opErr, exitCluster},
		{"kubectl failed", &cluster.QueryError{Kind: "pods", ExitCode: 1}, exitCluster},
		{"other", errors.New("boom"), exitRuntime},
		{"exit error kept", &ExitError{Code: 7, Err: errors.New("x")}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exitErr *ExitError
			require.ErrorAs(t, classify(tt.err), &exitErr)
			assert.Equal(t, tt.want, exitErr.Code)
			assert.ErrorIs(t, exitErr, tt.err)
		})
	}

	assert.NoError(t, classify(nil))
}

// ---------------------------------------------------------------------------
// ExitError
// ---------------------------------------------------------------------------

func TestExitError_ErrorWithMessage(t *testing.T) {
	err := &ExitError{Code: 1, Err: assert.AnError}
	assert.Contains(t, err.Error(), assert.AnError.Error())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestExitError_ErrorWithoutMessage(t *testing.T) {
	err := &ExitError{Code: 42}
	assert.Equal(t, "exit code 42", err.Error())
	assert.Nil(t, err.Unwrap())
}
