package helm

import (
	"errors"
	"fmt"
	"strings"

	"helm.sh/helm/v3/pkg/storage/driver"
)

// ErrInvalidRelease is returned before helm runs when a release name or
// namespace is rejected.
var ErrInvalidRelease = errors.New("invalid release")

// OperationError reports a helm command that exited non-zero.
type OperationError struct {
	// Op is the helm subcommand, e.g. "install".
	Op        string
	Release   string
	Namespace string
	ExitCode  int
	// Output is helm's stdout and stderr, unmodified.
	Output string
}

func (e *OperationError) Error() string {
	target := e.Release
	if e.Namespace != "" {
		target = e.Namespace + "/" + e.Release
	}

	msg := fmt.Sprintf("helm %s %s failed with exit code %d", e.Op, target, e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}

	return msg
}

// InstallError reports a failed install.
type InstallError struct{ OperationError }

// UpgradeError reports a failed upgrade. The release is left in whatever
// state helm reached; query it with Status.
type UpgradeError struct{ OperationError }

// RollbackError reports a failed rollback.
type RollbackError struct{ OperationError }

// UninstallError reports a failed uninstall of a release that exists.
type UninstallError struct{ OperationError }

func (e *InstallError) Unwrap() error   { return &e.OperationError }
func (e *UpgradeError) Unwrap() error   { return &e.OperationError }
func (e *RollbackError) Unwrap() error  { return &e.OperationError }
func (e *UninstallError) Unwrap() error { return &e.OperationError }

// ScopeError is returned by WithRelease when both the scoped work and the
// cleanup uninstall failed. Primary is the error that ended the scope.
type ScopeError struct {
	Primary error
	Cleanup error
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("%v (cleanup also failed: %v)", e.Primary, e.Cleanup)
}

// Unwrap exposes both errors to errors.Is and errors.As, primary first.
func (e *ScopeError) Unwrap() []error {
	return []error{e.Primary, e.Cleanup}
}

// isNotFound reports whether helm output says the release does not exist.
func isNotFound(output string) bool {
	return strings.Contains(strings.ToLower(output), driver.ErrReleaseNotFound.Error())
}
