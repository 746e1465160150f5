package helm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmonroy/avionix/internal/logging"
)

// WithRelease installs chartPath as release, runs fn, then uninstalls the
// release whatever happened, including a panic in fn. Cleanup also runs
// after a failed install, in case helm recorded a failed release. Cleanup
// ignores cancellation of ctx so a cancelled scope still tears down.
//
// The error that ended the scope is returned. If cleanup fails too, both
// are returned in a *ScopeError with the scope's error as Primary.
func WithRelease(ctx context.Context, o *Orchestrator, chartPath, releaseName, namespace string, fn func(ctx context.Context) error) (err error) {
	if _, err := checkTarget(releaseName, namespace); err != nil {
		return err
	}

	defer func() {
		cleanup := o.Uninstall(context.WithoutCancel(ctx), releaseName, namespace)
		if cleanup == nil {
			return
		}

		if err == nil {
			err = cleanup

			return
		}

		logging.ForRelease(o.logger, releaseName, namespace).Error("release cleanup failed",
			slog.String("error", cleanup.Error()),
		)

		err = &ScopeError{Primary: err, Cleanup: cleanup}
	}()

	if err := o.Install(ctx, chartPath, releaseName, namespace); err != nil {
		return err
	}

	return fn(ctx)
}

// IsOperationFailure reports whether err comes from helm exiting non-zero,
// as opposed to bad input or an interrupted command.
func IsOperationFailure(err error) bool {
	var opErr *OperationError

	return errors.As(err, &opErr)
}
