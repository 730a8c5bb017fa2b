package action

import (
	"context"

	"github.com/slok/devrig/internal/log"
)

// Installer is the interface that step install actions must implement.
// Implementations MUST be idempotent: when the step goal state already holds,
// Install must change nothing and return model.ErrAlreadySatisfied (possibly
// wrapped) so the engine can report the step as skipped instead of installed.
type Installer interface {
	Install(ctx context.Context) error
}

// InstallerFunc is a convenience adapter to allow the use of ordinary functions as Installers.
type InstallerFunc func(ctx context.Context) error

func (f InstallerFunc) Install(ctx context.Context) error { return f(ctx) }

// Checker is the interface that step check actions must implement.
// Implementations MUST be side-effect free and cheap: the engine calls them
// before, during and after installation, possibly concurrently with other
// steps' checks. The returned detail is an optional human-readable diagnostic
// (resolved path, version string...). A non-nil error means the check itself
// could not run, which is different from returning not satisfied.
type Checker interface {
	Check(ctx context.Context) (satisfied bool, detail string, err error)
}

// CheckerFunc is a convenience adapter to allow the use of ordinary functions as Checkers.
type CheckerFunc func(ctx context.Context) (bool, string, error)

func (f CheckerFunc) Check(ctx context.Context) (bool, string, error) { return f(ctx) }

// NewNoopInstaller returns an installer that does nothing.
func NewNoopInstaller() Installer {
	return InstallerFunc(func(_ context.Context) error { return nil })
}

// NewLogInstaller wraps an installer with debug logging before and after execution.
func NewLogInstaller(name string, logger log.Logger, i Installer) Installer {
	return InstallerFunc(func(ctx context.Context) error {
		logger.Debugf("Installing %q...", name)

		if err := i.Install(ctx); err != nil {
			return err
		}

		logger.Debugf("Installed %q", name)
		return nil
	})
}
