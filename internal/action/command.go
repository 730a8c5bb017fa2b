package action

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/slok/devrig/internal/log"
	"github.com/slok/devrig/internal/model"
	utilenv "github.com/slok/devrig/internal/utils/env"
)

const defaultShell = "/bin/sh"

// CommandInstallerConfig is the configuration for a shell command based installer.
type CommandInstallerConfig struct {
	// Script is the shell script executed to bring the step to its goal state.
	Script string
	// Guard is an optional checker consulted before running the script, if it
	// reports satisfied the installer short-circuits to already-satisfied
	// without executing anything.
	Guard Checker
	// Env are extra environment variables set on top of the process environment.
	Env map[string]string
	// Shell is the shell binary used to run the script.
	Shell  string
	Logger log.Logger
}

func (c *CommandInstallerConfig) defaults() error {
	if c.Script == "" {
		return fmt.Errorf("script is required")
	}
	if c.Shell == "" {
		c.Shell = defaultShell
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	return nil
}

// NewCommandInstaller returns an installer that runs a shell script through
// os/exec, honoring context cancellation and deadlines.
func NewCommandInstaller(cfg CommandInstallerConfig) (Installer, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return InstallerFunc(func(ctx context.Context) error {
		if cfg.Guard != nil {
			satisfied, detail, err := cfg.Guard.Check(ctx)
			if err == nil && satisfied {
				if detail == "" {
					detail = "guard check satisfied"
				}
				return fmt.Errorf("%s: %w", detail, model.ErrAlreadySatisfied)
			}
		}

		cmd := exec.CommandContext(ctx, cfg.Shell, "-c", cfg.Script)
		cmd.Env = append(os.Environ(), utilenv.ToOSEnv(cfg.Env)...)

		output, err := cmd.CombinedOutput()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("command interrupted: %w", ctxErr)
			}
			return fmt.Errorf("command failed: %w: %s", err, lastOutputLine(output))
		}

		cfg.Logger.Debugf("Command succeeded: %q", cfg.Script)
		return nil
	}), nil
}

// NewCommandOnPathChecker returns a checker that reports satisfied when the
// command resolves on PATH. The detail is the resolved binary path.
func NewCommandOnPathChecker(command string) Checker {
	return CheckerFunc(func(_ context.Context) (bool, string, error) {
		path, err := exec.LookPath(command)
		if err != nil {
			return false, fmt.Sprintf("%q not found on PATH", command), nil
		}
		return true, path, nil
	})
}

// NewFileExistsChecker returns a checker that reports satisfied when the file
// or directory exists.
func NewFileExistsChecker(path string) Checker {
	return CheckerFunc(func(_ context.Context) (bool, string, error) {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			return true, path, nil
		case os.IsNotExist(err):
			return false, fmt.Sprintf("%q does not exist", path), nil
		default:
			return false, "", fmt.Errorf("could not stat %q: %w", path, err)
		}
	})
}

// CommandCheckerConfig is the configuration for a shell command based checker.
// The command MUST be read-only: it is invoked repeatedly and possibly
// concurrently with other steps' checks.
type CommandCheckerConfig struct {
	Script string
	Env    map[string]string
	Shell  string
}

func (c *CommandCheckerConfig) defaults() error {
	if c.Script == "" {
		return fmt.Errorf("script is required")
	}
	if c.Shell == "" {
		c.Shell = defaultShell
	}
	return nil
}

// NewCommandChecker returns a checker that runs a read-only shell command and
// reports satisfied on exit code zero. The detail is the first output line.
func NewCommandChecker(cfg CommandCheckerConfig) (Checker, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return CheckerFunc(func(ctx context.Context) (bool, string, error) {
		cmd := exec.CommandContext(ctx, cfg.Shell, "-c", cfg.Script)
		cmd.Env = append(os.Environ(), utilenv.ToOSEnv(cfg.Env)...)

		output, err := cmd.CombinedOutput()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, "", fmt.Errorf("check interrupted: %w", ctxErr)
			}
			if _, ok := err.(*exec.ExitError); ok {
				return false, firstOutputLine(output), nil
			}
			return false, "", fmt.Errorf("could not run check command: %w", err)
		}

		return true, firstOutputLine(output), nil
	}), nil
}

func firstOutputLine(output []byte) string {
	s := strings.TrimSpace(string(output))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

func lastOutputLine(output []byte) string {
	s := strings.TrimSpace(string(output))
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[i+1:])
	}
	return s
}
