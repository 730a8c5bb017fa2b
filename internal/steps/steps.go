// Package steps holds the builtin catalog of development toolchain steps. Each
// entry is a data-only definition bound to shell command actions, adding a new
// step means adding one definition here.
package steps

import (
	"fmt"
	"path/filepath"
	"time"

	"k8s.io/client-go/util/homedir"

	"github.com/slok/devrig/internal/action"
	"github.com/slok/devrig/internal/log"
	"github.com/slok/devrig/internal/registry"
	utilenv "github.com/slok/devrig/internal/utils/env"
)

// CatalogConfig is the configuration for the builtin step catalog.
type CatalogConfig struct {
	// Env are environment overrides passed to every install and check command.
	Env    map[string]string
	Logger log.Logger
}

func (c *CatalogConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	return nil
}

// definition is one declarative catalog entry. Exactly one of checkCommand or
// checkScript/checkFile is used as the verification predicate.
type definition struct {
	id          string
	description string
	install     string        // Shell script that brings the step to its goal state.
	shell       string        // Shell override, e.g. bash for scripts sourcing profile files.
	checkBinary string        // Satisfied when the binary resolves on PATH.
	checkFile   string        // Satisfied when the file exists.
	checkScript string        // Satisfied when the read-only script exits zero.
	timeout     time.Duration // Per-step timeout override for slow installs.
}

func definitions() []definition {
	home := homedir.HomeDir()

	return []definition{
		{
			id:          "git",
			description: "Git version control",
			install:     "sudo apt-get update -qq && sudo apt-get install -y git",
			checkBinary: "git",
		},
		{
			id:          "curl",
			description: "curl HTTP client",
			install:     "sudo apt-get install -y curl",
			checkBinary: "curl",
		},
		{
			id:          "build-essential",
			description: "C/C++ build toolchain",
			install:     "sudo apt-get install -y build-essential",
			checkScript: "dpkg -s build-essential >/dev/null 2>&1",
		},
		{
			id:          "ripgrep",
			description: "ripgrep code search",
			install:     "sudo apt-get install -y ripgrep",
			checkBinary: "rg",
		},
		{
			id:          "jq",
			description: "jq JSON processor",
			install:     "sudo apt-get install -y jq",
			checkBinary: "jq",
		},
		{
			id:          "nvm",
			description: "Node version manager",
			install:     `curl -fsSL https://raw.githubusercontent.com/nvm-sh/nvm/v0.40.1/install.sh | bash`,
			shell:       "/bin/bash",
			checkFile:   filepath.Join(home, ".nvm", "nvm.sh"),
			timeout:     5 * time.Minute,
		},
		{
			id:          "node",
			description: "Node.js LTS runtime",
			install:     `. "$HOME/.nvm/nvm.sh" && nvm install --lts && nvm alias default 'lts/*'`,
			shell:       "/bin/bash",
			checkScript: `. "$HOME/.nvm/nvm.sh" >/dev/null 2>&1 && node --version`,
			timeout:     10 * time.Minute,
		},
		{
			id:          "rustup",
			description: "Rust toolchain installer",
			install:     `curl -fsSL https://sh.rustup.rs | sh -s -- -y --no-modify-path`,
			checkFile:   filepath.Join(home, ".cargo", "bin", "rustup"),
			timeout:     10 * time.Minute,
		},
		{
			id:          "rust",
			description: "Rust stable toolchain",
			install:     `"$HOME/.cargo/bin/rustup" toolchain install stable --profile default`,
			checkScript: `"$HOME/.cargo/bin/rustc" --version`,
			timeout:     10 * time.Minute,
		},
	}
}

// DefaultRegistry builds the registry with the full builtin catalog, in
// catalog order.
func DefaultRegistry(cfg CatalogConfig) (*registry.Registry, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	reg, err := registry.New()
	if err != nil {
		return nil, err
	}

	for _, def := range definitions() {
		step, err := newStep(def, cfg)
		if err != nil {
			return nil, fmt.Errorf("could not build step %q: %w", def.id, err)
		}
		if err := reg.Register(step); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func newStep(def definition, cfg CatalogConfig) (registry.Step, error) {
	check, err := newChecker(def, cfg)
	if err != nil {
		return registry.Step{}, err
	}

	install, err := action.NewCommandInstaller(action.CommandInstallerConfig{
		Script: def.install,
		Guard:  check,
		Env:    cfg.Env,
		Shell:  def.shell,
		Logger: cfg.Logger,
	})
	if err != nil {
		return registry.Step{}, err
	}

	return registry.Step{
		ID:          def.id,
		Description: def.description,
		Install:     action.NewLogInstaller(def.id, cfg.Logger, install),
		Check:       check,
		Timeout:     def.timeout,
	}, nil
}

func newChecker(def definition, cfg CatalogConfig) (action.Checker, error) {
	switch {
	case def.checkBinary != "":
		return action.NewCommandOnPathChecker(def.checkBinary), nil
	case def.checkFile != "":
		return action.NewFileExistsChecker(def.checkFile), nil
	case def.checkScript != "":
		return action.NewCommandChecker(action.CommandCheckerConfig{
			Script: def.checkScript,
			Env:    utilenv.MergeMaps(nil, cfg.Env),
			Shell:  def.shell,
		})
	default:
		return nil, fmt.Errorf("definition %q has no check predicate", def.id)
	}
}
