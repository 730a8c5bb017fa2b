package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/devrig/internal/app/apply"
	"github.com/slok/devrig/internal/provision"
	"github.com/slok/devrig/internal/storage/sqlite"
	"github.com/slok/devrig/internal/verify"
)

type ApplyCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	registryFlags *registryFlags
	output        string
	stepTimeout   time.Duration
	checkTimeout  time.Duration
}

// NewApplyCommand returns the apply command.
func NewApplyCommand(rootCmd *RootCommand, app *kingpin.Application) *ApplyCommand {
	c := &ApplyCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("apply", "Run every provisioning step and verify the resulting state.")
	c.registryFlags = registerRegistryFlags(c.Cmd)
	c.Cmd.Flag("output", "Output format.").Short('o').Default(OutputAuto).EnumVar(&c.output, OutputAuto, OutputTable, OutputJSON)
	c.Cmd.Flag("step-timeout", "Default per-step install timeout.").Default("15m").DurationVar(&c.stepTimeout)
	c.Cmd.Flag("check-timeout", "Default per-step check timeout.").Default("30s").DurationVar(&c.checkTimeout)

	return c
}

func (c ApplyCommand) Name() string { return c.Cmd.FullCommand() }

func (c ApplyCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Build the registry from the catalog, manifest and selection flags.
	reg, manifest, err := c.registryFlags.buildRegistry(ctx, logger)
	if err != nil {
		return err
	}

	stepTimeout := c.stepTimeout
	if manifest.StepTimeout > 0 {
		stepTimeout = manifest.StepTimeout
	}
	checkTimeout := c.checkTimeout
	if manifest.CheckTimeout > 0 {
		checkTimeout = manifest.CheckTimeout
	}

	// Initialize engines.
	orchestrator, err := provision.NewOrchestrator(provision.OrchestratorConfig{
		StepTimeout: stepTimeout,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create orchestrator: %w", err)
	}

	verifier, err := verify.NewVerifier(verify.VerifierConfig{
		CheckTimeout: checkTimeout,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create verifier: %w", err)
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	// Create service.
	svc, err := apply.NewService(apply.ServiceConfig{
		Orchestrator: orchestrator,
		Verifier:     verifier,
		Repository:   repo,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// Execute apply.
	run, err := svc.Apply(ctx, apply.ApplyOptions{Registry: reg})
	if err != nil {
		return fmt.Errorf("could not apply provisioning steps: %w", err)
	}

	p := newPrinter(c.output, c.rootCmd.NoColor, c.rootCmd.Stdout)
	if err := p.PrintApply(run.Report, run.Verification); err != nil {
		return fmt.Errorf("could not print results: %w", err)
	}

	// Verification is the ground truth for the exit code.
	if !run.Verification.AllSatisfied() {
		satisfied, unsatisfied := run.Verification.Counts()
		return fmt.Errorf("provisioning incomplete: %d of %d steps unsatisfied", unsatisfied, satisfied+unsatisfied)
	}

	return nil
}
