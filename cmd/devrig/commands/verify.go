package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/devrig/internal/app/doctor"
	"github.com/slok/devrig/internal/verify"
)

type VerifyCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	registryFlags *registryFlags
	output        string
	checkTimeout  time.Duration
	workers       int
}

// NewVerifyCommand returns the verify command.
func NewVerifyCommand(rootCmd *RootCommand, app *kingpin.Application) *VerifyCommand {
	c := &VerifyCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("verify", "Check the current state of every provisioning step without installing anything.")
	c.registryFlags = registerRegistryFlags(c.Cmd)
	c.Cmd.Flag("output", "Output format.").Short('o').Default(OutputAuto).EnumVar(&c.output, OutputAuto, OutputTable, OutputJSON)
	c.Cmd.Flag("check-timeout", "Default per-step check timeout.").Default("30s").DurationVar(&c.checkTimeout)
	c.Cmd.Flag("workers", "Number of checks allowed to run concurrently.").Default("4").IntVar(&c.workers)

	return c
}

func (c VerifyCommand) Name() string { return c.Cmd.FullCommand() }

func (c VerifyCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	reg, manifest, err := c.registryFlags.buildRegistry(ctx, logger)
	if err != nil {
		return err
	}

	checkTimeout := c.checkTimeout
	if manifest.CheckTimeout > 0 {
		checkTimeout = manifest.CheckTimeout
	}

	verifier, err := verify.NewVerifier(verify.VerifierConfig{
		CheckTimeout: checkTimeout,
		Workers:      c.workers,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create verifier: %w", err)
	}

	svc, err := doctor.NewService(doctor.ServiceConfig{
		Verifier: verifier,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	report, err := svc.Doctor(ctx, doctor.DoctorOptions{Registry: reg})
	if err != nil {
		return fmt.Errorf("could not verify provisioning steps: %w", err)
	}

	p := newPrinter(c.output, c.rootCmd.NoColor, c.rootCmd.Stdout)
	if err := p.PrintVerification(report); err != nil {
		return fmt.Errorf("could not print results: %w", err)
	}

	if !report.AllSatisfied() {
		satisfied, unsatisfied := report.Counts()
		return fmt.Errorf("verification failed: %d of %d steps unsatisfied", unsatisfied, satisfied+unsatisfied)
	}

	return nil
}
