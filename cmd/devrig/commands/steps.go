package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/devrig/internal/steps"
)

type StepsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	output string
}

// NewStepsCommand returns the steps command.
func NewStepsCommand(rootCmd *RootCommand, app *kingpin.Application) *StepsCommand {
	c := &StepsCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("steps", "List the available provisioning steps.")
	c.Cmd.Flag("output", "Output format.").Short('o').Default(OutputAuto).EnumVar(&c.output, OutputAuto, OutputTable, OutputJSON)

	return c
}

func (c StepsCommand) Name() string { return c.Cmd.FullCommand() }

func (c StepsCommand) Run(ctx context.Context) error {
	reg, err := steps.DefaultRegistry(steps.CatalogConfig{
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not build step registry: %w", err)
	}

	p := newPrinter(c.output, c.rootCmd.NoColor, c.rootCmd.Stdout)
	if err := p.PrintSteps(reg.Summaries()); err != nil {
		return fmt.Errorf("could not print steps: %w", err)
	}

	return nil
}
