package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/devrig/internal/app/historylist"
	"github.com/slok/devrig/internal/storage/sqlite"
)

type HistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	output string
	limit  int
}

// NewHistoryCommand returns the history command.
func NewHistoryCommand(rootCmd *RootCommand, app *kingpin.Application) *HistoryCommand {
	c := &HistoryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("history", "List past provisioning runs.")
	c.Cmd.Flag("output", "Output format.").Short('o').Default(OutputAuto).EnumVar(&c.output, OutputAuto, OutputTable, OutputJSON)
	c.Cmd.Flag("limit", "Maximum number of runs to list.").Default("20").IntVar(&c.limit)

	return c
}

func (c HistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	svc, err := historylist.NewService(historylist.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	runs, err := svc.List(ctx, historylist.ListOptions{Limit: c.limit})
	if err != nil {
		return fmt.Errorf("could not list runs: %w", err)
	}

	p := newPrinter(c.output, c.rootCmd.NoColor, c.rootCmd.Stdout)
	if len(runs) == 0 {
		return p.PrintMessage("No provisioning runs recorded yet.")
	}

	if err := p.PrintHistory(runs); err != nil {
		return fmt.Errorf("could not print runs: %w", err)
	}

	return nil
}
