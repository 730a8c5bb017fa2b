package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"github.com/mattn/go-isatty"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/devrig/internal/log"
	"github.com/slok/devrig/internal/model"
	"github.com/slok/devrig/internal/printer"
	"github.com/slok/devrig/internal/registry"
	"github.com/slok/devrig/internal/steps"
	storageio "github.com/slok/devrig/internal/storage/io"
	utilenv "github.com/slok/devrig/internal/utils/env"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

const (
	// OutputAuto selects the styled printer on terminals and the plain table
	// printer otherwise.
	OutputAuto = "auto"
	// OutputTable is the plain table printer, always available.
	OutputTable = "table"
	// OutputJSON is the JSON printer.
	OutputJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	DBPath     string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDBPath := filepath.Join(homedir.HomeDir(), ".devrig", "devrig.db")
	app.Flag("db-path", "Path to the SQLite run history database file.").Envar("DEVRIG_DB_PATH").Default(defaultDBPath).StringVar(&c.DBPath)

	return c
}

// registryFlags groups the flags shared by every command that walks the step
// registry.
type registryFlags struct {
	manifestPath string
	stepIDs      []string
	envSpecs     []string
}

func registerRegistryFlags(cmd *kingpin.CmdClause) *registryFlags {
	f := &registryFlags{}

	cmd.Flag("manifest", "Path to a YAML provisioning manifest.").Short('m').StringVar(&f.manifestPath)
	cmd.Flag("step", "Run only this step id (repeatable).").Short('s').StringsVar(&f.stepIDs)
	cmd.Flag("env", "Environment variable for actions as KEY=value or KEY (repeatable).").Short('e').StringsVar(&f.envSpecs)

	return f
}

// buildRegistry assembles the step registry from the builtin catalog, the
// manifest and the subset selection flags. Flags win over the manifest.
func (f *registryFlags) buildRegistry(ctx context.Context, logger log.Logger) (*registry.Registry, model.Manifest, error) {
	manifest, err := f.loadManifest(ctx)
	if err != nil {
		return nil, model.Manifest{}, err
	}

	flagEnv, err := utilenv.ParseSpecs(f.envSpecs)
	if err != nil {
		return nil, model.Manifest{}, fmt.Errorf("invalid env flag: %w", err)
	}

	reg, err := steps.DefaultRegistry(steps.CatalogConfig{
		Env:    utilenv.MergeMaps(manifest.Env, flagEnv),
		Logger: logger,
	})
	if err != nil {
		return nil, model.Manifest{}, fmt.Errorf("could not build step registry: %w", err)
	}

	subset := f.stepIDs
	if len(subset) == 0 {
		subset = manifest.Steps
	}
	if len(subset) > 0 {
		reg, err = reg.Subset(subset)
		if err != nil {
			return nil, model.Manifest{}, fmt.Errorf("invalid step selection: %w", err)
		}
	}

	if err := reg.Validate(); err != nil {
		return nil, model.Manifest{}, fmt.Errorf("invalid step registry: %w", err)
	}

	return reg, manifest, nil
}

func (f *registryFlags) loadManifest(ctx context.Context) (model.Manifest, error) {
	if f.manifestPath == "" {
		return model.Manifest{}, nil
	}

	abs, err := filepath.Abs(f.manifestPath)
	if err != nil {
		return model.Manifest{}, fmt.Errorf("invalid manifest path: %w", err)
	}

	repo := storageio.NewManifestYAMLRepository(os.DirFS(filepath.Dir(abs)))
	manifest, err := repo.GetManifest(ctx, filepath.Base(abs))
	if err != nil {
		return model.Manifest{}, fmt.Errorf("could not load manifest: %w", err)
	}

	return manifest, nil
}

// newPrinter selects the output printer once at startup. The table printer is
// the guaranteed fallback, the styled printer is only selected when writing to
// a terminal with colors enabled.
func newPrinter(output string, noColor bool, stdout io.Writer) printer.Printer {
	switch output {
	case OutputJSON:
		return printer.NewJSONPrinter(stdout)
	case OutputTable:
		return printer.NewTablePrinter(stdout)
	default:
		if !noColor && isTerminal(stdout) {
			return printer.NewStyledPrinter(stdout)
		}
		return printer.NewTablePrinter(stdout)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
