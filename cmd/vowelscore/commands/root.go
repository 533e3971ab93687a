package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/MrWong99/vowelscore/internal/assess"
	"github.com/MrWong99/vowelscore/internal/config"
	"github.com/MrWong99/vowelscore/internal/observe"
	"github.com/MrWong99/vowelscore/internal/phoneme"
)

// version is overridden at build time with -ldflags "-X ...commands.version=...".
var version = "dev"

// env is the state shared by all subcommands of one invocation.
type env struct {
	configPath    string
	envFile       string
	logLevel      string
	inventoryPath string

	cfg      *config.Config
	norm     *phoneme.Normalizer
	assessor *assess.Assessor
	metrics  *observe.Metrics
	provider *observe.Provider
}

// Execute runs the CLI with os.Args.
func Execute(ctx context.Context) error {
	root, e := newRootCmd()
	err := execute(ctx, root, e)
	if err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "vowelscore: %v\n", err)
	}
	return err
}

// execute runs root and always shuts the telemetry provider down afterwards.
func execute(ctx context.Context, root *cobra.Command, e *env) error {
	err := root.ExecuteContext(ctx)
	return errors.Join(err, e.close(context.WithoutCancel(ctx)))
}

func newRootCmd() (*cobra.Command, *env) {
	e := &env{}

	root := &cobra.Command{
		Use:           "vowelscore",
		Short:         "Score English vowel pronunciation from phoneme transcriptions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "YAML config file (default $"+config.EnvConfig+")")
	root.PersistentFlags().StringVar(&e.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&e.inventoryPath, "inventory", "", "phoneme inventory YAML replacing the embedded one")

	root.AddCommand(assessCmd(e), batchCmd(e), inventoryCmd(e), normalizeCmd(e))
	return root, e
}

// close shuts the telemetry provider down. Cobra skips post-run hooks after
// a failed RunE, so [execute] calls it instead.
func (e *env) close(ctx context.Context) error {
	if e.provider == nil {
		return nil
	}
	err := e.provider.Shutdown(ctx)
	e.provider = nil
	return err
}

// setup resolves configuration and builds the shared collaborators.
func (e *env) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(e.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %q: %w", e.envFile, err)
	}

	path := e.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}
	if err := config.ApplyEnv(cfg, os.Getenv); err != nil {
		return err
	}
	if e.logLevel != "" {
		cfg.LogLevel = config.LogLevel(e.logLevel)
	}
	if e.inventoryPath != "" {
		cfg.Inventory = e.inventoryPath
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	e.cfg = cfg

	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg.LogLevel))
	for _, w := range config.Warnings(cfg) {
		slog.Warn(w)
	}

	inv := phoneme.DefaultInventory()
	if cfg.Inventory != "" {
		var err error
		if inv, err = phoneme.LoadInventory(cfg.Inventory); err != nil {
			return err
		}
	}
	opts := []phoneme.NormalizerOption{phoneme.WithDiphthongMerge(cfg.Assessment.MergeDiphthongs())}
	if cfg.Assessment.StripMarkers != nil {
		opts = append(opts, phoneme.WithStripMarkers(cfg.Assessment.StripMarkers...))
	}
	e.norm = phoneme.NewNormalizer(inv, opts...)

	provider, err := observe.InitProvider(cmd.Context(), observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return err
	}
	e.provider = provider
	if e.metrics, err = observe.NewMetrics(otel.GetMeterProvider()); err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	e.assessor = assess.New(e.norm,
		assess.WithFocusAreaLimit(cfg.Assessment.FocusAreaLimit),
		assess.WithMetrics(e.metrics),
	)

	slog.Debug("vowelscore configured",
		"config", path,
		"inventory", cfg.Inventory,
		"log_level", cfg.LogLevel,
		"focus_area_limit", cfg.Assessment.FocusAreaLimit,
	)
	return nil
}

// newLogger returns a text logger on w at the given level.
func newLogger(w io.Writer, level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
