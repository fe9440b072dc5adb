package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/ariera/interviews-scheduler/cmd/scheduler/commands"
	"github.com/ariera/interviews-scheduler/internal/config"
	"github.com/ariera/interviews-scheduler/pkg/history"
	"github.com/ariera/interviews-scheduler/pkg/logging"
)

var (
	configPath string
	logLevel   string
	app        *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "scheduler",
		Short:         "Interview-day scheduler - builds and solves a CP-SAT model of a single interview day",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.History != nil {
					app.History.Close()
				}
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the CLI's own operating config (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the operating config's log level")

	rootCmd.AddCommand(commands.ValidateCmd(appRef()))
	rootCmd.AddCommand(commands.SolveCmd(appRef()))
	rootCmd.AddCommand(commands.SolveMultiCmd(appRef()))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(commands.ExitCode(err))
	}
}

// appRef lets each *Cmd constructor close over the not-yet-initialized
// app pointer: cobra builds the command tree before PersistentPreRunE
// runs, so the commands read through app (set by initApp) rather than
// capturing a value at construction time.
func appRef() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{Ctx: context.Background()}
	}
	return app
}

// initApp wires the logger, operating config, and (optionally) the
// history store into app before any subcommand runs.
func initApp() error {
	app = appRef()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load operating config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	app.Cfg = cfg

	level, err := zapcore.ParseLevel(levelOrDefault(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logCfg := logging.DefaultConfig("scheduler")
	logCfg.ConsoleLevel = level
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Ctx = logging.WithLogger(app.Ctx, logger)

	if cfg.HistoryDSN != "" {
		store, err := history.Open(app.Ctx, cfg.HistoryDSN)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		if err := store.Migrate(app.Ctx); err != nil {
			return fmt.Errorf("failed to migrate history store: %w", err)
		}
		app.History = store
	}

	return nil
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}
