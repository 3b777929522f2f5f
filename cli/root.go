// Package cli wires the stochsim command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bcdannyboy/stochsim/config"
	"github.com/bcdannyboy/stochsim/logging"
	"github.com/bcdannyboy/stochsim/simulation"
	"github.com/bcdannyboy/stochsim/tradier"
)

type app struct {
	configPath string
	logLevel   string
	workers    int
	quiet      bool
	outPath    string

	cfg    *config.Config
	logger *slog.Logger
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "stochsim",
		Short:         "Stochastic price simulation and European option pricing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (yaml, json or toml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.IntVar(&a.workers, "workers", 0, "parallel workers for path generation (overrides config)")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "hide progress bars")
	flags.StringVarP(&a.outPath, "out", "o", "", "write JSON output to this file instead of stdout")

	root.AddCommand(
		a.gbmCommand(),
		a.brownianCommand(),
		a.priceCommand(),
		a.serveCommand(),
		a.slackCommand(),
	)
	return root
}

func (a *app) init(stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.workers > 0 {
		cfg.Simulation.Workers = a.workers
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) history() *tradier.Client {
	client := tradier.NewClient(a.cfg.Tradier.Token)
	if a.cfg.Tradier.BaseURL != "" {
		client.BaseURL = a.cfg.Tradier.BaseURL
	}
	return client
}

func (a *app) service(progress simulation.ProgressFunc) *simulation.Service {
	return simulation.NewService(a.history(), a.logger, simulation.Options{
		Workers:       a.cfg.Simulation.Workers,
		Seed:          a.cfg.Simulation.Seed,
		DefaultPaths:  a.cfg.Simulation.DefaultPaths,
		DefaultSteps:  a.cfg.Simulation.DefaultSteps,
		LookbackYears: a.cfg.Simulation.LookbackYears,
		Progress:      progress,
	})
}
