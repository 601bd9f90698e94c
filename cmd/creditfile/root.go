package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"creditfile/internal/config"
	"creditfile/internal/infrastructure"
	"creditfile/pkg/contracts"
)

// cli carries the state shared by all commands once the configuration is
// loaded
type cli struct {
	cfgFile  string
	logLevel string

	cfg     *config.Config
	logger  *slog.Logger
	logFile *os.File
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "creditfile",
		Short: "Credit report extraction, feature engineering and scoring",
		Long: `creditfile reads loan officers' credit report workbooks (.xlsx), extracts
their sections into canonical records, derives the classifier feature
vector and scores each applicant.

Commands:
  score     process reports once and export records and features
  watch     process reports as they are dropped into a directory
  serve     run the HTTP scoring API
  features  list the published features`,
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "",
		"config file (default: ./config.yaml or ./configs/config.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "",
		"log level: debug, info, warn or error (overrides the config file)")

	root.AddCommand(
		newScoreCmd(c),
		newWatchCmd(c),
		newServeCmd(c),
		newFeaturesCmd(c),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if err := cfg.ResolvePaths(""); err != nil {
		return err
	}

	logger, file, err := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	c.cfg = cfg
	c.logger = logger
	c.logFile = file
	cfg.LogPathResolution(logger)
	return nil
}

// close releases the log file opened by setup
func (c *cli) close() error {
	if c.logFile == nil {
		return nil
	}
	err := c.logFile.Close()
	c.logFile = nil
	return err
}
