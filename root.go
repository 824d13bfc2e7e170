package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"qbank/config"
	"qbank/logging"
)

type commandContext struct {
	configFlag *string

	once   sync.Once
	config *config.Config
	logger *slog.Logger
	err    error
}

// ensure loads configuration and builds the logger once per process.
// Logs go to stderr so command output stays machine-readable.
func (c *commandContext) ensure() (*config.Config, *slog.Logger, error) {
	c.once.Do(func() {
		path := os.Getenv("QBANK_CONFIG")
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = *c.configFlag
		}
		cfg, err := config.LoadFrom(path)
		if err != nil {
			c.err = fmt.Errorf("load config: %w", err)
			return
		}
		logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
		if err != nil {
			c.err = fmt.Errorf("init logger: %w", err)
			return
		}
		c.config, c.logger = cfg, logger
	})
	return c.config, c.logger, c.err
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "qbank",
		Short:         "Question bank identity service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "TOML configuration file (overrides QBANK_CONFIG)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newResolveCommand(ctx))
	rootCmd.AddCommand(newBackfillCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))

	return rootCmd
}
