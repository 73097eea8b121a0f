package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/iwvelando/qslp-calculator/internal/config"
	"github.com/iwvelando/qslp-calculator/pkg/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// app carries state shared by subcommands once the root pre-run has loaded it.
type app struct {
	configPath string
	logLevel   string
	conf       *config.Configuration
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "qslp",
		Short:         "Estimate employer 401(k) matches on student loan payments",
		Long:          "qslp estimates the employer match earned on qualified student loan payments under the SECURE 2.0 Act, either once from the command line or through an HTTP form.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newCalculateCommand(a))
	root.AddCommand(newServeCommand(a))
	return root
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	conf, err := config.LoadConfigurationWithFlags(path, map[string]*pflag.Flag{
		"logging.level":  cmd.Flags().Lookup("log-level"),
		"output.format":  cmd.Flags().Lookup("output-format"),
		"server.address": cmd.Flags().Lookup("address"),
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", a.configPath, err)
	}

	warnings, err := conf.Validate()
	if err != nil {
		return err
	}

	logger, err := initializeLogger(conf.Logging, "")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
	if path == "" {
		logger.Debug("no configuration file found, using defaults",
			zap.String("op", "main"),
			zap.String("config", a.configPath),
		)
	}

	a.conf = conf
	a.logger = logger
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
}
