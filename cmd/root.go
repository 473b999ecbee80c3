// Package cmd provides the command-line interface for formify.
//
// Configuration System:
//
//	Settings are resolved with the following precedence:
//	1. Command-line flags (--port, --url, --log-level, ...) - highest priority
//	2. Individual environment variables (FORMIFY_WIDGET_URL, FORMIFY_SERVER_PORT, ...)
//	3. The configuration file: --config, else FORMIFY_CONFIG_FILE, else .formify.yml
//	4. Built-in defaults - lowest priority
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/formify/internal/config"
	"github.com/conneroisu/formify/internal/errors"
	"github.com/conneroisu/formify/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "formify",
	Short: "An embeddable contact form widget",
	Long: `formify is a floating contact form widget: a toggle button that opens a
panel with a configurable set of fields, validates them and posts them as JSON
to a form backend such as Formspree.

Quick Start:
  formify init --url https://formspree.io/f/yourid   Write .formify.yml
  formify serve                                      Host the widget on a demo page
  formify serve --echo                               Try it without a backend
  formify render > widget.html                       Print the widget markup
  formify tui                                        Use the widget in the terminal
  formify submit --field name=Ada --field email=ada@example.com --field message=Hi`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return SetViperBindings(cmd, map[string]string{
			"log-level":  "log.level",
			"log-format": "log.format",
		})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is "+config.DefaultFileName+", can also use "+config.EnvPrefix+"_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// initConfig points viper at the config file and enables FORMIFY_ overrides.
// A missing file is not an error: defaults and the environment still apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".formify")
	}

	config.ConfigureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads and validates the configuration, attaching hints on
// failure.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.NewEnhancedError(
			"Failed to load configuration",
			err,
			errors.ConfigurationError(err.Error(), configPath()),
		)
	}
	return cfg, nil
}

// configPath is the file in use, or the one init would write.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultFileName
}

func newLogger(cfg *config.Config) (logging.Logger, error) {
	lc, err := cfg.LoggerConfig(os.Stderr)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(lc), nil
}
