package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/formify/internal/config"
)

var (
	initForce  bool
	initURL    string
	initFields []string
	initEcho   bool
)

var initCmd = &cobra.Command{
	Use:     "init",
	Aliases: []string{"i"},
	Short:   "Write a default configuration file",
	Long: `Write .formify.yml (or the --config path) with the default settings.

Examples:
  formify init                                        # Defaults, no backend yet
  formify init --url https://formspree.io/f/yourid    # Point at a form backend
  formify init --fields name,email,website,message    # Choose the fields
  formify init --echo                                 # Use the local echo sink`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
	initCmd.Flags().StringVar(&initURL, "url", "", "Submission URL")
	initCmd.Flags().StringSliceVar(&initFields, "fields", nil, "Ordered field names (name, email, twitter, website, message)")
	initCmd.Flags().BoolVar(&initEcho, "echo", false, "Enable the local echo sink")
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	cfg.Widget.URL = initURL
	cfg.Server.Echo = initEcho
	if len(initFields) > 0 {
		cfg.Widget.Fields = initFields
	}
	if result := config.Validate(cfg); result.HasErrors() {
		fmt.Fprint(cmd.ErrOrStderr(), result.String())
		return result.Err()
	}

	path := cfgFile
	if path == "" {
		path = config.DefaultFileName
	}
	if err := config.WriteFile(path, cfg, initForce); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", path)
	if cfg.Widget.URL == "" && !cfg.Server.Echo {
		fmt.Fprintln(out, "Set widget.url to your form backend before running 'formify serve'.")
	}
	return nil
}
