package cmd

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/formify/internal/logging"
	"github.com/conneroisu/formify/internal/session"
	"github.com/conneroisu/formify/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Use the widget in the terminal",
	Long: `Open the configured widget as a terminal form. It runs the same controller
as the browser widget: the same validation, alerts and submission.

Keys:
  ctrl+o  open or close the panel
  tab     next field (shift+tab goes back)
  ctrl+s  send
  ctrl+c  quit`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return SetViperBindings(cmd, map[string]string{
			"url": "widget.url",
		})
	},
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().String("url", "", "Submission URL (overrides widget.url)")
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// the terminal is owned by the UI, log lines would corrupt it
	factory, err := session.NewFactory(cfg, &http.Client{Timeout: 30 * time.Second}, logging.NewNopLogger())
	if err != nil {
		return err
	}
	w, err := factory()
	if err != nil {
		return err
	}
	defer w.Close()

	ctx := cmd.Context()
	return tui.Run(ctx, w)
}
