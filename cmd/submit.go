package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/formify/internal/errors"
	"github.com/conneroisu/formify/internal/session"
	"github.com/conneroisu/formify/internal/widget"
)

var submitFields = newFieldValues()

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Validate and send one submission without a browser",
	Long: `Fill the configured fields from --field flags and submit them through the
same controller the widget uses. Validation and the backend response are
reported the way the widget would show them.

Examples:
  formify submit --field name=Ada --field email=ada@example.com --field message=Hi
  formify submit --url https://formspree.io/f/yourid --field name=Ada ...`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return SetViperBindings(cmd, map[string]string{
			"url": "widget.url",
		})
	},
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().Var(submitFields, "field", "Field value as name=value (repeatable)")
	submitCmd.Flags().String("url", "", "Submission URL (overrides widget.url)")
	submitCmd.Flags().Duration("timeout", 30*time.Second, "Request timeout")
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	factory, err := session.NewFactory(cfg, &http.Client{Timeout: timeout}, logger)
	if err != nil {
		return err
	}
	w, err := factory()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, name := range submitFields.names() {
		if err := w.ChangeField(name, submitFields.values[name]); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	outcome, err := w.Submit(ctx)
	text := w.Snapshot().Alert.Text

	out := cmd.OutOrStdout()
	switch outcome {
	case widget.OutcomeSent:
		fmt.Fprintln(out, text)
		return nil
	case widget.OutcomeIgnored:
		fmt.Fprintln(out, "The endpoint answered with a falsy value; nothing was reported to the visitor.")
		return nil
	case widget.OutcomeFailed:
		url, _ := cfg.SubmissionURL()
		return errors.NewEnhancedError(text, err, errors.SubmissionError(err, url))
	default:
		return fmt.Errorf("%s: %w", text, err)
	}
}
