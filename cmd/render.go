package cmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/a-h/templ"
	"github.com/spf13/cobra"

	"github.com/conneroisu/formify/internal/a11y"
	"github.com/conneroisu/formify/internal/components"
	"github.com/conneroisu/formify/internal/errors"
	"github.com/conneroisu/formify/internal/fields"
	"github.com/conneroisu/formify/internal/submit"
	"github.com/conneroisu/formify/internal/widget"
)

var renderCmd = &cobra.Command{
	Use:     "render",
	Aliases: []string{"r"},
	Short:   "Print the widget markup",
	Long: `Render the configured widget to stdout: the fragment by default, or a
complete demo page with --page. The markup posts to the endpoints of a running
"formify serve"; use --base-path and --live-path when they are mounted
elsewhere.

Examples:
  formify render                 # Print the widget fragment
  formify render --page --open   # Print a full page with the panel open
  formify render --audit         # Also check the markup for accessibility issues`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	defaults := components.DefaultOptions()
	renderCmd.Flags().Bool("page", false, "Render a complete HTML page")
	renderCmd.Flags().Bool("open", false, "Render the panel open")
	renderCmd.Flags().Bool("audit", false, "Audit the markup and report issues on stderr")
	renderCmd.Flags().String("base-path", defaults.BasePath, "Path the widget endpoints are mounted on")
	renderCmd.Flags().String("live-path", defaults.LivePath, "Websocket path for --page (empty leaves out the live script)")
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	set, err := cfg.FieldSet()
	if err != nil {
		return err
	}

	// a rendered snapshot never submits
	w, err := widget.New(widget.Options{
		Fields: set,
		Title:  cfg.Widget.Title,
		Submitter: submit.Func(func(context.Context, fields.Values) (bool, error) {
			return false, errors.NewInternalError(errors.ErrCodeInternalError, "render does not submit", nil)
		}),
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if open, _ := cmd.Flags().GetBool("open"); open {
		w.Toggle()
	}

	opts := components.DefaultOptions()
	opts.BasePath, _ = cmd.Flags().GetString("base-path")
	opts.LivePath, _ = cmd.Flags().GetString("live-path")

	var c templ.Component
	if page, _ := cmd.Flags().GetBool("page"); page {
		c = components.Page(w.Snapshot(), opts)
	} else {
		c = components.Widget(w.Snapshot(), opts)
	}

	ctx := cmd.Context()
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return fmt.Errorf("failed to render widget: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
		return err
	}

	if audit, _ := cmd.Flags().GetBool("audit"); !audit {
		return nil
	}
	report, err := a11y.NewAuditor(logger).Audit(ctx, buf.String())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.ErrOrStderr(), report.Format())
	if report.HasErrors() {
		return fmt.Errorf("accessibility audit found %d issue(s)", len(report.Violations))
	}
	return nil
}
