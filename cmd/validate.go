package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/formify/internal/config"
)

var validateFormat string

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	Long: `Validate the resolved configuration (file, environment and defaults):

- Unknown or duplicate widget fields, with suggestions for typos
- Malformed submission URLs and allowed origins
- Out of range ports, delays and rates
- Unknown log levels and formats

Examples:
  formify validate                 # Human readable report
  formify validate --format json   # Machine readable report`,
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
}

type validationIssue struct {
	Field       string      `json:"field"`
	Value       interface{} `json:"value,omitempty"`
	Message     string      `json:"message"`
	Suggestions []string    `json:"suggestions,omitempty"`
}

type validationReport struct {
	Valid    bool              `json:"valid"`
	Config   string            `json:"config,omitempty"`
	Errors   []validationIssue `json:"errors"`
	Warnings []validationIssue `json:"warnings"`
}

func runValidateCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return err
	}
	result := config.Validate(cfg)

	out := cmd.OutOrStdout()
	switch validateFormat {
	case "json":
		report := validationReport{
			Valid:    result.Valid,
			Config:   viper.ConfigFileUsed(),
			Errors:   issues(result.Errors),
			Warnings: issues(result.Warnings),
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	case "text":
		if !result.HasErrors() && !result.HasWarnings() {
			fmt.Fprintln(out, "✅ Configuration is valid")
		} else {
			fmt.Fprint(out, result.String())
		}
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", validateFormat)
	}

	return result.Err()
}

func issues(in []config.ValidationError) []validationIssue {
	out := make([]validationIssue, 0, len(in))
	for _, ve := range in {
		out = append(out, validationIssue{
			Field:       ve.Field,
			Value:       ve.Value,
			Message:     ve.Message,
			Suggestions: ve.Suggestions,
		})
	}
	return out
}
