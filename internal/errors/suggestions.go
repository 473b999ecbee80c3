package errors

import (
	"fmt"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Command     string
	Example     string
}

// ServerStartError generates suggestions for server startup failures
func ServerStartError(err error, port int) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{}

	errStr := err.Error()

	if strings.Contains(errStr, "address already in use") || strings.Contains(errStr, "bind") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Port already in use",
			Description: fmt.Sprintf("Port %d is already being used by another process", port),
			Command:     fmt.Sprintf("lsof -i :%d", port),
		})

		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Use a different port",
			Description: "Start the server on a different port",
			Command:     fmt.Sprintf("formify serve --port %d", port+1000),
		})
	}

	if strings.Contains(errStr, "permission denied") && port < 1024 {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Use unprivileged port",
			Description: "Ports below 1024 require root privileges",
			Command:     "formify serve --port 8080",
		})
	}

	return suggestions
}

// ConfigurationError generates suggestions for configuration issues
func ConfigurationError(configError string, configPath string) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "Check configuration file",
			Description: "Verify your .formify.yml file exists and has valid syntax",
			Command:     "cat " + configPath,
		},
		{
			Title:       "Validate configuration",
			Description: "Use the validate command to check for issues",
			Command:     "formify validate",
		},
	}

	if strings.Contains(configError, "yaml") || strings.Contains(configError, "unmarshal") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Fix YAML syntax",
			Description: "There's a syntax error in your YAML configuration",
			Example:     "Use proper indentation and avoid tabs",
		})
	}

	if strings.Contains(configError, "field") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Check field names",
			Description: "Fields must be chosen from name, email, twitter, website, message",
			Example:     "widget:\n  fields: [name, email, message]",
		})
	}

	if strings.Contains(configError, "url") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Check the submission URL",
			Description: "The widget posts JSON to widget.url, which must be an absolute http(s) URL",
			Example:     "widget:\n  url: https://example.com/api/contact",
		})
	}

	return suggestions
}

// SubmissionError generates suggestions for a submission the endpoint did
// not accept.
func SubmissionError(err error, url string) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{}

	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Check the endpoint is reachable",
			Description: "The submission URL could not be reached",
			Command:     "curl -i -X POST -H 'Content-Type: application/json' -d '{}' " + url,
		})
	}

	if strings.Contains(errStr, "decoding response") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Answer with JSON",
			Description: "The endpoint must reply with a JSON body; anything but false, null, 0 and \"\" counts as success",
			Example:     `{"ok": true}`,
		})
	}

	if strings.Contains(errStr, "deadline exceeded") || strings.Contains(errStr, "Client.Timeout") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Allow more time",
			Description: "The endpoint did not answer before the timeout",
			Command:     "formify submit --timeout 60s ...",
		})
	}

	suggestions = append(suggestions, ErrorSuggestion{
		Title:       "Try the local echo sink",
		Description: "Serve the widget with a sink that accepts every submission",
		Command:     "formify serve --echo",
	})

	return suggestions
}

// FormatSuggestions formats suggestions into a user-friendly string
func FormatSuggestions(title string, suggestions []ErrorSuggestion) string {
	if len(suggestions) == 0 {
		return title
	}

	var output strings.Builder
	output.WriteString(title + "\n\n")
	output.WriteString("Suggestions:\n")

	for i, suggestion := range suggestions {
		output.WriteString(fmt.Sprintf("  %d. %s\n", i+1, suggestion.Title))
		if suggestion.Description != "" {
			output.WriteString(fmt.Sprintf("     %s\n", suggestion.Description))
		}
		if suggestion.Command != "" {
			output.WriteString(fmt.Sprintf("     Run: %s\n", suggestion.Command))
		}
		if suggestion.Example != "" {
			output.WriteString(fmt.Sprintf("     Example: %s\n", suggestion.Example))
		}
		output.WriteString("\n")
	}

	return output.String()
}

// EnhancedError wraps an error with suggestions
type EnhancedError struct {
	OriginalError error
	Title         string
	Suggestions   []ErrorSuggestion
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	if e.OriginalError == nil {
		return FormatSuggestions(e.Title, e.Suggestions)
	}
	return FormatSuggestions(e.Title+": "+e.OriginalError.Error(), e.Suggestions)
}

// Unwrap returns the original error
func (e *EnhancedError) Unwrap() error {
	return e.OriginalError
}

// NewEnhancedError creates a new enhanced error with suggestions
func NewEnhancedError(title string, originalError error, suggestions []ErrorSuggestion) *EnhancedError {
	return &EnhancedError{
		OriginalError: originalError,
		Title:         title,
		Suggestions:   suggestions,
	}
}
