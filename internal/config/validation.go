package config

import (
	"fmt"
	"strings"

	"github.com/conneroisu/formify/internal/errors"
	"github.com/conneroisu/formify/internal/fields"
	"github.com/conneroisu/formify/internal/logging"
	"github.com/conneroisu/formify/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// Err folds the errors into one config error, or nil.
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	errs := make([]error, 0, len(vr.Errors))
	for i := range vr.Errors {
		errs = append(errs, &vr.Errors[i])
	}
	return errors.WrapConfig(errors.CombineErrors(errs...), errors.ErrCodeConfigInvalid, "invalid configuration").
		WithField(vr.Errors[0].Field)
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("❌ Validation Errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    💡 %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("⚠️  Validation Warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    💡 %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// Validate checks every section and collects errors and warnings.
func Validate(config *Config) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateWidgetConfig(&config.Widget, result)
	validateServerConfig(&config.Server, result)
	validateLogConfig(&config.Log, result)

	result.Valid = !result.HasErrors()
	return result
}

func validateWidgetConfig(config *WidgetConfig, result *ValidationResult) {
	if len(config.Fields) == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "widget.fields",
			Value:       config.Fields,
			Message:     "at least one field is required",
			Suggestions: []string{"Known fields: " + knownFields()},
		})
	}

	seen := make(map[string]bool)
	for _, name := range config.Fields {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, err := fields.Parse(key); err != nil {
			ve := ValidationError{
				Field:   "widget.fields",
				Value:   name,
				Message: fmt.Sprintf("unknown field %q", name),
			}
			if s, ok := fields.Suggest(key); ok {
				ve.Suggestions = append(ve.Suggestions, fmt.Sprintf("Did you mean %q?", s.String()))
			}
			ve.Suggestions = append(ve.Suggestions, "Known fields: "+knownFields())
			result.Errors = append(result.Errors, ve)
			continue
		}
		if seen[key] {
			result.Errors = append(result.Errors, ValidationError{
				Field:       "widget.fields",
				Value:       name,
				Message:     fmt.Sprintf("field %q is listed twice", name),
				Suggestions: []string{"Remove the duplicate entry"},
			})
		}
		seen[key] = true
	}

	if config.URL != "" {
		if err := validation.ValidateURL(config.URL); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "widget.url",
				Value:   config.URL,
				Message: err.Error(),
				Suggestions: []string{
					"Use an absolute http(s) URL, e.g. https://formspree.io/f/yourid",
					"Set server.echo: true and leave widget.url empty to use the local echo sink",
				},
			})
		} else if strings.HasPrefix(config.URL, "http://") && !isLocal(config.URL) {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:       "widget.url",
				Value:       config.URL,
				Message:     "submissions are sent unencrypted",
				Suggestions: []string{"Use an https:// endpoint"},
			})
		}
	}

	if config.AlertDelay < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "widget.alert_delay",
			Value:       config.AlertDelay,
			Message:     "alert delay cannot be negative",
			Suggestions: []string{"The default is 2.5s"},
		})
	}
}

func validateServerConfig(config *ServerConfig, result *ValidationResult) {
	if config.Port < 0 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			Suggestions: []string{
				"Use a port between 1024-65535 for non-privileged access",
				"Port 0 allows system to assign an available port",
			},
		})
	} else if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
			Suggestions: []string{
				"Consider using a port above 1024",
			},
		})
	}

	if err := validation.ValidateHost(config.Host); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.host",
			Value:   config.Host,
			Message: err.Error(),
			Suggestions: []string{
				"Use 'localhost' for local development",
				"Use '0.0.0.0' to bind to all interfaces",
			},
		})
	}

	for _, origin := range config.AllowedOrigins {
		if origin == "*" {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:       "server.allowed_origins",
				Value:       origin,
				Message:     "wildcard origin accepts websocket connections from any site",
				Suggestions: []string{"List the exact origins that embed the widget"},
			})
			continue
		}
		if err := validation.ValidateOrigin(origin); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:       "server.allowed_origins",
				Value:       origin,
				Message:     err.Error(),
				Suggestions: []string{"Origins look like https://example.com or http://localhost:3000"},
			})
		}
	}

	if config.SubmitRate < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "server.submit_rate",
			Value:       config.SubmitRate,
			Message:     "submit rate cannot be negative",
			Suggestions: []string{"Use 0 to disable rate limiting"},
		})
	}

	if config.MaxSessions < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "server.max_sessions",
			Value:       config.MaxSessions,
			Message:     "max sessions cannot be negative",
			Suggestions: []string{"Use 0 for no limit"},
		})
	}

	if config.SessionTTL < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "server.session_ttl",
			Value:       config.SessionTTL,
			Message:     "session TTL cannot be negative",
			Suggestions: []string{"The default is 30m"},
		})
	}
}

func validateLogConfig(config *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.level",
			Value:       config.Level,
			Message:     err.Error(),
			Suggestions: []string{"Use one of: debug, info, warn, error"},
		})
	}
	if config.Format != "" && config.Format != "text" && config.Format != "json" {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.format",
			Value:       config.Format,
			Message:     fmt.Sprintf("unknown log format %q", config.Format),
			Suggestions: []string{"Use 'text' or 'json'"},
		})
	}
}

func knownFields() string {
	names := make([]string, 0, len(fields.All()))
	for _, f := range fields.All() {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

func isLocal(rawURL string) bool {
	rest := strings.TrimPrefix(rawURL, "http://")
	return strings.HasPrefix(rest, "localhost") || strings.HasPrefix(rest, "127.0.0.1") || strings.HasPrefix(rest, "[::1]")
}
