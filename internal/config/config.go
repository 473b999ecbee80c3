// Package config provides configuration management for formify using Viper
// for loading from files, environment variables and command-line flags.
//
// The configuration is a YAML file (.formify.yml by default) with three
// sections: the widget (fields, submission URL, title, alert delay), the host
// server and logging. Every key can be overridden with a FORMIFY_ prefixed
// environment variable, e.g. FORMIFY_WIDGET_URL or FORMIFY_SERVER_PORT.
package config

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/formify/internal/errors"
	"github.com/conneroisu/formify/internal/fields"
	"github.com/conneroisu/formify/internal/logging"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "FORMIFY"

// DefaultFileName is the config file searched for in the working directory.
const DefaultFileName = ".formify.yml"

type Config struct {
	Widget WidgetConfig `mapstructure:"widget" yaml:"widget"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type WidgetConfig struct {
	Fields     []string      `mapstructure:"fields" yaml:"fields"`
	URL        string        `mapstructure:"url" yaml:"url"`
	Title      string        `mapstructure:"title" yaml:"title"`
	AlertDelay time.Duration `mapstructure:"alert_delay" yaml:"alert_delay"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host" yaml:"host"`
	Port           int           `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	SessionTTL     time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	Echo           bool          `mapstructure:"echo" yaml:"echo"`
	// SubmitRate caps submissions per client IP per minute; 0 disables.
	SubmitRate int `mapstructure:"submit_rate" yaml:"submit_rate"`
	// MaxSessions bounds live sessions; the least recently seen is evicted
	// past it. 0 means unbounded.
	MaxSessions int `mapstructure:"max_sessions" yaml:"max_sessions"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Widget: WidgetConfig{
			Fields:     []string{"name", "email", "message"},
			Title:      "Contact",
			AlertDelay: 2500 * time.Millisecond,
		},
		Server: ServerConfig{
			Host:        "localhost",
			Port:        8080,
			SessionTTL:  30 * time.Minute,
			SubmitRate:  30,
			MaxSessions: 1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers Default() with v so that environment overrides of
// nested keys are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("widget.fields", d.Widget.Fields)
	v.SetDefault("widget.url", d.Widget.URL)
	v.SetDefault("widget.title", d.Widget.Title)
	v.SetDefault("widget.alert_delay", d.Widget.AlertDelay)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.session_ttl", d.Server.SessionTTL)
	v.SetDefault("server.echo", d.Server.Echo)
	v.SetDefault("server.submit_rate", d.Server.SubmitRate)
	v.SetDefault("server.max_sessions", d.Server.MaxSessions)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// ConfigureEnv enables FORMIFY_ environment overrides on v.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from the global viper instance set up by the
// CLI.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	config, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if result := Validate(config); result.HasErrors() {
		return nil, result.Err()
	}
	return config, nil
}

// Decode unmarshals the configuration held by v and fills defaults without
// validating it.
func Decode(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "failed to decode configuration")
	}

	// env values for slices arrive as one comma separated string
	if len(config.Widget.Fields) == 1 && strings.Contains(config.Widget.Fields[0], ",") {
		config.Widget.Fields = splitList(config.Widget.Fields[0])
	}
	if len(config.Server.AllowedOrigins) == 1 && strings.Contains(config.Server.AllowedOrigins[0], ",") {
		config.Server.AllowedOrigins = splitList(config.Server.AllowedOrigins[0])
	}

	config.applyDefaults()
	return &config, nil
}

// ReadFile loads a single config file with environment overrides and no
// flag bindings. Used when reloading a watched file.
func ReadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	ConfigureEnv(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, fmt.Sprintf("failed to read %s", path))
	}
	return LoadFrom(v)
}

func (c *Config) applyDefaults() {
	d := Default()
	if len(c.Widget.Fields) == 0 {
		c.Widget.Fields = d.Widget.Fields
	}
	if c.Widget.Title == "" {
		c.Widget.Title = d.Widget.Title
	}
	if c.Widget.AlertDelay == 0 {
		c.Widget.AlertDelay = d.Widget.AlertDelay
	}
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.SessionTTL == 0 {
		c.Server.SessionTTL = d.Server.SessionTTL
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	for i, name := range c.Widget.Fields {
		c.Widget.Fields[i] = strings.ToLower(strings.TrimSpace(name))
	}
}

// FieldSet builds the ordered field set the widget is configured with.
func (c *Config) FieldSet() (fields.Set, error) {
	return fields.NewSet(c.Widget.Fields...)
}

// Addr is the host:port the server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// SubmissionURL returns the configured URL, falling back to the local echo
// sink when the server runs one.
func (c *Config) SubmissionURL() (string, error) {
	if c.Widget.URL != "" {
		return c.Widget.URL, nil
	}
	if c.Server.Echo {
		host := c.Server.Host
		if host == "" || host == "0.0.0.0" || host == "::" {
			host = "localhost"
		}
		return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Server.Port)) + "/echo", nil
	}
	return "", errors.NewConfigError(errors.ErrCodeConfigInvalid, "widget.url is required").
		WithField("widget.url")
}

// LoggerConfig converts the log section for logging.NewLogger.
func (c *Config) LoggerConfig(out io.Writer) (*logging.LoggerConfig, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "invalid log.level")
	}
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = c.Log.Format
	if out != nil {
		lc.Output = out
	}
	return lc, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
