package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/formify/internal/fields"
)

// SetViperBindings binds flags to viper configuration keys. Commands call it
// from PreRunE so that two commands may share a flag name without fighting
// over the same key.
func SetViperBindings(cmd *cobra.Command, bindings map[string]string) error {
	for flagName, configKey := range bindings {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil {
			return fmt.Errorf("unknown flag %q", flagName)
		}
		if err := viper.BindPFlag(configKey, flag); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flagName, err)
		}
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidatePort accepts 0 (any free port) through 65535.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}

	return nil
}

// fieldValues collects repeated --field name=value flags.
type fieldValues struct {
	values map[string]string
}

var (
	_ pflag.Value      = (*fieldValues)(nil)
	_ pflag.SliceValue = (*fieldValues)(nil)
)

func newFieldValues() *fieldValues {
	return &fieldValues{values: make(map[string]string)}
}

func (f *fieldValues) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	field, err := fields.Parse(name)
	if err != nil {
		return err
	}
	f.values[field.String()] = value
	return nil
}

func (f *fieldValues) Type() string { return "name=value" }

func (f *fieldValues) String() string {
	return "[" + strings.Join(f.GetSlice(), ",") + "]"
}

func (f *fieldValues) Append(s string) error { return f.Set(s) }

func (f *fieldValues) Replace(items []string) error {
	f.values = make(map[string]string)
	for _, item := range items {
		if err := f.Set(item); err != nil {
			return err
		}
	}
	return nil
}

func (f *fieldValues) GetSlice() []string {
	out := make([]string, 0, len(f.values))
	for _, name := range f.names() {
		out = append(out, name+"="+f.values[name])
	}
	return out
}

func (f *fieldValues) names() []string {
	names := make([]string, 0, len(f.values))
	for name := range f.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
