package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/formify/internal/errors"
	"github.com/conneroisu/formify/internal/validation"
)

const fileHeader = `# formify configuration
# Every key can be overridden with FORMIFY_<SECTION>_<KEY>, e.g. FORMIFY_WIDGET_URL.
# Known widget fields: name, email, twitter, website, message.
`

// Marshal renders config as YAML.
func Marshal(config *Config) ([]byte, error) {
	out, err := yaml.Marshal(config)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInternalError, "encoding configuration", err)
	}
	return append([]byte(fileHeader), out...), nil
}

// WriteFile writes config to path. An existing file is only replaced when
// force is set.
func WriteFile(path string, config *Config, force bool) error {
	if err := validation.ValidatePath(path); err != nil {
		return errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "invalid config path")
	}
	if _, err := os.Stat(path); err == nil && !force {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("%s already exists (use --force to overwrite)", path))
	}

	data, err := Marshal(config)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapConfig(err, errors.ErrCodeConfigInvalid, fmt.Sprintf("failed to write %s", path))
	}
	return nil
}
