// Package yamlconf loads YAML configuration files with environment variable expansion.
package yamlconf

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configs that can check themselves after loading.
type Validator interface {
	Validate() error
}

// Load reads filename, expands ${VAR} references and decodes it into target.
// Keys absent from the file keep whatever target already held, so Load can
// overlay a file on top of env-derived defaults.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

// Overlay is Load for an optional file: an empty name or a missing file is a no-op.
func Overlay[T any](filename string, target *T) (bool, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return false, nil
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err := Load(filename, target); err != nil {
		return false, err
	}
	return true, nil
}
