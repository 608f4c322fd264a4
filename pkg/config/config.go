// Package config loads YAML configuration files with environment
// variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configurations that check themselves
// after loading.
type Validator interface {
	Validate() error
}

// Load reads a YAML file into target, expanding ${VAR} references from
// the environment first. If target implements Validator it is validated
// after unmarshaling.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	return parse(filename, data, target)
}

// LoadOptional is Load, except a missing file is not an error: target is
// left as-is (typically pre-filled with defaults) and only validated.
// This lets the application start without a config file at all.
func LoadOptional[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return validate(target)
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	return parse(filename, data, target)
}

func parse[T any](filename string, data []byte, target *T) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	return validate(target)
}

func validate[T any](target *T) error {
	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}
