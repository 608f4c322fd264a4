package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

type validatedConfig struct {
	Port int `yaml:"port"`
}

func (c *validatedConfig) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "name: memendex\nport: 8080\n")
	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "memendex" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CONFIG_NAME", "from-env")
	path := writeFile(t, "name: ${TEST_CONFIG_NAME}\n")
	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-env" {
		t.Errorf("name = %q, want from-env", cfg.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg testConfig
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoad_RunsValidation(t *testing.T) {
	path := writeFile(t, "port: -1\n")
	var cfg validatedConfig
	if err := Load(path, &cfg); err == nil {
		t.Error("expected a validation error")
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	cfg := testConfig{Name: "default", Port: 9090}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.Name != "default" || cfg.Port != 9090 {
		t.Errorf("cfg = %+v, defaults must survive", cfg)
	}
}

func TestLoadOptional_MissingFileStillValidates(t *testing.T) {
	cfg := validatedConfig{Port: 0}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Error("invalid defaults must fail even without a file")
	}
}

func TestLoadOptional_ExistingFileIsParsed(t *testing.T) {
	path := writeFile(t, "port: 7070\n")
	cfg := testConfig{Port: 9090}
	if err := LoadOptional(path, &cfg); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("port = %d, want file value 7070", cfg.Port)
	}
}
