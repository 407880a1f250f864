package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
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

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "name: eyefile\nport: 8080\n")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "eyefile" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadKeepsDefaultsForOmittedFields(t *testing.T) {
	path := writeConfig(t, "port: 9090\n")

	cfg := testConfig{Name: "default-name", Port: 8080}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "default-name" {
		t.Errorf("name = %q, want default preserved", cfg.Name)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Port)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_CONFIG_NAME", "from-env")
	path := writeConfig(t, "name: ${TEST_CONFIG_NAME}\nport: 1\n")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-env" {
		t.Errorf("name = %q, want from-env", cfg.Name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	var cfg testConfig
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "name: [unclosed\n")

	var cfg testConfig
	if err := Load(path, &cfg); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadRunsValidator(t *testing.T) {
	path := writeConfig(t, "port: -1\n")

	var cfg validatedConfig
	err := Load(path, &cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "port must be positive") {
		t.Errorf("error = %v", err)
	}
}
