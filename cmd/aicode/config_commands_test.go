package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
)

func TestConfigInitCreatesSample(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	out, _, err := runCLI(t, []string{"config", "init"}, filepath.Join(homeDir, "unused.sock"), "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to")

	target := filepath.Join(homeDir, ".config", "aicode", "config.toml")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init"}, filepath.Join(homeDir, "unused.sock"), "")
	if err == nil {
		t.Fatal("expected error when config already exists")
	}
	requireContains(t, err.Error(), "--overwrite")

	out, _, err = runCLI(t, []string{"config", "init", "--overwrite"}, filepath.Join(homeDir, "unused.sock"), "")
	if err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to")
}

func TestConfigInitCustomPath(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	target := filepath.Join(homeDir, "custom", "aicode.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, filepath.Join(homeDir, "unused.sock"), "")
	if err != nil {
		t.Fatalf("config init --path: %v", err)
	}
	requireContains(t, out, target)

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config at %s: %v", target, err)
	}
}

func TestConfigValidateCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateWithDefaults(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	out, _, err := runCLI(t, []string{"config", "validate"}, filepath.Join(homeDir, "unused.sock"), "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "defaults were used")
	requireContains(t, out, "Configuration valid")
}

func TestConfigShowCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[paths]")
	requireContains(t, out, env.cfg.Paths.LogDir)
	requireContains(t, out, "api_key_set")

	out, _, err = runCLI(t, []string{"--json", "config", "show"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("config show --json: %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if cfg.Paths.LogDir != env.cfg.Paths.LogDir {
		t.Fatalf("log dir = %q, want %q", cfg.Paths.LogDir, env.cfg.Paths.LogDir)
	}
}
