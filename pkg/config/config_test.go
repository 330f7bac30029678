package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Agent.MaxIterations != 10 {
		t.Errorf("MaxIterations = %d, want 10", cfg.Agent.MaxIterations)
	}
	if cfg.DBPath() != filepath.Join("data", "growthdesk.db") {
		t.Errorf("DBPath = %q", cfg.DBPath())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.Name != "gemini-2.0-flash" {
		t.Errorf("Name = %q, want gemini-2.0-flash", cfg.Model.Name)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "growthdesk.toml")
	content := `
[server]
addr = ":9999"

[agent]
max_iterations = 4

[data]
dir = "/var/lib/growthdesk"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999", cfg.Server.Addr)
	}
	if cfg.Agent.MaxIterations != 4 {
		t.Errorf("MaxIterations = %d, want 4", cfg.Agent.MaxIterations)
	}
	// Unset sections keep their defaults.
	if cfg.Model.Name != "gemini-2.0-flash" {
		t.Errorf("Name = %q, want default", cfg.Model.Name)
	}
	if cfg.DBPath() != filepath.Join("/var/lib/growthdesk", "growthdesk.db") {
		t.Errorf("DBPath = %q", cfg.DBPath())
	}
}

func TestBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error, got nil")
	}
}
