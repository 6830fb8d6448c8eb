package bridge

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "juliabridge.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
exe_path: /opt/julia/bin/julia
string_length_limit: 32767
vector_as_column: true
poll_interval: 50ms
startup_timeout: 2m
install_dirs:
  - /srv/julia
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ExePath != "/opt/julia/bin/julia" {
		t.Fatalf("ExePath = %q", cfg.ExePath)
	}
	if cfg.StringLengthLimit != 32767 {
		t.Fatalf("StringLengthLimit = %d", cfg.StringLengthLimit)
	}
	if !cfg.VectorAsColumn {
		t.Fatal("VectorAsColumn not set")
	}
	if time.Duration(cfg.PollInterval) != 50*time.Millisecond {
		t.Fatalf("PollInterval = %v", time.Duration(cfg.PollInterval))
	}
	if time.Duration(cfg.StartupTimeout) != 2*time.Minute {
		t.Fatalf("StartupTimeout = %v", time.Duration(cfg.StartupTimeout))
	}
	if len(cfg.InstallDirs) != 1 || cfg.InstallDirs[0] != "/srv/julia" {
		t.Fatalf("InstallDirs = %v", cfg.InstallDirs)
	}
	// Untouched fields keep their defaults.
	if cfg.AllowNesting {
		t.Fatal("AllowNesting should default to false")
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "exe_path: /from/file/julia\n")
	t.Setenv(ExeEnv, "/from/env/julia")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ExePath != "/from/env/julia" {
		t.Fatalf("ExePath = %q, want the environment override", cfg.ExePath)
	}
}

func TestLoadConfig_EmptyPathHonorsEnv(t *testing.T) {
	t.Setenv(ExeEnv, "/from/env/julia")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ExePath != "/from/env/julia" {
		t.Fatalf("ExePath = %q", cfg.ExePath)
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := writeConfig(t, "poll_interval: [not, a, duration]\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for malformed config")
	}

	path = writeConfig(t, "poll_interval: fast\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unparseable duration")
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}
