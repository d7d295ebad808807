package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nmax_memory_mb: 10240\nemergency_threshold_pct: 90\nmonitor_interval_seconds: 10\nstats_db_path: /var/lib/orchd/stats.db\nmemory_probe: system\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.MaxMemoryMB != 10240 || cfg.EmergencyThresholdPct != 90 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.MonitorIntervalSeconds != 10 || cfg.StatsDBPath != "/var/lib/orchd/stats.db" || cfg.MemoryProbe != "system" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","max_memory_mb":4096,"max_inference_slots":4,"drain_grace_seconds":5,"log_level":"debug"}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.MaxMemoryMB != 4096 || cfg.MaxInferenceSlots != 4 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.DrainGraceSeconds != 5 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nmax_memory_mb=8192\ncors_enabled=true\ncors_allowed_origins=[\"https://app.local\"]\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.MaxMemoryMB != 8192 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !cfg.CORSEnabled || len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "https://app.local" {
		t.Fatalf("unexpected cors cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
	p = writeTempFile(t, d, "bad.yaml", "addr: :8080\n: broken\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected YAML unmarshal error")
	}
}

func TestLoadValidation(t *testing.T) {
	d := t.TempDir()

	p := writeTempFile(t, d, "neg.yaml", "max_memory_mb: -1\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected negative budget error")
	}

	p = writeTempFile(t, d, "pct.yaml", "emergency_threshold_pct: 150\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected threshold range error")
	}

	p = writeTempFile(t, d, "probe.yaml", "memory_probe: psychic\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unknown probe error")
	}
}
