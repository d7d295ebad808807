package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr                   string `json:"addr" yaml:"addr" toml:"addr"`
	MaxMemoryMB            int    `json:"max_memory_mb" yaml:"max_memory_mb" toml:"max_memory_mb"`
	EmergencyThresholdPct  int    `json:"emergency_threshold_pct" yaml:"emergency_threshold_pct" toml:"emergency_threshold_pct"`
	MonitorIntervalSeconds int    `json:"monitor_interval_seconds" yaml:"monitor_interval_seconds" toml:"monitor_interval_seconds"`
	MaxInferenceSlots      int    `json:"max_inference_slots" yaml:"max_inference_slots" toml:"max_inference_slots"`
	DrainGraceSeconds      int    `json:"drain_grace_seconds" yaml:"drain_grace_seconds" toml:"drain_grace_seconds"`
	StatsDBPath            string `json:"stats_db_path" yaml:"stats_db_path" toml:"stats_db_path"`
	MemoryProbe            string `json:"memory_probe" yaml:"memory_probe" toml:"memory_probe"`
	LogLevel               string `json:"log_level" yaml:"log_level" toml:"log_level"`
	MaxBodyBytes           int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.MaxMemoryMB < 0 {
		return fmt.Errorf("max_memory_mb must not be negative")
	}
	if c.EmergencyThresholdPct < 0 || c.EmergencyThresholdPct > 100 {
		return fmt.Errorf("emergency_threshold_pct must be between 0 and 100")
	}
	switch c.MemoryProbe {
	case "", "tracked", "system":
	default:
		return fmt.Errorf("memory_probe must be %q or %q", "tracked", "system")
	}
	return nil
}
