package orchestrator

import (
	"time"

	"github.com/rs/zerolog"

	"orchd/internal/backend"
	"orchd/internal/memprobe"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMonitorInterval   = 5 * time.Second
	defaultMaxInferenceSlots = 2
	defaultDrainGrace        = 3 * time.Second

	// Percentage of the budget at which the background monitor starts
	// evicting proactively.
	defaultEmergencyPercent = 92

	// The emergency pass removes at most this many models per tick.
	emergencyVictimCount = 2
)

// Config encapsulates all tunables for Orchestrator construction.
type Config struct {
	// MaxMemoryBytes is the hard budget the registry must stay under.
	MaxMemoryBytes uint64
	// EmergencyThresholdBytes triggers the background eviction pass.
	// Zero derives it as 92% of MaxMemoryBytes.
	EmergencyThresholdBytes uint64
	// MonitorInterval is the pressure monitor tick. Zero uses the default;
	// a negative value disables the monitor entirely.
	MonitorInterval time.Duration
	// MaxInferenceSlots bounds concurrent backend inference calls.
	MaxInferenceSlots int
	// DrainGrace bounds graceful backend release before force-termination.
	DrainGrace time.Duration
	// StatsPath, when set, names a sqlite database used to persist access
	// stats across restarts. Persistence failures are logged, never surfaced.
	StatsPath string

	// Probe reports current device memory usage. Nil defaults to the
	// registry's tracked usage (the conservative fallback).
	Probe memprobe.Probe
	// SystemProbe, when Probe is nil, selects the OS-backed probe with the
	// registry's tracked usage bound as its failure fallback.
	SystemProbe bool
	// Loader instantiates models. Nil defaults to the simulated backend.
	Loader backend.Loader
	// Provider overrides execution-provider detection when non-empty.
	Provider backend.Provider

	Logger    zerolog.Logger
	Publisher EventPublisher
}

func (c Config) withDefaults() Config {
	if c.EmergencyThresholdBytes == 0 && c.MaxMemoryBytes > 0 {
		c.EmergencyThresholdBytes = c.MaxMemoryBytes / 100 * defaultEmergencyPercent
	}
	if c.MonitorInterval == 0 {
		c.MonitorInterval = defaultMonitorInterval
	}
	if c.MaxInferenceSlots <= 0 {
		c.MaxInferenceSlots = defaultMaxInferenceSlots
	}
	if c.DrainGrace <= 0 {
		c.DrainGrace = defaultDrainGrace
	}
	if c.Loader == nil {
		c.Loader = &backend.Simulated{}
	}
	if c.Provider == "" {
		c.Provider = backend.DetectProvider()
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	return c
}
