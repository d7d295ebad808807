package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"orchd/internal/backend"
	"orchd/internal/common/fsutil"
	"orchd/internal/config"
	"orchd/internal/httpapi"
	"orchd/internal/orchestrator"
)

const mb = 1 << 20

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// buildRootCmd constructs the Cobra command tree for the daemon.
func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "orchd",
		Short:         "Model orchestration daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var cfgPath string
	cfg := config.Config{}

	serve := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP daemon",
		Example: "  orchd serve --addr :8080 --max-memory-mb 10240",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Config file first, then flags that were set explicitly win.
			merged := config.Config{}
			if cfgPath != "" {
				p, err := fsutil.ExpandHome(cfgPath)
				if err != nil {
					return err
				}
				if !fsutil.PathExists(p) {
					return fmt.Errorf("config file not found: %s", p)
				}
				loaded, err := config.Load(p)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				merged = loaded
			}
			overlayFlags(cmd, &merged, cfg)
			return runServe(merged)
		},
	}

	f := serve.Flags()
	f.StringVar(&cfgPath, "config", envStr("ORCHD_CONFIG", ""), "Path to config file (.yaml/.json/.toml)")
	f.StringVar(&cfg.Addr, "addr", envStr("ORCHD_ADDR", ":8080"), "HTTP listen address")
	f.IntVar(&cfg.MaxMemoryMB, "max-memory-mb", envInt("ORCHD_MAX_MEMORY_MB", 0), "Memory budget in MB for all loaded models (required)")
	f.IntVar(&cfg.EmergencyThresholdPct, "emergency-threshold-pct", envInt("ORCHD_EMERGENCY_THRESHOLD_PCT", 0), "Budget percentage that triggers emergency eviction (0=default)")
	f.IntVar(&cfg.MonitorIntervalSeconds, "monitor-interval-seconds", envInt("ORCHD_MONITOR_INTERVAL_SECONDS", 0), "Pressure monitor tick in seconds (0=default, -1 disables)")
	f.IntVar(&cfg.MaxInferenceSlots, "max-inference-slots", envInt("ORCHD_MAX_INFERENCE_SLOTS", 0), "Concurrent inference slots (0=default)")
	f.IntVar(&cfg.DrainGraceSeconds, "drain-grace-seconds", envInt("ORCHD_DRAIN_GRACE_SECONDS", 0), "Graceful unload window in seconds (0=default)")
	f.StringVar(&cfg.StatsDBPath, "stats-db", envStr("ORCHD_STATS_DB", ""), "Path to sqlite stats database (empty disables persistence)")
	f.StringVar(&cfg.MemoryProbe, "memory-probe", envStr("ORCHD_MEMORY_PROBE", "tracked"), "Memory probe: tracked|system")
	f.StringVar(&cfg.LogLevel, "log-level", envStr("ORCHD_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	f.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", 0, "Maximum request body size in bytes (0=default)")
	root.AddCommand(serve)

	version := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("orchd %s (provider: %s, llama: %v)\n", buildVersion, backend.DetectProvider(), backend.LlamaBuilt())
		},
	}
	root.AddCommand(version)

	return root
}

// buildVersion is stamped via -ldflags at release time.
var buildVersion = "dev"

// overlayFlags copies explicitly-set flag values over file-loaded config.
func overlayFlags(cmd *cobra.Command, dst *config.Config, flags config.Config) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if set("addr") || dst.Addr == "" {
		dst.Addr = flags.Addr
	}
	if set("max-memory-mb") || dst.MaxMemoryMB == 0 {
		dst.MaxMemoryMB = flags.MaxMemoryMB
	}
	if set("emergency-threshold-pct") || dst.EmergencyThresholdPct == 0 {
		dst.EmergencyThresholdPct = flags.EmergencyThresholdPct
	}
	if set("monitor-interval-seconds") || dst.MonitorIntervalSeconds == 0 {
		dst.MonitorIntervalSeconds = flags.MonitorIntervalSeconds
	}
	if set("max-inference-slots") || dst.MaxInferenceSlots == 0 {
		dst.MaxInferenceSlots = flags.MaxInferenceSlots
	}
	if set("drain-grace-seconds") || dst.DrainGraceSeconds == 0 {
		dst.DrainGraceSeconds = flags.DrainGraceSeconds
	}
	if set("stats-db") || dst.StatsDBPath == "" {
		dst.StatsDBPath = flags.StatsDBPath
	}
	if set("memory-probe") || dst.MemoryProbe == "" {
		dst.MemoryProbe = flags.MemoryProbe
	}
	if set("log-level") || dst.LogLevel == "" {
		dst.LogLevel = flags.LogLevel
	}
	if set("max-body-bytes") || dst.MaxBodyBytes == 0 {
		dst.MaxBodyBytes = flags.MaxBodyBytes
	}
}

func parseZerologLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func runServe(cfg config.Config) error {
	if cfg.MaxMemoryMB <= 0 {
		return fmt.Errorf("a memory budget is required: set --max-memory-mb or max_memory_mb in the config file")
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "orchd").Logger().
		Level(parseZerologLevel(cfg.LogLevel))

	budget := uint64(cfg.MaxMemoryMB) * mb
	var threshold uint64
	if cfg.EmergencyThresholdPct > 0 {
		threshold = budget / 100 * uint64(cfg.EmergencyThresholdPct)
	}

	var monitorInterval time.Duration
	switch {
	case cfg.MonitorIntervalSeconds < 0:
		monitorInterval = -1
	case cfg.MonitorIntervalSeconds > 0:
		monitorInterval = time.Duration(cfg.MonitorIntervalSeconds) * time.Second
	}

	statsPath := cfg.StatsDBPath
	if statsPath != "" {
		p, err := fsutil.ExpandHome(statsPath)
		if err != nil {
			return err
		}
		if err := fsutil.EnsureParentDir(p); err != nil {
			return fmt.Errorf("stats db dir: %w", err)
		}
		statsPath = p
	}

	var loader backend.Loader
	if backend.LlamaBuilt() {
		loader = backend.NewLlama(0)
	} else {
		loader = &backend.Simulated{}
	}

	orch := orchestrator.New(orchestrator.Config{
		MaxMemoryBytes:          budget,
		EmergencyThresholdBytes: threshold,
		MonitorInterval:         monitorInterval,
		MaxInferenceSlots:       cfg.MaxInferenceSlots,
		DrainGrace:              time.Duration(cfg.DrainGraceSeconds) * time.Second,
		StatsPath:               statsPath,
		SystemProbe:             cfg.MemoryProbe == "system",
		Loader:                  loader,
		Logger:                  log,
	})

	httpapi.SetLogger(log)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(orch)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Uint64("budget_bytes", budget).
			Str("provider", string(orch.Provider())).Msg("orchd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}

	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	orch.Close()
	return nil
}
