// Package orchestrator coordinates model loads, unloads and inference under
// a hard memory budget. A single admission lock serializes every operation
// that mutates the budget or registry membership; per-model access counters
// stay off that lock so the inference path never contends with loads.
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"orchd/internal/backend"
	"orchd/internal/memprobe"
)

type Orchestrator struct {
	cfg Config
	log zerolog.Logger
	pub EventPublisher

	reg    *registry
	probe  memprobe.Probe
	loader backend.Loader

	// admission is the global lock serializing budget-affecting operations.
	// A channel rather than a mutex so acquisition honors cancellation.
	admission chan struct{}
	// inferSlots bounds concurrent backend inference calls.
	inferSlots chan struct{}

	stats *statStore // nil when persistence is disabled

	startTime          time.Time
	loads              atomic.Uint64
	evictions          atomic.Uint64
	emergencyEvictions atomic.Uint64

	closed      atomic.Bool
	closeOnce   sync.Once
	stopMonitor chan struct{}
	wg          sync.WaitGroup
}

// New constructs an Orchestrator and starts the background pressure monitor
// unless cfg.MonitorInterval is negative.
func New(cfg Config) *Orchestrator {
	cfg = cfg.withDefaults()
	o := &Orchestrator{
		cfg:         cfg,
		log:         cfg.Logger,
		pub:         cfg.Publisher,
		reg:         newRegistry(),
		loader:      cfg.Loader,
		admission:   make(chan struct{}, 1),
		inferSlots:  make(chan struct{}, cfg.MaxInferenceSlots),
		startTime:   time.Now(),
		stopMonitor: make(chan struct{}),
	}
	switch {
	case cfg.Probe != nil:
		o.probe = cfg.Probe
	case cfg.SystemProbe:
		o.probe = memprobe.NewSystem(o.log, o.reg.usage)
	default:
		o.probe = memprobe.Func(o.reg.usage)
	}
	if cfg.StatsPath != "" {
		st, err := openStatStore(cfg.StatsPath)
		if err != nil {
			o.log.Warn().Err(err).Str("path", cfg.StatsPath).Msg("stat store unavailable, continuing without persistence")
		} else {
			o.stats = st
		}
	}
	if cfg.MonitorInterval > 0 {
		o.wg.Add(1)
		go o.runMonitor()
	}
	return o
}

// Ready reports whether the orchestrator accepts requests.
func (o *Orchestrator) Ready() bool { return !o.closed.Load() }

// Provider returns the execution provider models are loaded on.
func (o *Orchestrator) Provider() backend.Provider { return o.cfg.Provider }

// acquireAdmission takes the global admission lock, honoring cancellation.
func (o *Orchestrator) acquireAdmission(ctx context.Context) error {
	select {
	case o.admission <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) releaseAdmission() { <-o.admission }

// releaseModel releases a model's backend resource and removes its registry
// entry. Must be called with the admission lock held so the release+remove
// pair is atomic with respect to other budget-affecting operations. The
// backend resource is released exactly once.
func (o *Orchestrator) releaseModel(ctx context.Context, lm *loadedModel, reason string) {
	if !lm.released.CompareAndSwap(false, true) {
		return
	}
	// Graceful release bounded by the drain grace, then force-terminate.
	// Detached from caller cancellation: once started, release completes.
	gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.DrainGrace)
	err := lm.session.Close(gctx)
	cancel()
	if err != nil {
		o.log.Warn().Err(err).Str("model", lm.ID).Msg("graceful release failed, force-terminating")
		lm.session.Kill()
	}
	o.reg.remove(lm.ID)
	if o.stats != nil {
		if err := o.stats.put(lm.ID, lm.accessCount.Load(), lm.lastAccessedTime().Unix()); err != nil {
			o.log.Debug().Err(err).Str("model", lm.ID).Msg("stat persistence failed")
		}
	}
	o.updateGauges()
	o.pub.Publish(Event{Name: "model_released", ModelID: lm.ID, Time: time.Now(), Fields: map[string]any{
		"reason":       reason,
		"memory_bytes": lm.MemoryBytes,
	}})
	o.log.Info().Str("model", lm.ID).Str("reason", reason).Uint64("memory_bytes", lm.MemoryBytes).Msg("model released")
}

// evict releases a victim and records eviction accounting. Admission lock
// must be held.
func (o *Orchestrator) evict(ctx context.Context, lm *loadedModel, mode string) {
	o.releaseModel(ctx, lm, "evict_"+mode)
	o.evictions.Add(1)
	if mode == evictModeEmergency {
		o.emergencyEvictions.Add(1)
	}
	evictionsTotal.WithLabelValues(mode).Inc()
}

const (
	evictModeRoutine   = "routine"
	evictModeEmergency = "emergency"
)

func (o *Orchestrator) updateGauges() {
	loadedModels.Set(float64(o.reg.len()))
	memoryUsedBytes.Set(float64(o.reg.usage()))
}

// availableWithin returns budget minus usage, clamped at zero.
func availableWithin(budget, usage uint64) uint64 {
	if usage >= budget {
		return 0
	}
	return budget - usage
}

// Close stops the monitor and releases every registered model's backend
// resource, best-effort and synchronous, so no orphaned backend processes
// survive the orchestrator.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.closed.Store(true)
		close(o.stopMonitor)
		o.wg.Wait()

		ctx := context.Background()
		o.admission <- struct{}{}
		defer o.releaseAdmission()
		for _, lm := range o.reg.snapshot() {
			o.releaseModel(ctx, lm, "shutdown")
		}
		if o.stats != nil {
			if err := o.stats.close(); err != nil {
				o.log.Debug().Err(err).Msg("stat store close failed")
			}
		}
		o.log.Info().Msg("orchestrator closed")
	})
}
