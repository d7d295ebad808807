package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orchd/internal/estimate"
	"orchd/pkg/types"
)

// LoadModel admits a model under the memory budget and loads it through the
// backend. The whole budget-check/evict/load sequence runs under the
// admission lock, so two loads can never admit against the same headroom.
//
// progress, when non-nil, receives fractional completion updates in
// [0.0, 1.0] on a best-effort basis; delivery failures never fail the load.
func (o *Orchestrator) LoadModel(ctx context.Context, req types.ModelRequest, progress func(float64)) (types.ModelHandle, error) {
	if req.ModelID == "" {
		return types.ModelHandle{}, fmt.Errorf("model id is required")
	}
	if !req.Kind.Valid() {
		return types.ModelHandle{}, fmt.Errorf("unsupported model kind %q", req.Kind)
	}
	if err := o.acquireAdmission(ctx); err != nil {
		return types.ModelHandle{}, err
	}
	defer o.releaseAdmission()

	// Idempotent re-load: the existing session is returned as-is, without a
	// backend liveness re-check.
	if lm, ok := o.reg.get(req.ModelID); ok {
		lm.touch()
		o.log.Debug().Str("model", req.ModelID).Msg("already loaded")
		return types.ModelHandle{ModelID: lm.ID, SessionID: lm.SessionID}, nil
	}

	required := estimate.Memory(req)
	o.pub.Publish(Event{Name: "load_start", ModelID: req.ModelID, Time: time.Now(), Fields: map[string]any{
		"required_bytes": required,
	}})

	// Evict LRU victims until the request fits the budget.
	for {
		usage := o.probe.CurrentUsage()
		if usage+required <= o.cfg.MaxMemoryBytes {
			break
		}
		victim, ok := selectVictim(o.reg.snapshot())
		if !ok {
			avail := availableWithin(o.cfg.MaxMemoryBytes, usage)
			loadFailuresTotal.WithLabelValues("insufficient_memory").Inc()
			o.log.Warn().Str("model", req.ModelID).
				Uint64("required_bytes", required).
				Uint64("available_bytes", avail).
				Msg("load rejected: no evictable model")
			return types.ModelHandle{}, ErrInsufficientMemory(required, avail)
		}
		o.evict(ctx, victim, evictModeRoutine)
	}

	// Derive a default quantization from headroom when the request leaves it
	// open; explicit requests always win.
	if req.Quantization == "" && req.Kind == types.KindLLM {
		headroom := availableWithin(o.cfg.MaxMemoryBytes, o.probe.CurrentUsage())
		req.Quantization = estimate.DefaultQuantization(headroom)
	}

	start := time.Now()
	sess, err := o.loader.Load(ctx, req, o.cfg.Provider, safeProgress(progress))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			loadFailuresTotal.WithLabelValues("canceled").Inc()
			return types.ModelHandle{}, err
		}
		loadFailuresTotal.WithLabelValues("backend").Inc()
		o.pub.Publish(Event{Name: "load_failed", ModelID: req.ModelID, Time: time.Now(), Fields: map[string]any{
			"error": err.Error(),
		}})
		return types.ModelHandle{}, ErrBackendLoad(req.ModelID, req.Path, err)
	}

	lm := &loadedModel{
		ID:           req.ModelID,
		SessionID:    sess.ID(),
		Kind:         req.Kind,
		Provider:     o.cfg.Provider,
		MemoryBytes:  required,
		Pinned:       req.Pinned,
		LoadDuration: time.Since(start),
		LoadedAt:     time.Now(),
		session:      sess,
	}
	lm.touch()
	if o.stats != nil {
		// Warm-start the access counter so eviction ordering survives
		// restarts. LastAccessed stays at now to keep it non-decreasing.
		if count, _, ok := o.stats.get(req.ModelID); ok {
			lm.accessCount.Store(count + 1)
		}
	}
	o.reg.insertIfAbsent(lm)

	o.loads.Add(1)
	loadsTotal.Inc()
	o.updateGauges()
	o.pub.Publish(Event{Name: "load_ready", ModelID: req.ModelID, Time: time.Now(), Fields: map[string]any{
		"session_id":   lm.SessionID,
		"memory_bytes": lm.MemoryBytes,
		"dur_ms":       lm.LoadDuration.Milliseconds(),
	}})
	o.log.Info().Str("model", req.ModelID).Str("session", lm.SessionID).
		Uint64("memory_bytes", lm.MemoryBytes).
		Dur("load_dur", lm.LoadDuration).
		Msg("model loaded")
	return types.ModelHandle{ModelID: lm.ID, SessionID: lm.SessionID}, nil
}

// safeProgress wraps a caller-provided progress callback so panics and nil
// callbacks never affect the load.
func safeProgress(progress func(float64)) func(float64) {
	if progress == nil {
		return nil
	}
	return func(p float64) {
		defer func() {
			_ = recover()
		}()
		progress(p)
	}
}
