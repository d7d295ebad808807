package orchestrator

import (
	"context"
	"time"
)

// runMonitor is the background pressure monitor. Each tick samples device
// memory and, above the emergency threshold, forcibly evicts rarely-used
// models even without a pending load. This guards against external memory
// growth the load path alone would never see. Per-tick failures are logged
// and swallowed; the loop only exits on Close.
func (o *Orchestrator) runMonitor() {
	defer o.wg.Done()
	ticker := time.NewTicker(o.cfg.MonitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-o.stopMonitor:
			return
		case <-ticker.C:
			o.emergencyPass()
		}
	}
}

func (o *Orchestrator) emergencyPass() {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Any("panic", r).Msg("emergency pass panicked")
		}
	}()

	if o.cfg.EmergencyThresholdBytes == 0 {
		return
	}
	usage := o.probe.CurrentUsage()
	if usage < o.cfg.EmergencyThresholdBytes {
		return
	}

	// Bound the whole pass so a stuck release cannot wedge the monitor.
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.DrainGrace+time.Second)
	defer cancel()
	if err := o.acquireAdmission(ctx); err != nil {
		o.log.Warn().Err(err).Msg("emergency pass could not take admission lock")
		return
	}
	defer o.releaseAdmission()

	victims := selectEmergencyVictims(o.reg.snapshot(), emergencyVictimCount)
	if len(victims) == 0 {
		o.log.Warn().Uint64("usage_bytes", usage).Msg("memory pressure but no evictable model")
		return
	}
	for _, lm := range victims {
		o.evict(ctx, lm, evictModeEmergency)
	}
	o.pub.Publish(Event{Name: "emergency_evict", Time: time.Now(), Fields: map[string]any{
		"usage_bytes": usage,
		"victims":     len(victims),
	}})
	o.log.Warn().Uint64("usage_bytes", usage).Int("victims", len(victims)).Msg("emergency eviction pass")
}
