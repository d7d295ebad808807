package orchestrator

import (
	"time"

	"orchd/pkg/types"
)

// Stats builds an orchestrator-wide snapshot. It reads the registry without
// the admission lock, so it never blocks behind a slow load; the result may
// be slightly stale under concurrent mutation, which is acceptable for
// observability output.
func (o *Orchestrator) Stats() types.StatsResponse {
	snap := o.reg.snapshot()
	resp := types.StatsResponse{
		Models:                  make([]types.ModelStats, 0, len(snap)),
		BudgetBytes:             o.cfg.MaxMemoryBytes,
		LoadsTotal:              o.loads.Load(),
		EvictionsTotal:          o.evictions.Load(),
		EmergencyEvictionsTotal: o.emergencyEvictions.Load(),
		UptimeSeconds:           int64(time.Since(o.startTime).Seconds()),
		ServerTimeUnix:          time.Now().Unix(),
	}
	var used uint64
	for _, lm := range snap {
		used += lm.MemoryBytes
		resp.Models = append(resp.Models, types.ModelStats{
			ModelID:          lm.ID,
			SessionID:        lm.SessionID,
			Kind:             lm.Kind,
			Provider:         string(lm.Provider),
			MemoryBytes:      lm.MemoryBytes,
			AccessCount:      lm.accessCount.Load(),
			LastAccessedUnix: lm.lastAccessedTime().Unix(),
			Pinned:           lm.Pinned,
			LoadDurationMs:   lm.LoadDuration.Milliseconds(),
		})
	}
	resp.LoadedCount = len(snap)
	resp.UsedBytes = used
	resp.AvailableBytes = availableWithin(o.cfg.MaxMemoryBytes, used)
	return resp
}
