package orchestrator

import "sort"

// selectVictim picks the routine eviction victim: the least-recently-used
// non-pinned model, ties broken by fewer total accesses. Returns false when
// no eligible model exists, which the load path maps to an
// insufficient-memory failure.
func selectVictim(models []*loadedModel) (*loadedModel, bool) {
	var victim *loadedModel
	var victimLast int64
	var victimCount uint64
	for _, lm := range models {
		if lm.Pinned {
			continue
		}
		last := lm.lastAccessed.Load()
		count := lm.accessCount.Load()
		if victim == nil ||
			last < victimLast ||
			(last == victimLast && count < victimCount) {
			victim, victimLast, victimCount = lm, last, count
		}
	}
	return victim, victim != nil
}

// selectEmergencyVictims picks up to max non-pinned models ordered by
// access count ascending. Unlike the routine path, the emergency pass
// targets rarely-used models rather than stale ones.
func selectEmergencyVictims(models []*loadedModel, max int) []*loadedModel {
	eligible := make([]*loadedModel, 0, len(models))
	for _, lm := range models {
		if !lm.Pinned {
			eligible = append(eligible, lm)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		ci, cj := eligible[i].accessCount.Load(), eligible[j].accessCount.Load()
		if ci != cj {
			return ci < cj
		}
		return eligible[i].lastAccessed.Load() < eligible[j].lastAccessed.Load()
	})
	if len(eligible) > max {
		eligible = eligible[:max]
	}
	return eligible
}
