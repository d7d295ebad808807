package orchestrator

import (
	"context"
	"runtime/debug"
)

// Unload releases a model's backend resource and removes it from the
// registry. Unloading an absent model is a warned no-op, making the
// operation idempotent.
func (o *Orchestrator) Unload(ctx context.Context, modelID string) error {
	if err := o.acquireAdmission(ctx); err != nil {
		return err
	}
	defer o.releaseAdmission()

	lm, ok := o.reg.get(modelID)
	if !ok {
		o.log.Warn().Str("model", modelID).Msg("unload requested for model that is not loaded")
		return nil
	}
	o.releaseModel(ctx, lm, "unload")

	// Second phase of the release: force a reclamation pass so the freed
	// memory is visible to the next admission check.
	debug.FreeOSMemory()
	return nil
}
