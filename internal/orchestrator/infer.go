package orchestrator

import (
	"context"
	"time"

	"orchd/pkg/types"
)

// Infer runs one inference call against a loaded model. It never takes the
// admission lock: access stats are advisory atomics, and concurrency is
// bounded only by the configured inference slots.
func (o *Orchestrator) Infer(ctx context.Context, req types.InferRequest) (types.InferenceResult, error) {
	if req.Model == "" {
		return types.InferenceResult{}, ErrModelNotLoaded("(unspecified)")
	}
	lm, ok := o.reg.get(req.Model)
	if !ok {
		return types.InferenceResult{}, ErrModelNotLoaded(req.Model)
	}

	select {
	case o.inferSlots <- struct{}{}:
	case <-ctx.Done():
		return types.InferenceResult{}, ctx.Err()
	}
	defer func() { <-o.inferSlots }()

	lm.touch()
	start := time.Now()
	out, err := lm.session.Infer(ctx, req.Input, req.MaxTokens)
	if err != nil {
		return types.InferenceResult{}, err
	}
	dur := time.Since(start)
	inferenceDuration.WithLabelValues(string(lm.Kind)).Observe(dur.Seconds())

	secs := dur.Seconds()
	if secs <= 0 {
		secs = 1e-6
	}
	return types.InferenceResult{
		ModelID:         lm.ID,
		Output:          out.Text,
		Tokens:          out.Tokens,
		DurationMs:      dur.Milliseconds(),
		TokensPerSecond: float64(out.Tokens) / secs,
	}, nil
}
