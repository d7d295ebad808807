package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"orchd/pkg/types"
)

// Simulated is the default Loader. It mimics backend instantiation latency
// and produces deterministic placeholder output per model kind, which keeps
// default builds CGO-free (real runtimes live behind build tags).
type Simulated struct {
	// LoadDelay is slept once per load, cancellable. Zero means no delay.
	LoadDelay time.Duration
	// InferDelay is slept once per inference call, cancellable.
	InferDelay time.Duration
}

func (s *Simulated) Load(ctx context.Context, req types.ModelRequest, provider Provider, progress func(float64)) (Session, error) {
	// Each kind has its own loading routine; they share session construction.
	var infer inferFunc
	switch req.Kind {
	case types.KindLLM:
		infer = s.loadLLM(req)
	case types.KindSpeech:
		infer = s.loadSpeech(req)
	case types.KindVision:
		infer = s.loadVision(req)
	case types.KindEmbedding:
		infer = s.loadEmbedding(req)
	default:
		return nil, fmt.Errorf("unsupported model kind %q", req.Kind)
	}

	steps := []float64{0.25, 0.5, 0.75, 1.0}
	for _, p := range steps {
		if err := sleepCtx(ctx, s.LoadDelay/time.Duration(len(steps))); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(p)
		}
	}

	return &simSession{
		id:         uuid.NewString(),
		modelID:    req.ModelID,
		provider:   provider,
		inferDelay: s.InferDelay,
		infer:      infer,
	}, nil
}

type inferFunc func(input string, maxTokens int) Output

func (s *Simulated) loadLLM(req types.ModelRequest) inferFunc {
	return func(input string, maxTokens int) Output {
		tokens := len(strings.Fields(input)) + 16
		if maxTokens > 0 && tokens > maxTokens {
			tokens = maxTokens
		}
		return Output{
			Text:   fmt.Sprintf("[%s] completion for %d-byte prompt", req.ModelID, len(input)),
			Tokens: tokens,
		}
	}
}

func (s *Simulated) loadSpeech(req types.ModelRequest) inferFunc {
	return func(input string, _ int) Output {
		return Output{
			Text:   fmt.Sprintf("[%s] transcript of %q", req.ModelID, input),
			Tokens: len(strings.Fields(input)) + 4,
		}
	}
}

func (s *Simulated) loadVision(req types.ModelRequest) inferFunc {
	return func(input string, _ int) Output {
		return Output{
			Text:   fmt.Sprintf("[%s] caption for %s", req.ModelID, input),
			Tokens: 24,
		}
	}
}

func (s *Simulated) loadEmbedding(req types.ModelRequest) inferFunc {
	return func(input string, _ int) Output {
		// Report the embedding dimensionality as the unit of work.
		return Output{
			Text:   fmt.Sprintf("[%s] embedding(dims=384) of %d bytes", req.ModelID, len(input)),
			Tokens: 384,
		}
	}
}

type simSession struct {
	id         string
	modelID    string
	provider   Provider
	inferDelay time.Duration
	infer      inferFunc
}

func (s *simSession) ID() string { return s.id }

func (s *simSession) Infer(ctx context.Context, input string, maxTokens int) (Output, error) {
	if err := sleepCtx(ctx, s.inferDelay); err != nil {
		return Output{}, err
	}
	return s.infer(input, maxTokens), nil
}

func (s *simSession) Close(ctx context.Context) error { return nil }

func (s *simSession) Kill() {}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// Still honor an already-canceled context.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
