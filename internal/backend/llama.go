//go:build llama

package backend

import (
	"context"
	"errors"
	"runtime"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
	"github.com/google/uuid"

	"orchd/pkg/types"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// Llama loads GGUF models in-process via go-llama.cpp. Only the LLM kind is
// supported; other kinds fall back to the simulated routines.
type Llama struct {
	Threads int
	sim     Simulated
}

func NewLlama(threads int) *Llama {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &Llama{Threads: threads}
}

func (l *Llama) Load(ctx context.Context, req types.ModelRequest, provider Provider, progress func(float64)) (Session, error) {
	if req.Kind != types.KindLLM {
		return l.sim.Load(ctx, req, provider, progress)
	}
	if strings.TrimSpace(req.Path) == "" {
		return nil, errors.New("model path is empty")
	}
	if progress != nil {
		progress(0.1)
	}
	opts := []llama.ModelOption{}
	if req.ContextSize > 0 {
		opts = append(opts, llama.SetContext(req.ContextSize))
	}
	if provider == ProviderCUDA || provider == ProviderROCm {
		opts = append(opts, llama.EnableF16Memory)
	}
	m, err := llama.New(req.Path, opts...)
	if err != nil {
		return nil, err
	}
	if progress != nil {
		progress(1.0)
	}
	return &llamaSession{id: uuid.NewString(), model: m, threads: l.Threads}, nil
}

// llamaSession owns the loaded model until Close frees it.
type llamaSession struct {
	id      string
	model   *llama.LLama
	threads int
}

func (s *llamaSession) ID() string { return s.id }

func (s *llamaSession) Infer(ctx context.Context, input string, maxTokens int) (Output, error) {
	if s.model == nil {
		return Output{}, errors.New("llama model not initialized")
	}
	tokens := 0
	s.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		tokens++
		return true
	})
	po := []llama.PredictOption{
		llama.SetThreads(s.threads),
	}
	if maxTokens > 0 {
		po = append(po, llama.SetTokens(maxTokens))
	}
	text, err := s.model.Predict(input, po...)
	if err != nil {
		if ctx.Err() != nil {
			return Output{}, ctx.Err()
		}
		return Output{}, err
	}
	return Output{Text: text, Tokens: tokens}, nil
}

func (s *llamaSession) Close(ctx context.Context) error {
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}

func (s *llamaSession) Kill() {
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
}
