// Package backend abstracts the capability that actually instantiates and
// runs models. The orchestrator depends only on the Loader and Session
// interfaces; concrete runtimes (simulated, llama.cpp) are pluggable.
package backend

import (
	"context"
	"errors"

	"orchd/pkg/types"
)

// ErrRuntimeUnavailable signals that the requested runtime is not compiled
// into this binary.
var ErrRuntimeUnavailable = errors.New("backend runtime not available in this build")

// Output is the result of one inference call.
type Output struct {
	Text string
	// Tokens counts output tokens, or an equivalent unit for non-text
	// modalities (audio seconds, image patches, embedding dimensions).
	Tokens int
}

// Session represents one load instance of a model. The owner must release
// it exactly once via Close (or Kill after a failed Close).
type Session interface {
	// ID returns the opaque session id minted at load time.
	ID() string
	// Infer runs one inference call. Implementations must return promptly
	// when ctx is canceled.
	Infer(ctx context.Context, input string, maxTokens int) (Output, error)
	// Close releases backend resources gracefully, bounded by ctx.
	Close(ctx context.Context) error
	// Kill force-terminates any remaining backend resource. Used when the
	// grace period of Close expires. Safe to call after Close.
	Kill()
}

// Loader instantiates models. Each model kind has a distinct loading routine
// but all share the same Session outcome.
type Loader interface {
	Load(ctx context.Context, req types.ModelRequest, provider Provider, progress func(float64)) (Session, error)
}

// LlamaBuilt reports whether the llama.cpp adapter was compiled in.
func LlamaBuilt() bool { return llamaBuilt }
