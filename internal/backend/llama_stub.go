//go:build !llama

package backend

import (
	"context"
	"fmt"

	"orchd/pkg/types"
)

// This stub keeps default builds CGO-free. The real adapter lives in
// llama.go behind the 'llama' build tag.

var llamaBuilt = false

// Llama is unavailable without the 'llama' build tag; Load fails fast so no
// mocked inference leaks into production binaries.
type Llama struct {
	Threads int
}

func NewLlama(threads int) *Llama { return &Llama{Threads: threads} }

func (l *Llama) Load(ctx context.Context, req types.ModelRequest, provider Provider, progress func(float64)) (Session, error) {
	return nil, fmt.Errorf("%w: llama support not built (missing 'llama' build tag)", ErrRuntimeUnavailable)
}
