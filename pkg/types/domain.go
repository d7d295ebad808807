package types

// ModelKind enumerates the model families the orchestrator can manage.
type ModelKind string

const (
	KindLLM       ModelKind = "llm"
	KindSpeech    ModelKind = "speech"
	KindVision    ModelKind = "vision"
	KindEmbedding ModelKind = "embedding"
)

// Valid reports whether the kind is one of the supported values.
func (k ModelKind) Valid() bool {
	switch k {
	case KindLLM, KindSpeech, KindVision, KindEmbedding:
		return true
	}
	return false
}

// ModelRequest describes a model to load. It is immutable input; the
// orchestrator never mutates it.
type ModelRequest struct {
	// Stable identifier for the model, unique across the registry.
	// example: llama-3.1-8b-q4
	ModelID string `json:"model_id" example:"llama-3.1-8b-q4"`
	// Path or locator of the model weights.
	// example: /var/lib/orchd/models/llama-3.1-8b.Q4_K_M.gguf
	Path string `json:"path" example:"/var/lib/orchd/models/llama-3.1-8b.Q4_K_M.gguf"`
	// Model family: llm, speech, vision or embedding.
	// example: llm
	Kind ModelKind `json:"kind" example:"llm"`
	// Free-text size class used for memory estimation (e.g. "7b", "large").
	// example: 8b
	SizeClass string `json:"size_class,omitempty" example:"8b"`
	// Quantization scheme token. Empty lets the orchestrator pick a default
	// from available headroom.
	// example: Q4_K_M
	Quantization string `json:"quantization,omitempty" example:"Q4_K_M"`
	// Context window size hint passed to the backend.
	// example: 8192
	ContextSize int `json:"context_size,omitempty" example:"8192"`
	// Batch size hint passed to the backend.
	// example: 512
	BatchSize int `json:"batch_size,omitempty" example:"512"`
	// Pinned models are exempt from automatic eviction.
	// example: false
	Pinned bool `json:"pinned,omitempty" example:"false"`
}

// ModelHandle is the reference token returned by a successful load. It does
// not own the underlying backend resources; it only identifies one load
// instance for subsequent infer/unload calls.
type ModelHandle struct {
	// Model identifier the handle refers to.
	// example: llama-3.1-8b-q4
	ModelID string `json:"model_id" example:"llama-3.1-8b-q4"`
	// Opaque id of this load instance. A reload after unload yields a new one.
	// example: 7b8e1c1e-53a1-4c2e-9c35-0f41e6a2d9b0
	SessionID string `json:"session_id" example:"7b8e1c1e-53a1-4c2e-9c35-0f41e6a2d9b0"`
}
