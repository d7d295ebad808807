package types

// InferRequest is the inference payload accepted by POST /infer.
type InferRequest struct {
	// Identifier of a loaded model.
	// example: llama-3.1-8b-q4
	Model string `json:"model" example:"llama-3.1-8b-q4"`
	// Input payload: prompt text, transcript request, image reference, or
	// text to embed depending on the model kind.
	// example: Write a haiku about the ocean.
	Input string `json:"input" example:"Write a haiku about the ocean."`
	// Maximum number of output tokens (LLM kinds only).
	// example: 128
	MaxTokens int `json:"max_tokens,omitempty" example:"128"`
}

// InferenceResult is returned by a successful inference call.
type InferenceResult struct {
	// Model that served the request.
	// example: llama-3.1-8b-q4
	ModelID string `json:"model_id" example:"llama-3.1-8b-q4"`
	// Output payload produced by the backend.
	Output string `json:"output"`
	// Number of output tokens (or equivalent unit for non-text modalities).
	// example: 42
	Tokens int `json:"tokens" example:"42"`
	// Wall-clock inference time in milliseconds.
	// example: 350
	DurationMs int64 `json:"duration_ms" example:"350"`
	// Approximate throughput in tokens per second.
	// example: 120.5
	TokensPerSecond float64 `json:"tokens_per_second" example:"120.5"`
}

// ModelStats summarizes one loaded model for GET /stats.
type ModelStats struct {
	// Model identifier.
	// example: llama-3.1-8b-q4
	ModelID string `json:"model_id" example:"llama-3.1-8b-q4"`
	// Session id of the current load instance.
	SessionID string `json:"session_id"`
	// Model family.
	// example: llm
	Kind ModelKind `json:"kind" example:"llm"`
	// Execution provider serving the model.
	// example: cuda
	Provider string `json:"provider" example:"cuda"`
	// Estimated memory footprint in bytes, fixed at load time.
	// example: 4000000000
	MemoryBytes uint64 `json:"memory_bytes" example:"4000000000"`
	// Number of accesses since load.
	// example: 17
	AccessCount uint64 `json:"access_count" example:"17"`
	// Unix seconds of the most recent access.
	// example: 1700000000
	LastAccessedUnix int64 `json:"last_accessed_unix" example:"1700000000"`
	// Whether the model is exempt from eviction.
	// example: false
	Pinned bool `json:"pinned" example:"false"`
	// How long the backend load took, in milliseconds.
	// example: 1800
	LoadDurationMs int64 `json:"load_duration_ms" example:"1800"`
}

// StatsResponse is the orchestrator-wide snapshot returned by GET /stats.
// It is observability output and may be slightly stale under concurrent
// mutation.
type StatsResponse struct {
	// Loaded models.
	Models []ModelStats `json:"models"`
	// Number of loaded models.
	// example: 2
	LoadedCount int `json:"loaded_count" example:"2"`
	// Hard memory budget in bytes.
	// example: 10000000000
	BudgetBytes uint64 `json:"budget_bytes" example:"10000000000"`
	// Sum of loaded-model memory in bytes.
	// example: 6000000000
	UsedBytes uint64 `json:"used_bytes" example:"6000000000"`
	// Budget minus usage, in bytes.
	// example: 4000000000
	AvailableBytes uint64 `json:"available_bytes" example:"4000000000"`
	// Total successful loads since start.
	// example: 12
	LoadsTotal uint64 `json:"loads_total" example:"12"`
	// Total evictions performed to free memory.
	// example: 5
	EvictionsTotal uint64 `json:"evictions_total" example:"5"`
	// Evictions performed by the background pressure monitor.
	// example: 1
	EmergencyEvictionsTotal uint64 `json:"emergency_evictions_total" example:"1"`
	// Uptime of the orchestrator in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: model not loaded: llama-3.1-8b-q4
	Error string `json:"error" example:"model not loaded: llama-3.1-8b-q4"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}
