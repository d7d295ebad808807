package httpapi

import (
	"encoding/json"
	"net/http"

	"orchd/internal/orchestrator"
	"orchd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFromError maps well-known orchestrator errors to HTTP status codes.
// Unrecognized errors map to 500.
func statusFromError(err error) int {
	switch {
	case orchestrator.IsInsufficientMemory(err):
		return http.StatusInsufficientStorage
	case orchestrator.IsModelNotLoaded(err):
		return http.StatusNotFound
	case orchestrator.IsBackendLoadFailure(err):
		return http.StatusBadGateway
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
