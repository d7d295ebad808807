package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"orchd/internal/backend"
	"orchd/internal/httpapi"
	"orchd/internal/orchestrator"
	"orchd/pkg/types"
)

const mb = 1 << 20

func newServer(t *testing.T, budget uint64) *httptest.Server {
	t.Helper()
	orch := orchestrator.New(orchestrator.Config{
		MaxMemoryBytes:  budget,
		MonitorInterval: -1,
		Loader:          &backend.Simulated{},
		Logger:          zerolog.Nop(),
	})
	t.Cleanup(orch.Close)
	srv := httptest.NewServer(httpapi.NewMux(orch))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, b
}

func TestE2E_LoadInferUnloadRoundTrip(t *testing.T) {
	srv := newServer(t, 10e9)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/models",
		`{"model_id":"phi-3b","kind":"llm","size_class":"3b","quantization":"fp16"}`)
	if status != http.StatusOK {
		t.Fatalf("load: expected 200, got %d: %s", status, body)
	}
	var handle types.ModelHandle
	if err := json.Unmarshal(body, &handle); err != nil {
		t.Fatalf("decode handle: %v", err)
	}
	if handle.ModelID != "phi-3b" || handle.SessionID == "" {
		t.Fatalf("unexpected handle %+v", handle)
	}

	status, body = doJSON(t, http.MethodPost, srv.URL+"/infer",
		`{"model":"phi-3b","input":"hello world"}`)
	if status != http.StatusOK {
		t.Fatalf("infer: expected 200, got %d: %s", status, body)
	}
	var res types.InferenceResult
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.ModelID != "phi-3b" || res.Output == "" || res.Tokens <= 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	status, body = doJSON(t, http.MethodGet, srv.URL+"/stats", "")
	if status != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", status)
	}
	var stats types.StatsResponse
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.LoadedCount != 1 || stats.UsedBytes == 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	status, _ = doJSON(t, http.MethodDelete, srv.URL+"/models/phi-3b", "")
	if status != http.StatusNoContent {
		t.Fatalf("unload: expected 204, got %d", status)
	}

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/infer", `{"model":"phi-3b","input":"again"}`)
	if status != http.StatusNotFound {
		t.Fatalf("infer after unload: expected 404, got %d", status)
	}
}

func TestE2E_BudgetRejectionReturns507(t *testing.T) {
	srv := newServer(t, 500*mb)

	// A pinned resident consumes most of the budget.
	status, body := doJSON(t, http.MethodPost, srv.URL+"/models",
		`{"model_id":"resident","kind":"speech","size_class":"base","pinned":true}`)
	if status != http.StatusOK {
		t.Fatalf("resident load: expected 200, got %d: %s", status, body)
	}

	status, body = doJSON(t, http.MethodPost, srv.URL+"/models",
		`{"model_id":"too-big","kind":"speech","size_class":"large"}`)
	if status != http.StatusInsufficientStorage {
		t.Fatalf("expected 507, got %d: %s", status, body)
	}
	var e types.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if e.Code != http.StatusInsufficientStorage {
		t.Fatalf("unexpected error body %+v", e)
	}
}

func TestE2E_EvictionMakesRoom(t *testing.T) {
	srv := newServer(t, 800*mb)

	// Two unpinned residents, then a load that needs their space.
	for _, id := range []string{"a", "b"} {
		status, body := doJSON(t, http.MethodPost, srv.URL+"/models",
			`{"model_id":"`+id+`","kind":"speech","size_class":"base"}`)
		if status != http.StatusOK {
			t.Fatalf("load %s: got %d: %s", id, status, body)
		}
	}

	status, body := doJSON(t, http.MethodPost, srv.URL+"/models",
		`{"model_id":"big","kind":"speech","size_class":"small"}`)
	if status != http.StatusOK {
		t.Fatalf("expected eviction to make room, got %d: %s", status, body)
	}

	_, statsBody := doJSON(t, http.MethodGet, srv.URL+"/stats", "")
	var stats types.StatsResponse
	if err := json.Unmarshal(statsBody, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.UsedBytes > stats.BudgetBytes {
		t.Fatalf("budget exceeded: %+v", stats)
	}
	if stats.EvictionsTotal == 0 {
		t.Fatal("expected at least one eviction")
	}
}

func TestE2E_HealthReadyMetrics(t *testing.T) {
	srv := newServer(t, 10e9)

	status, _ := doJSON(t, http.MethodGet, srv.URL+"/healthz", "")
	if status != http.StatusOK {
		t.Fatalf("healthz: got %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, srv.URL+"/readyz", "")
	if status != http.StatusOK {
		t.Fatalf("readyz: got %d", status)
	}
	status, body := doJSON(t, http.MethodGet, srv.URL+"/metrics", "")
	if status != http.StatusOK {
		t.Fatalf("metrics: got %d", status)
	}
	if !bytes.Contains(body, []byte("orchd_")) {
		t.Fatal("expected orchd metric families")
	}
}
