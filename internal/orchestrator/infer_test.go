package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"orchd/internal/backend"
	"orchd/pkg/types"
)

func TestInferReturnsResultAndTouchesStats(t *testing.T) {
	o := newTestOrchestrator(t, 1000*mb)
	mustLoad(t, o, speechReq("whisper", "tiny"))

	lm, _ := o.reg.get("whisper")
	countBefore := lm.accessCount.Load()
	lastBefore := lm.lastAccessed.Load()

	res, err := o.Infer(context.Background(), types.InferRequest{Model: "whisper", Input: "audio clip"})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if res.ModelID != "whisper" {
		t.Fatalf("expected model id in result, got %q", res.ModelID)
	}
	if res.Output == "" || res.Tokens <= 0 {
		t.Fatalf("expected output payload, got %+v", res)
	}
	if res.TokensPerSecond <= 0 {
		t.Fatalf("expected positive throughput, got %v", res.TokensPerSecond)
	}
	if lm.accessCount.Load() <= countBefore {
		t.Fatal("expected access count to increase")
	}
	if lm.lastAccessed.Load() < lastBefore {
		t.Fatal("lastAccessed went backwards")
	}
}

func TestInferModelNotLoaded(t *testing.T) {
	o := newTestOrchestrator(t, 1000*mb)
	_, err := o.Infer(context.Background(), types.InferRequest{Model: "ghost", Input: "hi"})
	if !IsModelNotLoaded(err) {
		t.Fatalf("expected model-not-loaded, got %v", err)
	}
	_, err = o.Infer(context.Background(), types.InferRequest{Input: "hi"})
	if !IsModelNotLoaded(err) {
		t.Fatalf("expected model-not-loaded for empty id, got %v", err)
	}
}

func TestInferCanceledContext(t *testing.T) {
	o := newTestOrchestrator(t, 1000*mb, func(c *Config) {
		c.Loader = &backend.Simulated{InferDelay: 200 * time.Millisecond}
	})
	mustLoad(t, o, speechReq("m", "tiny"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := o.Infer(ctx, types.InferRequest{Model: "m", Input: "hi"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	// No registry mutation regardless.
	if o.reg.len() != 1 {
		t.Fatalf("canceled infer must not touch registry membership")
	}
}

func TestInferDoesNotBlockOnAdmissionLock(t *testing.T) {
	o := newTestOrchestrator(t, 1000*mb)
	mustLoad(t, o, speechReq("m", "tiny"))

	// Hold the admission lock as a slow load would.
	if err := o.acquireAdmission(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer o.releaseAdmission()

	done := make(chan error, 1)
	go func() {
		_, err := o.Infer(context.Background(), types.InferRequest{Model: "m", Input: "hi"})
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("infer under held admission lock: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("infer blocked on the admission lock")
	}
}

func TestStatsSnapshotFields(t *testing.T) {
	o := newTestOrchestrator(t, 1000*mb)
	mustLoad(t, o, speechReq("a", "tiny"))
	mustLoad(t, o, speechReq("b", "base"))

	st := o.Stats()
	if st.LoadedCount != 2 || len(st.Models) != 2 {
		t.Fatalf("expected 2 models, got %+v", st)
	}
	if st.BudgetBytes != 1000*mb {
		t.Fatalf("expected budget in stats, got %d", st.BudgetBytes)
	}
	if st.UsedBytes != 300*mb {
		t.Fatalf("expected 300MB used, got %d", st.UsedBytes)
	}
	if st.AvailableBytes != 700*mb {
		t.Fatalf("expected 700MB available, got %d", st.AvailableBytes)
	}
	if st.LoadsTotal != 2 {
		t.Fatalf("expected 2 loads, got %d", st.LoadsTotal)
	}
	for _, m := range st.Models {
		if m.SessionID == "" || m.Kind != types.KindSpeech || m.MemoryBytes == 0 {
			t.Fatalf("incomplete model stats: %+v", m)
		}
	}
}
