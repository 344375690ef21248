package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hejijunhao/chatsift/internal/connector"
	"github.com/hejijunhao/chatsift/internal/engine"
	"github.com/hejijunhao/chatsift/internal/model"
	"github.com/hejijunhao/chatsift/internal/output/webhook"

	_ "github.com/hejijunhao/chatsift/internal/connector/replay"
)

func writeFixture(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func newReplayConnector(t *testing.T) connector.Connector {
	t.Helper()
	ctor, err := connector.Get("replay")
	if err != nil {
		t.Fatalf("failed to get replay connector: %v", err)
	}
	return ctor()
}

// TestIntegration_ReplayStreamThroughPipeline streams a chat transcript
// through replay connector → real rules engine → mock output.
func TestIntegration_ReplayStreamThroughPipeline(t *testing.T) {
	path := writeFixture(t, `{"text":"how do I enable subtitles?","author":"ann"}
{"text":"the stream is broken for me","author":"raj"}
{"text":"please play the next map","author":"kit"}
{"text":"gg"}
{"text":"what game is this?"}

not json at all
{"text":"   "}
`)

	out := &mockOutput{}
	conn := newReplayConnector(t)
	eng := engine.New(engine.Config{})

	// Long interval so the only write is the final flush at EOF.
	p := New(conn, eng, out, WithInterval(time.Minute))
	defer p.Close()

	cfg := connector.ConnectorConfig{
		Provider: "replay",
		Extra:    map[string]string{"file": path, "interval": "1ms"},
	}

	if err := p.Stream(context.Background(), cfg); err != nil {
		t.Fatalf("stream error: %v", err)
	}

	results := out.Results()
	if len(results) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(results))
	}
	r := results[0]

	// 5 classifiable lines; the malformed line is skipped by the connector
	// and the whitespace-only message is dropped by the pipeline.
	if r.ProcessedCount != 5 {
		t.Errorf("expected 5 processed, got %d", r.ProcessedCount)
	}

	sum := 0
	for _, b := range r.Buckets {
		sum += b.Count
	}
	if sum != r.ProcessedCount {
		t.Errorf("bucket counts sum to %d, want %d", sum, r.ProcessedCount)
	}

	if len(r.Buckets) != 4 {
		t.Fatalf("expected 4 buckets, got %d", len(r.Buckets))
	}
	if r.Buckets[0].Label != "Questions" || r.Buckets[0].Count != 2 {
		t.Errorf("top bucket = %s (%d), want Questions (2)", r.Buckets[0].Label, r.Buckets[0].Count)
	}
	// Singleton ties keep rule order.
	wantRest := []string{"Issues/Bugs", "Requests", "General Chat"}
	for i, want := range wantRest {
		if got := r.Buckets[i+1].Label; got != want {
			t.Errorf("bucket %d = %s, want %s", i+1, got, want)
		}
	}

	if p.droppedMessages.Load() != 1 {
		t.Errorf("expected 1 dropped blank, got %d", p.droppedMessages.Load())
	}
}

// TestIntegration_ReplayQueryThroughPipeline exercises one-shot query mode
// against a clean transcript.
func TestIntegration_ReplayQueryThroughPipeline(t *testing.T) {
	path := writeFixture(t, `{"text":"can anyone explain the rules?","timestamp":1000}
{"text":"could you raise the volume","timestamp":2000}
{"text":"nice play","timestamp":3000}
`)

	out := &mockOutput{}
	conn := newReplayConnector(t)
	eng := engine.New(engine.Config{})

	p := New(conn, eng, out)
	defer p.Close()

	cfg := connector.ConnectorConfig{
		Provider: "replay",
		Extra:    map[string]string{"file": path},
	}

	if err := p.Query(context.Background(), cfg, connector.QueryParams{}); err != nil {
		t.Fatalf("query error: %v", err)
	}

	results := out.Results()
	if len(results) != 1 {
		t.Fatalf("expected 1 write, got %d", len(results))
	}
	r := results[0]
	if r.ProcessedCount != 3 {
		t.Errorf("expected 3 processed, got %d", r.ProcessedCount)
	}
	labels := map[string]int{}
	for _, b := range r.Buckets {
		labels[b.Label] = b.Count
	}
	if labels["Questions"] != 1 || labels["Requests"] != 1 || labels["General Chat"] != 1 {
		t.Errorf("unexpected breakdown: %v", labels)
	}
}

// TestIntegration_WebhookDelivery runs a query through the real engine and
// verifies the webhook output POSTs the snapshot batch.
func TestIntegration_WebhookDelivery(t *testing.T) {
	path := writeFixture(t, `{"text":"why does the audio lag?"}
{"text":"same issue here, audio is broken"}
{"text":"hello everyone"}
`)

	var mu sync.Mutex
	var batches [][]model.ClusterResult
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		var batch []model.ClusterResult
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		mu.Lock()
		batches = append(batches, batch)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	conn := newReplayConnector(t)
	eng := engine.New(engine.Config{})
	out := webhook.New(srv.URL, webhook.WithBatchSize(1))

	p := New(conn, eng, out)

	cfg := connector.ConnectorConfig{
		Provider: "replay",
		Extra:    map[string]string{"file": path},
	}

	if err := p.Query(context.Background(), cfg, connector.QueryParams{}); err != nil {
		t.Fatalf("query error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("expected 1 batch of 1 snapshot, got %v", batches)
	}
	r := batches[0][0]
	if r.ProcessedCount != 3 {
		t.Errorf("expected 3 processed, got %d", r.ProcessedCount)
	}
	sum := 0
	for _, b := range r.Buckets {
		sum += b.Count
	}
	if sum != 3 {
		t.Errorf("bucket counts sum to %d, want 3", sum)
	}
}
