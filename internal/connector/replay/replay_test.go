package replay

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hejijunhao/chatsift/internal/connector"
)

func writeReplayFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func replayConfig(path string, extra map[string]string) connector.ConnectorConfig {
	cfg := connector.ConnectorConfig{
		Provider: "replay",
		Extra:    map[string]string{"file": path, "interval": "1ms"},
	}
	for k, v := range extra {
		cfg.Extra[k] = v
	}
	return cfg
}

func TestRegistered(t *testing.T) {
	ctor, err := connector.Get("replay")
	if err != nil {
		t.Fatalf("Get(replay): %v", err)
	}
	if _, ok := ctor().(*Connector); !ok {
		t.Fatal("constructor did not return a replay Connector")
	}
}

func TestStreamReplaysFile(t *testing.T) {
	path := writeReplayFile(t,
		`{"text":"how do I do this?","author":"a","timestamp":1000}`,
		``,
		`this line is not json`,
		`{"text":"found a bug","author":"b","timestamp":2000}`,
		`{"text":"gg","author":"c","timestamp":3000}`,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &Connector{}
	ch, err := c.Stream(ctx, replayConfig(path, nil))
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var got []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				if len(got) != 3 {
					t.Fatalf("expected 3 messages, got %v", got)
				}
				if got[0] != "how do I do this?" || got[2] != "gg" {
					t.Fatalf("unexpected order: %v", got)
				}
				return
			}
			got = append(got, m.Text)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
}

func TestStreamPacing(t *testing.T) {
	path := writeReplayFile(t,
		`{"text":"one"}`,
		`{"text":"two"}`,
		`{"text":"three"}`,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &Connector{}
	ch, err := c.Stream(ctx, replayConfig(path, map[string]string{"interval": "50ms"}))
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	start := time.Now()
	count := 0
	for range ch {
		count++
	}
	elapsed := time.Since(start)

	if count != 3 {
		t.Fatalf("expected 3 messages, got %d", count)
	}
	// Three sends, each behind a 50ms tick.
	if elapsed < 100*time.Millisecond {
		t.Fatalf("replay too fast, elapsed %v", elapsed)
	}
}

func TestStreamContextCancel(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = `{"text":"spam"}`
	}
	path := writeReplayFile(t, lines...)

	ctx, cancel := context.WithCancel(context.Background())

	c := &Connector{}
	ch, err := c.Stream(ctx, replayConfig(path, map[string]string{"interval": "20ms"}))
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	<-ch
	cancel()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for channel to close")
		}
	}
}

func TestStreamMissingFileKey(t *testing.T) {
	c := &Connector{}
	_, err := c.Stream(context.Background(), connector.ConnectorConfig{Extra: map[string]string{}})
	if err == nil {
		t.Fatal("expected error for missing file key")
	}
}

func TestStreamFileNotFound(t *testing.T) {
	c := &Connector{}
	_, err := c.Stream(context.Background(), connector.ConnectorConfig{
		Extra: map[string]string{"file": filepath.Join(t.TempDir(), "absent.jsonl")},
	})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestQueryReadsAll(t *testing.T) {
	path := writeReplayFile(t,
		`{"text":"one","timestamp":1000}`,
		`{"text":"two","timestamp":2000}`,
	)

	c := &Connector{}
	msgs, err := c.Query(context.Background(), replayConfig(path, nil), connector.QueryParams{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "one" || msgs[1].Text != "two" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestQueryMalformedLineIsFatal(t *testing.T) {
	path := writeReplayFile(t,
		`{"text":"fine"}`,
		`{broken`,
	)

	c := &Connector{}
	_, err := c.Query(context.Background(), replayConfig(path, nil), connector.QueryParams{})
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error does not name the offending line: %v", err)
	}
}

func TestQueryTimeFilter(t *testing.T) {
	path := writeReplayFile(t,
		`{"text":"early","timestamp":1000}`,
		`{"text":"mid","timestamp":2000}`,
		`{"text":"late","timestamp":3000}`,
	)

	c := &Connector{}
	params := connector.QueryParams{
		Start: time.UnixMilli(1500),
		End:   time.UnixMilli(2500),
	}
	msgs, err := c.Query(context.Background(), replayConfig(path, nil), params)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "mid" {
		t.Fatalf("unexpected filter result: %+v", msgs)
	}
}

func TestQueryLimit(t *testing.T) {
	path := writeReplayFile(t,
		`{"text":"one","timestamp":1000}`,
		`{"text":"two","timestamp":2000}`,
		`{"text":"three","timestamp":3000}`,
	)

	c := &Connector{}
	msgs, err := c.Query(context.Background(), replayConfig(path, nil), connector.QueryParams{Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
}
