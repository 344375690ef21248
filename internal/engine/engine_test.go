package engine

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/hejijunhao/chatsift/internal/engine/rules"
	"github.com/hejijunhao/chatsift/internal/engine/testdata"
	"github.com/hejijunhao/chatsift/internal/model"
)

func msgs(texts ...string) []model.ChatMessage {
	out := make([]model.ChatMessage, len(texts))
	for i, text := range texts {
		out[i] = model.ChatMessage{
			Text:      text,
			Author:    "viewer",
			Timestamp: int64(1700000000000 + i),
		}
	}
	return out
}

func TestClassifyMixedWindow(t *testing.T) {
	eng := New(Config{})

	result := eng.Classify(msgs(
		"How do I install this?",
		"What time is the stream tomorrow?",
		"found a bug in the menu",
		"hello everyone",
	))

	if result.ProcessedCount != 4 {
		t.Errorf("ProcessedCount = %d, want 4", result.ProcessedCount)
	}

	want := []model.ClusterBucket{
		{Label: "Questions", Count: 2, Samples: []string{"How do I install this?", "What time is the stream tomorrow?"}},
		{Label: "Issues/Bugs", Count: 1, Samples: []string{"found a bug in the menu"}},
		{Label: "General Chat", Count: 1, Samples: []string{"hello everyone"}},
	}
	if !reflect.DeepEqual(result.Buckets, want) {
		t.Errorf("Buckets = %+v, want %+v", result.Buckets, want)
	}
}

func TestClassifyDropsBlankMessages(t *testing.T) {
	eng := New(Config{})

	result := eng.Classify(msgs(
		"how does ranking work?",
		"   ",
		"\t\n",
		"gg",
		"found a bug",
	))

	if result.ProcessedCount != 3 {
		t.Errorf("ProcessedCount = %d, want 3", result.ProcessedCount)
	}
	for _, b := range result.Buckets {
		for _, s := range b.Samples {
			if s == "   " || s == "\t\n" {
				t.Errorf("blank message retained as sample in bucket %q", b.Label)
			}
		}
	}
}

func TestClassifySingleDominantBucket(t *testing.T) {
	eng := New(Config{})

	texts := make([]string, 100)
	for i := range texts {
		texts[i] = fmt.Sprintf("please play map %d", i)
	}
	result := eng.Classify(msgs(texts...))

	if result.ProcessedCount != 100 {
		t.Errorf("ProcessedCount = %d, want 100", result.ProcessedCount)
	}
	if len(result.Buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(result.Buckets))
	}
	b := result.Buckets[0]
	if b.Label != "Requests" {
		t.Errorf("Label = %q, want Requests", b.Label)
	}
	if b.Count != 100 {
		t.Errorf("Count = %d, want 100", b.Count)
	}
	wantSamples := []string{"please play map 0", "please play map 1", "please play map 2"}
	if !reflect.DeepEqual(b.Samples, wantSamples) {
		t.Errorf("Samples = %v, want %v", b.Samples, wantSamples)
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	eng := New(Config{})

	for name, input := range map[string][]model.ChatMessage{
		"nil":       nil,
		"empty":     {},
		"all blank": msgs("", "   ", "\n"),
	} {
		t.Run(name, func(t *testing.T) {
			result := eng.Classify(input)
			if result.ProcessedCount != 0 {
				t.Errorf("ProcessedCount = %d, want 0", result.ProcessedCount)
			}
			if len(result.Buckets) != 0 {
				t.Errorf("expected no buckets, got %d", len(result.Buckets))
			}
		})
	}
}

func TestClassifyCountConservation(t *testing.T) {
	eng := New(Config{})

	result := eng.Classify(msgs(
		"why is the audio delayed",
		"please add polls",
		"",
		"lol",
		"crash on startup again",
		"   ",
		"can you check discord",
		"first",
	))

	sum := 0
	for _, b := range result.Buckets {
		sum += b.Count
		if b.Count < 1 {
			t.Errorf("bucket %q has count %d, buckets must be non-empty", b.Label, b.Count)
		}
	}
	if sum != result.ProcessedCount {
		t.Errorf("sum of bucket counts = %d, ProcessedCount = %d", sum, result.ProcessedCount)
	}
	if result.ProcessedCount != 6 {
		t.Errorf("ProcessedCount = %d, want 6", result.ProcessedCount)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	eng := New(Config{})
	input := msgs(
		"what rank are you",
		"server is broken",
		"please play jazz",
		"hello chat",
		"why no cam today",
		"pog",
	)

	first := eng.Classify(input)
	for i := 0; i < 50; i++ {
		if got := eng.Classify(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d diverged: %+v != %+v", i, got, first)
		}
	}
}

func TestClassifyTieOrderFollowsRules(t *testing.T) {
	eng := New(Config{})

	// One message per category, fed in reverse precedence order. Equal
	// counts must come back in rule-table order, not arrival order.
	result := eng.Classify(msgs(
		"hello there",
		"please add polls",
		"login error again",
		"what rank are you",
	))

	wantOrder := []string{"Questions", "Issues/Bugs", "Requests", "General Chat"}
	if len(result.Buckets) != len(wantOrder) {
		t.Fatalf("expected %d buckets, got %d", len(wantOrder), len(result.Buckets))
	}
	for i, want := range wantOrder {
		if result.Buckets[i].Label != want {
			t.Errorf("bucket[%d].Label = %q, want %q", i, result.Buckets[i].Label, want)
		}
	}
}

func TestClassifySamplesKeepRawText(t *testing.T) {
	eng := New(Config{})

	raw := "CAFÉ stream WHEN???"
	result := eng.Classify(msgs(raw))

	if len(result.Buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(result.Buckets))
	}
	b := result.Buckets[0]
	if b.Label != "Questions" {
		t.Errorf("Label = %q, want Questions", b.Label)
	}
	if len(b.Samples) != 1 || b.Samples[0] != raw {
		t.Errorf("Samples = %v, want the raw text %q", b.Samples, raw)
	}
}

func TestClassifySampleLimit(t *testing.T) {
	eng := New(Config{SampleLimit: 1})

	result := eng.Classify(msgs("gg", "wp", "nice"))
	if len(result.Buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(result.Buckets))
	}
	if got := result.Buckets[0].Samples; len(got) != 1 || got[0] != "gg" {
		t.Errorf("Samples = %v, want [gg]", got)
	}
	if result.Buckets[0].Count != 3 {
		t.Errorf("Count = %d, want 3", result.Buckets[0].Count)
	}
}

func TestClassifyCustomTable(t *testing.T) {
	table, err := rules.New([]rules.Category{
		{Label: "Hype", Cues: []string{"pog", "lets go"}},
		{Label: "Other"},
	})
	if err != nil {
		t.Fatalf("rules.New() error: %v", err)
	}
	eng := New(Config{Table: table})

	result := eng.Classify(msgs("POG that play", "good night"))
	want := []model.ClusterBucket{
		{Label: "Hype", Count: 1, Samples: []string{"POG that play"}},
		{Label: "Other", Count: 1, Samples: []string{"good night"}},
	}
	if !reflect.DeepEqual(result.Buckets, want) {
		t.Errorf("Buckets = %+v, want %+v", result.Buckets, want)
	}
}

func TestClassifyConcurrent(t *testing.T) {
	eng := New(Config{})
	input := msgs(
		"how do i join the lobby?",
		"mic is not working",
		"please raid the music stream",
		"morning all",
	)
	want := eng.Classify(input)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if got := eng.Classify(input); !reflect.DeepEqual(got, want) {
					t.Errorf("concurrent Classify diverged: %+v", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestClassifyJSON(t *testing.T) {
	eng := New(Config{})

	data := []byte(`[
		{"text": "how do i get the drop?", "author": "ana", "timestamp": 1700000000000},
		{"text": "stream is broken", "author": "ben"},
		{"text": "   "},
		{"author": "ghost"},
		{"text": 42, "author": "weird"},
		{"text": "gg"}
	]`)

	result, err := eng.ClassifyJSON(data)
	if err != nil {
		t.Fatalf("ClassifyJSON() error: %v", err)
	}
	// Blank, missing-text, and non-string-text items are all dropped.
	if result.ProcessedCount != 3 {
		t.Errorf("ProcessedCount = %d, want 3", result.ProcessedCount)
	}

	sum := 0
	for _, b := range result.Buckets {
		sum += b.Count
	}
	if sum != result.ProcessedCount {
		t.Errorf("sum of counts = %d, ProcessedCount = %d", sum, result.ProcessedCount)
	}
}

func TestClassifyJSONEmptyArray(t *testing.T) {
	eng := New(Config{})

	result, err := eng.ClassifyJSON([]byte(`[]`))
	if err != nil {
		t.Fatalf("ClassifyJSON() error: %v", err)
	}
	if result.ProcessedCount != 0 || len(result.Buckets) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestClassifyJSONInvalid(t *testing.T) {
	eng := New(Config{})

	for name, data := range map[string]string{
		"object":    `{"text": "hi"}`,
		"scalar":    `42`,
		"truncated": `[{"text": "hi"`,
		"garbage":   `not json at all`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := eng.ClassifyJSON([]byte(data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestCorpusExactMatch(t *testing.T) {
	eng := New(Config{})

	corpus, err := testdata.LoadCorpus()
	if err != nil {
		t.Fatalf("LoadCorpus() error: %v", err)
	}

	type misclass struct {
		desc     string
		expected string
		got      string
	}
	var misses []misclass

	for _, entry := range corpus {
		result := eng.Classify(msgs(entry.Raw))
		if len(result.Buckets) != 1 {
			t.Fatalf("%q produced %d buckets, want 1", entry.Description, len(result.Buckets))
		}
		got := result.Buckets[0].Label
		if got != entry.ExpectedLabel {
			misses = append(misses, misclass{desc: entry.Description, expected: entry.ExpectedLabel, got: got})
		}
	}

	if len(misses) > 0 {
		t.Logf("--- Misclassifications ---")
		for _, m := range misses {
			t.Logf("  %-30s expected=%-15s got=%-15s", m.desc, m.expected, m.got)
		}
		t.Errorf("%d of %d corpus entries misclassified, rule matching is deterministic and must hit all of them", len(misses), len(corpus))
	} else {
		t.Logf("All %d corpus entries classified correctly", len(corpus))
	}
}
