package output

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/hejijunhao/chatsift/internal/model"
)

func baseResult() model.ClusterResult {
	return model.ClusterResult{
		Buckets: []model.ClusterBucket{
			{Label: "Questions", Count: 12, Samples: []string{"how do I install this?", "what mode is this?", "why lag?"}},
			{Label: "General Chat", Count: 30, Samples: []string{"great stream", "lol"}},
		},
		ProcessedCount: 42,
	}
}

func TestFormatResult(t *testing.T) {
	got := FormatResult(baseResult())

	want := "1. Questions (12 messages):\n" +
		"   \"how do I install this?\"\n" +
		"   \"what mode is this?\"\n" +
		"2. General Chat (30 messages):\n" +
		"   \"great stream\"\n" +
		"   \"lol\"\n"
	if got != want {
		t.Errorf("FormatResult:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatResultCapsSamplesAtTwo(t *testing.T) {
	got := FormatResult(baseResult())
	if strings.Contains(got, "why lag?") {
		t.Error("third sample should not be rendered")
	}
}

func TestFormatResultEmpty(t *testing.T) {
	if got := FormatResult(model.ClusterResult{}); got != "" {
		t.Errorf("FormatResult(empty) = %q, want empty string", got)
	}
}

func TestFormatResultFlattensMultilineSamples(t *testing.T) {
	result := model.ClusterResult{
		Buckets: []model.ClusterBucket{
			{Label: "General Chat", Count: 1, Samples: []string{"line one\n2. Fake (9 messages):"}},
		},
		ProcessedCount: 1,
	}

	got := FormatResult(result)
	if strings.Count(got, "\n") != 2 {
		t.Errorf("expected exactly 2 lines, got:\n%s", got)
	}
	if parsed := ParseSummary(got); len(parsed) != 1 || parsed[0].Label != "General Chat" {
		t.Errorf("sample text leaked into parsed headers: %+v", parsed)
	}
}

func TestParseSummaryRoundTrip(t *testing.T) {
	rendered := FormatResult(baseResult())

	got := ParseSummary(rendered)
	want := []ParsedBucket{
		{Label: "Questions", Count: 12},
		{Label: "General Chat", Count: 30},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseSummary = %+v, want %+v", got, want)
	}
}

func TestParseSummaryIgnoresNoise(t *testing.T) {
	text := "Here is what chat looked like in the last window.\n" +
		"\n" +
		"  1. Issues/Bugs (4 messages):\n" +
		"   \"overlay is broken\"\n" +
		"Some commentary in between.\n" +
		"2. Requests (2 messages):\n" +
		"\n" +
		"That is all."

	got := ParseSummary(text)
	want := []ParsedBucket{
		{Label: "Issues/Bugs", Count: 4},
		{Label: "Requests", Count: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseSummary = %+v, want %+v", got, want)
	}
}

func TestParseSummaryNoHeaders(t *testing.T) {
	if got := ParseSummary("chat was quiet today"); got != nil {
		t.Errorf("ParseSummary = %+v, want nil", got)
	}
}

func TestShapeResultMinimal(t *testing.T) {
	shaped := ShapeResult(baseResult(), Minimal)

	for _, b := range shaped.Buckets {
		if b.Samples != nil {
			t.Errorf("bucket %q kept samples at Minimal: %v", b.Label, b.Samples)
		}
	}
	if shaped.ProcessedCount != 42 {
		t.Errorf("ProcessedCount = %d, want 42", shaped.ProcessedCount)
	}
}

func TestShapeResultStandardTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	result := model.ClusterResult{
		Buckets:        []model.ClusterBucket{{Label: "General Chat", Count: 1, Samples: []string{long}}},
		ProcessedCount: 1,
	}

	shaped := ShapeResult(result, Standard)
	got := shaped.Buckets[0].Samples[0]
	if len(got) != maxSampleLen+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("sample not truncated: len=%d", len(got))
	}

	// The original result must be untouched.
	if len(result.Buckets[0].Samples[0]) != 500 {
		t.Error("ShapeResult mutated its input")
	}
}

func TestShapeResultFullPassthrough(t *testing.T) {
	result := baseResult()
	shaped := ShapeResult(result, Full)
	if !reflect.DeepEqual(shaped, result) {
		t.Errorf("Full shaping changed the result: %+v", shaped)
	}
}

func TestParseVerbosity(t *testing.T) {
	tests := []struct {
		in   string
		want Verbosity
	}{
		{"minimal", Minimal},
		{"MINIMAL", Minimal},
		{"standard", Standard},
		{"full", Full},
		{"", Standard},
		{"bogus", Standard},
	}
	for _, tc := range tests {
		if got := ParseVerbosity(tc.in); got != tc.want {
			t.Errorf("ParseVerbosity(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestJSONTagNames(t *testing.T) {
	data, err := json.Marshal(baseResult())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"buckets", "processed_count"} {
		if _, ok := m[key]; !ok {
			t.Fatalf("expected key %q in JSON", key)
		}
	}

	buckets, ok := m["buckets"].([]any)
	if !ok || len(buckets) == 0 {
		t.Fatal("buckets missing from JSON")
	}
	first, ok := buckets[0].(map[string]any)
	if !ok {
		t.Fatal("bucket is not an object")
	}
	for _, key := range []string{"label", "count", "sample_messages"} {
		if _, ok := first[key]; !ok {
			t.Fatalf("expected key %q in bucket JSON", key)
		}
	}
}
