package chatsift

import "github.com/hejijunhao/chatsift/internal/model"

// Bucket is one labeled group of messages. Samples hold up to the
// configured number of raw texts in first-seen order.
type Bucket struct {
	Label   string   `json:"label"`
	Count   int      `json:"count"`
	Samples []string `json:"sample_messages,omitempty"`
}

// Result is one classification snapshot. Buckets are ordered by descending
// count; ties keep rule-table order. These are the stable public types;
// internal representations may evolve without breaking consumers.
type Result struct {
	Buckets        []Bucket `json:"buckets"`
	ProcessedCount int      `json:"processed_count"`
}

// resultFromInternal converts the engine result to the public Result type.
func resultFromInternal(r model.ClusterResult) Result {
	buckets := make([]Bucket, len(r.Buckets))
	for i, b := range r.Buckets {
		buckets[i] = Bucket{Label: b.Label, Count: b.Count, Samples: b.Samples}
	}
	return Result{Buckets: buckets, ProcessedCount: r.ProcessedCount}
}

// internalFromResult converts a public Result back to the engine type.
func internalFromResult(r Result) model.ClusterResult {
	buckets := make([]model.ClusterBucket, len(r.Buckets))
	for i, b := range r.Buckets {
		buckets[i] = model.ClusterBucket{Label: b.Label, Count: b.Count, Samples: b.Samples}
	}
	return model.ClusterResult{Buckets: buckets, ProcessedCount: r.ProcessedCount}
}
