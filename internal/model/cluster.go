package model

// ClusterBucket is one labeled group of chat messages in a classification
// result. Count is at least 1 because empty buckets are dropped before the
// result is returned; Samples holds raw message texts in first-seen order,
// capped at the engine's sample limit.
type ClusterBucket struct {
	Label   string   `json:"label"`
	Count   int      `json:"count"`
	Samples []string `json:"sample_messages,omitempty"`
}

// ClusterResult is the engine's output for one window of chat.
// Buckets are ordered by descending count; ties keep rule-table precedence.
// The sum of bucket counts always equals ProcessedCount.
type ClusterResult struct {
	Buckets        []ClusterBucket `json:"buckets"`
	ProcessedCount int             `json:"processed_count"`
}
