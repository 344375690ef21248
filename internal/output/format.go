package output

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hejijunhao/chatsift/internal/model"
)

// FormatVersion identifies the rendered snapshot layout. FormatResult and
// ParseSummary implement the same version and change only together.
const FormatVersion = 1

// FormatResult renders a classification result as numbered buckets with up
// to two quoted samples each:
//
//	1. Questions (12 messages):
//	   "how do I install this?"
//	   "what mode is this?"
//	2. General Chat (30 messages):
//	   "great stream"
//
// The header line is the shape ParseSummary matches; sample lines are
// display only and always stay on one line.
func FormatResult(result model.ClusterResult) string {
	var b strings.Builder
	for i, bucket := range result.Buckets {
		fmt.Fprintf(&b, "%d. %s (%d messages):\n", i+1, bucket.Label, bucket.Count)
		samples := bucket.Samples
		if len(samples) > 2 {
			samples = samples[:2]
		}
		for _, s := range samples {
			fmt.Fprintf(&b, "   \"%s\"\n", flatten(s))
		}
	}
	return b.String()
}

// flatten keeps a sample on a single line so it can never be mistaken for
// a bucket header.
func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

var headerRE = regexp.MustCompile(`(?m)^\s*(\d+)\.\s+(.+?)\s+\((\d+) messages\):\s*$`)

// ParsedBucket is one label and count pair recovered from rendered text.
type ParsedBucket struct {
	Label string
	Count int
}

// ParseSummary recovers ordered label and count pairs from text containing
// FormatResult headers. Sample lines and unrelated prose are ignored; text
// with no headers yields nil.
func ParseSummary(text string) []ParsedBucket {
	var out []ParsedBucket
	for _, m := range headerRE.FindAllStringSubmatch(text, -1) {
		count, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		out = append(out, ParsedBucket{Label: m[2], Count: count})
	}
	return out
}

// Verbosity controls how much of a snapshot survives to an output.
type Verbosity int

const (
	Minimal  Verbosity = iota // counts only, samples dropped
	Standard                  // samples kept, long ones truncated for display
	Full                      // everything as classified
)

// ParseVerbosity maps a config string to a Verbosity, defaulting to Standard.
func ParseVerbosity(s string) Verbosity {
	switch strings.ToLower(s) {
	case "minimal":
		return Minimal
	case "full":
		return Full
	default:
		return Standard
	}
}

// maxSampleLen is the display cap applied at Standard verbosity.
const maxSampleLen = 200

// ShapeResult returns a copy of result shaped for an output's verbosity.
// Minimal drops samples, Standard truncates long ones, Full passes the
// result through untouched.
func ShapeResult(result model.ClusterResult, v Verbosity) model.ClusterResult {
	if v == Full {
		return result
	}
	buckets := make([]model.ClusterBucket, len(result.Buckets))
	copy(buckets, result.Buckets)
	for i := range buckets {
		switch v {
		case Minimal:
			buckets[i].Samples = nil
		case Standard:
			samples := make([]string, len(buckets[i].Samples))
			for j, s := range buckets[i].Samples {
				samples[j] = truncate(s, maxSampleLen)
			}
			buckets[i].Samples = samples
		}
	}
	result.Buckets = buckets
	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
