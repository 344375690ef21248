// Package chatsift groups live-stream chat messages into labeled buckets
// using an ordered, first-match-wins rule table.
//
// Quick start:
//
//	cs, err := chatsift.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result := cs.ClassifyTexts([]string{
//	    "how do I install this?",
//	    "great stream",
//	})
//	fmt.Print(cs.Format(result))
//
// A Chatsift instance holds no mutable state and is safe for concurrent
// use. Create once, reuse across snapshots. See the README for full
// documentation.
package chatsift
