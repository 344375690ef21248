package chatsift

import "github.com/hejijunhao/chatsift/internal/engine/rules"

// Category describes one classification rule: its label and the substring
// cues that route messages into it. The final category has no cues and
// collects everything the others miss.
type Category struct {
	Label string   // e.g. "Questions"
	Desc  string   // short description, may be empty
	Cues  []string // matched case-insensitively against folded text
}

// Categories returns the active rule set in precedence order. Read-only:
// consumers can inspect the routing but not modify it.
func (c *Chatsift) Categories() []Category {
	rcs := c.engine.Table().Categories()
	out := make([]Category, len(rcs))
	for i, rc := range rcs {
		cues := make([]string, len(rc.Cues))
		copy(cues, rc.Cues)
		out[i] = Category{Label: rc.Label, Desc: rc.Desc, Cues: cues}
	}
	return out
}

// RulesVersion reports the version of the built-in cue set. It changes only
// when the shipped cues change.
func RulesVersion() int {
	return rules.Version
}
