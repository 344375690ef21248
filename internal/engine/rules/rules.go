package rules

import (
	"fmt"
	"strings"

	"github.com/hejijunhao/chatsift/internal/engine/normalizer"
)

// Version identifies the built-in cue set. It changes only when the cues
// themselves change, so downstream consumers can detect behavioral drift.
const Version = 1

// Category is one ordered classification rule: a label plus the substring
// cues that route a message into it. A category with no cues matches every
// message and must sit last in its table.
type Category struct {
	Label string   `yaml:"label"`
	Desc  string   `yaml:"desc,omitempty"`
	Cues  []string `yaml:"cues,omitempty"`
}

// Table is an ordered, first-match-wins rule set. Order doubles as result
// precedence: when two buckets tie on count, the one whose category appears
// earlier in the table sorts first.
type Table struct {
	categories []Category
	folded     [][]string // cues lower-cased and accent-folded for matching
}

// New builds a Table from ordered categories. The final category must have
// no cues (it is the default bucket); every other category needs at least
// one.
func New(categories []Category) (*Table, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("rule table has no categories")
	}
	seen := make(map[string]bool, len(categories))
	folded := make([][]string, len(categories))
	for i, c := range categories {
		if strings.TrimSpace(c.Label) == "" {
			return nil, fmt.Errorf("category %d has an empty label", i)
		}
		if seen[c.Label] {
			return nil, fmt.Errorf("duplicate category label %q", c.Label)
		}
		seen[c.Label] = true

		if i == len(categories)-1 {
			if len(c.Cues) != 0 {
				return nil, fmt.Errorf("final category %q must have no cues, it is the default bucket", c.Label)
			}
			continue
		}
		if len(c.Cues) == 0 {
			return nil, fmt.Errorf("category %q has no cues", c.Label)
		}
		cues := make([]string, len(c.Cues))
		for j, cue := range c.Cues {
			if cue == "" {
				return nil, fmt.Errorf("category %q has an empty cue", c.Label)
			}
			cues[j] = normalizer.Fold(cue)
		}
		folded[i] = cues
	}
	return &Table{categories: categories, folded: folded}, nil
}

// Match returns the index and label of the first category with a cue
// contained in text. Text must already be normalized; the final category
// matches unconditionally.
func (t *Table) Match(text string) (int, string) {
	for i, cues := range t.folded[:len(t.folded)-1] {
		for _, cue := range cues {
			if strings.Contains(text, cue) {
				return i, t.categories[i].Label
			}
		}
	}
	last := len(t.categories) - 1
	return last, t.categories[last].Label
}

// Categories returns the rule set in precedence order.
func (t *Table) Categories() []Category {
	return t.categories
}

// Len returns the number of categories.
func (t *Table) Len() int {
	return len(t.categories)
}
