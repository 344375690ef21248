package rules

// DefaultTable returns the built-in rule set that ships with chatsift.
// The cue list is version 1 (see Version); cues are matched as plain
// substrings of the normalized message text.
func DefaultTable() *Table {
	t, err := New([]Category{
		{
			Label: "Questions",
			Desc:  "Viewers asking the streamer or chat for answers",
			Cues:  []string{"?", "how ", "what ", "why ", "can anyone"},
		},
		{
			Label: "Issues/Bugs",
			Desc:  "Reports of errors, crashes, or broken behavior",
			Cues:  []string{"bug", "error", "broken", "issue", "crash", "not working"},
		},
		{
			Label: "Requests",
			Desc:  "Feature requests and asks directed at the streamer",
			Cues:  []string{"please", "can you", "could you", "would you", "request", "suggestion"},
		},
		{
			Label: "General Chat",
			Desc:  "Messages that match no other category",
		},
	})
	if err != nil {
		panic("rules: invalid built-in table: " + err.Error())
	}
	return t
}
