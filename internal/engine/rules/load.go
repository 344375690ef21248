package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the YAML schema for a custom rule table.
type ruleFile struct {
	Categories []Category `yaml:"categories"`
}

// LoadFile reads an ordered rule table from a YAML file. Categories appear
// in precedence order and the final one must carry no cues:
//
//	categories:
//	  - label: Questions
//	    desc: Viewers asking for answers
//	    cues: ["?", "how "]
//	  - label: General Chat
//	    desc: Everything else
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	t, err := New(f.Categories)
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return t, nil
}
