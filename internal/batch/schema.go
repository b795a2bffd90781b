// Package batch runs a YAML file of chat commands in order.
package batch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Batch is a named list of commands.
type Batch struct {
	Name     string `yaml:"name" json:"name"`
	Commands []Step `yaml:"commands" json:"commands"`
}

// Step is one natural-language command.
type Step struct {
	ID              string `yaml:"id" json:"id"`
	Command         string `yaml:"command" json:"command"`
	ContinueOnError bool   `yaml:"continue_on_error,omitempty" json:"continueOnError,omitempty"`
}

// Load reads and parses a batch YAML file.
func Load(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("batch file not found: %s", path)
		}
		return nil, fmt.Errorf("could not read batch file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses a batch from YAML bytes.
func Parse(data []byte) (*Batch, error) {
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("invalid batch YAML: %w", err)
	}

	if err := validate(&b); err != nil {
		return nil, err
	}

	return &b, nil
}

func validate(b *Batch) error {
	if b.Name == "" {
		return fmt.Errorf("batch is missing a 'name' field")
	}

	if len(b.Commands) == 0 {
		return fmt.Errorf("batch %q has no commands defined", b.Name)
	}

	seen := make(map[string]bool)
	for i := range b.Commands {
		step := &b.Commands[i]
		if step.ID == "" {
			step.ID = fmt.Sprintf("step%d", i+1)
		}
		if seen[step.ID] {
			return fmt.Errorf("duplicate command ID %q, each command must have a unique ID", step.ID)
		}
		seen[step.ID] = true

		if step.Command == "" {
			return fmt.Errorf("command %q has an empty 'command' field", step.ID)
		}
	}

	return nil
}
