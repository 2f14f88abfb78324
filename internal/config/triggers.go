package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Triggers is the literal vocabulary matched against comment bodies.
// A trigger literal is the mention followed by a suffix, e.g. "@gpt-bot /pr".
type Triggers struct {
	Mention     string `yaml:"mention"`
	Summary     string `yaml:"summary"`
	Comment     string `yaml:"comment"`
	PullRequest string `yaml:"pull_request"`
	Custom      string `yaml:"custom"`
	UnitTest    string `yaml:"unit_test"`
}

// DefaultTriggers returns the vocabulary the bot ships with
func DefaultTriggers() Triggers {
	return Triggers{
		Mention:     "@gpt-bot",
		Summary:     "今北産業",
		Comment:     "/comment",
		PullRequest: "/pr",
		Custom:      "/command",
		UnitTest:    "/unittest",
	}
}

// Suffixes returns every command suffix in a fixed order
func (t Triggers) Suffixes() []string {
	return []string{t.Summary, t.Comment, t.PullRequest, t.Custom, t.UnitTest}
}

// Validate rejects empty or whitespace-containing mentions and empty suffixes
func (t Triggers) Validate() error {
	if t.Mention == "" || strings.ContainsAny(t.Mention, " \t\n") {
		return fmt.Errorf("trigger mention %q must be a single non-empty token", t.Mention)
	}
	for _, s := range t.Suffixes() {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("trigger suffixes must not be empty")
		}
	}
	return nil
}

// LoadTriggers returns the default vocabulary overlaid with the YAML file at
// path. Keys missing from the file keep their defaults. An empty path
// returns the defaults.
func LoadTriggers(path string) (Triggers, error) {
	triggers := DefaultTriggers()
	if path == "" {
		return triggers, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Triggers{}, fmt.Errorf("failed to read triggers file: %w", err)
	}

	var override Triggers
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Triggers{}, fmt.Errorf("failed to parse triggers file %s: %w", path, err)
	}

	overlay(&triggers.Mention, override.Mention)
	overlay(&triggers.Summary, override.Summary)
	overlay(&triggers.Comment, override.Comment)
	overlay(&triggers.PullRequest, override.PullRequest)
	overlay(&triggers.Custom, override.Custom)
	overlay(&triggers.UnitTest, override.UnitTest)

	if err := triggers.Validate(); err != nil {
		return Triggers{}, err
	}
	return triggers, nil
}

func overlay(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}
