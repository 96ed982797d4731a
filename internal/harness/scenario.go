package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of task commands.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// HighlightWindow overrides the coordinator's highlight window.
	// Default: 200ms, enough to observe the highlight after each step.
	HighlightWindow string `yaml:"highlight_window,omitempty"`

	// Steps run in order. Each waits for its command to finish.
	Steps []Step `yaml:"steps"`

	// Expect is checked against the final state. Optional.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Step names exactly one command.
type Step struct {
	Add                *string   `yaml:"add,omitempty"`
	Toggle             *int      `yaml:"toggle,omitempty"`
	Edit               *EditStep `yaml:"edit,omitempty"`
	Delete             *int      `yaml:"delete,omitempty"`
	WaitHighlightClear bool      `yaml:"wait_highlight_clear,omitempty"`
}

// EditStep retitles the task at Index.
type EditStep struct {
	Index int    `yaml:"index"`
	Title string `yaml:"title"`
}

// ExpectClause describes the expected final state.
type ExpectClause struct {
	// Tasks is the expected list, newest first. Compared by title and done.
	Tasks []ExpectedTask `yaml:"tasks"`

	// Highlight is "none", a title of the highlighted task, or empty to skip.
	Highlight string `yaml:"highlight,omitempty"`
}

// ExpectedTask is one expected list entry.
type ExpectedTask struct {
	Title string `yaml:"title"`
	Done  bool   `yaml:"done"`
}

// Step op names, as they appear in traces.
const (
	OpAdd                = "add"
	OpToggle             = "toggle"
	OpEdit               = "edit"
	OpDelete             = "delete"
	OpWaitHighlightClear = "wait_highlight_clear"
)

const defaultHighlightWindow = 200 * time.Millisecond

// Op returns the op name of the single command set on s, or "" if none is set.
func (s Step) Op() string {
	switch {
	case s.Add != nil:
		return OpAdd
	case s.Toggle != nil:
		return OpToggle
	case s.Edit != nil:
		return OpEdit
	case s.Delete != nil:
		return OpDelete
	case s.WaitHighlightClear:
		return OpWaitHighlightClear
	}
	return ""
}

func (s Step) opCount() int {
	n := 0
	if s.Add != nil {
		n++
	}
	if s.Toggle != nil {
		n++
	}
	if s.Edit != nil {
		n++
	}
	if s.Delete != nil {
		n++
	}
	if s.WaitHighlightClear {
		n++
	}
	return n
}

// Window returns the parsed highlight window.
func (s *Scenario) Window() (time.Duration, error) {
	if s.HighlightWindow == "" {
		return defaultHighlightWindow, nil
	}
	d, err := time.ParseDuration(s.HighlightWindow)
	if err != nil {
		return 0, fmt.Errorf("invalid highlight_window %q: %w", s.HighlightWindow, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("highlight_window must be positive, got %s", d)
	}
	return d, nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// Validate checks required fields and that every step names one command.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("missing required field: name")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("missing required field: steps")
	}
	if _, err := s.Window(); err != nil {
		return err
	}

	for i, step := range s.Steps {
		switch step.opCount() {
		case 1:
		case 0:
			return fmt.Errorf("step %d: no command given", i)
		default:
			return fmt.Errorf("step %d: more than one command given", i)
		}

		for _, idx := range []*int{step.Toggle, step.Delete} {
			if idx != nil && *idx < 0 {
				return fmt.Errorf("step %d: negative index %d", i, *idx)
			}
		}
		if step.Edit != nil && step.Edit.Index < 0 {
			return fmt.Errorf("step %d: negative index %d", i, step.Edit.Index)
		}
	}

	return nil
}
