// Package config defines the scenario suite configuration: the emulator
// endpoint, the target state machine, and the scenarios to execute
// against it. Suites are YAML or JSON documents, loadable from a single
// file or merged from a directory.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/deepnoodle-ai/stepcheck/validate"
)

// DefaultTimeoutSeconds bounds a scenario that declares no timeout.
const DefaultTimeoutSeconds = 60

// ExpectedField is a scenario assertion against the final execution
// output. Equals compares the JSON value at Path; Contains checks a
// substring of its string form.
type ExpectedField struct {
	Path     string `yaml:"Path" json:"Path"`
	Equals   any    `yaml:"Equals,omitempty" json:"Equals,omitempty"`
	Contains string `yaml:"Contains,omitempty" json:"Contains,omitempty"`
}

// Scenario is one workflow execution to run and validate.
type Scenario struct {
	Name           string          `yaml:"Name" json:"Name"`
	Description    string          `yaml:"Description,omitempty" json:"Description,omitempty"`
	Input          map[string]any  `yaml:"Input" json:"Input"`
	TimeoutSeconds int             `yaml:"TimeoutSeconds,omitempty" json:"TimeoutSeconds,omitempty"`
	Expected       []ExpectedField `yaml:"Expected,omitempty" json:"Expected,omitempty"`
}

// InputJSON returns the scenario input as a JSON document.
func (s *Scenario) InputJSON() (json.RawMessage, error) {
	if s.Input == nil {
		return json.RawMessage("{}"), nil
	}
	data, err := json.Marshal(s.Input)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: input is not serializable: %w", s.Name, err)
	}
	return data, nil
}

// Timeout returns the scenario's completion budget.
func (s *Scenario) Timeout() time.Duration {
	seconds := s.TimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// ExpectedFields converts the scenario assertions into validator form.
func (s *Scenario) ExpectedFields() []validate.ExpectedField {
	fields := make([]validate.ExpectedField, 0, len(s.Expected))
	for _, f := range s.Expected {
		fields = append(fields, validate.ExpectedField{
			Path:     f.Path,
			Equals:   f.Equals,
			Contains: f.Contains,
		})
	}
	return fields
}

// Config is a complete scenario suite.
type Config struct {
	Endpoint        string     `yaml:"Endpoint,omitempty" json:"Endpoint,omitempty"`
	Region          string     `yaml:"Region,omitempty" json:"Region,omitempty"`
	StateMachineARN string     `yaml:"StateMachineARN,omitempty" json:"StateMachineARN,omitempty"`
	LogLevel        string     `yaml:"LogLevel,omitempty" json:"LogLevel,omitempty"`
	MaxConcurrency  int        `yaml:"MaxConcurrency,omitempty" json:"MaxConcurrency,omitempty"`
	Scenarios       []Scenario `yaml:"Scenarios,omitempty" json:"Scenarios,omitempty"`
}

// Validate checks the suite for problems that would make a run
// meaningless: no scenarios, duplicate names, or a missing target.
func (c *Config) Validate() error {
	if c.StateMachineARN == "" {
		return fmt.Errorf("config: StateMachineARN is required")
	}
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("config: at least one scenario is required")
	}
	seen := map[string]bool{}
	for _, scenario := range c.Scenarios {
		if scenario.Name == "" {
			return fmt.Errorf("config: every scenario needs a name")
		}
		if seen[scenario.Name] {
			return fmt.Errorf("config: duplicate scenario name %q", scenario.Name)
		}
		seen[scenario.Name] = true
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("config: MaxConcurrency cannot be negative")
	}
	return nil
}
