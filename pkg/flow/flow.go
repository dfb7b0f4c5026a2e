// Package flow defines the step-based representation of a UI test flow.
package flow

import "fmt"

// Flow is an ordered list of steps run against one session.
type Flow struct {
	Config Config // Flow configuration
	Steps  []Step // Steps to execute, in order
}

// Config represents flow-level configuration.
type Config struct {
	Name  string `yaml:"name"`
	AppID string `yaml:"appId"`
}

// Validate checks that every step can be executed and reported.
func (f Flow) Validate() error {
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow %q has no steps", f.Config.Name)
	}
	seen := make(map[string]bool, len(f.Steps))
	for i, s := range f.Steps {
		if s.Name == "" {
			return fmt.Errorf("step %d has no name", i+1)
		}
		if s.Run == nil {
			return fmt.Errorf("step %q has no Run function", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate step name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
