package flow

import (
	"context"

	"github.com/devicelab-dev/netsettings-runner/pkg/core"
)

// RunFunc performs one step. A returned error means the step could not be
// carried out (element missing, driver failure); a mismatch between the
// observed and expected state is reported through the Outcome instead.
type RunFunc func(ctx context.Context, d core.Driver) (Outcome, error)

// Step is a single locate-wait-interact-verify unit.
type Step struct {
	Name         string  // Slug used in screenshot names (e.g. "roaming_toggle")
	ErrorMessage string  // Report description used when Run returns an error
	Run          RunFunc // Step body
}

// Outcome is what a step that ran to completion reports.
type Outcome struct {
	Description string          // Report "Test Case" column
	Status      core.StepStatus // Passed or Failed
	Value       string          // Report "Result" column when HasValue is set
	HasValue    bool            // Value is an observed reading, even if empty
}

// Pass reports a successful check.
func Pass(description string) Outcome {
	return Outcome{Description: description, Status: core.StatusPassed}
}

// Fail reports a check whose observed state did not match.
func Fail(description string) Outcome {
	return Outcome{Description: description, Status: core.StatusFailed}
}

// Check reports Pass when got equals want, else Fail.
func Check(description, got, want string) Outcome {
	if got == want {
		return Pass(description)
	}
	return Fail(description)
}

// Text reports an observed value (the step passes, the cell holds the value).
func Text(description, value string) Outcome {
	return Outcome{Description: description, Status: core.StatusPassed, Value: value, HasValue: true}
}

// Cell returns the report "Result" cell for the outcome.
func (o Outcome) Cell() string {
	if o.HasValue {
		return o.Value
	}
	return o.Status.Cell()
}
