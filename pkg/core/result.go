package core

import (
	"time"
)

// StepResult is the explicit outcome of one step: either a success carrying
// the value written to the report, or a failure with diagnostics.
type StepResult struct {
	// Identity
	Index       int    `json:"index"`       // 0-based position in flow
	Name        string `json:"name"`        // Step slug, used in screenshot names
	Description string `json:"description"` // Report "Test Case" column

	// Status
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Output
	Value string `json:"value"` // Report "Result" column: PASS, FAIL or observed text

	// Error Details
	Error string `json:"error,omitempty"` // Technical error message

	// Debug Artifacts
	Screenshot  string       `json:"screenshot,omitempty"` // File name written to the "Note" column
	Attachments []Attachment `json:"attachments,omitempty"`

	// Set when the row could not be persisted.
	ReportError string `json:"reportError,omitempty"`
}

// CaseNumber returns the 1-based case number used in the report.
func (s StepResult) CaseNumber() int {
	return s.Index + 1
}

// FlowResult captures the complete outcome of executing a flow
type FlowResult struct {
	// Identity
	Name  string `json:"name"`
	RunID string `json:"runId"`

	// Platform info (captured once per flow)
	PlatformInfo *PlatformInfo `json:"platformInfo,omitempty"`

	// Status (aggregated from steps)
	Status StepStatus `json:"status"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Steps []StepResult `json:"steps"`

	// Summary (computed)
	TotalSteps  int `json:"totalSteps"`
	PassedSteps int `json:"passedSteps"`
	FailedSteps int `json:"failedSteps"`
}

// ComputeSummary calculates step counts from the Steps slice
func (f *FlowResult) ComputeSummary() {
	f.TotalSteps = len(f.Steps)
	f.PassedSteps = 0
	f.FailedSteps = 0

	for _, step := range f.Steps {
		switch step.Status {
		case StatusPassed:
			f.PassedSteps++
		case StatusFailed:
			f.FailedSteps++
		}
	}
}

// AggregateStatus determines the flow status from step results.
// Any failed step fails the flow; an empty flow is still pending.
func (f *FlowResult) AggregateStatus() StepStatus {
	if len(f.Steps) == 0 {
		return StatusPending
	}
	for _, step := range f.Steps {
		if step.Status != StatusPassed {
			return StatusFailed
		}
	}
	return StatusPassed
}

// Success returns true if every step passed
func (f *FlowResult) Success() bool {
	return f.AggregateStatus().IsSuccess()
}
