package core

// StepStatus represents the execution status of a step
type StepStatus int

const (
	StatusPending StepStatus = iota // Not yet started
	StatusPassed                    // Completed and the observed state matched
	StatusFailed                    // Mismatch, or the step raised an error
)

// Result cell values written to the report.
const (
	ResultPass = "PASS"
	ResultFail = "FAIL"
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsSuccess returns true if the status indicates success
func (s StepStatus) IsSuccess() bool {
	return s == StatusPassed
}

// Cell returns the report cell for the status (PASS/FAIL).
func (s StepStatus) Cell() string {
	if s == StatusPassed {
		return ResultPass
	}
	return ResultFail
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Element not found, attribute mismatch
	ErrCategoryTimeout                         // Wait deadline exceeded
	ErrCategoryConnection                      // Appium server or device unreachable
	ErrCategoryConfig                          // Invalid configuration, missing required field
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}
