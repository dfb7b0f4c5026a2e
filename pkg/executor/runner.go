// Package executor runs a flow step by step and records one report row per step.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/devicelab-dev/netsettings-runner/pkg/core"
	"github.com/devicelab-dev/netsettings-runner/pkg/flow"
	"github.com/devicelab-dev/netsettings-runner/pkg/logger"
	"github.com/devicelab-dev/netsettings-runner/pkg/report"
)

// Recorder persists report rows. *report.Workbook implements it.
type Recorder interface {
	Append(row report.Row) error
}

// RunnerConfig configures the step runner.
type RunnerConfig struct {
	Artifacts core.ArtifactConfig // Where failure screenshots go
	Recorder  Recorder            // Report sink; nil disables rows
	RunID     string

	// Clock for timestamps; defaults to time.Now.
	Now func() time.Time

	// Live progress callbacks
	OnStepStart    func(idx, total int, name string)
	OnStepComplete func(result core.StepResult)
}

// RunResult contains the outcome of a run.
type RunResult struct {
	core.FlowResult

	// Rows that could not be written to the report.
	ReportFailures int
}

// Runner executes flows against one driver.
type Runner struct {
	config RunnerConfig
	driver core.Driver
}

// New creates a new Runner.
func New(driver core.Driver, cfg RunnerConfig) *Runner {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Artifacts.Pattern == "" {
		cfg.Artifacts.Pattern = core.DefaultScreenshotPattern
	}
	return &Runner{config: cfg, driver: driver}
}

// Run executes every step in order. A failing step is recorded and the run
// moves on; only an invalid flow returns an error.
func (r *Runner) Run(ctx context.Context, f flow.Flow) (*RunResult, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	start := r.config.Now()
	result := &RunResult{
		FlowResult: core.FlowResult{
			Name:         f.Config.Name,
			RunID:        r.config.RunID,
			PlatformInfo: r.driver.GetPlatformInfo(),
			StartTime:    start,
			Steps:        make([]core.StepResult, 0, len(f.Steps)),
		},
	}

	for i, step := range f.Steps {
		if r.config.OnStepStart != nil {
			r.config.OnStepStart(i, len(f.Steps), step.Name)
		}

		sr := r.executeStep(ctx, i, step)

		if r.config.Recorder != nil {
			if err := r.config.Recorder.Append(rowFor(sr)); err != nil {
				logger.Error("write report row %d: %v", sr.CaseNumber(), err)
				sr.ReportError = err.Error()
				result.ReportFailures++
			}
		}

		result.Steps = append(result.Steps, sr)
		if r.config.OnStepComplete != nil {
			r.config.OnStepComplete(sr)
		}
	}

	result.Duration = r.config.Now().Sub(start)
	result.ComputeSummary()
	result.Status = result.AggregateStatus()
	return result, nil
}

// executeStep runs a single step and folds its outcome into a StepResult.
func (r *Runner) executeStep(ctx context.Context, idx int, step flow.Step) core.StepResult {
	sr := core.StepResult{
		Index:     idx,
		Name:      step.Name,
		StartTime: r.config.Now(),
	}

	out, err := runGuarded(ctx, r.driver, step)
	sr.Duration = r.config.Now().Sub(sr.StartTime)

	if err != nil {
		sr.Description = step.ErrorMessage
		if sr.Description == "" {
			sr.Description = step.Name + " failed"
		}
		sr.Status = core.StatusFailed
		sr.Value = core.ResultFail
		sr.Category = core.CategoryOf(err)
		sr.Error = err.Error()
		r.captureScreenshot(ctx, &sr)
		logger.Step(sr.CaseNumber(), sr.Name, sr.Value, err)
		return sr
	}

	sr.Description = out.Description
	sr.Status = out.Status
	if sr.Status == core.StatusPending {
		sr.Status = core.StatusPassed
	}
	out.Status = sr.Status
	sr.Value = out.Cell()
	if sr.Status == core.StatusFailed {
		sr.Category = core.ErrCategoryAssertion
	}
	logger.Step(sr.CaseNumber(), sr.Name, sr.Value, nil)
	return sr
}

// runGuarded turns a panicking step into a step error.
func runGuarded(ctx context.Context, d core.Driver, step flow.Step) (out flow.Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("step %s panicked: %v", step.Name, p)
		}
	}()
	if err := ctx.Err(); err != nil {
		return flow.Outcome{}, err
	}
	return step.Run(ctx, d)
}

// captureScreenshot saves the failure screenshot. Errors are logged and
// leave the note empty.
func (r *Runner) captureScreenshot(ctx context.Context, sr *core.StepResult) {
	if errors.Is(ctx.Err(), context.Canceled) {
		logger.Warn("skipping screenshot for %s: run cancelled", sr.Name)
		return
	}

	name, path, err := r.config.Artifacts.ScreenshotPath(sr.Name, r.config.Now())
	if err != nil {
		logger.Error("screenshot name for %s: %v", sr.Name, err)
		return
	}
	data, err := r.driver.Screenshot(ctx)
	if err != nil {
		logger.Error("capture screenshot for %s: %v", sr.Name, err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Error("save screenshot %s: %v", path, err)
		return
	}
	sr.Screenshot = name
	sr.Attachments = append(sr.Attachments, core.NewScreenshotAttachment(path, data))
}

// rowFor converts a step result to a report row.
func rowFor(sr core.StepResult) report.Row {
	row := report.Row{
		CaseNumber:  sr.CaseNumber(),
		Description: sr.Description,
		Result:      sr.Value,
	}
	if sr.Error != "" {
		row.Note = sr.Screenshot
		row.Error = sr.Error
	}
	return row
}
