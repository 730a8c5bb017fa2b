// Package provision implements the engine that walks a step registry invoking
// install actions and collecting per-step outcomes.
package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/devrig/internal/log"
	"github.com/slok/devrig/internal/model"
	"github.com/slok/devrig/internal/registry"
)

const defaultStepTimeout = 15 * time.Minute

// OrchestratorConfig is the configuration for the orchestrator.
type OrchestratorConfig struct {
	// StepTimeout is the default per-step install timeout, overridable per step
	// on the registry.
	StepTimeout time.Duration
	Logger      log.Logger
}

func (c *OrchestratorConfig) defaults() error {
	if c.StepTimeout < 0 {
		return fmt.Errorf("step timeout cannot be negative")
	}
	if c.StepTimeout == 0 {
		c.StepTimeout = defaultStepTimeout
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "provision.Orchestrator"})
	return nil
}

// Orchestrator executes install actions across a registry in declaration
// order, with partial-failure tolerance: one step failing never aborts the
// walk, the failure is recorded and the next step runs. Steps run strictly
// sequentially because install actions mutate shared host state and later
// steps may depend on mutations earlier steps performed.
type Orchestrator struct {
	stepTimeout time.Duration
	logger      log.Logger
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Orchestrator{
		stepTimeout: cfg.StepTimeout,
		logger:      cfg.Logger,
	}, nil
}

// Run walks the registry invoking every step's install action and returns the
// run report with exactly one outcome per step, in registry order.
//
// Cancellation is cooperative and checked between steps: an in-flight action
// runs to completion or to its own timeout, remaining steps are recorded as
// failed with a cancellation diagnostic and the context error is returned
// along with the partial report.
func (o *Orchestrator) Run(ctx context.Context, reg *registry.Registry) (*model.RunReport, error) {
	steps := reg.All()
	report := &model.RunReport{
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]model.RunOutcome, 0, len(steps)),
	}

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			for _, remaining := range steps[i:] {
				report.Outcomes = append(report.Outcomes, model.RunOutcome{
					StepID:      remaining.ID,
					Description: remaining.Description,
					Status:      model.OutcomeStatusFailed,
					Reason:      model.FailureReasonCancelled,
					Diagnostic:  "run cancelled before step executed",
				})
			}
			report.FinishedAt = time.Now().UTC()
			return report, fmt.Errorf("run cancelled at step %d: %w", i, err)
		}

		report.Outcomes = append(report.Outcomes, o.runStep(ctx, step))
	}

	report.FinishedAt = time.Now().UTC()

	installed, skipped, failed := report.CountByStatus()
	o.logger.Infof("Run finished: %d installed, %d skipped, %d failed", installed, skipped, failed)

	return report, nil
}

func (o *Orchestrator) runStep(ctx context.Context, step registry.Step) model.RunOutcome {
	outcome := model.RunOutcome{StepID: step.ID, Description: step.Description}
	logger := o.logger.WithValues(log.Kv{"step": step.ID})

	if step.Install == nil {
		outcome.Status = model.OutcomeStatusFailed
		outcome.Reason = model.FailureReasonActionNotFound
		outcome.Diagnostic = fmt.Sprintf("no install action bound for step %q", step.ID)
		logger.Errorf("No install action bound, continuing")
		return outcome
	}

	timeout := o.stepTimeout
	if step.Timeout > 0 {
		timeout = step.Timeout
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debugf("Installing...")
	start := time.Now()
	err := step.Install.Install(stepCtx)
	outcome.Duration = time.Since(start)

	switch {
	case err == nil:
		outcome.Status = model.OutcomeStatusInstalled
		logger.Infof("Installed")

	case errors.Is(err, model.ErrAlreadySatisfied):
		outcome.Status = model.OutcomeStatusSkipped
		outcome.Diagnostic = err.Error()
		logger.Debugf("Already satisfied, skipped")

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, model.ErrTimeout):
		outcome.Status = model.OutcomeStatusFailed
		outcome.Reason = model.FailureReasonTimeout
		outcome.Diagnostic = fmt.Sprintf("install did not finish within %s", timeout)
		logger.Errorf("Install timed out after %s, continuing", timeout)

	default:
		outcome.Status = model.OutcomeStatusFailed
		outcome.Reason = model.FailureReasonInstallFailed
		outcome.Diagnostic = err.Error()
		logger.Errorf("Install failed, continuing: %s", err)
	}

	return outcome
}
