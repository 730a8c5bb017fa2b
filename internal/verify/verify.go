// Package verify implements the engine that re-checks the current satisfied
// state of every registry step, independently of any install run.
package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/slok/devrig/internal/log"
	"github.com/slok/devrig/internal/model"
	"github.com/slok/devrig/internal/registry"
)

const (
	defaultCheckTimeout = 30 * time.Second
	defaultWorkers      = 4
)

// VerifierConfig is the configuration for the verifier.
type VerifierConfig struct {
	// CheckTimeout is the default per-step check timeout, overridable per step
	// on the registry.
	CheckTimeout time.Duration
	// Workers is the number of checks allowed to run concurrently. Checks are
	// side-effect free so they can run in parallel, results are always
	// assembled back in registry order.
	Workers int
	Logger  log.Logger
}

func (c *VerifierConfig) defaults() error {
	if c.CheckTimeout < 0 {
		return fmt.Errorf("check timeout cannot be negative")
	}
	if c.CheckTimeout == 0 {
		c.CheckTimeout = defaultCheckTimeout
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	if c.Workers == 0 {
		c.Workers = defaultWorkers
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "verify.Verifier"})
	return nil
}

// Verifier walks a registry invoking every step's check action and collecting
// the satisfied state per step. It never mutates host state and can be used as
// a standalone health check without ever having run the orchestrator.
type Verifier struct {
	checkTimeout time.Duration
	workers      int
	logger       log.Logger
}

// NewVerifier creates a new verifier.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Verifier{
		checkTimeout: cfg.CheckTimeout,
		workers:      cfg.Workers,
		logger:       cfg.Logger,
	}, nil
}

// Verify checks every registry step and returns the verification report with
// exactly one result per step, in registry order. A failing or timing out
// check is recorded as unsatisfied with its diagnostic, it never aborts the
// verification of the other steps.
func (v *Verifier) Verify(ctx context.Context, reg *registry.Registry) (*model.VerificationReport, error) {
	steps := reg.All()
	report := &model.VerificationReport{
		StartedAt: time.Now().UTC(),
		Results:   make([]model.CheckResult, len(steps)),
	}

	var g errgroup.Group
	g.SetLimit(v.workers)

	for i, step := range steps {
		i, step := i, step
		g.Go(func() error {
			report.Results[i] = v.checkStep(ctx, step)
			return nil
		})
	}

	// Workers only record results, they never return errors.
	_ = g.Wait()

	report.FinishedAt = time.Now().UTC()

	satisfied, unsatisfied := report.Counts()
	v.logger.Infof("Verification finished: %d satisfied, %d unsatisfied", satisfied, unsatisfied)

	return report, nil
}

func (v *Verifier) checkStep(ctx context.Context, step registry.Step) model.CheckResult {
	result := model.CheckResult{StepID: step.ID, Description: step.Description}
	logger := v.logger.WithValues(log.Kv{"step": step.ID})

	if step.Check == nil {
		result.Reason = model.FailureReasonActionNotFound
		result.Diagnostic = fmt.Sprintf("no check action bound for step %q", step.ID)
		logger.Errorf("No check action bound")
		return result
	}

	timeout := v.checkTimeout
	if step.Timeout > 0 {
		timeout = step.Timeout
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	satisfied, detail, err := step.Check.Check(checkCtx)
	switch {
	case err == nil:
		result.Satisfied = satisfied
		result.Diagnostic = detail
		logger.Debugf("Check finished: satisfied=%t", satisfied)

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, model.ErrTimeout):
		result.Reason = model.FailureReasonTimeout
		result.Diagnostic = fmt.Sprintf("check did not finish within %s", timeout)
		logger.Errorf("Check timed out after %s", timeout)

	case errors.Is(err, context.Canceled):
		result.Reason = model.FailureReasonCancelled
		result.Diagnostic = "verification cancelled"
		logger.Debugf("Check cancelled")

	default:
		result.Reason = model.FailureReasonCheckFailed
		result.Diagnostic = err.Error()
		logger.Errorf("Check errored: %s", err)
	}

	return result
}
