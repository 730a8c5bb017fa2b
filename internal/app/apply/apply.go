package apply

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/devrig/internal/log"
	"github.com/slok/devrig/internal/model"
	"github.com/slok/devrig/internal/registry"
	"github.com/slok/devrig/internal/storage"
)

// Orchestrator knows how to execute install actions across a registry.
type Orchestrator interface {
	Run(ctx context.Context, reg *registry.Registry) (*model.RunReport, error)
}

// Verifier knows how to check the satisfied state of every registry step.
type Verifier interface {
	Verify(ctx context.Context, reg *registry.Registry) (*model.VerificationReport, error)
}

// ServiceConfig is the configuration for the apply service.
type ServiceConfig struct {
	Orchestrator Orchestrator
	Verifier     Verifier
	Repository   storage.Repository
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Orchestrator == nil {
		return fmt.Errorf("orchestrator is required")
	}
	if c.Verifier == nil {
		return fmt.Errorf("verifier is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Apply"})
	return nil
}

// Service handles the full provisioning business logic: run install actions,
// verify the resulting state and persist the run for later inspection.
type Service struct {
	orchestrator Orchestrator
	verifier     Verifier
	repo         storage.Repository
	logger       log.Logger
}

// NewService creates a new apply service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		orchestrator: cfg.Orchestrator,
		verifier:     cfg.Verifier,
		repo:         cfg.Repository,
		logger:       cfg.Logger,
	}, nil
}

// ApplyOptions are the options for a provisioning run.
type ApplyOptions struct {
	Registry *registry.Registry
}

// Apply runs every registry step's install action, verifies the final state
// and persists the run. The verification report is the authoritative success
// signal: install outcomes and verified state can disagree and both are
// returned.
func (s *Service) Apply(ctx context.Context, opts ApplyOptions) (*model.Run, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required: %w", model.ErrNotValid)
	}

	run := model.Run{
		ID:        model.NewID(),
		Mode:      model.RunModeApply,
		CreatedAt: time.Now().UTC(),
	}

	report, runErr := s.orchestrator.Run(ctx, opts.Registry)
	run.Report = report
	if runErr != nil {
		// Cancellation mid-run: persist the partial report, skip verification.
		s.saveRun(ctx, run)
		return &run, fmt.Errorf("provisioning run interrupted: %w", runErr)
	}

	verification, err := s.verifier.Verify(ctx, opts.Registry)
	if err != nil {
		s.saveRun(ctx, run)
		return &run, fmt.Errorf("could not verify provisioned state: %w", err)
	}
	run.Verification = verification

	s.saveRun(ctx, run)

	satisfied, _ := verification.Counts()
	s.logger.Infof("Provisioning run %s finished: %d of %d steps satisfied", run.ID, satisfied, len(verification.Results))

	return &run, nil
}

// saveRun persists the run for the history, a persistence failure never masks
// the provisioning result.
func (s *Service) saveRun(ctx context.Context, run model.Run) {
	// Persist even when the run context was cancelled.
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}

	if err := s.repo.CreateRun(ctx, run); err != nil {
		s.logger.Warningf("Could not persist run %s: %s", run.ID, err)
	}
}
