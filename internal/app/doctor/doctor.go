package doctor

import (
	"context"
	"fmt"

	"github.com/slok/devrig/internal/log"
	"github.com/slok/devrig/internal/model"
	"github.com/slok/devrig/internal/registry"
)

// Verifier knows how to check the satisfied state of every registry step.
type Verifier interface {
	Verify(ctx context.Context, reg *registry.Registry) (*model.VerificationReport, error)
}

// ServiceConfig is the configuration for the doctor service.
type ServiceConfig struct {
	Verifier Verifier
	Logger   log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Verifier == nil {
		return fmt.Errorf("verifier is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Doctor"})
	return nil
}

// Service handles the verification-only health check: it re-checks the current
// satisfied state of every step without running any install action, so it is
// safe to run at any time, even against a host provisioned by external means.
type Service struct {
	verifier Verifier
	logger   log.Logger
}

// NewService creates a new doctor service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		verifier: cfg.Verifier,
		logger:   cfg.Logger,
	}, nil
}

// DoctorOptions are the options for a verification pass.
type DoctorOptions struct {
	Registry *registry.Registry
}

// Doctor verifies every registry step and returns the verification report.
func (s *Service) Doctor(ctx context.Context, opts DoctorOptions) (*model.VerificationReport, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required: %w", model.ErrNotValid)
	}

	report, err := s.verifier.Verify(ctx, opts.Registry)
	if err != nil {
		return nil, fmt.Errorf("could not verify steps: %w", err)
	}

	return report, nil
}
