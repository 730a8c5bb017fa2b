package historylist

import (
	"context"
	"fmt"

	"github.com/slok/devrig/internal/log"
	"github.com/slok/devrig/internal/model"
	"github.com/slok/devrig/internal/storage"
)

// ServiceConfig is the configuration for the history list service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.HistoryList"})
	return nil
}

// Service handles listing persisted provisioning runs.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new history list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// ListOptions are the options for listing runs.
type ListOptions struct {
	Limit int
}

// List returns persisted provisioning runs, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]model.Run, error) {
	if opts.Limit < 0 {
		return nil, fmt.Errorf("limit cannot be negative: %w", model.ErrNotValid)
	}

	runs, err := s.repo.ListRuns(ctx, storage.ListRunsOpts{Limit: opts.Limit})
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}

	return runs, nil
}
