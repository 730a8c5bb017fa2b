// Package registry holds the ordered collection of provisioning steps that the
// orchestrator and the verifier walk. It is the single source of truth for step
// identity and execution order: declaration order is the execution order.
package registry

import (
	"fmt"
	"time"

	"github.com/slok/devrig/internal/action"
	"github.com/slok/devrig/internal/model"
)

// Step is one named unit of idempotent provisioning work.
type Step struct {
	// ID is the unique, stable step identifier, used as a key across runs.
	ID string
	// Description is the human-readable label used for reporting.
	Description string
	// Install brings the step to its goal state. May be nil, the orchestrator
	// reports such steps as failed with an action-not-found diagnostic.
	Install action.Installer
	// Check reports whether the step goal state currently holds. May be nil,
	// the verifier reports such steps as unsatisfied.
	Check action.Checker
	// Timeout overrides the engine default action timeout for this step.
	Timeout time.Duration
}

func (s Step) validate() error {
	if s.ID == "" {
		return fmt.Errorf("step id is required: %w", model.ErrNotValid)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("step %q timeout cannot be negative: %w", s.ID, model.ErrNotValid)
	}
	return nil
}

// Registry is the ordered, immutable-after-construction collection of steps.
// Iteration via All always yields the declaration order.
type Registry struct {
	steps []Step
	index map[string]struct{}
}

// New creates a registry with the received steps, in order.
func New(steps ...Step) (*Registry, error) {
	r := &Registry{index: map[string]struct{}{}}
	for _, s := range steps {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register appends a step to the registry, keeping declaration order.
func (r *Registry) Register(s Step) error {
	if err := s.validate(); err != nil {
		return fmt.Errorf("invalid step: %w", err)
	}

	if _, ok := r.index[s.ID]; ok {
		return fmt.Errorf("step with id %q: %w", s.ID, model.ErrAlreadyExists)
	}

	if s.Description == "" {
		s.Description = s.ID
	}

	r.index[s.ID] = struct{}{}
	r.steps = append(r.steps, s)

	return nil
}

// All returns every step in declaration order. The returned slice is a copy.
func (r *Registry) All() []Step {
	steps := make([]Step, len(r.steps))
	copy(steps, r.steps)
	return steps
}

// Len returns the number of registered steps.
func (r *Registry) Len() int { return len(r.steps) }

// Subset returns a new registry with only the received step ids, preserving
// the original declaration order regardless of the order of ids.
func (r *Registry) Subset(ids []string) (*Registry, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := r.index[id]; !ok {
			return nil, fmt.Errorf("step with id %q: %w", id, model.ErrNotFound)
		}
		wanted[id] = struct{}{}
	}

	sub := &Registry{index: map[string]struct{}{}}
	for _, s := range r.steps {
		if _, ok := wanted[s.ID]; !ok {
			continue
		}
		if err := sub.Register(s); err != nil {
			return nil, err
		}
	}

	return sub, nil
}

// Validate is the construction-time completeness check: every step must have
// both actions bound. Commands that want to fail fast on a misconfigured
// registry call this before walking it.
func (r *Registry) Validate() error {
	for _, s := range r.steps {
		if s.Install == nil {
			return fmt.Errorf("step %q has no install action bound: %w", s.ID, model.ErrActionNotFound)
		}
		if s.Check == nil {
			return fmt.Errorf("step %q has no check action bound: %w", s.ID, model.ErrActionNotFound)
		}
	}

	return nil
}

// Summaries returns the report-facing view of every step, in declaration order.
func (r *Registry) Summaries() []model.StepSummary {
	summaries := make([]model.StepSummary, 0, len(r.steps))
	for _, s := range r.steps {
		summaries = append(summaries, model.StepSummary{
			ID:           s.ID,
			Description:  s.Description,
			InstallBound: s.Install != nil,
			CheckBound:   s.Check != nil,
		})
	}

	return summaries
}
