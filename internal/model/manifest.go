package model

import "time"

// Manifest is the operator-provided provisioning configuration: which steps to
// run, environment overrides for the actions and engine timeouts.
type Manifest struct {
	// Steps is the subset of registry step ids to run, empty means all.
	Steps []string
	// Env are environment overrides passed to command based actions.
	Env map[string]string
	// StepTimeout is the default per-step install timeout.
	StepTimeout time.Duration
	// CheckTimeout is the default per-step check timeout.
	CheckTimeout time.Duration
}
