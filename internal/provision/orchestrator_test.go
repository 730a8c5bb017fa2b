package provision_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/devrig/internal/action"
	"github.com/slok/devrig/internal/model"
	"github.com/slok/devrig/internal/provision"
	"github.com/slok/devrig/internal/registry"
)

func okInstaller() action.Installer {
	return action.InstallerFunc(func(_ context.Context) error { return nil })
}

func satisfiedInstaller() action.Installer {
	return action.InstallerFunc(func(_ context.Context) error {
		return fmt.Errorf("tool present: %w", model.ErrAlreadySatisfied)
	})
}

func failingInstaller(msg string) action.Installer {
	return action.InstallerFunc(func(_ context.Context) error { return fmt.Errorf("%s", msg) })
}

func slowInstaller(d time.Duration) action.Installer {
	return action.InstallerFunc(func(ctx context.Context) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

func newRegistry(t *testing.T, steps ...registry.Step) *registry.Registry {
	t.Helper()
	reg, err := registry.New(steps...)
	require.NoError(t, err)
	return reg
}

func TestOrchestratorRun(t *testing.T) {
	tests := map[string]struct {
		steps       []registry.Step
		expStatuses []model.OutcomeStatus
		expReasons  []model.FailureReason
	}{
		"An empty registry should produce an empty report.": {
			steps:       []registry.Step{},
			expStatuses: []model.OutcomeStatus{},
			expReasons:  []model.FailureReason{},
		},

		"Every step should get exactly one outcome, in registry order.": {
			steps: []registry.Step{
				{ID: "a", Install: okInstaller()},
				{ID: "b", Install: satisfiedInstaller()},
				{ID: "c", Install: okInstaller()},
			},
			expStatuses: []model.OutcomeStatus{model.OutcomeStatusInstalled, model.OutcomeStatusSkipped, model.OutcomeStatusInstalled},
			expReasons:  []model.FailureReason{model.FailureReasonNone, model.FailureReasonNone, model.FailureReasonNone},
		},

		"A failing step should not abort the run, later steps still execute.": {
			steps: []registry.Step{
				{ID: "a", Install: okInstaller()},
				{ID: "b", Install: failingInstaller("something broke")},
				{ID: "c", Install: okInstaller()},
			},
			expStatuses: []model.OutcomeStatus{model.OutcomeStatusInstalled, model.OutcomeStatusFailed, model.OutcomeStatusInstalled},
			expReasons:  []model.FailureReason{model.FailureReasonNone, model.FailureReasonInstallFailed, model.FailureReasonNone},
		},

		"A step without install action should fail with a distinct diagnostic and not abort the run.": {
			steps: []registry.Step{
				{ID: "a"},
				{ID: "b", Install: okInstaller()},
			},
			expStatuses: []model.OutcomeStatus{model.OutcomeStatusFailed, model.OutcomeStatusInstalled},
			expReasons:  []model.FailureReason{model.FailureReasonActionNotFound, model.FailureReasonNone},
		},

		"A step exceeding its timeout should fail with a timeout diagnostic and not abort the run.": {
			steps: []registry.Step{
				{ID: "a", Install: slowInstaller(500 * time.Millisecond), Timeout: 20 * time.Millisecond},
				{ID: "b", Install: okInstaller()},
			},
			expStatuses: []model.OutcomeStatus{model.OutcomeStatusFailed, model.OutcomeStatusInstalled},
			expReasons:  []model.FailureReason{model.FailureReasonTimeout, model.FailureReasonNone},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			orch, err := provision.NewOrchestrator(provision.OrchestratorConfig{})
			require.NoError(t, err)

			report, err := orch.Run(context.Background(), newRegistry(t, test.steps...))
			require.NoError(t, err)

			statuses := []model.OutcomeStatus{}
			reasons := []model.FailureReason{}
			for _, o := range report.Outcomes {
				statuses = append(statuses, o.Status)
				reasons = append(reasons, o.Reason)
			}
			assert.Equal(t, test.expStatuses, statuses)
			assert.Equal(t, test.expReasons, reasons)

			// Outcomes must stay in registry order.
			for i, o := range report.Outcomes {
				assert.Equal(t, test.steps[i].ID, o.StepID)
			}
		})
	}
}

func TestOrchestratorRunIdempotence(t *testing.T) {
	// Install that behaves like a real idempotent action: first call mutates,
	// second call detects the state and short-circuits.
	installed := false
	install := action.InstallerFunc(func(_ context.Context) error {
		if installed {
			return model.ErrAlreadySatisfied
		}
		installed = true
		return nil
	})

	orch, err := provision.NewOrchestrator(provision.OrchestratorConfig{})
	require.NoError(t, err)
	reg := newRegistry(t, registry.Step{ID: "tool", Install: install})

	first, err := orch.Run(context.Background(), reg)
	require.NoError(t, err)
	require.Len(t, first.Outcomes, 1)
	assert.Equal(t, model.OutcomeStatusInstalled, first.Outcomes[0].Status)

	second, err := orch.Run(context.Background(), reg)
	require.NoError(t, err)
	require.Len(t, second.Outcomes, 1)
	assert.Equal(t, model.OutcomeStatusSkipped, second.Outcomes[0].Status)
}

func TestOrchestratorRunCancellation(t *testing.T) {
	// Cancel while the second step is in flight: the step finishes its own
	// handling, the third step never runs and is recorded as cancelled.
	ctx, cancel := context.WithCancel(context.Background())

	executed := []string{}
	reg := newRegistry(t,
		registry.Step{ID: "a", Install: action.InstallerFunc(func(_ context.Context) error {
			executed = append(executed, "a")
			return nil
		})},
		registry.Step{ID: "b", Install: action.InstallerFunc(func(_ context.Context) error {
			executed = append(executed, "b")
			cancel()
			return nil
		})},
		registry.Step{ID: "c", Install: action.InstallerFunc(func(_ context.Context) error {
			executed = append(executed, "c")
			return nil
		})},
	)

	orch, err := provision.NewOrchestrator(provision.OrchestratorConfig{})
	require.NoError(t, err)

	report, err := orch.Run(ctx, reg)
	assert.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, executed)

	// Every step still gets an outcome.
	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, model.OutcomeStatusInstalled, report.Outcomes[0].Status)
	assert.Equal(t, model.OutcomeStatusInstalled, report.Outcomes[1].Status)
	assert.Equal(t, model.OutcomeStatusFailed, report.Outcomes[2].Status)
	assert.Equal(t, model.FailureReasonCancelled, report.Outcomes[2].Reason)
}

func TestOrchestratorRunCounts(t *testing.T) {
	reg := newRegistry(t,
		registry.Step{ID: "a", Install: okInstaller()},
		registry.Step{ID: "b", Install: failingInstaller("boom")},
		registry.Step{ID: "c", Install: satisfiedInstaller()},
		registry.Step{ID: "d", Install: okInstaller()},
	)

	orch, err := provision.NewOrchestrator(provision.OrchestratorConfig{})
	require.NoError(t, err)

	report, err := orch.Run(context.Background(), reg)
	require.NoError(t, err)

	installed, skipped, failed := report.CountByStatus()
	assert.Equal(t, 2, installed)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 1, failed)
	assert.Equal(t, reg.Len(), installed+skipped+failed)
}
