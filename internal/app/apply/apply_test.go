package apply_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/devrig/internal/action"
	"github.com/slok/devrig/internal/app/apply"
	"github.com/slok/devrig/internal/model"
	"github.com/slok/devrig/internal/provision"
	"github.com/slok/devrig/internal/registry"
	"github.com/slok/devrig/internal/storage"
	"github.com/slok/devrig/internal/storage/memory"
	"github.com/slok/devrig/internal/verify"
)

func newService(t *testing.T, repo storage.Repository) *apply.Service {
	t.Helper()

	orch, err := provision.NewOrchestrator(provision.OrchestratorConfig{})
	require.NoError(t, err)
	verifier, err := verify.NewVerifier(verify.VerifierConfig{})
	require.NoError(t, err)

	svc, err := apply.NewService(apply.ServiceConfig{
		Orchestrator: orch,
		Verifier:     verifier,
		Repository:   repo,
	})
	require.NoError(t, err)

	return svc
}

func TestServiceApply(t *testing.T) {
	// A three step registry where the middle install always fails but the
	// host state was already correct from a previous partial run: install
	// outcomes and verified state disagree and both must be surfaced.
	reg, err := registry.New(
		registry.Step{
			ID:      "a",
			Install: action.InstallerFunc(func(_ context.Context) error { return nil }),
			Check:   action.CheckerFunc(func(_ context.Context) (bool, string, error) { return true, "", nil }),
		},
		registry.Step{
			ID:      "b",
			Install: action.InstallerFunc(func(_ context.Context) error { return fmt.Errorf("something broke") }),
			Check:   action.CheckerFunc(func(_ context.Context) (bool, string, error) { return true, "already there", nil }),
		},
		registry.Step{
			ID:      "c",
			Install: action.InstallerFunc(func(_ context.Context) error { return nil }),
			Check:   action.CheckerFunc(func(_ context.Context) (bool, string, error) { return false, "still missing", nil }),
		},
	)
	require.NoError(t, err)

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	svc := newService(t, repo)

	run, err := svc.Apply(context.Background(), apply.ApplyOptions{Registry: reg})
	require.NoError(t, err)

	// Install outcomes keep registry order, failure did not abort the run.
	require.NotNil(t, run.Report)
	require.Len(t, run.Report.Outcomes, 3)
	assert.Equal(t, model.OutcomeStatusInstalled, run.Report.Outcomes[0].Status)
	assert.Equal(t, model.OutcomeStatusFailed, run.Report.Outcomes[1].Status)
	assert.Equal(t, model.OutcomeStatusInstalled, run.Report.Outcomes[2].Status)

	// Verification is independent ground truth: "b" is satisfied even though
	// its install failed, "c" is unsatisfied even though its install succeeded.
	require.NotNil(t, run.Verification)
	require.Len(t, run.Verification.Results, 3)
	assert.True(t, run.Verification.Results[1].Satisfied)
	assert.False(t, run.Verification.Results[2].Satisfied)

	// The run is persisted for the history.
	stored, err := repo.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunModeApply, stored.Mode)
	assert.Len(t, stored.Report.Outcomes, 3)
}

func TestServiceApplyMissingRegistry(t *testing.T) {
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	svc := newService(t, repo)

	_, err = svc.Apply(context.Background(), apply.ApplyOptions{})
	assert.ErrorIs(t, err, model.ErrNotValid)
}

type failingRepository struct{}

func (failingRepository) CreateRun(_ context.Context, _ model.Run) error {
	return fmt.Errorf("disk full")
}
func (failingRepository) GetRun(_ context.Context, _ string) (*model.Run, error) {
	return nil, model.ErrNotFound
}
func (failingRepository) ListRuns(_ context.Context, _ storage.ListRunsOpts) ([]model.Run, error) {
	return nil, nil
}

func TestServiceApplyPersistenceFailureDoesNotMaskResult(t *testing.T) {
	reg, err := registry.New(registry.Step{
		ID:      "a",
		Install: action.InstallerFunc(func(_ context.Context) error { return nil }),
		Check:   action.CheckerFunc(func(_ context.Context) (bool, string, error) { return true, "", nil }),
	})
	require.NoError(t, err)

	svc := newService(t, failingRepository{})

	run, err := svc.Apply(context.Background(), apply.ApplyOptions{Registry: reg})
	require.NoError(t, err)
	assert.True(t, run.Verification.AllSatisfied())
}
