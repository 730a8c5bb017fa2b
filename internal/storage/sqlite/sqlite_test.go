package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/devrig/internal/log"
	"github.com/slok/devrig/internal/model"
	"github.com/slok/devrig/internal/storage"
	"github.com/slok/devrig/internal/storage/sqlite"
)

func runFixture(id string, createdAt time.Time) model.Run {
	return model.Run{
		ID:        id,
		Mode:      model.RunModeApply,
		CreatedAt: createdAt,
		Report: &model.RunReport{
			StartedAt:  createdAt,
			FinishedAt: createdAt.Add(time.Minute),
			Outcomes: []model.RunOutcome{
				{StepID: "git", Description: "Git version control", Status: model.OutcomeStatusInstalled, Duration: 2 * time.Second},
				{StepID: "node", Description: "Node.js LTS runtime", Status: model.OutcomeStatusFailed, Reason: model.FailureReasonInstallFailed, Diagnostic: "download failed"},
			},
		},
		Verification: &model.VerificationReport{
			StartedAt:  createdAt.Add(time.Minute),
			FinishedAt: createdAt.Add(time.Minute + time.Second),
			Results: []model.CheckResult{
				{StepID: "git", Description: "Git version control", Satisfied: true, Diagnostic: "/usr/bin/git"},
				{StepID: "node", Description: "Node.js LTS runtime", Satisfied: false, Diagnostic: "node not found on PATH"},
			},
		},
	}
}

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: log.Noop,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepositoryCreateAndGetRun(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	createdAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	run := runFixture("run-1", createdAt)

	require.NoError(t, repo.CreateRun(ctx, run))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Mode, got.Mode)
	assert.Equal(t, run.CreatedAt, got.CreatedAt)
	require.NotNil(t, got.Report)
	assert.Equal(t, run.Report.Outcomes, got.Report.Outcomes)
	require.NotNil(t, got.Verification)
	assert.Equal(t, run.Verification.Results, got.Verification.Results)
}

func TestRepositoryCreateRunWithoutReports(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	run := model.Run{
		ID:        "run-verify",
		Mode:      model.RunModeVerify,
		CreatedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.CreateRun(ctx, run))

	got, err := repo.GetRun(ctx, "run-verify")
	require.NoError(t, err)
	assert.Nil(t, got.Report)
	assert.Nil(t, got.Verification)
}

func TestRepositoryCreateRunMissingID(t *testing.T) {
	repo := newRepo(t)

	err := repo.CreateRun(context.Background(), model.Run{})
	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestRepositoryGetRunMissing(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRepositoryListRuns(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateRun(ctx, runFixture("run-1", base)))
	require.NoError(t, repo.CreateRun(ctx, runFixture("run-2", base.Add(time.Hour))))
	require.NoError(t, repo.CreateRun(ctx, runFixture("run-3", base.Add(2*time.Hour))))

	t.Run("Runs should be listed newest first with their step details.", func(t *testing.T) {
		runs, err := repo.ListRuns(ctx, storage.ListRunsOpts{})
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, "run-3", runs[0].ID)
		assert.Equal(t, "run-1", runs[2].ID)
		require.NotNil(t, runs[0].Report)
		assert.Len(t, runs[0].Report.Outcomes, 2)
	})

	t.Run("Limit should cap the listed runs.", func(t *testing.T) {
		runs, err := repo.ListRuns(ctx, storage.ListRunsOpts{Limit: 1})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "run-3", runs[0].ID)
	})
}
