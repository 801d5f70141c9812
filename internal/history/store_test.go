package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodedAgent/codeagent/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history", "attempts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func attempt(runID, stepID string, n int, success bool) models.AttemptRecord {
	step := models.ExecutionStep{ID: stepID, Action: models.ActionTestRun}
	errMsg := ""
	if !success {
		errMsg = "assertion failed"
	}
	return models.NewAttemptRecord(runID, step, n, models.NewStepResult(stepID, success, "out", 120*time.Millisecond, errMsg))
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		dbPath  string
		wantErr bool
	}{
		{name: "creates database", dbPath: filepath.Join(t.TempDir(), "attempts.db")},
		{name: "in-memory database", dbPath: ":memory:"},
		{name: "creates parent directories", dbPath: filepath.Join(t.TempDir(), "a", "b", "attempts.db")},
		{name: "invalid path", dbPath: "/proc/nonexistent/attempts.db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.dbPath)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()

			version, err := store.GetLatestVersion(context.Background())
			require.NoError(t, err)
			assert.Equal(t, len(migrations), version)
			assert.Equal(t, tt.dbPath, store.Path())
		})
	}
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ApplyMigrations(ctx))

	versions, err := store.GetAppliedVersions(ctx)
	require.NoError(t, err)
	require.Len(t, versions, len(migrations))
	for i, v := range versions {
		assert.Equal(t, i+1, v.Version)
		assert.False(t, v.AppliedAt.IsZero())
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempts.db")
	ctx := context.Background()

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.RecordAttempt(ctx, attempt("run-1", "test_2", 0, true)))
	require.NoError(t, store.Close())

	store, err = NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.GetRunAttempts(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRecordAttempt_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	file := "parser_test.go"
	line := 42
	failed := attempt("run-1", "test_2", 0, false)
	failed.Suggestions = []models.FixSuggestion{{
		ErrorPattern: "assertion_error",
		SuggestedFix: "Check the assertion logic",
		Confidence:   0.7,
		File:         &file,
		Line:         &line,
	}}
	failed.Strategy = &models.RetryStrategy{RetryRecommended: true, EscalateToUser: true, SuggestedDelayMs: 100}

	require.NoError(t, store.RecordAttempt(ctx, failed))
	require.NoError(t, store.RecordAttempt(ctx, attempt("run-1", "test_2", 1, true)))

	records, err := store.GetRunAttempts(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.NotZero(t, first.ID)
	assert.Equal(t, "test_2", first.StepID)
	assert.Equal(t, models.ActionTestRun, first.Action)
	assert.Equal(t, 0, first.Attempt)
	assert.False(t, first.Success)
	assert.Equal(t, "out", first.Output)
	assert.Equal(t, "assertion failed", first.ErrorMessage)
	assert.Equal(t, uint64(120), first.DurationMs)
	require.Len(t, first.Suggestions, 1)
	assert.Equal(t, "parser_test.go:42", first.Suggestions[0].Location())
	assert.Equal(t, failed.Strategy, first.Strategy)
	assert.WithinDuration(t, failed.RecordedAt, first.RecordedAt, time.Second)

	second := records[1]
	assert.Equal(t, 1, second.Attempt)
	assert.True(t, second.Success)
	assert.Nil(t, second.Strategy)
	assert.Empty(t, second.Suggestions)
}

func TestGetStepAttempts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordAttempt(ctx, attempt("run-1", "test_2", 0, false)))
	require.NoError(t, store.RecordAttempt(ctx, attempt("run-1", "lint_3", 0, true)))
	require.NoError(t, store.RecordAttempt(ctx, attempt("run-2", "test_2", 0, true)))

	all, err := store.GetStepAttempts(ctx, "test_2", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "run-2", all[0].RunID, "newest first")

	limited, err := store.GetStepAttempts(ctx, "test_2", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := store.GetStepAttempts(ctx, "commit_9", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StartRun(ctx, "run-1", "refactor and test", "/work"))
	require.NoError(t, store.RecordAttempt(ctx, attempt("run-1", "test_2", 0, false)))
	require.NoError(t, store.RecordAttempt(ctx, attempt("run-1", "test_2", 1, true)))
	require.NoError(t, store.FinishRun(ctx, models.RunSummary{RunID: "run-1"}))

	// attempts without a header still show up
	require.NoError(t, store.RecordAttempt(ctx, attempt("run-2", "analyze_0", 0, true)))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	byID := map[string]RunInfo{}
	for _, r := range runs {
		byID[r.RunID] = r
	}

	finished := byID["run-1"]
	assert.Equal(t, "refactor and test", finished.Prompt)
	assert.Equal(t, "/work", finished.Workspace)
	assert.Equal(t, "SUCCESS", finished.Status)
	assert.NotNil(t, finished.FinishedAt)
	assert.Equal(t, 2, finished.Attempts)
	assert.Equal(t, 1, finished.FailedAttempts)

	running := byID["run-2"]
	assert.Equal(t, StatusRunning, running.Status)
	assert.Nil(t, running.FinishedAt)
	assert.Equal(t, 1, running.Attempts)

	limited, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestFinishRun_Unknown(t *testing.T) {
	store := newTestStore(t)
	err := store.FinishRun(context.Background(), models.RunSummary{RunID: "missing"})
	assert.Error(t, err)
}

func TestCleanupOld(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := attempt("run-old", "test_2", 0, true)
	old.RecordedAt = time.Now().AddDate(0, 0, -40)
	require.NoError(t, store.RecordAttempt(ctx, old))
	require.NoError(t, store.RecordAttempt(ctx, attempt("run-new", "test_2", 0, true)))

	deleted, err := store.CleanupOld(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted, "keepDays 0 keeps everything")

	deleted, err = store.CleanupOld(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-new", runs[0].RunID)
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
