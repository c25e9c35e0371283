package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/arcentrix/runstream/internal/engine/model"
	"github.com/arcentrix/runstream/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) database.IDatabase {
	t.Helper()
	m, err := database.NewManager(database.Database{
		Driver: database.DriverSQLite,
		SQLite: database.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	db := database.NewDatabaseAdapter(m)
	require.NoError(t, Migrate(db))
	return db
}

func seed(t *testing.T, scripts IScriptRepository, session, content string, at time.Time) *model.ScriptRecord {
	t.Helper()
	rec := &model.ScriptRecord{SessionID: session, Content: content, CreatedAt: at}
	require.NoError(t, scripts.Create(context.Background(), rec))
	return rec
}

func intPtr(v int) *int { return &v }

func TestLatestPicksNewest(t *testing.T) {
	db := newTestDB(t)
	scripts := NewScriptRepo(db)
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	seed(t, scripts, "S", "old", t1)
	seed(t, scripts, "S", "new", t1.Add(time.Minute))
	seed(t, scripts, "other", "x", t1.Add(time.Hour))

	rec, err := scripts.Latest(context.Background(), "S")
	require.NoError(t, err)
	assert.Equal(t, "new", rec.Content)
}

func TestLatestTieBreaksOnID(t *testing.T) {
	db := newTestDB(t)
	scripts := NewScriptRepo(db)
	at := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	seed(t, scripts, "S", "first", at)
	second := seed(t, scripts, "S", "second", at)

	rec, err := scripts.Latest(context.Background(), "S")
	require.NoError(t, err)
	assert.Equal(t, second.ID, rec.ID)
}

func TestTimeColumnsReadBack(t *testing.T) {
	db := newTestDB(t)
	scripts, results := NewScriptRepo(db), NewResultRepo(db)
	at := time.Date(2025, 3, 4, 5, 6, 7, 123456000, time.UTC)
	seed(t, scripts, "S", "script", at)

	rec, err := scripts.Latest(context.Background(), "S")
	require.NoError(t, err)
	assert.WithinDuration(t, at, rec.CreatedAt, time.Millisecond)

	started := at.Add(time.Second)
	finished := started.Add(time.Second)
	require.NoError(t, results.Upsert(context.Background(), "S", &model.ExecutionResult{
		RunID:      "r1",
		Status:     model.StatusCompleted,
		StartedAt:  &started,
		FinishedAt: &finished,
	}))
	got, err := results.Get(context.Background(), "S")
	require.NoError(t, err)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.FinishedAt)
	assert.WithinDuration(t, started, *got.StartedAt, time.Millisecond)
	assert.WithinDuration(t, finished, *got.FinishedAt, time.Millisecond)
}

func TestLatestNotFound(t *testing.T) {
	scripts := NewScriptRepo(newTestDB(t))
	_, err := scripts.Latest(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrScriptNotFound)
}

func TestUpsertTargetsLatestRecordOnly(t *testing.T) {
	db := newTestDB(t)
	scripts, results := NewScriptRepo(db), NewResultRepo(db)
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	older := seed(t, scripts, "S", "T1", t1)
	newer := seed(t, scripts, "S", "T2", t1.Add(time.Second))

	res := &model.ExecutionResult{SessionID: "S", RunID: "r1", ReturnCode: intPtr(0), Stdout: "ok", Status: model.StatusCompleted}
	require.NoError(t, results.Upsert(context.Background(), "S", res))

	var got model.ScriptRecord
	require.NoError(t, db.Database().First(&got, newer.ID).Error)
	assert.Equal(t, "Completed", got.Status)
	assert.Equal(t, "ok", got.Stdout)

	var olderGot model.ScriptRecord
	require.NoError(t, db.Database().First(&olderGot, older.ID).Error)
	assert.Empty(t, olderGot.Status)
	assert.Nil(t, olderGot.ReturnCode)
}

func TestUpsertOverwritesEveryColumn(t *testing.T) {
	db := newTestDB(t)
	scripts, results := NewScriptRepo(db), NewResultRepo(db)
	seed(t, scripts, "S", "script", time.Now())
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, results.Upsert(ctx, "S", &model.ExecutionResult{
		RunID:       "r1",
		ReturnCode:  intPtr(0),
		Stdout:      "out",
		Stderr:      "err",
		ArtifactKey: "artifacts/S/a.zip",
		SignedURL:   "https://example/a",
		Status:      model.StatusCompleted,
		StartedAt:   &now,
		FinishedAt:  &now,
	}))
	require.NoError(t, results.Upsert(ctx, "S", &model.ExecutionResult{
		RunID:        "r2",
		Status:       model.StatusError,
		ErrorMessage: "spawn failed",
	}))

	got, err := results.Get(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, got.Status)
	assert.Equal(t, "r2", got.RunID)
	assert.Equal(t, "spawn failed", got.ErrorMessage)
	assert.Nil(t, got.ReturnCode)
	assert.Empty(t, got.Stdout)
	assert.Empty(t, got.Stderr)
	assert.Empty(t, got.ArtifactKey)
	assert.Empty(t, got.SignedURL)
	assert.Nil(t, got.StartedAt)
}

func TestUpsertWithoutRecordIsNoop(t *testing.T) {
	results := NewResultRepo(newTestDB(t))
	err := results.Upsert(context.Background(), "ghost", &model.ExecutionResult{Status: model.StatusCompleted})
	require.NoError(t, err)

	_, err = results.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrScriptNotFound)
}

func TestGetBeforeAnyRun(t *testing.T) {
	db := newTestDB(t)
	seed(t, NewScriptRepo(db), "S", "script", time.Now())
	got, err := NewResultRepo(db).Get(context.Background(), "S")
	require.NoError(t, err)
	assert.Empty(t, got.Status)
	assert.Equal(t, "S", got.SessionID)
}
