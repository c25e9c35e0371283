package service

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arcentrix/runstream/internal/engine/model"
	"github.com/arcentrix/runstream/internal/engine/repo"
	"github.com/arcentrix/runstream/internal/pkg/artifact"
	"github.com/arcentrix/runstream/internal/pkg/storage"
	"github.com/arcentrix/runstream/internal/pkg/worker"
	"github.com/arcentrix/runstream/internal/pkg/workspace"
	"github.com/arcentrix/runstream/pkg/database"
	"github.com/arcentrix/runstream/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type fakeStore struct {
	mu        sync.Mutex
	uploadErr error
	keys      []string
}

func (f *fakeStore) Upload(_ context.Context, key, filePath, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return 0, f.uploadErr
	}
	st, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	f.keys = append(f.keys, key)
	return st.Size(), nil
}

func (f *fakeStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.test/" + key + "?sig=1", nil
}

func (f *fakeStore) Provider() string { return "fake" }

type recordingSink struct {
	mu     sync.Mutex
	events []RunEvent
	failAt int
}

func (r *recordingSink) Publish(_ context.Context, e RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAt > 0 && len(r.events) >= r.failAt {
		return errors.New("client gone")
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	svc      *RunService
	scripts  repo.IScriptRepository
	results  repo.IResultRepository
	store    *fakeStore
	preparer *workspace.Preparer
	pool     *worker.Pool
}

func newHarness(t *testing.T, cfg RunnerConfig) *harness {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	m, err := database.NewManager(database.Database{
		Driver: database.DriverSQLite,
		SQLite: database.SQLiteConfig{Path: filepath.Join(t.TempDir(), "runs.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	db := database.NewDatabaseAdapter(m)
	require.NoError(t, repo.Migrate(db))

	if len(cfg.Command) == 0 {
		cfg.Command = []string{"sh"}
	}
	cfg.NoVirtualDisplay = true

	h := &harness{
		scripts:  repo.NewScriptRepo(db),
		results:  repo.NewResultRepo(db),
		store:    &fakeStore{},
		preparer: workspace.NewPreparer(workspace.Config{Root: t.TempDir()}),
		pool:     worker.NewPool(worker.Config{Workers: 1, QueueSize: 2}, nil),
	}
	h.pool.Start()
	t.Cleanup(h.pool.Stop)
	h.svc = NewRunService(cfg, RunServiceDeps{
		Scripts:   h.scripts,
		Results:   h.results,
		Preparer:  h.preparer,
		Publisher: artifact.NewPublisher(h.store, h.preparer, storage.Storage{}),
		Pool:      h.pool,
	})
	return h
}

func (h *harness) seed(t *testing.T, session, script string) {
	t.Helper()
	require.NoError(t, h.scripts.Create(context.Background(), &model.ScriptRecord{
		SessionID: session,
		Content:   script,
		CreatedAt: time.Now(),
	}))
}

func (h *harness) scratch(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(h.preparer.Root())
	require.NoError(t, err)
	return entries
}

func TestRunSyncLongLineKeepsText(t *testing.T) {
	h := newHarness(t, RunnerConfig{Threshold: 16})
	h.seed(t, "s1", "printf 'AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA'\nprintf '\\nend\\n'\n")

	res, err := h.svc.RunSync(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("A", 40)+"\nend", res.Stdout)

	stored, err := h.svc.GetResult(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, res.Stdout, stored.Stdout)
}

func TestRunSyncHelloWorld(t *testing.T) {
	h := newHarness(t, RunnerConfig{})
	h.seed(t, "s1", "echo hello\necho world\n")

	res, err := h.svc.RunSync(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ReturnCode)
	assert.Equal(t, "hello\nworld", res.Stdout)
	assert.Equal(t, "", res.Stderr)
	assert.Contains(t, res.SignedURL, "artifacts/s1/")
	assert.Len(t, h.store.keys, 1)
	assert.Empty(t, h.scratch(t))

	stored, err := h.svc.GetResult(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	require.NotNil(t, stored.ReturnCode)
	assert.Equal(t, 0, *stored.ReturnCode)
	assert.Equal(t, "hello\nworld", stored.Stdout)
	assert.Equal(t, res.SignedURL, stored.SignedURL)
}

func TestRunSyncNonZeroExitIsCompleted(t *testing.T) {
	h := newHarness(t, RunnerConfig{})
	h.seed(t, "s1", "echo bad 1>&2\nexit 4\n")

	res, err := h.svc.RunSync(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, res.ReturnCode)
	assert.Equal(t, "bad", res.Stderr)

	stored, err := h.svc.GetResult(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	assert.Equal(t, 4, *stored.ReturnCode)
}

func TestRunSyncMediaIsBundled(t *testing.T) {
	h := newHarness(t, RunnerConfig{})
	h.seed(t, "s1", "echo png > \"$RUNSTREAM_SCREENSHOTS_DIR/a.png\"\n")

	res, err := h.svc.RunSync(context.Background(), "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.ArtifactKey)
	assert.Equal(t, []string{res.ArtifactKey}, h.store.keys)
}

func TestRunSyncMissingSession(t *testing.T) {
	h := newHarness(t, RunnerConfig{})

	_, err := h.svc.RunSync(context.Background(), "nope")
	require.ErrorIs(t, err, ErrScriptNotFound)
	assert.Equal(t, StageAcquiring, StageOf(err))
	assert.Empty(t, h.store.keys)
	assert.Empty(t, h.scratch(t))
}

func TestRunSyncEmptySession(t *testing.T) {
	h := newHarness(t, RunnerConfig{})
	_, err := h.svc.RunSync(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptySession)
}

func TestRunSyncUploadFailureWritesNothing(t *testing.T) {
	h := newHarness(t, RunnerConfig{})
	h.store.uploadErr = errors.New("bucket unreachable")
	h.seed(t, "s1", "echo hello\n")

	_, err := h.svc.RunSync(context.Background(), "s1")
	require.ErrorIs(t, err, ErrUploadFailure)
	assert.Equal(t, StagePublishing, StageOf(err))

	stored, err := h.svc.GetResult(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, stored.Status)
	assert.NotEmpty(t, h.scratch(t), "scratch stays on disk after a failed upload")
}

func TestRunSyncSpawnFailureRecordsError(t *testing.T) {
	h := newHarness(t, RunnerConfig{Command: []string{"/nonexistent/interpreter"}})
	h.seed(t, "s1", "echo hello\n")

	sink := &recordingSink{}
	_, err := h.svc.RunStream(context.Background(), "s1", sink)
	require.ErrorIs(t, err, ErrSpawnFailure)
	assert.Equal(t, []EventType{EventError}, sink.types())
	assert.Equal(t, StageRunning, sink.events[0].Stage)

	stored, err := h.svc.GetResult(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "failed to spawn process")
	assert.Nil(t, stored.ReturnCode)
}

func TestRunStreamEventOrder(t *testing.T) {
	h := newHarness(t, RunnerConfig{})
	h.seed(t, "s1", "echo hello\necho world\nexit 2\n")

	sink := &recordingSink{}
	res, err := h.svc.RunStream(context.Background(), "s1", sink)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ReturnCode)

	assert.Equal(t, []EventType{EventStdout, EventStdout, EventExit, EventComplete}, sink.types())
	assert.Equal(t, "hello", sink.events[0].Data)
	assert.Equal(t, "world", sink.events[1].Data)
	assert.Equal(t, 2, sink.events[2].ReturnCode)
	last := sink.events[3]
	assert.Equal(t, res.SignedURL, last.SignedURL)
	assert.Equal(t, res.ArtifactKey, last.Key)
	assert.Equal(t, model.StatusCompleted, last.Status)
}

func TestRunStreamSurvivesDisconnect(t *testing.T) {
	h := newHarness(t, RunnerConfig{})
	h.seed(t, "s1", "echo one\necho two\necho three\n")

	ctx, cancel := context.WithCancel(context.Background())
	sink := &recordingSink{failAt: 1}
	cancel()
	res, err := h.svc.RunStream(ctx, "s1", sink)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree", res.Stdout)
	assert.Equal(t, []EventType{EventStdout}, sink.types())

	stored, err := h.svc.GetResult(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
}

func TestRunStreamSessionBusy(t *testing.T) {
	h := newHarness(t, RunnerConfig{})
	h.seed(t, "s1", "echo hi\n")

	release, err := h.svc.locker.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	defer release()

	sink := &recordingSink{}
	_, err = h.svc.RunStream(context.Background(), "s1", sink)
	require.ErrorIs(t, err, ErrSessionBusy)
	assert.Equal(t, []EventType{EventError}, sink.types())
}

func TestSubmitRecordsResult(t *testing.T) {
	h := newHarness(t, RunnerConfig{})
	h.seed(t, "s1", "echo bg\n")

	runID, err := h.svc.Submit(context.Background(), "s1")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.Eventually(t, func() bool {
		st, ok := h.svc.GetRun(runID)
		return ok && st.State == worker.StateCompleted
	}, 10*time.Second, 20*time.Millisecond)

	stored, err := h.svc.GetResult(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	assert.Equal(t, runID, stored.RunID)
	assert.Equal(t, "bg", stored.Stdout)
	assert.False(t, h.svc.IsActive(runID))

	// the session lock was released with the job
	release, err := h.svc.locker.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	release()
}

func TestSubmitMissingSession(t *testing.T) {
	h := newHarness(t, RunnerConfig{})
	_, err := h.svc.Submit(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrScriptNotFound)
}

func TestSubmitPoolStopped(t *testing.T) {
	h := newHarness(t, RunnerConfig{})
	h.seed(t, "s1", "echo bg\n")
	h.pool.Stop()

	_, err := h.svc.Submit(context.Background(), "s1")
	require.ErrorIs(t, err, ErrPoolStopped)

	release, err := h.svc.locker.Acquire(context.Background(), "s1")
	require.NoError(t, err, "a rejected submit must not keep the lock")
	release()
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunLogsCarryTraceID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var out lockedBuffer
	t.Cleanup(log.ReplaceGlobal(log.NewWriter(&out, "DEBUG")))

	h := newHarness(t, RunnerConfig{})
	h.seed(t, "s1", "echo hi\n")
	_, err := h.svc.RunSync(context.Background(), "s1")
	require.NoError(t, err)

	var exited string
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.Contains(line, "process exited") {
			exited = line
		}
	}
	require.NotEmpty(t, exited)
	assert.Contains(t, exited, "trace_id")
	assert.Contains(t, exited, "span_id")
}
