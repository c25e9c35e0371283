package artifact

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/arcentrix/runstream/internal/pkg/storage"
	"github.com/arcentrix/runstream/internal/pkg/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspace(t *testing.T) (*workspace.Preparer, *workspace.Workspace) {
	t.Helper()
	p := workspace.NewPreparer(workspace.Config{Root: t.TempDir()})
	ws, err := p.Prepare("run-1", "print('x')")
	require.NoError(t, err)
	return p, ws
}

func zipNames(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	out := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		out[f.Name] = string(body)
	}
	return out
}

func TestCollectMedia(t *testing.T) {
	_, ws := newWorkspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(ws.Screenshots(), "a.png"), []byte("png"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(ws.Videos(), "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws.Videos(), "nested", "b.webm"), []byte("webm"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws.Traces(), "t.zip"), []byte("trace"), 0o644))

	path, n, err := NewCollector().Collect(context.Background(), ws)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, BundlePath(ws), path)

	names := zipNames(t, path)
	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"screenshots/a.png", "traces/t.zip", "videos/nested/b.webm"}, keys)
	assert.Equal(t, "webm", names["videos/nested/b.webm"])
}

func TestCollectEmptyWritesPlaceholder(t *testing.T) {
	_, ws := newWorkspace(t)
	path, n, err := NewCollector().Collect(context.Background(), ws)
	require.NoError(t, err)
	assert.Zero(t, n)

	names := zipNames(t, path)
	require.Len(t, names, 1)
	assert.Contains(t, names, PlaceholderName)
}

func TestCollectMissingMediaDir(t *testing.T) {
	_, ws := newWorkspace(t)
	require.NoError(t, os.RemoveAll(ws.Videos()))
	path, n, err := NewCollector().Collect(context.Background(), ws)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.FileExists(t, path)
}

func TestCollectFailure(t *testing.T) {
	_, ws := newWorkspace(t)
	require.NoError(t, os.RemoveAll(filepath.Dir(ws.Dir)))
	_, _, err := NewCollector().Collect(context.Background(), ws)
	assert.ErrorIs(t, err, ErrCollectFailure)
}

type fakeStore struct {
	uploadErr  error
	presignErr error
	keys       []string
}

func (f *fakeStore) Upload(_ context.Context, key, filePath, _ string) (int64, error) {
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

func (f *fakeStore) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://objects.test/" + key + "?X-Amz-Expires=" + expiry.String(), nil
}

func (f *fakeStore) Provider() string { return "fake" }

var keyPattern = regexp.MustCompile(`^artifacts/s1/[0-9a-f-]{36}\.zip$`)

func TestPublishSuccessCleansUp(t *testing.T) {
	p, ws := newWorkspace(t)
	bundle, _, err := NewCollector().Collect(context.Background(), ws)
	require.NoError(t, err)

	store := &fakeStore{}
	pub := NewPublisher(store, p, storage.Storage{})
	out, err := pub.Publish(context.Background(), "s1", bundle, ws)
	require.NoError(t, err)

	assert.Regexp(t, keyPattern, out.Key)
	assert.Equal(t, "https://objects.test/"+out.Key+"?X-Amz-Expires=1h0m0s", out.SignedURL)
	assert.Positive(t, out.Size)
	assert.NoFileExists(t, bundle)
	assert.NoDirExists(t, ws.Dir)
}

func TestPublishUploadFailureKeepsScratch(t *testing.T) {
	p, ws := newWorkspace(t)
	bundle, _, err := NewCollector().Collect(context.Background(), ws)
	require.NoError(t, err)

	pub := NewPublisher(&fakeStore{uploadErr: errors.New("connection refused")}, p, storage.Storage{})
	_, err = pub.Publish(context.Background(), "s1", bundle, ws)
	assert.ErrorIs(t, err, ErrUploadFailure)
	assert.FileExists(t, bundle)
	assert.DirExists(t, ws.Dir)

	pub = NewPublisher(&fakeStore{presignErr: errors.New("bad creds")}, p, storage.Storage{})
	_, err = pub.Publish(context.Background(), "s1", bundle, ws)
	assert.ErrorIs(t, err, ErrUploadFailure)
	assert.DirExists(t, ws.Dir)
}

func TestObjectKeyUnique(t *testing.T) {
	a, b := ObjectKey("s1"), ObjectKey("s1")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, keyPattern, a)
}

func TestJanitorSweep(t *testing.T) {
	p := workspace.NewPreparer(workspace.Config{Root: t.TempDir(), Retention: time.Hour})
	old, err := p.Prepare("old", "")
	require.NoError(t, err)
	busy, err := p.Prepare("busy", "")
	require.NoError(t, err)
	fresh, err := p.Prepare("fresh", "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(old.Dir+".zip", []byte("z"), 0o644))

	past := time.Now().Add(-2 * time.Hour)
	for _, path := range []string{old.Dir, old.Dir + ".zip", busy.Dir} {
		require.NoError(t, os.Chtimes(path, past, past))
	}

	j := NewJanitor(p, func(id string) bool { return id == "busy" }, nil)
	removed, err := j.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoDirExists(t, old.Dir)
	assert.NoFileExists(t, old.Dir+".zip")
	assert.DirExists(t, busy.Dir)
	assert.DirExists(t, fresh.Dir)
}

func TestJanitorMissingRoot(t *testing.T) {
	p := workspace.NewPreparer(workspace.Config{Root: filepath.Join(t.TempDir(), "absent")})
	removed, err := NewJanitor(p, nil, nil).Sweep()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestJanitorStartRejectsBadSchedule(t *testing.T) {
	p := workspace.NewPreparer(workspace.Config{Root: t.TempDir(), JanitorSchedule: "not a schedule"})
	j := NewJanitor(p, nil, nil)
	require.Error(t, j.Start())
	j.Stop()
}
