package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareCreatesLayout(t *testing.T) {
	p := NewPreparer(Config{Root: t.TempDir()})
	ws, err := p.Prepare("run-1", "print('hi')\n")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(p.Root(), "run-1"), ws.Dir)
	for _, d := range ws.MediaDirs() {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	body, err := os.ReadFile(ws.ScriptPath)
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", string(body))
	assert.Equal(t, "test_script.py", filepath.Base(ws.ScriptPath))
	assert.Equal(t, ws.Screenshots(), ws.Env()["RUNSTREAM_SCREENSHOTS_DIR"])
}

func TestPrepareStartsFresh(t *testing.T) {
	p := NewPreparer(Config{Root: t.TempDir()})
	ws, err := p.Prepare("run-1", "a")
	require.NoError(t, err)
	stale := filepath.Join(ws.Screenshots(), "old.png")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	ws, err = p.Prepare("run-1", "b")
	require.NoError(t, err)
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestPrepareIsolatesRuns(t *testing.T) {
	p := NewPreparer(Config{Root: t.TempDir()})
	a, err := p.Prepare("a", "")
	require.NoError(t, err)
	b, err := p.Prepare("b", "")
	require.NoError(t, err)
	assert.NotEqual(t, a.Screenshots(), b.Screenshots())

	require.NoError(t, p.Remove(a))
	_, err = os.Stat(a.Dir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(b.Dir)
	assert.NoError(t, err)
}

func TestPrepareRejectsBadRunID(t *testing.T) {
	p := NewPreparer(Config{Root: t.TempDir()})
	for _, id := range []string{"", ".", "..", "../x", `a\b`} {
		_, err := p.Prepare(id, "")
		assert.ErrorIs(t, err, ErrInvalidRunID, id)
	}
}

func TestRemoveRefusesOutsideRoot(t *testing.T) {
	p := NewPreparer(Config{Root: t.TempDir()})
	err := p.Remove(&Workspace{Dir: t.TempDir()})
	require.Error(t, err)
	err = p.Remove(&Workspace{Dir: p.Root()})
	require.Error(t, err)
}
