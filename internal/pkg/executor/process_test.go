package executor

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func runToEnd(t *testing.T, p *Process) (map[Stream][]string, int) {
	t.Helper()
	m := Multiplex(context.Background(), p.Stdout, p.Stderr, MultiplexOptions{})
	got := collect(m)
	require.NoError(t, m.Wait())
	code, err := p.Wait()
	require.NoError(t, err)
	return got, code
}

func TestProcessRunnerStreamsAndExitCode(t *testing.T) {
	requireShell(t)
	r := NewProcessRunner(ProcessConfig{})
	p, err := r.Start(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo hello; echo oops 1>&2; echo world; exit 3"},
	})
	require.NoError(t, err)
	assert.Positive(t, p.Pid)

	got, code := runToEnd(t, p)
	assert.Equal(t, 3, code)
	assert.Equal(t, []string{"hello", "world"}, got[StreamOut])
	assert.Equal(t, []string{"oops"}, got[StreamErr])
}

func TestProcessRunnerEnvironment(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	r := NewProcessRunner(ProcessConfig{Env: map[string]string{"RUNSTREAM_A": "from-config"}})
	p, err := r.Start(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", `echo "$PYTHONUNBUFFERED $RUNSTREAM_A $RUNSTREAM_B"; pwd`},
		Dir:  dir,
		Env:  map[string]string{"RUNSTREAM_B": "from-command"},
	})
	require.NoError(t, err)

	got, code := runToEnd(t, p)
	assert.Zero(t, code)
	require.Len(t, got[StreamOut], 2)
	assert.Equal(t, "1 from-config from-command", got[StreamOut][0])
	resolved, _ := filepath.EvalSymlinks(dir)
	assert.Contains(t, []string{dir, resolved}, got[StreamOut][1])
}

func TestProcessRunnerSpawnFailure(t *testing.T) {
	r := NewProcessRunner(ProcessConfig{})
	_, err := r.Start(context.Background(), Command{Name: "/nonexistent/runstream-binary"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpawnFailure))
}

func TestProcessRunnerVirtualDisplayWrap(t *testing.T) {
	r := NewProcessRunner(ProcessConfig{VirtualDisplay: []string{"xvfb-run", "-a"}})
	r.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }

	name, args := r.wrap(Command{Name: "python3", Args: []string{"-u", "script.py"}}, []string{"PATH=/bin"})
	assert.Equal(t, "/usr/bin/xvfb-run", name)
	assert.Equal(t, []string{"-a", "python3", "-u", "script.py"}, args)

	name, args = r.wrap(Command{Name: "python3", Args: []string{"script.py"}}, []string{"DISPLAY=:0"})
	assert.Equal(t, "python3", name)
	assert.Equal(t, []string{"script.py"}, args)

	r.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	name, _ = r.wrap(Command{Name: "python3"}, nil)
	assert.Equal(t, "python3", name)
}

func TestProcessRunnerCancelTerminates(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	r := NewProcessRunner(ProcessConfig{})
	p, err := r.Start(ctx, Command{Name: "sh", Args: []string{"-c", "echo started; exec sleep 30"}})
	require.NoError(t, err)

	m := Multiplex(context.Background(), p.Stdout, p.Stderr, MultiplexOptions{})
	first := <-m.Events()
	assert.Equal(t, "started", first.Text)
	cancel()
	for range m.Events() {
	}
	code, _ := p.Wait()
	assert.NotZero(t, code)
}
