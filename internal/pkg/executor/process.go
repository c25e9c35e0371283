// Copyright 2025 Arcentra Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/arcentrix/runstream/pkg/env"
	"github.com/arcentrix/runstream/pkg/log"
)

var ErrSpawnFailure = errors.New("failed to spawn process")

// unbufferedEnv makes common runtimes write through to the pipes immediately.
var unbufferedEnv = map[string]string{
	"PYTHONUNBUFFERED": "1",
	"PYTHONIOENCODING": "utf-8",
	"FORCE_COLOR":      "0",
}

// Command describes one child process.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

// ProcessConfig configures how children are started.
type ProcessConfig struct {
	// VirtualDisplay wraps the command when DISPLAY is unset, e.g. ["xvfb-run", "-a"].
	VirtualDisplay []string
	// Env is layered over the service environment for every child.
	Env map[string]string
	// KillGrace is how long a cancelled child gets between SIGTERM and SIGKILL.
	KillGrace time.Duration
}

// ProcessRunner starts children with piped stdout and stderr.
type ProcessRunner struct {
	cfg      ProcessConfig
	lookPath func(string) (string, error)
}

func NewProcessRunner(cfg ProcessConfig) *ProcessRunner {
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = 10 * time.Second
	}
	return &ProcessRunner{cfg: cfg, lookPath: exec.LookPath}
}

// Process is a started child. Read both pipes to EOF before calling Wait.
type Process struct {
	cmd    *exec.Cmd
	Stdout io.Reader
	Stderr io.Reader
	Pid    int
}

// Start spawns c. ctx bounds the child's lifetime; cancelling it terminates
// the child. Failures wrap ErrSpawnFailure.
func (r *ProcessRunner) Start(ctx context.Context, c Command) (*Process, error) {
	environ := env.Merge(os.Environ(), unbufferedEnv)
	environ = env.Merge(environ, r.cfg.Env)
	environ = env.Merge(environ, c.Env)

	name, args := r.wrap(c, environ)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.Dir
	cmd.Env = environ
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.cfg.KillGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", ErrSpawnFailure, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %v", ErrSpawnFailure, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawnFailure, name, err)
	}

	log.Debugw("process started", "pid", cmd.Process.Pid, "name", name, "args", args, "dir", c.Dir)
	return &Process{cmd: cmd, Stdout: stdout, Stderr: stderr, Pid: cmd.Process.Pid}, nil
}

// Wait reaps the child. A non-zero exit is reported through the code, not err.
// A child killed by a signal yields -1.
func (p *Process) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if p.cmd.ProcessState != nil {
		return p.cmd.ProcessState.ExitCode(), err
	}
	return -1, err
}

func (r *ProcessRunner) wrap(c Command, environ []string) (string, []string) {
	if len(r.cfg.VirtualDisplay) == 0 {
		return c.Name, c.Args
	}
	if display, ok := env.Lookup(environ, "DISPLAY"); ok && display != "" {
		return c.Name, c.Args
	}
	wrapper, err := r.lookPath(r.cfg.VirtualDisplay[0])
	if err != nil {
		log.Debugw("virtual display wrapper not found, running directly", "wrapper", r.cfg.VirtualDisplay[0])
		return c.Name, c.Args
	}
	args := make([]string, 0, len(r.cfg.VirtualDisplay)+len(c.Args))
	args = append(args, r.cfg.VirtualDisplay[1:]...)
	args = append(args, c.Name)
	args = append(args, c.Args...)
	return wrapper, args
}
