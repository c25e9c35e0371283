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

package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arcentrix/runstream/pkg/env"
)

const (
	ScreenshotsDir = "screenshots"
	VideosDir      = "videos"
	TracesDir      = "traces"
)

var ErrInvalidRunID = errors.New("invalid run id")

// Config is the workspace section of the application config.
type Config struct {
	Root            string        `mapstructure:"root"`
	ScriptName      string        `mapstructure:"scriptName"`
	Retention       time.Duration `mapstructure:"retention"`
	JanitorSchedule string        `mapstructure:"janitorSchedule"`
}

func (c *Config) SetDefaults() {
	if c.Root == "" {
		c.Root = env.GetEnvString("RUNSTREAM_WORKSPACE_ROOT", filepath.Join(os.TempDir(), "runstream"))
	}
	if c.ScriptName == "" {
		c.ScriptName = "test_script.py"
	}
	if c.Retention <= 0 {
		c.Retention = 24 * time.Hour
	}
	if c.JanitorSchedule == "" {
		c.JanitorSchedule = "@every 1h"
	}
}

// Workspace is the scratch directory of one run.
type Workspace struct {
	RunID      string
	Dir        string
	ScriptPath string
}

func (w *Workspace) Screenshots() string { return filepath.Join(w.Dir, ScreenshotsDir) }
func (w *Workspace) Videos() string      { return filepath.Join(w.Dir, VideosDir) }
func (w *Workspace) Traces() string      { return filepath.Join(w.Dir, TracesDir) }

// MediaDirs lists the folders collected into the artifact bundle.
func (w *Workspace) MediaDirs() []string {
	return []string{w.Screenshots(), w.Videos(), w.Traces()}
}

// Env tells the script where to write media.
func (w *Workspace) Env() map[string]string {
	return map[string]string{
		"RUNSTREAM_RUN_ID":          w.RunID,
		"RUNSTREAM_WORKSPACE":       w.Dir,
		"RUNSTREAM_SCREENSHOTS_DIR": w.Screenshots(),
		"RUNSTREAM_VIDEOS_DIR":      w.Videos(),
		"RUNSTREAM_TRACES_DIR":      w.Traces(),
	}
}

// Preparer creates and removes run workspaces under one root.
type Preparer struct {
	cfg Config
}

func NewPreparer(cfg Config) *Preparer {
	cfg.SetDefaults()
	return &Preparer{cfg: cfg}
}

func (p *Preparer) Root() string {
	return p.cfg.Root
}

func (p *Preparer) Config() Config {
	return p.cfg
}

// Prepare creates a fresh <root>/<runID> with the media folders and writes
// script into it. Leftovers from an earlier run with the same id are removed.
func (p *Preparer) Prepare(runID string, script string) (*Workspace, error) {
	if err := validateRunID(runID); err != nil {
		return nil, err
	}
	dir := filepath.Join(p.cfg.Root, runID)
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("clear workspace %s: %w", dir, err)
	}
	ws := &Workspace{
		RunID:      runID,
		Dir:        dir,
		ScriptPath: filepath.Join(dir, p.cfg.ScriptName),
	}
	for _, d := range ws.MediaDirs() {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	if err := os.WriteFile(ws.ScriptPath, []byte(script), 0o644); err != nil {
		return nil, fmt.Errorf("write script: %w", err)
	}
	return ws, nil
}

// Remove deletes the workspace directory.
func (p *Preparer) Remove(ws *Workspace) error {
	if ws == nil {
		return nil
	}
	if rel, err := filepath.Rel(p.cfg.Root, ws.Dir); err != nil || strings.HasPrefix(rel, "..") || rel == "." {
		return fmt.Errorf("refusing to remove %s outside %s", ws.Dir, p.cfg.Root)
	}
	return os.RemoveAll(ws.Dir)
}

func validateRunID(runID string) error {
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return nil
}
