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

package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arcentrix/runstream/internal/pkg/workspace"
	"github.com/arcentrix/runstream/pkg/log"
	"github.com/arcentrix/runstream/pkg/metrics"
	"github.com/robfig/cron"
)

// Janitor removes scratch entries left behind by failed uploads once they
// are older than the retention window.
type Janitor struct {
	root      string
	schedule  string
	retention time.Duration
	active    func(runID string) bool
	metrics   *metrics.RunMetrics
	cron      *cron.Cron
	now       func() time.Time
}

// NewJanitor sweeps the preparer's root. active reports runs still in flight,
// which are never removed.
func NewJanitor(preparer *workspace.Preparer, active func(runID string) bool, m *metrics.RunMetrics) *Janitor {
	cfg := preparer.Config()
	if active == nil {
		active = func(string) bool { return false }
	}
	return &Janitor{
		root:      cfg.Root,
		schedule:  cfg.JanitorSchedule,
		retention: cfg.Retention,
		active:    active,
		metrics:   m,
		now:       time.Now,
	}
}

func (j *Janitor) Start() error {
	j.cron = cron.New()
	if err := j.cron.AddFunc(j.schedule, func() {
		removed, err := j.Sweep()
		if err != nil {
			log.Warnw("scratch sweep failed", "root", j.root, "removed", removed, "error", err)
			return
		}
		if removed > 0 {
			log.Infow("scratch sweep", "root", j.root, "removed", removed)
		}
	}); err != nil {
		return err
	}
	j.cron.Start()
	log.Infow("scratch janitor started", "root", j.root, "schedule", j.schedule, "retention", j.retention)
	return nil
}

func (j *Janitor) Stop() {
	if j.cron != nil {
		j.cron.Stop()
	}
}

// Sweep removes run directories and bundles under root older than retention.
func (j *Janitor) Sweep() (removed int, err error) {
	defer func() { j.metrics.JanitorSweep(removed, err) }()

	entries, err := os.ReadDir(j.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := j.now().Add(-j.retention)
	var errs []error
	for _, e := range entries {
		runID := strings.TrimSuffix(e.Name(), ".zip")
		if j.active(runID) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(j.root, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
