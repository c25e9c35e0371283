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

package service

import (
	"errors"

	"github.com/arcentrix/runstream/internal/engine/repo"
	"github.com/arcentrix/runstream/internal/pkg/artifact"
	"github.com/arcentrix/runstream/internal/pkg/executor"
	"github.com/arcentrix/runstream/internal/pkg/worker"
)

var (
	ErrScriptNotFound = repo.ErrScriptNotFound
	ErrSpawnFailure   = executor.ErrSpawnFailure
	ErrCollectFailure = artifact.ErrCollectFailure
	ErrUploadFailure  = artifact.ErrUploadFailure
	ErrPoolFull       = worker.ErrPoolFull
	ErrPoolStopped    = worker.ErrPoolStopped

	ErrRecordWrite  = errors.New("failed to record result")
	ErrSessionBusy  = errors.New("session already has a run in progress")
	ErrEmptySession = errors.New("session id is required")
)

// Stage names a step of the run state machine.
type Stage string

const (
	StageAcquiring  Stage = "Acquiring"
	StageRunning    Stage = "Running"
	StageCollecting Stage = "Collecting"
	StagePublishing Stage = "Publishing"
	StageRecording  Stage = "Recording"
	StageDone       Stage = "Done"
)

// StageError records which stage a run failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage err was raised in, or "" when unknown.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
