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

	"github.com/arcentrix/runstream/internal/engine/model"
	"github.com/arcentrix/runstream/internal/pkg/executor"
	"github.com/bytedance/sonic"
)

// EventType is the "type" field of a wire event.
type EventType string

const (
	EventStdout   EventType = "stdout"
	EventStderr   EventType = "stderr"
	EventExit     EventType = "exit"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// RunEvent is one message of a streamed run.
type RunEvent struct {
	Type       EventType
	Data       string
	Partial    bool
	ReturnCode int
	SignedURL  string
	Key        string
	Status     model.Status
	Message    string
	Stage      Stage
}

func LogRunEvent(e executor.LogEvent) RunEvent {
	t := EventStdout
	if e.Stream == executor.StreamErr {
		t = EventStderr
	}
	return RunEvent{Type: t, Data: e.Text, Partial: e.Partial}
}

func ExitEvent(code int) RunEvent {
	return RunEvent{Type: EventExit, ReturnCode: code}
}

func CompleteEvent(res *RunResult) RunEvent {
	return RunEvent{
		Type:       EventComplete,
		ReturnCode: res.ReturnCode,
		SignedURL:  res.SignedURL,
		Key:        res.ArtifactKey,
		Status:     model.StatusCompleted,
	}
}

func ErrorEvent(err error) RunEvent {
	var se *StageError
	if errors.As(err, &se) {
		return RunEvent{Type: EventError, Message: se.Err.Error(), Stage: se.Stage}
	}
	return RunEvent{Type: EventError, Message: err.Error()}
}

// IsLog reports whether e carries child output.
func (e RunEvent) IsLog() bool {
	return e.Type == EventStdout || e.Type == EventStderr
}

// Payload is the JSON object written on the wire. Each type carries only its
// own fields; a log line keeps "data" even when empty.
func (e RunEvent) Payload() map[string]any {
	p := map[string]any{"type": string(e.Type)}
	switch e.Type {
	case EventStdout, EventStderr:
		p["data"] = e.Data
		if e.Partial {
			p["partial"] = true
		}
	case EventExit:
		p["returncode"] = e.ReturnCode
	case EventComplete:
		p["signed_url"] = e.SignedURL
		p["key"] = e.Key
		p["returncode"] = e.ReturnCode
		p["status"] = string(e.Status)
	case EventError:
		p["message"] = e.Message
		if e.Stage != "" {
			p["stage"] = string(e.Stage)
		}
	}
	return p
}

func (e RunEvent) Marshal() ([]byte, error) {
	return sonic.Marshal(e.Payload())
}

// RunResult is what a finished run reports to its caller.
type RunResult struct {
	SessionID   string `json:"-"`
	RunID       string `json:"-"`
	ReturnCode  int    `json:"returncode"`
	Stdout      string `json:"stdout"`
	Stderr      string `json:"stderr"`
	SignedURL   string `json:"signed_url"`
	ArtifactKey string `json:"-"`
}
