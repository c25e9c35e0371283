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

package model

import "time"

type Status string

const (
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusError     Status = "Error"
)

// ExecutionResult is the outcome of one run as stored on its ScriptRecord.
type ExecutionResult struct {
	SessionID    string     `json:"session_id"`
	RunID        string     `json:"run_id,omitempty"`
	ReturnCode   *int       `json:"returncode"`
	Stdout       string     `json:"stdout"`
	Stderr       string     `json:"stderr"`
	ArtifactKey  string     `json:"artifact_key,omitempty"`
	SignedURL    string     `json:"signed_url,omitempty"`
	Status       Status     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// ResultColumns maps every result column to its value, zero values included,
// so an update replaces the previous result wholesale.
func (r *ExecutionResult) ResultColumns() map[string]any {
	return map[string]any{
		"run_id":        r.RunID,
		"return_code":   r.ReturnCode,
		"stdout":        r.Stdout,
		"stderr":        r.Stderr,
		"artifact_key":  r.ArtifactKey,
		"signed_url":    r.SignedURL,
		"status":        string(r.Status),
		"error_message": r.ErrorMessage,
		"started_at":    r.StartedAt,
		"finished_at":   r.FinishedAt,
	}
}

// ResultFromRecord reads the result columns back. ok is false when no run has been recorded.
func ResultFromRecord(rec *ScriptRecord) (res *ExecutionResult, ok bool) {
	res = &ExecutionResult{
		SessionID:    rec.SessionID,
		RunID:        rec.RunID,
		ReturnCode:   rec.ReturnCode,
		Stdout:       rec.Stdout,
		Stderr:       rec.Stderr,
		ArtifactKey:  rec.ArtifactKey,
		SignedURL:    rec.SignedURL,
		Status:       Status(rec.Status),
		ErrorMessage: rec.ErrorMessage,
		StartedAt:    rec.StartedAt,
		FinishedAt:   rec.FinishedAt,
	}
	return res, rec.Status != ""
}
