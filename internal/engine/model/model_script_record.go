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

import (
	"time"
)

// ScriptRecord is one generated automation script. Content never changes after
// insert; the result columns are overwritten by every run of the latest record.
type ScriptRecord struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"column:session_id;type:VARCHAR(128);index:idx_script_session_created,priority:1;not null" json:"session_id"`
	Content   string    `gorm:"column:content;type:TEXT" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at;precision:6;index:idx_script_session_created,priority:2" json:"created_at"`

	RunID        string     `gorm:"column:run_id;type:VARCHAR(64)" json:"run_id,omitempty"`
	ReturnCode   *int       `gorm:"column:return_code" json:"return_code,omitempty"`
	Stdout       string     `gorm:"column:stdout;type:LONGTEXT" json:"stdout,omitempty"`
	Stderr       string     `gorm:"column:stderr;type:LONGTEXT" json:"stderr,omitempty"`
	ArtifactKey  string     `gorm:"column:artifact_key;type:VARCHAR(255)" json:"artifact_key,omitempty"`
	SignedURL    string     `gorm:"column:signed_url;type:TEXT" json:"signed_url,omitempty"`
	Status       string     `gorm:"column:status;type:VARCHAR(16)" json:"status,omitempty"`
	ErrorMessage string     `gorm:"column:error_message;type:TEXT" json:"error_message,omitempty"`
	StartedAt    *time.Time `gorm:"column:started_at;precision:6" json:"started_at,omitempty"`
	FinishedAt   *time.Time `gorm:"column:finished_at;precision:6" json:"finished_at,omitempty"`
}

// TableName 返回表名称
func (ScriptRecord) TableName() string {
	return "t_script_records"
}
