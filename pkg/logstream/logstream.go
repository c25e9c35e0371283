// Copyright 2025 Arcentra Team
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

package logstream

import "strings"

// RunLogMessage is one mirrored run event sent through Kafka.
type RunLogMessage struct {
	SessionId  string `json:"sessionId"`
	RunId      string `json:"runId"`
	Timestamp  int64  `json:"timestamp"`
	LineNumber int64  `json:"lineNumber"`
	Type       string `json:"type"`
	Stream     string `json:"stream,omitempty"`
	Content    string `json:"content,omitempty"`
	Partial    bool   `json:"partial,omitempty"`
}

// Key partitions messages by session so one run stays ordered.
func (m *RunLogMessage) Key() string {
	if m == nil {
		return ""
	}
	return strings.Trim(m.SessionId+":"+m.RunId, ":")
}
