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

// Stream identifies which pipe a line came from.
type Stream string

const (
	StreamOut Stream = "stdout"
	StreamErr Stream = "stderr"
)

// LogEvent is one decoded line of child output. Partial is set when the
// line was cut at the buffer threshold or at EOF without a trailing newline.
type LogEvent struct {
	Stream  Stream
	Text    string
	Partial bool
}
