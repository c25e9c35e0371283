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

package safe

import (
	"fmt"
	"runtime/debug"

	"github.com/arcentrix/runstream/pkg/log"
)

// Go runs fn on a new goroutine and logs instead of crashing on panic.
func Go(fn func()) {
	go func() {
		defer Recover(nil)
		fn()
	}()
}

// Recover must be deferred. It logs a recovered panic and hands it to onPanic as an error.
func Recover(onPanic func(err error)) {
	r := recover()
	if r == nil {
		return
	}
	err := fmt.Errorf("panic: %v", r)
	log.Errorw("recovered from panic", "error", err, "stack", string(debug.Stack()))
	if onPanic != nil {
		onPanic(err)
	}
}
