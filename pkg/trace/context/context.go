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

package context

import (
	"context"
	"sync"

	"github.com/timandy/routine"
)

// bucketsSize shards the goroutine table to keep lock contention low.
const bucketsSize = 128

type (
	contextBucket struct {
		lock sync.RWMutex
		data map[uint64]context.Context
	}
	contextBuckets struct {
		buckets [bucketsSize]*contextBucket
	}
)

var goroutineContext contextBuckets

func init() {
	for i := range goroutineContext.buckets {
		goroutineContext.buckets[i] = &contextBucket{
			data: make(map[uint64]context.Context),
		}
	}
}

func bucketOf(god uint64) *contextBucket {
	return goroutineContext.buckets[god%bucketsSize]
}

// GetContext returns the context bound to the calling goroutine, or nil.
func GetContext() context.Context {
	god := routine.Goid()
	bucket := bucketOf(god)
	bucket.lock.RLock()
	ctx := bucket.data[god]
	bucket.lock.RUnlock()
	return ctx
}

// SetContext binds ctx to the calling goroutine.
func SetContext(ctx context.Context) {
	god := routine.Goid()
	bucket := bucketOf(god)
	bucket.lock.Lock()
	defer bucket.lock.Unlock()
	bucket.data[god] = ctx
}

// ClearContext removes the binding of the calling goroutine.
func ClearContext() {
	god := routine.Goid()
	bucket := bucketOf(god)
	bucket.lock.Lock()
	defer bucket.lock.Unlock()
	delete(bucket.data, god)
}
