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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arcentrix/runstream/pkg/log"
	"github.com/arcentrix/runstream/pkg/safe"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionLocker serializes runs of one session. Acquire fails fast with
// ErrSessionBusy; the returned release is idempotent.
type SessionLocker interface {
	Acquire(ctx context.Context, sessionID string) (release func(), err error)
}

// NewSessionLocker picks the implementation named by kind. Redis needs a client.
func NewSessionLocker(kind string, client *redis.Client, ttl time.Duration) (SessionLocker, error) {
	switch kind {
	case "", LockMemory:
		return NewMemoryLocker(), nil
	case LockNone:
		return noopLocker{}, nil
	case LockRedis:
		if client == nil {
			return nil, fmt.Errorf("session lock %q requires redis.addr", kind)
		}
		return NewRedisLocker(client, ttl), nil
	default:
		return nil, fmt.Errorf("unknown session lock %q", kind)
	}
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// MemoryLocker holds locks in process memory.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

func (l *MemoryLocker) Acquire(_ context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[sessionID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionBusy, sessionID)
	}
	l.held[sessionID] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, sessionID)
			l.mu.Unlock()
		})
	}, nil
}

const lockKeyPrefix = "runstream:session-lock:"

var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
	refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// RedisLocker is a SET NX PX lock with an owner token, refreshed while held.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, sessionID string) (func(), error) {
	key := lockKeyPrefix + sessionID
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock %s: %w", sessionID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionBusy, sessionID)
	}

	stop := make(chan struct{})
	safe.Go(func() { l.refresh(key, token, stop) })

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				log.Warnw("failed to release session lock", "sessionId", sessionID, "error", err)
			}
		})
	}, nil
}

func (l *RedisLocker) refresh(key, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			n, err := refreshScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				log.Warnw("failed to refresh session lock", "key", key, "error", err)
				continue
			}
			if n == 0 {
				log.Warnw("session lock lost", "key", key)
				return
			}
		}
	}
}
