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

package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arcentrix/runstream/pkg/log"
	"github.com/arcentrix/runstream/pkg/safe"
)

var (
	ErrPoolFull    = errors.New("worker pool queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")
	ErrDuplicateID = errors.New("job id already submitted")
)

// State is the lifecycle position of a job.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateError     State = "error"
)

// Config is the worker section of the application config.
type Config struct {
	Workers      int           `mapstructure:"workers"`
	QueueSize    int           `mapstructure:"queueSize"`
	JobRetention time.Duration `mapstructure:"jobRetention"`
	StopTimeout  time.Duration `mapstructure:"stopTimeout"`
}

func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 16
	}
	if c.JobRetention <= 0 {
		c.JobRetention = time.Hour
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = 5 * time.Minute
	}
}

// Observer receives queue and busy-worker changes.
type Observer interface {
	SetQueueDepth(n int)
	AddBusy(delta int)
}

// Task runs one job. ctx is cancelled only when Stop gives up waiting.
type Task func(ctx context.Context) error

// JobStatus is a snapshot of a job's table entry.
type JobStatus struct {
	ID          string     `json:"runId"`
	Key         string     `json:"sessionId"`
	State       State      `json:"state"`
	Error       string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submittedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

type job struct {
	status JobStatus
	task   Task
}

// Pool runs submitted tasks on a fixed set of goroutines behind a bounded queue.
type Pool struct {
	cfg      Config
	observer Observer

	ctx    context.Context
	cancel context.CancelFunc
	queue  chan *job
	wg     sync.WaitGroup

	mu      sync.RWMutex
	jobs    map[string]*JobStatus
	stopped bool
	now     func() time.Time
}

func NewPool(cfg Config, observer Observer) *Pool {
	cfg.SetDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		cfg:      cfg,
		observer: observer,
		ctx:      ctx,
		cancel:   cancel,
		queue:    make(chan *job, cfg.QueueSize),
		jobs:     make(map[string]*JobStatus),
		now:      time.Now,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := range p.cfg.Workers {
		p.wg.Add(1)
		go p.work(fmt.Sprintf("worker-%d", i))
	}
	log.Infow("worker pool started", "workers", p.cfg.Workers, "queueSize", p.cfg.QueueSize)
}

// Submit enqueues task under id without blocking.
func (p *Pool) Submit(id, key string, task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrPoolStopped
	}
	p.pruneLocked()
	if _, exists := p.jobs[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	j := &job{
		status: JobStatus{ID: id, Key: key, State: StateQueued, SubmittedAt: p.now()},
		task:   task,
	}
	select {
	case p.queue <- j:
	default:
		return ErrPoolFull
	}
	p.jobs[id] = &j.status
	p.observeDepth()
	return nil
}

// Get returns a snapshot of job id.
func (p *Pool) Get(id string) (JobStatus, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st, ok := p.jobs[id]
	if !ok {
		return JobStatus{}, false
	}
	return *st, true
}

// Active reports whether job id is queued or running.
func (p *Pool) Active(id string) bool {
	st, ok := p.Get(id)
	return ok && (st.State == StateQueued || st.State == StateRunning)
}

// Stop refuses new work and waits for queued and running jobs up to the
// configured timeout, then cancels the task context and waits once more.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(p.cfg.StopTimeout):
		log.Warnw("worker pool stop timed out, cancelling running jobs", "timeout", p.cfg.StopTimeout)
		p.cancel()
		<-done
	}
	p.cancel()
	log.Infow("worker pool stopped")
}

func (p *Pool) work(name string) {
	defer p.wg.Done()
	for j := range p.queue {
		p.observeDepth()
		p.run(name, j)
	}
}

func (p *Pool) run(name string, j *job) {
	p.setState(j, StateRunning, nil)
	if p.observer != nil {
		p.observer.AddBusy(1)
		defer p.observer.AddBusy(-1)
	}

	var err error
	func() {
		defer safe.Recover(func(perr error) {
			err = perr
			log.Errorw("job panicked", "worker", name, "id", j.status.ID, "key", j.status.Key, "error", perr)
		})
		err = j.task(p.ctx)
	}()

	if err != nil {
		p.setState(j, StateError, err)
		return
	}
	p.setState(j, StateCompleted, nil)
}

func (p *Pool) setState(j *job, state State, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	j.status.State = state
	now := p.now()
	switch state {
	case StateRunning:
		j.status.StartedAt = &now
	case StateCompleted, StateError:
		j.status.FinishedAt = &now
	}
	if err != nil {
		j.status.Error = err.Error()
	}
}

func (p *Pool) pruneLocked() {
	cutoff := p.now().Add(-p.cfg.JobRetention)
	for id, st := range p.jobs {
		if st.FinishedAt != nil && st.FinishedAt.Before(cutoff) {
			delete(p.jobs, id)
		}
	}
}

func (p *Pool) observeDepth() {
	if p.observer != nil {
		p.observer.SetQueueDepth(len(p.queue))
	}
}
