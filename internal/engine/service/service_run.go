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
	"strings"
	"sync"
	"time"

	"github.com/arcentrix/runstream/internal/engine/model"
	"github.com/arcentrix/runstream/internal/engine/repo"
	"github.com/arcentrix/runstream/internal/pkg/artifact"
	"github.com/arcentrix/runstream/internal/pkg/executor"
	"github.com/arcentrix/runstream/internal/pkg/worker"
	"github.com/arcentrix/runstream/internal/pkg/workspace"
	"github.com/arcentrix/runstream/pkg/log"
	"github.com/arcentrix/runstream/pkg/metrics"
	"github.com/arcentrix/runstream/pkg/safe"
	rtrace "github.com/arcentrix/runstream/pkg/trace"
	tracectx "github.com/arcentrix/runstream/pkg/trace/context"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	modeSync       = "sync"
	modeStream     = "stream"
	modeBackground = "background"
)

// RunService executes the latest script of a session and reports its outcome.
type RunService struct {
	cfg       RunnerConfig
	scripts   repo.IScriptRepository
	results   repo.IResultRepository
	preparer  *workspace.Preparer
	runner    *executor.ProcessRunner
	collector *artifact.Collector
	publisher *artifact.Publisher
	pool      *worker.Pool
	locker    SessionLocker
	producer  LogProducer
	metrics   *metrics.RunMetrics
	tracer    trace.Tracer

	active sync.Map
}

// RunServiceDeps groups the collaborators of a RunService. Producer and
// Metrics may be nil.
type RunServiceDeps struct {
	Scripts   repo.IScriptRepository
	Results   repo.IResultRepository
	Preparer  *workspace.Preparer
	Collector *artifact.Collector
	Publisher *artifact.Publisher
	Pool      *worker.Pool
	Locker    SessionLocker
	Producer  LogProducer
	Metrics   *metrics.RunMetrics
}

func NewRunService(cfg RunnerConfig, deps RunServiceDeps) *RunService {
	cfg.SetDefaults()
	locker := deps.Locker
	if locker == nil {
		locker = NewMemoryLocker()
	}
	collector := deps.Collector
	if collector == nil {
		collector = artifact.NewCollector()
	}
	return &RunService{
		cfg:       cfg,
		scripts:   deps.Scripts,
		results:   deps.Results,
		preparer:  deps.Preparer,
		runner:    executor.NewProcessRunner(cfg.ProcessConfig()),
		collector: collector,
		publisher: deps.Publisher,
		pool:      deps.Pool,
		locker:    locker,
		producer:  deps.Producer,
		metrics:   deps.Metrics,
		tracer:    rtrace.Tracer("runstream/service"),
	}
}

// RunSync runs the session's latest script and waits for the outcome.
func (s *RunService) RunSync(ctx context.Context, sessionID string) (*RunResult, error) {
	return s.runLocked(ctx, sessionID, nil, modeSync)
}

// RunStream is RunSync with every event also delivered to sink. The run does
// not stop when sink fails; sink just stops receiving.
func (s *RunService) RunStream(ctx context.Context, sessionID string, sink EventSink) (*RunResult, error) {
	return s.runLocked(ctx, sessionID, sink, modeStream)
}

func (s *RunService) runLocked(ctx context.Context, sessionID string, sink EventSink, mode string) (*RunResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrEmptySession
	}
	release, err := s.locker.Acquire(ctx, sessionID)
	if err != nil {
		s.fail(ctx, sink, &StageError{Stage: StageAcquiring, Err: err})
		return nil, err
	}
	defer release()
	return s.execute(context.WithoutCancel(ctx), sessionID, newRunID(), sink, mode)
}

// Submit queues a background run and returns its id. The outcome is only
// observable through GetResult and, while the job is tracked, GetRun.
func (s *RunService) Submit(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrEmptySession
	}
	if s.pool == nil {
		return "", ErrPoolStopped
	}
	tctx, cancel := context.WithTimeout(ctx, s.cfg.NetworkTimeout)
	_, err := s.scripts.Latest(tctx, sessionID)
	cancel()
	if err != nil {
		return "", err
	}

	release, err := s.locker.Acquire(ctx, sessionID)
	if err != nil {
		return "", err
	}
	runID := newRunID()
	err = s.pool.Submit(runID, sessionID, func(ctx context.Context) (err error) {
		defer release()
		defer safe.Recover(func(perr error) {
			s.recordFailure(context.WithoutCancel(ctx), sessionID, runID, time.Now(), nil, nil, perr)
			err = perr
		})
		_, err = s.execute(ctx, sessionID, runID, nil, modeBackground)
		return err
	})
	if err != nil {
		release()
		return "", err
	}
	log.Infow("run submitted", "sessionId", sessionID, "runId", runID)
	return runID, nil
}

// GetResult returns the result stored on the session's latest script.
func (s *RunService) GetResult(ctx context.Context, sessionID string) (*model.ExecutionResult, error) {
	return s.results.Get(ctx, sessionID)
}

// GetRun reports a background job tracked by the pool.
func (s *RunService) GetRun(runID string) (worker.JobStatus, bool) {
	if s.pool == nil {
		return worker.JobStatus{}, false
	}
	return s.pool.Get(runID)
}

// IsActive reports whether runID is executing or queued, whatever its mode.
func (s *RunService) IsActive(runID string) bool {
	if _, ok := s.active.Load(runID); ok {
		return true
	}
	return s.pool != nil && s.pool.Active(runID)
}

func newRunID() string {
	return strings.ToLower(ulid.Make().String())
}

// execute drives one run through its stages. ctx bounds the child's lifetime.
func (s *RunService) execute(ctx context.Context, sessionID, runID string, sink EventSink, mode string) (res *RunResult, err error) {
	s.active.Store(runID, struct{}{})
	defer s.active.Delete(runID)

	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("run.id", runID),
		attribute.String("run.mode", mode),
	))
	tracectx.SetContext(ctx)
	defer tracectx.ClearContext()
	defer func() {
		status := string(model.StatusCompleted)
		if err != nil {
			status = string(model.StatusError)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.ObserveRun(mode, status, time.Since(started))
	}()

	collect := NewCollectSink()
	out := NewMultiSink(collect, sink, s.mirror(sessionID, runID))
	logger := log.With("sessionId", sessionID, "runId", runID)

	// Acquiring
	stageCtx, stageSpan := s.tracer.Start(ctx, string(StageAcquiring))
	tctx, cancel := context.WithTimeout(stageCtx, s.cfg.NetworkTimeout)
	rec, err := s.scripts.Latest(tctx, sessionID)
	cancel()
	stageSpan.End()
	if err != nil {
		err = &StageError{Stage: StageAcquiring, Err: err}
		s.fail(ctx, out, err)
		return nil, err
	}

	// Running
	stageCtx, stageSpan = s.tracer.Start(ctx, string(StageRunning))
	code, ws, err := s.runScript(stageCtx, runID, rec.Content, out)
	stageSpan.End()
	if err != nil {
		err = &StageError{Stage: StageRunning, Err: err}
		s.recordFailure(ctx, sessionID, runID, started, collect, nil, err)
		s.fail(ctx, out, err)
		return nil, err
	}
	_ = out.Publish(ctx, ExitEvent(code))
	logger.Infow("process exited", "returncode", code)

	res = &RunResult{
		SessionID:  sessionID,
		RunID:      runID,
		ReturnCode: code,
		Stdout:     collect.Stdout(),
		Stderr:     collect.Stderr(),
	}

	// Collecting
	stageCtx, stageSpan = s.tracer.Start(ctx, string(StageCollecting))
	bundle, entries, err := s.collector.Collect(stageCtx, ws)
	stageSpan.End()
	if err != nil {
		err = &StageError{Stage: StageCollecting, Err: err}
		s.recordFailure(ctx, sessionID, runID, started, collect, &code, err)
		s.fail(ctx, out, err)
		return nil, err
	}
	logger.Debugw("artifacts collected", "bundle", bundle, "entries", entries)

	// Publishing
	stageCtx, stageSpan = s.tracer.Start(ctx, string(StagePublishing))
	pub, err := s.publisher.Publish(stageCtx, sessionID, bundle, ws)
	stageSpan.End()
	if err != nil {
		logger.Errorw("artifact upload failed, scratch kept", "dir", ws.Dir, "bundle", bundle, "error", err)
		err = &StageError{Stage: StagePublishing, Err: err}
		s.fail(ctx, out, err)
		return nil, err
	}
	res.ArtifactKey = pub.Key
	res.SignedURL = pub.SignedURL

	// Recording
	stageCtx, stageSpan = s.tracer.Start(ctx, string(StageRecording))
	finished := time.Now()
	s.record(stageCtx, &model.ExecutionResult{
		SessionID:   sessionID,
		RunID:       runID,
		ReturnCode:  &code,
		Stdout:      res.Stdout,
		Stderr:      res.Stderr,
		ArtifactKey: pub.Key,
		SignedURL:   pub.SignedURL,
		Status:      model.StatusCompleted,
		StartedAt:   &started,
		FinishedAt:  &finished,
	})
	stageSpan.End()

	_ = out.Publish(ctx, CompleteEvent(res))
	logger.Infow("run completed", "returncode", code, "key", pub.Key, "elapsed", time.Since(started))
	return res, nil
}

// runScript prepares the workspace, runs the child and forwards its output.
// It returns once both pipes hit EOF and the child was reaped.
func (s *RunService) runScript(ctx context.Context, runID, script string, out EventSink) (int, *workspace.Workspace, error) {
	ws, err := s.preparer.Prepare(runID, script)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrSpawnFailure, err)
	}

	args := append(append([]string{}, s.cfg.Command[1:]...), ws.ScriptPath)
	proc, err := s.runner.Start(ctx, executor.Command{
		Name: s.cfg.Command[0],
		Args: args,
		Dir:  ws.Dir,
		Env:  ws.Env(),
	})
	if err != nil {
		return 0, ws, err
	}

	mux := executor.Multiplex(ctx, proc.Stdout, proc.Stderr, executor.MultiplexOptions{
		ChunkSize: s.cfg.ChunkSize,
		Threshold: s.cfg.Threshold,
	})
	for ev := range mux.Events() {
		s.metrics.LogEvent(string(ev.Stream))
		_ = out.Publish(ctx, LogRunEvent(ev))
	}
	if err := mux.Wait(); err != nil {
		log.Warnw("reading child output failed", "runId", runID, "pid", proc.Pid, "error", err)
	}
	code, err := proc.Wait()
	if err != nil {
		log.Warnw("waiting for child failed", "runId", runID, "pid", proc.Pid, "error", err)
	}
	return code, ws, nil
}

func (s *RunService) mirror(sessionID, runID string) EventSink {
	if s.producer == nil {
		return nil
	}
	return NewKafkaLogSink(s.producer, sessionID, runID)
}

// fail sends the terminal error event.
func (s *RunService) fail(ctx context.Context, sink EventSink, err error) {
	if sink == nil {
		return
	}
	_ = sink.Publish(ctx, ErrorEvent(err))
}

// recordFailure stores status Error with whatever output was collected.
func (s *RunService) recordFailure(ctx context.Context, sessionID, runID string, started time.Time, collect *CollectSink, code *int, cause error) {
	finished := time.Now()
	res := &model.ExecutionResult{
		SessionID:    sessionID,
		RunID:        runID,
		Status:       model.StatusError,
		ErrorMessage: cause.Error(),
		StartedAt:    &started,
		FinishedAt:   &finished,
	}
	if collect != nil {
		res.Stdout = collect.Stdout()
		res.Stderr = collect.Stderr()
	}
	res.ReturnCode = code
	s.record(ctx, res)
}

// record writes res. A failed write is logged and does not fail the run.
func (s *RunService) record(ctx context.Context, res *model.ExecutionResult) {
	tctx, cancel := context.WithTimeout(ctx, s.cfg.NetworkTimeout)
	defer cancel()
	if err := s.results.Upsert(tctx, res.SessionID, res); err != nil {
		log.Errorw("failed to record result",
			"sessionId", res.SessionID, "runId", res.RunID, "status", string(res.Status),
			"error", fmt.Errorf("%w: %v", ErrRecordWrite, err))
	}
}

