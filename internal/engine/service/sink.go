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
	"bufio"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/arcentrix/runstream/pkg/log"
	"github.com/arcentrix/runstream/pkg/logstream"
	"github.com/bytedance/sonic"
	"github.com/gofiber/websocket/v2"
)

// EventSink receives the events of one run. An error means the receiver is gone.
type EventSink interface {
	Publish(ctx context.Context, e RunEvent) error
}

// StreamSink frames events as server-sent events and flushes after each one.
type StreamSink struct {
	w *bufio.Writer
}

func NewStreamSink(w *bufio.Writer) *StreamSink {
	return &StreamSink{w: w}
}

func (s *StreamSink) Publish(_ context.Context, e RunEvent) error {
	data, err := e.Marshal()
	if err != nil {
		return err
	}
	if _, err = s.w.WriteString("data: "); err != nil {
		return err
	}
	if _, err = s.w.Write(data); err != nil {
		return err
	}
	if _, err = s.w.WriteString("\n\n"); err != nil {
		return err
	}
	return s.w.Flush()
}

// CollectSink accumulates stdout and stderr text. Complete lines are joined
// with "\n"; partial segments of an over-long line are concatenated as is.
type CollectSink struct {
	mu     sync.Mutex
	stdout collected
	stderr collected
}

type collected struct {
	b       strings.Builder
	started bool
	open    bool // last segment was partial
}

func (c *collected) add(text string, partial bool) {
	if c.started && !c.open {
		c.b.WriteByte('\n')
	}
	c.b.WriteString(text)
	c.started = true
	c.open = partial
}

func NewCollectSink() *CollectSink {
	return &CollectSink{}
}

func (s *CollectSink) Publish(_ context.Context, e RunEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch e.Type {
	case EventStdout:
		s.stdout.add(e.Data, e.Partial)
	case EventStderr:
		s.stderr.add(e.Data, e.Partial)
	}
	return nil
}

func (s *CollectSink) Stdout() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stdout.b.String()
}

func (s *CollectSink) Stderr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stderr.b.String()
}

// FrameWriter is the part of a websocket connection WSSink needs.
type FrameWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WSSink writes one JSON text frame per event.
type WSSink struct {
	mu   sync.Mutex
	conn FrameWriter
}

func NewWSSink(conn FrameWriter) *WSSink {
	return &WSSink{conn: conn}
}

func (s *WSSink) Publish(_ context.Context, e RunEvent) error {
	data, err := e.Marshal()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// LogProducer is the part of the kafka producer KafkaLogSink needs.
type LogProducer interface {
	Send(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// KafkaLogSink mirrors run events to a topic. Send failures are logged and
// never reported, so a broker outage cannot fail a run.
type KafkaLogSink struct {
	producer  LogProducer
	sessionID string
	runID     string
	line      int64
}

func NewKafkaLogSink(producer LogProducer, sessionID, runID string) *KafkaLogSink {
	return &KafkaLogSink{producer: producer, sessionID: sessionID, runID: runID}
}

func (s *KafkaLogSink) Publish(ctx context.Context, e RunEvent) error {
	msg := &logstream.RunLogMessage{
		SessionId: s.sessionID,
		RunId:     s.runID,
		Timestamp: time.Now().UnixMilli(),
		Type:      string(e.Type),
	}
	if e.IsLog() {
		s.line++
		msg.LineNumber = s.line
		msg.Stream = string(e.Type)
		msg.Content = e.Data
		msg.Partial = e.Partial
	} else if e.Type == EventError {
		msg.Content = e.Message
	}
	value, err := sonic.Marshal(msg)
	if err != nil {
		log.Warnw("failed to encode run log message", "sessionId", s.sessionID, "runId", s.runID, "error", err)
		return nil
	}
	headers := map[string]string{"type": msg.Type}
	if err := s.producer.Send(ctx, msg.Key(), value, headers); err != nil {
		log.Warnw("failed to mirror run log", "sessionId", s.sessionID, "runId", s.runID, "error", err)
	}
	return nil
}

// MultiSink fans events out. A sink that fails is detached and gets nothing
// further; Publish itself only fails once every sink is gone.
type MultiSink struct {
	mu    sync.Mutex
	sinks []EventSink
}

var errNoSinks = errors.New("all event sinks detached")

func NewMultiSink(sinks ...EventSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiSink) Publish(ctx context.Context, e RunEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sinks) == 0 {
		return errNoSinks
	}
	kept := m.sinks[:0]
	for _, s := range m.sinks {
		if err := s.Publish(ctx, e); err != nil {
			log.Debugw("event sink detached", "type", string(e.Type), "error", err)
			continue
		}
		kept = append(kept, s)
	}
	for i := len(kept); i < len(m.sinks); i++ {
		m.sinks[i] = nil
	}
	m.sinks = kept
	if len(m.sinks) == 0 {
		return errNoSinks
	}
	return nil
}

// Len is the number of attached sinks.
func (m *MultiSink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sinks)
}
