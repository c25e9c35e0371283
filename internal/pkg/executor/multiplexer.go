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

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
)

// MultiplexOptions tunes pipe reading.
type MultiplexOptions struct {
	ChunkSize int
	Threshold int
	Buffer    int
}

func (o *MultiplexOptions) setDefaults() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Buffer <= 0 {
		o.Buffer = 64
	}
}

// Multiplexed is the merged output of both pipes.
type Multiplexed struct {
	events  chan LogEvent
	done    chan struct{}
	err     error
	dropped int64
}

// Events yields lines in per-stream FIFO order and closes after both pipes hit EOF.
func (m *Multiplexed) Events() <-chan LogEvent {
	return m.events
}

// Wait blocks until both readers finished and returns the first read error.
func (m *Multiplexed) Wait() error {
	<-m.done
	return m.err
}

// Dropped is the number of events discarded after ctx was cancelled. Valid after Wait.
func (m *Multiplexed) Dropped() int64 {
	<-m.done
	return m.dropped
}

// Multiplex reads stdout and stderr concurrently, one goroutine per pipe.
// Once ctx is cancelled events are discarded but both pipes are still read
// to EOF, so the child never blocks on a full pipe.
func Multiplex(ctx context.Context, stdout, stderr io.Reader, opts MultiplexOptions) *Multiplexed {
	opts.setDefaults()
	m := &Multiplexed{
		events: make(chan LogEvent, opts.Buffer),
		done:   make(chan struct{}),
	}

	drops := make([]int64, 2)
	g := new(errgroup.Group)
	for i, src := range []struct {
		r      io.Reader
		stream Stream
	}{{stdout, StreamOut}, {stderr, StreamErr}} {
		if src.r == nil {
			continue
		}
		g.Go(func() error {
			return pump(ctx, src.r, src.stream, opts, m.events, &drops[i])
		})
	}

	go func() {
		m.err = g.Wait()
		m.dropped = drops[0] + drops[1]
		close(m.events)
		close(m.done)
	}()
	return m
}

func pump(ctx context.Context, r io.Reader, stream Stream, opts MultiplexOptions, out chan<- LogEvent, dropped *int64) error {
	asm := NewLineAssembler(opts.Threshold)
	buf := make([]byte, opts.ChunkSize)

	emit := func(seg Segment) {
		ev := LogEvent{Stream: stream, Text: seg.Text, Partial: seg.Partial}
		if ctx.Err() != nil {
			*dropped++
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			*dropped++
		}
	}

	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, seg := range asm.Write(buf[:n]) {
				emit(seg)
			}
		}
		if err != nil {
			if seg, ok := asm.Flush(); ok {
				emit(seg)
			}
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read %s: %w", stream, err)
		}
	}
}
