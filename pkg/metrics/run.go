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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics tracks script runs. A nil *RunMetrics records nothing.
type RunMetrics struct {
	runs          *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	logEvents     *prometheus.CounterVec
	queueDepth    prometheus.Gauge
	busyWorkers   prometheus.Gauge
	janitorSweeps *prometheus.CounterVec
	janitorFreed  prometheus.Counter
}

func ProvideRunMetrics(server *Server) (*RunMetrics, error) {
	return NewRunMetrics(server.GetRegistry())
}

func NewRunMetrics(reg prometheus.Registerer) (*RunMetrics, error) {
	m := &RunMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runstream",
			Name:      "runs_total",
			Help:      "Finished runs by mode and final status.",
		}, []string{"mode", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "runstream",
			Name:      "run_duration_seconds",
			Help:      "Wall time from acquiring the script to recording the result.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"mode"}),
		logEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runstream",
			Name:      "log_events_total",
			Help:      "Log lines emitted by child processes.",
		}, []string{"stream"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "runstream",
			Subsystem: "worker",
			Name:      "queue_depth",
			Help:      "Background runs waiting for a worker.",
		}),
		busyWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "runstream",
			Subsystem: "worker",
			Name:      "busy",
			Help:      "Workers currently executing a run.",
		}),
		janitorSweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runstream",
			Subsystem: "janitor",
			Name:      "sweeps_total",
			Help:      "Scratch retention sweeps by outcome.",
		}, []string{"result"}),
		janitorFreed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runstream",
			Subsystem: "janitor",
			Name:      "removed_total",
			Help:      "Stale scratch entries removed.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.runs, m.duration, m.logEvents, m.queueDepth, m.busyWorkers, m.janitorSweeps, m.janitorFreed,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *RunMetrics) ObserveRun(mode, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(mode, status).Inc()
	m.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *RunMetrics) LogEvent(stream string) {
	if m == nil {
		return
	}
	m.logEvents.WithLabelValues(stream).Inc()
}

func (m *RunMetrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *RunMetrics) AddBusy(delta int) {
	if m == nil {
		return
	}
	m.busyWorkers.Add(float64(delta))
}

func (m *RunMetrics) JanitorSweep(removed int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.janitorSweeps.WithLabelValues(result).Inc()
	m.janitorFreed.Add(float64(removed))
}
