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
	"github.com/arcentrix/runstream/internal/engine/repo"
	"github.com/arcentrix/runstream/internal/pkg/artifact"
	"github.com/arcentrix/runstream/internal/pkg/storage"
	"github.com/arcentrix/runstream/internal/pkg/worker"
	"github.com/arcentrix/runstream/internal/pkg/workspace"
	"github.com/arcentrix/runstream/pkg/metrics"
	"github.com/arcentrix/runstream/pkg/mq/kafka"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet provides the run service and its collaborators.
var ProviderSet = wire.NewSet(
	ProvidePreparer,
	ProvidePublisher,
	ProvidePool,
	ProvideSessionLocker,
	ProvideLogProducer,
	ProvideRunService,
	ProvideJanitor,
)

func ProvidePreparer(conf workspace.Config) *workspace.Preparer {
	return workspace.NewPreparer(conf)
}

func ProvidePublisher(store storage.IStorage, preparer *workspace.Preparer, conf storage.Storage) *artifact.Publisher {
	return artifact.NewPublisher(store, preparer, conf)
}

// ProvidePool starts the background worker pool; the cleanup drains it.
func ProvidePool(conf worker.Config, m *metrics.RunMetrics) (*worker.Pool, func()) {
	pool := worker.NewPool(conf, m)
	pool.Start()
	return pool, pool.Stop
}

func ProvideSessionLocker(conf RunnerConfig, client *redis.Client) (SessionLocker, error) {
	conf.SetDefaults()
	return NewSessionLocker(conf.Lock, client, conf.LockTTL)
}

// ProvideLogProducer keeps a disabled producer a nil interface.
func ProvideLogProducer(p *kafka.Producer) LogProducer {
	if p == nil {
		return nil
	}
	return p
}

func ProvideRunService(
	conf RunnerConfig,
	scripts repo.IScriptRepository,
	results repo.IResultRepository,
	preparer *workspace.Preparer,
	publisher *artifact.Publisher,
	locker SessionLocker,
	producer LogProducer,
	pool *worker.Pool,
	m *metrics.RunMetrics,
) *RunService {
	return NewRunService(conf, RunServiceDeps{
		Scripts:   scripts,
		Results:   results,
		Preparer:  preparer,
		Publisher: publisher,
		Pool:      pool,
		Locker:    locker,
		Producer:  producer,
		Metrics:   m,
	})
}

// ProvideJanitor schedules scratch cleanup, skipping runs still in flight.
func ProvideJanitor(preparer *workspace.Preparer, svc *RunService, m *metrics.RunMetrics) (*artifact.Janitor, func(), error) {
	j := artifact.NewJanitor(preparer, svc.IsActive, m)
	if err := j.Start(); err != nil {
		return nil, nil, err
	}
	return j, j.Stop, nil
}
