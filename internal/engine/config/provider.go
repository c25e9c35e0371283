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

package config

import (
	"github.com/arcentrix/runstream/internal/engine/service"
	"github.com/arcentrix/runstream/internal/pkg/storage"
	"github.com/arcentrix/runstream/internal/pkg/worker"
	"github.com/arcentrix/runstream/internal/pkg/workspace"
	"github.com/arcentrix/runstream/pkg/cache"
	"github.com/arcentrix/runstream/pkg/database"
	"github.com/arcentrix/runstream/pkg/log"
	"github.com/arcentrix/runstream/pkg/metrics"
	"github.com/arcentrix/runstream/pkg/mq/kafka"
	"github.com/google/wire"
)

// ProviderSet exposes the config and each of its sections.
var ProviderSet = wire.NewSet(
	NewConf,
	ProvideLogConf,
	ProvideDatabaseConf,
	ProvideRedisConf,
	ProvideStorageConf,
	ProvideRunnerConf,
	ProvideWorkspaceConf,
	ProvideWorkerConf,
	ProvideKafkaConf,
	ProvideMetricsConf,
)

func ProvideLogConf(c *AppConfig) log.Conf { return c.Log }
func ProvideDatabaseConf(c *AppConfig) database.Database { return c.Database }
func ProvideRedisConf(c *AppConfig) cache.Redis { return c.Redis }
func ProvideStorageConf(c *AppConfig) storage.Storage { return c.Storage }
func ProvideRunnerConf(c *AppConfig) service.RunnerConfig { return c.Runner }
func ProvideWorkspaceConf(c *AppConfig) workspace.Config { return c.Workspace }
func ProvideWorkerConf(c *AppConfig) worker.Config { return c.Worker }
func ProvideKafkaConf(c *AppConfig) kafka.Config { return c.Kafka }
func ProvideMetricsConf(c *AppConfig) metrics.MetricsConfig { return c.Metrics }
