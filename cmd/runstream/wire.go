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

//go:build wireinject
// +build wireinject

package main

import (
	"github.com/arcentrix/runstream/internal/engine/bootstrap"
	"github.com/arcentrix/runstream/internal/engine/config"
	"github.com/arcentrix/runstream/internal/engine/repo"
	"github.com/arcentrix/runstream/internal/engine/router"
	"github.com/arcentrix/runstream/internal/engine/service"
	"github.com/arcentrix/runstream/internal/pkg/storage"
	"github.com/arcentrix/runstream/pkg/cache"
	"github.com/arcentrix/runstream/pkg/database"
	"github.com/arcentrix/runstream/pkg/log"
	"github.com/arcentrix/runstream/pkg/metrics"
	"github.com/arcentrix/runstream/pkg/mq/kafka"
	"github.com/google/wire"
)

func initApp(configPath string) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		log.ProviderSet,
		database.ProviderSet,
		cache.ProviderSet,
		kafka.ProviderSet,
		metrics.ProviderSet,
		repo.ProviderSet,
		storage.ProviderSet,
		service.ProviderSet,
		router.ProviderSet,
		bootstrap.NewApp,
	))
}
