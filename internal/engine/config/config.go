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
	"fmt"
	"strings"
	"sync"

	"github.com/arcentrix/runstream/internal/engine/service"
	"github.com/arcentrix/runstream/internal/pkg/storage"
	"github.com/arcentrix/runstream/internal/pkg/worker"
	"github.com/arcentrix/runstream/internal/pkg/workspace"
	"github.com/arcentrix/runstream/pkg/cache"
	"github.com/arcentrix/runstream/pkg/database"
	"github.com/arcentrix/runstream/pkg/http"
	"github.com/arcentrix/runstream/pkg/log"
	"github.com/arcentrix/runstream/pkg/metrics"
	"github.com/arcentrix/runstream/pkg/mq/kafka"
	"github.com/arcentrix/runstream/pkg/trace"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const envPrefix = "RUNSTREAM"

type AppConfig struct {
	Log       log.Conf              `mapstructure:"log"`
	Http      http.Http             `mapstructure:"http"`
	Database  database.Database     `mapstructure:"database"`
	Redis     cache.Redis           `mapstructure:"redis"`
	Storage   storage.Storage       `mapstructure:"storage"`
	Runner    service.RunnerConfig  `mapstructure:"runner"`
	Workspace workspace.Config      `mapstructure:"workspace"`
	Worker    worker.Config         `mapstructure:"worker"`
	Kafka     kafka.Config          `mapstructure:"kafka"`
	Metrics   metrics.MetricsConfig `mapstructure:"metrics"`
	Trace     trace.TraceConfig     `mapstructure:"trace"`
}

var (
	cfg  AppConfig
	mu   sync.RWMutex
	once sync.Once
)

func NewConf(confDir string) *AppConfig {
	once.Do(func() {
		loaded, err := LoadConfigFile(confDir)
		if err != nil {
			panic(fmt.Sprintf("load config file error: %s", err))
		}
		mu.Lock()
		cfg = loaded
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	c := cfg
	return &c
}

// GetConfig returns the current config, including hot reloads.
func GetConfig() AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// SetDefaults fills every section that was left empty.
func (c *AppConfig) SetDefaults() {
	if c.Log.Output == "" && c.Log.Level == "" {
		c.Log = *log.SetDefaults()
	}
	c.Http.SetDefaults()
	c.Database.SetDefaults()
	c.Redis.SetDefaults()
	c.Storage.SetDefaults()
	c.Runner.SetDefaults()
	c.Workspace.SetDefaults()
	c.Worker.SetDefaults()
	c.Kafka.SetDefaults()
	c.Metrics.SetDefaults()
	c.Trace.SetDefaults()
}

// LoadConfigFile reads a TOML file and watches it. Keys can be overridden
// from the environment, e.g. RUNSTREAM_HTTP_PORT.
func LoadConfigFile(confDir string) (AppConfig, error) {
	config := viper.New()
	config.SetConfigFile(confDir)
	config.SetEnvPrefix(envPrefix)
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()
	if err := config.ReadInConfig(); err != nil {
		return AppConfig{}, fmt.Errorf("failed to read configuration file: %v", err)
	}

	loaded, err := decode(config)
	if err != nil {
		return AppConfig{}, err
	}

	config.OnConfigChange(func(e fsnotify.Event) {
		log.Infow("The configuration changes, re-analyze the configuration file", "file", e.Name)
		next, err := decode(config)
		if err != nil {
			log.Errorw("failed to reload configuration file", "error", err, "file", e.Name)
			return
		}
		mu.Lock()
		cfg = next
		mu.Unlock()
		log.Infow("configuration reloaded successfully", "file", e.Name)
	})
	config.WatchConfig()

	log.Infow("config file loaded", "path", confDir)
	return loaded, nil
}

func decode(v *viper.Viper) (AppConfig, error) {
	var c AppConfig
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to unmarshal configuration file: %v", err)
	}
	c.SetDefaults()
	if c.Kafka.Enabled {
		if err := c.Kafka.Validate(); err != nil {
			return c, err
		}
	}
	return c, nil
}
