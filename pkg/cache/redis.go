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

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/arcentrix/runstream/pkg/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet provides the redis client.
var ProviderSet = wire.NewSet(ProvideRedisClient)

// Redis is the redis section of the application config.
type Redis struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"poolSize"`
	DialTimeout  int    `mapstructure:"dialTimeout"`  // seconds
	ReadTimeout  int    `mapstructure:"readTimeout"`  // seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // seconds
}

func (r *Redis) SetDefaults() {
	if r.PoolSize <= 0 {
		r.PoolSize = 10
	}
	if r.DialTimeout <= 0 {
		r.DialTimeout = 5
	}
	if r.ReadTimeout <= 0 {
		r.ReadTimeout = 3
	}
	if r.WriteTimeout <= 0 {
		r.WriteTimeout = 3
	}
}

// NewRedisClient connects and pings redis. An empty Addr yields a nil client.
func NewRedisClient(cfg Redis) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	cfg.SetDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.DialTimeout)*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis %s: %w", cfg.Addr, err)
	}
	log.Infow("redis connected", "addr", cfg.Addr, "db", cfg.DB)
	return client, nil
}

// ProvideRedisClient is the wire provider; the cleanup closes the client.
func ProvideRedisClient(cfg Redis) (*redis.Client, func(), error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if client != nil {
			_ = client.Close()
		}
	}
	return client, cleanup, nil
}
