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

package http

import (
	"net"
	"strconv"
	"time"
)

type Http struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	AccessLog       bool          `mapstructure:"accessLog"`
	ReadTimeout     int           `mapstructure:"readTimeout"`  // seconds
	WriteTimeout    int           `mapstructure:"writeTimeout"` // seconds, 0 keeps streams open
	IdleTimeout     int           `mapstructure:"idleTimeout"`
	ShutdownTimeout int           `mapstructure:"shutdownTimeout"`
	BodyLimit       int           `mapstructure:"bodyLimit"` // bytes
	SlowThreshold   time.Duration `mapstructure:"slowThreshold"`
	Auth            Auth          `mapstructure:"auth"`
}

// Auth enables bearer-token checks on the run endpoints.
type Auth struct {
	Enabled   bool   `mapstructure:"enabled"`
	SecretKey string `mapstructure:"secretKey"`
	Issuer    string `mapstructure:"issuer"`
}

func (h *Http) SetDefaults() {
	if h.Host == "" {
		h.Host = "127.0.0.1"
	}
	if h.Port == 0 {
		h.Port = 8080
	}
	if h.ReadTimeout == 0 {
		h.ReadTimeout = 60
	}
	if h.IdleTimeout == 0 {
		h.IdleTimeout = 120
	}
	if h.ShutdownTimeout == 0 {
		h.ShutdownTimeout = 30
	}
	if h.BodyLimit == 0 {
		h.BodyLimit = 4 * 1024 * 1024
	}
	if h.SlowThreshold == 0 {
		h.SlowThreshold = 300 * time.Millisecond
	}
}

// Addr returns host:port for Listen.
func (h *Http) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}
