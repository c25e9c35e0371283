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
	"time"

	"github.com/arcentrix/runstream/internal/pkg/executor"
)

const (
	LockMemory = "memory"
	LockRedis  = "redis"
	LockNone   = "none"
)

// RunnerConfig is the runner section of the application config.
type RunnerConfig struct {
	// Command runs the script; the script path is appended as the last argument.
	Command []string `mapstructure:"command"`
	// VirtualDisplay wraps Command when no DISPLAY is set.
	VirtualDisplay   []string          `mapstructure:"virtualDisplay"`
	NoVirtualDisplay bool              `mapstructure:"noVirtualDisplay"`
	Env              map[string]string `mapstructure:"env"`
	ChunkSize        int               `mapstructure:"chunkSize"`
	Threshold        int               `mapstructure:"threshold"`
	NetworkTimeout   time.Duration     `mapstructure:"networkTimeout"`
	KillGrace        time.Duration     `mapstructure:"killGrace"`
	Lock             string            `mapstructure:"lock"`
	LockTTL          time.Duration     `mapstructure:"lockTTL"`
}

func (c *RunnerConfig) SetDefaults() {
	if len(c.Command) == 0 {
		c.Command = []string{"python3", "-u"}
	}
	if len(c.VirtualDisplay) == 0 && !c.NoVirtualDisplay {
		c.VirtualDisplay = []string{"xvfb-run", "-a"}
	}
	if c.NoVirtualDisplay {
		c.VirtualDisplay = nil
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = executor.DefaultChunkSize
	}
	if c.Threshold <= 0 {
		c.Threshold = executor.DefaultThreshold
	}
	if c.NetworkTimeout <= 0 {
		c.NetworkTimeout = 30 * time.Second
	}
	if c.KillGrace <= 0 {
		c.KillGrace = 10 * time.Second
	}
	if c.Lock == "" {
		c.Lock = LockMemory
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 30 * time.Minute
	}
}

// ProcessConfig derives the process runner settings.
func (c RunnerConfig) ProcessConfig() executor.ProcessConfig {
	return executor.ProcessConfig{
		VirtualDisplay: c.VirtualDisplay,
		Env:            c.Env,
		KillGrace:      c.KillGrace,
	}
}
