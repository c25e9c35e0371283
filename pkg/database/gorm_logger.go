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

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arcentrix/runstream/pkg/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLoggerAdapter routes gorm's logger into pkg/log.
type GormLoggerAdapter struct {
	config gormlogger.Config
	level  gormlogger.LogLevel
}

func NewGormLoggerAdapter(config gormlogger.Config, level gormlogger.LogLevel) *GormLoggerAdapter {
	return &GormLoggerAdapter{config: config, level: level}
}

func (g *GormLoggerAdapter) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *GormLoggerAdapter) Info(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		log.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *GormLoggerAdapter) Warn(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		log.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *GormLoggerAdapter) Error(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		log.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *GormLoggerAdapter) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	switch {
	case err != nil && g.level >= gormlogger.Error &&
		!(g.config.IgnoreRecordNotFoundError && errors.Is(err, gorm.ErrRecordNotFound)):
		log.ErrorContext(ctx, "sql error", "sql", sql, "rows", rows, "elapsed", elapsed, "error", err)
	case g.config.SlowThreshold > 0 && elapsed > g.config.SlowThreshold && g.level >= gormlogger.Warn:
		log.WarnContext(ctx, "slow sql", "sql", sql, "rows", rows, "elapsed", elapsed)
	case g.level >= gormlogger.Info:
		log.InfoContext(ctx, "sql", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
