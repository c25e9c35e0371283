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

package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/wire"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global *zap.SugaredLogger
	once   sync.Once
)

// ProviderSet is the Wire provider set for the log package.
var ProviderSet = wire.NewSet(ProvideLogger)

// Conf defines logger configuration.
type Conf struct {
	Output     string `mapstructure:"output"` // stdout | file
	Format     string `mapstructure:"format"` // console | json
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	KeepHours  int    `mapstructure:"keepHours"`
	RotateSize int    `mapstructure:"rotateSize"`
	RotateNum  int    `mapstructure:"rotateNum"`
}

// Logger is the injectable logger handle.
type Logger struct {
	Log *zap.SugaredLogger
}

// ProvideLogger creates a dependency-injected logger and installs it as the global one.
func ProvideLogger(conf Conf) (*Logger, error) {
	return New(&conf)
}

// SetDefaults returns default logger configuration.
func SetDefaults() *Conf {
	return &Conf{
		Output:     "stdout",
		Format:     "console",
		Path:       "./logs",
		Filename:   "runstream.log",
		Level:      "INFO",
		KeepHours:  7,
		RotateSize: 100,
		RotateNum:  10,
	}
}

// Validate validates and normalizes logger configuration.
func (c *Conf) Validate() error {
	if c == nil {
		return fmt.Errorf("logger config is nil")
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Level == "" {
		c.Level = "INFO"
	}
	if c.Output == "file" {
		if c.Path == "" {
			return fmt.Errorf("log path is required when output is 'file'")
		}
		if c.Filename == "" {
			c.Filename = "runstream.log"
		}
		if c.RotateSize <= 0 {
			c.RotateSize = 100
		}
		if c.RotateNum <= 0 {
			c.RotateNum = 10
		}
		if c.KeepHours <= 0 {
			c.KeepHours = 7
		}
	}
	return nil
}

// New builds a logger from conf and replaces the global logger with it.
func New(conf *Conf) (*Logger, error) {
	if conf == nil {
		conf = SetDefaults()
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}
	output, err := buildOutputWriter(conf)
	if err != nil {
		return nil, err
	}
	l := newSugared(output, conf.Format, parseLogLevel(conf.Level))

	mu.Lock()
	global = l
	mu.Unlock()

	l.Debugw("logger initialized", "output", conf.Output, "level", conf.Level)
	return &Logger{Log: l}, nil
}

// NewWriter builds a logger writing to w without touching the global logger.
func NewWriter(w io.Writer, level string) *Logger {
	return &Logger{Log: newSugared(w, "console", parseLogLevel(level))}
}

func newSugared(w io.Writer, format string, level zapcore.Level) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(format, "json") {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(&traceCore{Core: core}, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// GetLogger returns the global logger, lazily creating a stdout one.
func GetLogger() *zap.SugaredLogger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if global == nil {
			global = newSugared(os.Stdout, "console", zapcore.InfoLevel)
		}
	})
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// ReplaceGlobal installs l as the global logger and returns a func restoring the previous one.
func ReplaceGlobal(l *Logger) func() {
	prev := GetLogger()
	mu.Lock()
	global = l.Log
	mu.Unlock()
	return func() {
		mu.Lock()
		global = prev
		mu.Unlock()
	}
}

// Sync flushes the global logger.
func Sync() error {
	return GetLogger().Sync()
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func buildOutputWriter(conf *Conf) (io.Writer, error) {
	switch conf.Output {
	case "file":
		return getFileLogWriter(conf)
	default:
		return os.Stdout, nil
	}
}
