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
	"context"

	"go.uber.org/zap"
)

// Info logs an info message.
func Info(args ...any) {
	GetLogger().Info(args...)
}

// Infow logs a structured info message.
func Infow(msg string, keysAndValues ...any) {
	GetLogger().Infow(msg, keysAndValues...)
}

// InfoContext logs a structured info message carrying the span of ctx.
func InfoContext(ctx context.Context, msg string, keysAndValues ...any) {
	GetLogger().Infow(msg, withSpan(ctx, keysAndValues)...)
}

// Debug logs a debug message.
func Debug(args ...any) {
	GetLogger().Debug(args...)
}

// Debugw logs a structured debug message.
func Debugw(msg string, keysAndValues ...any) {
	GetLogger().Debugw(msg, keysAndValues...)
}

// Warn logs a warn message.
func Warn(args ...any) {
	GetLogger().Warn(args...)
}

// Warnw logs a structured warn message.
func Warnw(msg string, keysAndValues ...any) {
	GetLogger().Warnw(msg, keysAndValues...)
}

// WarnContext logs a structured warn message carrying the span of ctx.
func WarnContext(ctx context.Context, msg string, keysAndValues ...any) {
	GetLogger().Warnw(msg, withSpan(ctx, keysAndValues)...)
}

// Error logs an error message.
func Error(args ...any) {
	GetLogger().Error(args...)
}

// Errorw logs a structured error message.
func Errorw(msg string, keysAndValues ...any) {
	GetLogger().Errorw(msg, keysAndValues...)
}

// ErrorContext logs a structured error message carrying the span of ctx.
func ErrorContext(ctx context.Context, msg string, keysAndValues ...any) {
	GetLogger().Errorw(msg, withSpan(ctx, keysAndValues)...)
}

// With returns a child of the global logger with fields attached.
func With(keysAndValues ...any) *zap.SugaredLogger {
	return GetLogger().With(keysAndValues...)
}

func withSpan(ctx context.Context, keysAndValues []any) []any {
	for _, f := range spanFields(ctx) {
		keysAndValues = append(keysAndValues, f)
	}
	return keysAndValues
}
