package log

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tracectx "github.com/arcentrix/runstream/pkg/trace/context"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zapcore"
)

// TestSetDefaults verifies default logger configuration.
func TestSetDefaults(t *testing.T) {
	conf := SetDefaults()
	if conf.Output != "stdout" {
		t.Fatalf("expected output stdout, got %s", conf.Output)
	}
	if conf.Level != "INFO" {
		t.Fatalf("expected level INFO, got %s", conf.Level)
	}
	if conf.Filename == "" {
		t.Fatal("expected default filename to be set")
	}
}

// TestConfValidate verifies config validation and normalization.
func TestConfValidate(t *testing.T) {
	conf := &Conf{Output: "file", Path: "/tmp/test-logger"}
	if err := conf.Validate(); err != nil {
		t.Fatalf("validate should pass: %v", err)
	}
	if conf.RotateSize <= 0 || conf.RotateNum <= 0 || conf.KeepHours <= 0 {
		t.Fatal("expected file rotation values to be auto-filled")
	}

	bad := &Conf{Output: "file"}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error when file output has no path")
	}
}

// TestNewFileOutput verifies file output goes through the rotating writer.
func TestNewFileOutput(t *testing.T) {
	tmpDir := t.TempDir()
	l, err := New(&Conf{
		Output:   "file",
		Path:     tmpDir,
		Filename: "runstream.log",
		Level:    "INFO",
	})
	if err != nil {
		t.Fatalf("New() should not fail: %v", err)
	}

	l.Log.Infow("file output test", "k", "v")
	_ = l.Log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "runstream.log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "file output test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

// TestParseLogLevel verifies log-level parsing behavior.
func TestParseLogLevel(t *testing.T) {
	if parseLogLevel("debug") != zapcore.DebugLevel {
		t.Fatal("expected DEBUG to map to zapcore.DebugLevel")
	}
	if parseLogLevel("warning") != zapcore.WarnLevel {
		t.Fatal("expected WARNING to map to zapcore.WarnLevel")
	}
	if parseLogLevel("unknown") != zapcore.InfoLevel {
		t.Fatal("expected unknown level to map to zapcore.InfoLevel")
	}
}

// TestTraceCoreInjectsSpan verifies trace fields are taken from the goroutine context.
func TestTraceCoreInjectsSpan(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "DEBUG")

	tp := sdktrace.NewTracerProvider()
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()
	ctx, span := tp.Tracer("log-test").Start(context.Background(), "span")
	tracectx.SetContext(ctx)
	defer tracectx.ClearContext()

	l.Log.Infow("hello")
	span.End()

	line := buf.String()
	if !strings.Contains(line, "trace_id") || !strings.Contains(line, "span_id") {
		t.Fatalf("expected trace fields in log line: %s", line)
	}
}

// TestTraceCoreWithoutSpan verifies no trace fields are added without a span.
func TestTraceCoreWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "INFO")
	l.Log.Infow("plain")
	if strings.Contains(buf.String(), "trace_id") {
		t.Fatalf("unexpected trace field: %s", buf.String())
	}
}

func TestReplaceGlobal(t *testing.T) {
	var buf bytes.Buffer
	restore := ReplaceGlobal(NewWriter(&buf, "INFO"))
	Infow("swapped", "k", "v")
	restore()
	Infow("restored")

	if !strings.Contains(buf.String(), "swapped") {
		t.Fatalf("expected replaced logger to receive entry: %s", buf.String())
	}
	if strings.Contains(buf.String(), "restored") {
		t.Fatalf("restored logger still writes to replacement: %s", buf.String())
	}
}
