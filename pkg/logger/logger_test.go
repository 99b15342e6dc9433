package logger_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	bcontext "github.com/poltergeist/bundler/pkg/context"
	"github.com/poltergeist/bundler/pkg/logger"
)

func TestCreateLogger(t *testing.T) {
	log := logger.CreateLogger("", "info")
	if log == nil {
		t.Fatal("expected logger to be created")
	}
}

func TestCreateLogger_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundler.log")
	log := logger.CreateLogger(path, "info")
	log.Info("mirrored to file")

	if closer, ok := log.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "mirrored to file") {
		t.Errorf("expected message in log file, got %q", data)
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
		hidden   []string
	}{
		{"debug", []string{"DEBUG", "INFO", "WARN", "ERROR"}, nil},
		{"info", []string{"INFO", "WARN", "ERROR"}, []string{"DEBUG"}},
		{"warn", []string{"WARN", "ERROR"}, []string{"DEBUG", "INFO"}},
		{"error", []string{"ERROR"}, []string{"DEBUG", "INFO", "WARN"}},
		{"bogus", []string{"INFO"}, []string{"DEBUG"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.CreateLoggerWithOutput(tt.level, &buf)

			log.Debug("message")
			log.Info("message")
			log.Warn("message")
			log.Error("message")

			output := buf.String()
			for _, want := range tt.expected {
				if !strings.Contains(output, want+":") {
					t.Errorf("expected %s in output:\n%s", want, output)
				}
			}
			for _, unwanted := range tt.hidden {
				if strings.Contains(output, unwanted+":") {
					t.Errorf("did not expect %s in output:\n%s", unwanted, output)
				}
			}
		})
	}
}

func TestLogger_WithStage(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.WithStage("cleanup").Info("removing build")

	output := buf.String()
	if !strings.Contains(output, "[cleanup] removing build") {
		t.Errorf("expected stage prefix, got %q", output)
	}
	if strings.Contains(output, "stage=") {
		t.Errorf("stage should not be repeated as a field: %q", output)
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Info("invoking", logger.WithField("module", "PyInstaller"), logger.WithField("code", 2))

	output := buf.String()
	if !strings.Contains(output, "{code=2, module=PyInstaller}") {
		t.Errorf("expected sorted fields, got %q", output)
	}
}

func TestLogger_Success(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Success("done")

	if !strings.Contains(buf.String(), "✅ done") {
		t.Errorf("expected success marker, got %q", buf.String())
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	base := logger.CreateLoggerWithOutput("info", &buf)

	ctx := bcontext.WithRunID(context.Background(), "run_abc")
	ctx = bcontext.WithOperation(ctx, "build")

	logger.WithContext(ctx, base).WithStage("invoke").Info("started")

	output := buf.String()
	for _, want := range []string{"[invoke]", "run_id=run_abc", "operation=build"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in %q", want, output)
		}
	}
}

func TestNop(t *testing.T) {
	log := logger.Nop()
	log.Error("dropped")
	log.WithStage("x").Info("dropped")
}
