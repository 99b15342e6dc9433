package reporter_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poltergeist/bundler/pkg/reporter"
	"github.com/poltergeist/bundler/pkg/types"
	"github.com/poltergeist/bundler/pkg/validation"
)

// countingReader records whether the pause tried to read
type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func newReporter(out *bytes.Buffer, mode types.PauseMode, interactive bool, in io.Reader) *reporter.Reporter {
	return reporter.New(
		reporter.WithOutput(out),
		reporter.WithInput(in),
		reporter.WithPauseMode(mode),
		reporter.WithInteractive(func() bool { return interactive }),
	)
}

func TestReport_Success(t *testing.T) {
	root := t.TempDir()
	dist := filepath.Join(root, "dist")
	var out bytes.Buffer

	code := newReporter(&out, types.PauseNever, false, strings.NewReader("")).
		Report(&types.InvocationResult{ExitCode: 0, OutputDirectory: dist}, nil)

	if code != types.ExitSuccess {
		t.Errorf("expected 0, got %d", code)
	}
	if !strings.Contains(out.String(), "Output: "+dist) {
		t.Errorf("expected output dir in %q", out.String())
	}
	if strings.Contains(out.String(), "failed") {
		t.Errorf("success must not print a failure notice: %q", out.String())
	}
}

func TestReport_FailurePropagatesExitCode(t *testing.T) {
	for _, exitCode := range []int{1, 2, 7, 127, 255} {
		t.Run(fmt.Sprintf("code %d", exitCode), func(t *testing.T) {
			var out bytes.Buffer

			code := newReporter(&out, types.PauseNever, false, strings.NewReader("")).
				Report(&types.InvocationResult{ExitCode: exitCode, OutputDirectory: "/p/dist"}, nil)

			if code != exitCode {
				t.Errorf("expected %d, got %d", exitCode, code)
			}
			want := fmt.Sprintf("Build failed with exit code %d", exitCode)
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected %q in %q", want, out.String())
			}
			if strings.Contains(out.String(), "Output:") {
				t.Errorf("failure must not print the output dir: %q", out.String())
			}
		})
	}
}

func TestReport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantText string
	}{
		{
			name:     "missing descriptor",
			err:      fmt.Errorf("%w: /p/excel_diff.spec", validation.ErrDescriptorNotFound),
			wantCode: types.ExitFailure,
			wantText: "Build failed: build descriptor not found: /p/excel_diff.spec",
		},
		{
			name:     "interrupted",
			err:      fmt.Errorf("packaging interrupted: %w", context.Canceled),
			wantCode: types.ExitInterrupted,
			wantText: "Build interrupted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			code := newReporter(&out, types.PauseNever, false, strings.NewReader("")).Report(nil, tt.err)

			if code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, code)
			}
			if !strings.Contains(out.String(), tt.wantText) {
				t.Errorf("expected %q in %q", tt.wantText, out.String())
			}
		})
	}
}

func TestReport_NilResult(t *testing.T) {
	var out bytes.Buffer
	if code := newReporter(&out, types.PauseNever, false, strings.NewReader("")).Report(nil, nil); code != types.ExitFailure {
		t.Errorf("expected 1, got %d", code)
	}
}

func TestReport_Pause(t *testing.T) {
	tests := []struct {
		name        string
		mode        types.PauseMode
		interactive bool
		err         error
		wantPause   bool
	}{
		{"auto interactive", types.PauseAuto, true, nil, true},
		{"auto non-interactive", types.PauseAuto, false, nil, false},
		{"always", types.PauseAlways, false, nil, true},
		{"never", types.PauseNever, true, nil, false},
		{"error pauses too", types.PauseAlways, false, errors.New("boom"), true},
		{"interrupt never pauses", types.PauseAlways, true, context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			in := &countingReader{r: strings.NewReader("\n")}

			newReporter(&out, tt.mode, tt.interactive, in).
				Report(&types.InvocationResult{ExitCode: 0, OutputDirectory: "dist"}, tt.err)

			paused := in.reads > 0
			if paused != tt.wantPause {
				t.Errorf("expected pause=%v, got %v", tt.wantPause, paused)
			}
			if tt.wantPause && !strings.Contains(out.String(), "Press Enter") {
				t.Errorf("expected prompt in %q", out.String())
			}
		})
	}
}

func TestReport_PauseEndsOnEOF(t *testing.T) {
	var out bytes.Buffer

	code := newReporter(&out, types.PauseAlways, false, strings.NewReader("")).
		Report(&types.InvocationResult{ExitCode: 2}, nil)

	if code != 2 {
		t.Errorf("expected 2, got %d", code)
	}
}

func TestShouldPause_DefaultsToAuto(t *testing.T) {
	r := reporter.New(reporter.WithInteractive(func() bool { return true }))
	if !r.ShouldPause() {
		t.Error("default mode should follow terminal detection")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		result *types.InvocationResult
		err    error
		want   int
	}{
		{"success", &types.InvocationResult{ExitCode: 0}, nil, 0},
		{"tool code", &types.InvocationResult{ExitCode: 7}, nil, 7},
		{"no result", nil, nil, types.ExitFailure},
		{"error", nil, errors.New("boom"), types.ExitFailure},
		{"error wins over result", &types.InvocationResult{ExitCode: 0}, errors.New("boom"), types.ExitFailure},
		{"interrupted", nil, fmt.Errorf("cleanup: %w", context.Canceled), types.ExitInterrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reporter.ExitCode(tt.result, tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
