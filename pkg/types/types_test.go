package types_test

import (
	"path/filepath"
	"testing"

	"github.com/poltergeist/bundler/pkg/types"
)

func TestParsePauseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    types.PauseMode
		wantErr bool
	}{
		{input: "auto", want: types.PauseAuto},
		{input: "ALWAYS", want: types.PauseAlways},
		{input: " never ", want: types.PauseNever},
		{input: "", want: types.PauseAuto},
		{input: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := types.ParsePauseMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestWorkingContext_Resolve(t *testing.T) {
	root := t.TempDir()
	wc := types.WorkingContext{RootDirectory: root}

	if got := wc.Resolve("dist"); got != filepath.Join(root, "dist") {
		t.Errorf("expected dist under root, got %s", got)
	}

	abs := filepath.Join(root, "elsewhere", "..", "out")
	if got := wc.Resolve(abs); got != filepath.Join(root, "out") {
		t.Errorf("expected cleaned absolute path, got %s", got)
	}
}

func TestInvocationResult_Succeeded(t *testing.T) {
	var nilResult *types.InvocationResult
	if nilResult.Succeeded() {
		t.Error("nil result must not count as success")
	}
	if !(&types.InvocationResult{ExitCode: 0}).Succeeded() {
		t.Error("exit code 0 should succeed")
	}
	if (&types.InvocationResult{ExitCode: 7}).Succeeded() {
		t.Error("exit code 7 should fail")
	}
}

func TestBundlerConfig_Defaults(t *testing.T) {
	cfg := &types.BundlerConfig{}

	if cfg.NotificationsEnabled() {
		t.Error("notifications should default to off")
	}
	if !cfg.StateEnabled() {
		t.Error("state should default to on")
	}
	if cfg.LogLevel() != types.LogLevelInfo {
		t.Errorf("expected info level, got %s", cfg.LogLevel())
	}
	if cfg.LogFile() != "" {
		t.Errorf("expected no log file, got %s", cfg.LogFile())
	}

	off := false
	on := true
	cfg.State = &types.StateConfig{Enabled: &off}
	cfg.Notifications = &types.NotificationConfig{Enabled: &on}
	if cfg.StateEnabled() {
		t.Error("state should be disabled")
	}
	if !cfg.NotificationsEnabled() {
		t.Error("notifications should be enabled")
	}
}
