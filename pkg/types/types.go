// Package types provides core types and configuration for bundler
package types

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Exit codes returned by the bundler CLI when the packaging tool did not
// supply one of its own.
const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// ToolchainSource tells where the selected interpreter came from
type ToolchainSource string

const (
	SourceIsolated      ToolchainSource = "isolated"
	SourceSystemDefault ToolchainSource = "system-default"
)

// PauseMode controls whether the reporter waits for the operator before exit
type PauseMode string

const (
	PauseAuto   PauseMode = "auto"
	PauseAlways PauseMode = "always"
	PauseNever  PauseMode = "never"
)

// ParsePauseMode parses a pause mode, case-insensitively
func ParsePauseMode(s string) (PauseMode, error) {
	switch mode := PauseMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case PauseAuto, PauseAlways, PauseNever:
		return mode, nil
	case "":
		return PauseAuto, nil
	default:
		return "", fmt.Errorf("invalid pause mode %q (want auto, always or never)", s)
	}
}

// LogLevel represents logging verbosity levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// BuildStatus represents the outcome of a build cycle
type BuildStatus string

const (
	BuildStatusBuilding    BuildStatus = "building"
	BuildStatusSucceeded   BuildStatus = "succeeded"
	BuildStatusFailed      BuildStatus = "failed"
	BuildStatusInterrupted BuildStatus = "interrupted"
)

// WorkingContext is the root every relative path of a run resolves against.
// It is fixed at startup and passed explicitly to each stage.
type WorkingContext struct {
	RootDirectory string
}

// Resolve joins a root-relative path onto the root. Absolute paths are
// returned cleaned but otherwise unchanged.
func (w WorkingContext) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(w.RootDirectory, path)
}

// ToolchainSelection is the interpreter chosen for the packaging step
type ToolchainSelection struct {
	ExecutablePath string
	Source         ToolchainSource
}

func (t ToolchainSelection) String() string {
	return fmt.Sprintf("%s (%s)", t.ExecutablePath, t.Source)
}

// CleanupRequest describes the opt-in removal of stale build directories
type CleanupRequest struct {
	Requested bool
	Targets   []string
}

// BuildDescriptor references the packaging tool's spec file. bundler never
// reads or modifies it.
type BuildDescriptor struct {
	Path string
}

// InvocationResult is what one run of the packaging tool produced
type InvocationResult struct {
	ExitCode        int
	OutputDirectory string
	Duration        time.Duration
}

// Succeeded reports whether the packaging tool exited cleanly
func (r *InvocationResult) Succeeded() bool {
	return r != nil && r.ExitCode == ExitSuccess
}

// ToolchainConfig locates the interpreter
type ToolchainConfig struct {
	IsolatedDir      string `json:"isolatedDir" yaml:"isolatedDir"`
	SystemExecutable string `json:"systemExecutable" yaml:"systemExecutable"`
}

// PackagingConfig describes the packaging tool invocation
type PackagingConfig struct {
	Module     string   `json:"module" yaml:"module"`
	Descriptor string   `json:"descriptor" yaml:"descriptor"`
	ExtraArgs  []string `json:"extraArgs,omitempty" yaml:"extraArgs,omitempty"`
	EnvFile    string   `json:"envFile,omitempty" yaml:"envFile,omitempty"`
}

// BuildConfig describes build directories
type BuildConfig struct {
	CleanTargets []string `json:"cleanTargets" yaml:"cleanTargets"`
	OutputDir    string   `json:"outputDir" yaml:"outputDir"`
}

// NotificationConfig represents notification preferences
type NotificationConfig struct {
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Sound   bool  `json:"sound,omitempty" yaml:"sound,omitempty"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level LogLevel `json:"level,omitempty" yaml:"level,omitempty"`
	File  string   `json:"file,omitempty" yaml:"file,omitempty"`
}

// StateConfig controls the persisted build record
type StateConfig struct {
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// BundlerConfig represents the main configuration structure
type BundlerConfig struct {
	Toolchain     ToolchainConfig     `json:"toolchain" yaml:"toolchain"`
	Packaging     PackagingConfig     `json:"packaging" yaml:"packaging"`
	Build         BuildConfig         `json:"build" yaml:"build"`
	Notifications *NotificationConfig `json:"notifications,omitempty" yaml:"notifications,omitempty"`
	Logging       *LoggingConfig      `json:"logging,omitempty" yaml:"logging,omitempty"`
	State         *StateConfig        `json:"state,omitempty" yaml:"state,omitempty"`
	Pause         PauseMode           `json:"pause,omitempty" yaml:"pause,omitempty"`
}

// NotificationsEnabled reports whether desktop notifications are on
func (c *BundlerConfig) NotificationsEnabled() bool {
	return c.Notifications != nil && c.Notifications.Enabled != nil && *c.Notifications.Enabled
}

// NotificationSound reports whether failures also beep
func (c *BundlerConfig) NotificationSound() bool {
	return c.Notifications != nil && c.Notifications.Sound
}

// StateEnabled reports whether the build record is persisted. Defaults to true.
func (c *BundlerConfig) StateEnabled() bool {
	if c.State == nil || c.State.Enabled == nil {
		return true
	}
	return *c.State.Enabled
}

// LogLevel returns the configured level, defaulting to info
func (c *BundlerConfig) LogLevel() LogLevel {
	if c.Logging == nil || c.Logging.Level == "" {
		return LogLevelInfo
	}
	return c.Logging.Level
}

// LogFile returns the configured log file, if any
func (c *BundlerConfig) LogFile() string {
	if c.Logging == nil {
		return ""
	}
	return c.Logging.File
}
