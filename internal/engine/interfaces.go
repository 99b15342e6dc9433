package engine

import (
	"context"
	"time"

	"github.com/poltergeist/bundler/internal/state"
	"github.com/poltergeist/bundler/pkg/types"
)

// Builder runs the packaging tool once
type Builder interface {
	Build(
		ctx context.Context,
		wc types.WorkingContext,
		toolchain types.ToolchainSelection,
		descriptor types.BuildDescriptor,
	) (*types.InvocationResult, error)
}

// BuildNotifier announces the start and the outcome of a build
type BuildNotifier interface {
	NotifyBuildStart(name string)
	NotifyBuildSuccess(name string, outputDir string, duration time.Duration)
	NotifyBuildFailure(name string, exitCode int, err error)
}

// StateManager persists the build record
type StateManager interface {
	Save(record *state.BuildRecord) error
	LogPrevious()
}

// Reporter prints the final outcome and yields the exit code
type Reporter interface {
	Report(result *types.InvocationResult, err error) int
}
