// Package cleanup removes stale build directories before a build, but only
// when the operator asks for it.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poltergeist/bundler/pkg/logger"
	"github.com/poltergeist/bundler/pkg/types"
	"github.com/poltergeist/bundler/pkg/utils"
)

// Keyword is the argument that turns cleanup on, matched case-insensitively
const Keyword = "clean"

// ErrUnsafeTarget is returned for a cleanup target that is the root itself
// or lies outside it
var ErrUnsafeTarget = errors.New("unsafe cleanup target")

// DefaultTargets are the intermediate and output directories of a build
func DefaultTargets() []string {
	return []string{"build", "dist"}
}

// IsCleanRequested reports whether the first argument asks for cleanup
func IsCleanRequested(args []string) bool {
	return len(args) > 0 && strings.EqualFold(strings.TrimSpace(args[0]), Keyword)
}

// NewRequest builds a CleanupRequest from the command-line arguments
func NewRequest(args []string, targets []string) types.CleanupRequest {
	if len(targets) == 0 {
		targets = DefaultTargets()
	}
	return types.CleanupRequest{
		Requested: IsCleanRequested(args),
		Targets:   append([]string(nil), targets...),
	}
}

// Stage deletes cleanup targets
type Stage struct {
	fs     utils.FileSystem
	logger logger.Logger
}

// NewStage creates a cleanup stage
func NewStage(fs utils.FileSystem, log logger.Logger) *Stage {
	if log == nil {
		log = logger.Nop()
	}
	return &Stage{fs: fs, logger: log}
}

// Run removes every target of req when req.Requested is set and does nothing
// otherwise. Absent targets are not an error. Targets are removed without
// following symlinks, so a dangling link is removed too. All targets are
// checked against the root before the first deletion.
func (s *Stage) Run(ctx context.Context, wc types.WorkingContext, req types.CleanupRequest) error {
	if !req.Requested {
		s.logger.Debug("Cleanup not requested, keeping previous build output")
		return nil
	}

	paths := make([]string, 0, len(req.Targets))
	for _, target := range req.Targets {
		path := wc.Resolve(target)
		if !utils.IsWithin(wc.RootDirectory, path) {
			return fmt.Errorf("%w: %s resolves to %s", ErrUnsafeTarget, target, path)
		}
		paths = append(paths, path)
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.fs.RemoveAll(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		s.logger.Info("Removed", logger.WithField("path", path))
	}

	return nil
}
