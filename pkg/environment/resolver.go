// Package environment resolves the working root and the interpreter used for
// the packaging step.
package environment

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/poltergeist/bundler/pkg/logger"
	"github.com/poltergeist/bundler/pkg/types"
	"github.com/poltergeist/bundler/pkg/utils"
)

const (
	DefaultIsolatedDir      = "venv"
	DefaultSystemExecutable = "python"
)

// Resolve turns the launch directory into a WorkingContext with an absolute,
// cleaned root. The process working directory is left untouched.
func Resolve(launchDir string) (types.WorkingContext, error) {
	root, err := utils.NormalizePath(launchDir)
	if err != nil {
		return types.WorkingContext{}, fmt.Errorf("resolve root directory %q: %w", launchDir, err)
	}
	return types.WorkingContext{RootDirectory: root}, nil
}

// IsolatedInterpreterPath returns where an isolated environment keeps its
// interpreter for the given GOOS, relative to the environment directory.
func IsolatedInterpreterPath(goos string) string {
	if goos == "windows" {
		return filepath.Join("Scripts", "python.exe")
	}
	return filepath.Join("bin", "python")
}

// Resolver picks the toolchain for a working context
type Resolver struct {
	fs               utils.FileSystem
	isolatedDir      string
	systemExecutable string
	goos             string
	logger           logger.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithGOOS overrides the target OS used to lay out the isolated path
func WithGOOS(goos string) Option {
	return func(r *Resolver) { r.goos = goos }
}

// WithLogger sets the resolver's logger
func WithLogger(log logger.Logger) Option {
	return func(r *Resolver) { r.logger = log }
}

// NewResolver creates a resolver. Empty names fall back to the defaults.
func NewResolver(fs utils.FileSystem, cfg types.ToolchainConfig, opts ...Option) *Resolver {
	r := &Resolver{
		fs:               fs,
		isolatedDir:      cfg.IsolatedDir,
		systemExecutable: cfg.SystemExecutable,
		goos:             runtime.GOOS,
		logger:           logger.Nop(),
	}
	if r.isolatedDir == "" {
		r.isolatedDir = DefaultIsolatedDir
	}
	if r.systemExecutable == "" {
		r.systemExecutable = DefaultSystemExecutable
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SelectToolchain prefers the isolated interpreter under the root and falls
// back to the system executable name. It never fails.
func (r *Resolver) SelectToolchain(wc types.WorkingContext) types.ToolchainSelection {
	isolated := filepath.Join(wc.Resolve(r.isolatedDir), IsolatedInterpreterPath(r.goos))

	if r.fs.IsRegularFile(isolated) {
		r.logger.Debug("Using isolated toolchain", logger.WithField("path", isolated))
		return types.ToolchainSelection{
			ExecutablePath: isolated,
			Source:         types.SourceIsolated,
		}
	}

	r.logger.Debug("No isolated toolchain found, using system default",
		logger.WithField("probed", isolated),
		logger.WithField("executable", r.systemExecutable))
	return types.ToolchainSelection{
		ExecutablePath: r.systemExecutable,
		Source:         types.SourceSystemDefault,
	}
}
