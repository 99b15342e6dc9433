// Package engine runs one build cycle: resolve the toolchain, optionally
// clean, invoke the packaging tool, report.
package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/poltergeist/bundler/internal/state"
	"github.com/poltergeist/bundler/pkg/cleanup"
	bcontext "github.com/poltergeist/bundler/pkg/context"
	"github.com/poltergeist/bundler/pkg/environment"
	"github.com/poltergeist/bundler/pkg/logger"
	"github.com/poltergeist/bundler/pkg/reporter"
	"github.com/poltergeist/bundler/pkg/types"
	"github.com/poltergeist/bundler/pkg/validation"
)

// Engine is the build orchestrator
type Engine struct {
	config    *types.BundlerConfig
	wc        types.WorkingContext
	logger    logger.Logger
	resolver  *environment.Resolver
	cleanup   *cleanup.Stage
	validator *validation.Validator
	builder   Builder
	notifier  BuildNotifier
	state     StateManager
	reporter  Reporter

	resolverOpts []environment.Option
	revision     func(dir string) (string, bool)
	now          func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithResolverOptions passes options to the toolchain resolver
func WithResolverOptions(opts ...environment.Option) Option {
	return func(e *Engine) { e.resolverOpts = append(e.resolverOpts, opts...) }
}

// WithRevision replaces the source revision lookup
func WithRevision(fn func(dir string) (string, bool)) Option {
	return func(e *Engine) { e.revision = fn }
}

// New creates an engine for one working context
func New(config *types.BundlerConfig, wc types.WorkingContext, log logger.Logger, deps Dependencies, opts ...Option) *Engine {
	if deps.FileSystem == nil {
		panic("FileSystem dependency is required")
	}
	if deps.Builder == nil {
		panic("Builder dependency is required")
	}
	if deps.Reporter == nil {
		panic("Reporter dependency is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	e := &Engine{
		config:    config,
		wc:        wc,
		logger:    log,
		cleanup:   cleanup.NewStage(deps.FileSystem, log.WithStage("cleanup")),
		validator: validation.NewValidator(deps.FileSystem),
		builder:   deps.Builder,
		notifier:  deps.Notifier,
		state:     deps.StateManager,
		reporter:  deps.Reporter,
		revision:  state.Revision,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	resolverOpts := append([]environment.Option{environment.WithLogger(log.WithStage("environment"))}, e.resolverOpts...)
	e.resolver = environment.NewResolver(deps.FileSystem, config.Toolchain, resolverOpts...)

	return e
}

// Run executes one build cycle and returns the process exit code. args are
// the positional command line arguments; only the first one is inspected.
func (e *Engine) Run(ctx context.Context, args []string) int {
	ctx = bcontext.NewRun(ctx, e.now())
	runID, _ := bcontext.RunID(ctx)
	startTime := bcontext.StartTime(ctx)
	log := logger.WithContext(ctx, e.logger)

	if e.state != nil {
		e.state.LogPrevious()
	}

	descriptor := types.BuildDescriptor{Path: e.wc.Resolve(e.config.Packaging.Descriptor)}
	record := &state.BuildRecord{
		RunID:      runID,
		Status:     types.BuildStatusBuilding,
		Descriptor: descriptor.Path,
		StartTime:  startTime,
		ProcessID:  os.Getpid(),
	}
	if e.state != nil {
		record.Revision, record.Dirty = e.revision(e.wc.RootDirectory)
	}

	log.Info("Starting build", logger.WithField("root", e.wc.RootDirectory))

	result, err := e.cycle(ctx, args, descriptor, record, log)
	code := reporter.ExitCode(result, err)

	e.finish(descriptor, record, result, err, code, log)

	return e.reporter.Report(result, err)
}

// cycle runs the stages in order. Any error short-circuits to the reporter.
func (e *Engine) cycle(
	ctx context.Context,
	args []string,
	descriptor types.BuildDescriptor,
	record *state.BuildRecord,
	log logger.Logger,
) (*types.InvocationResult, error) {
	toolchain := e.resolver.SelectToolchain(e.wc)
	record.Toolchain = toolchain.ExecutablePath
	record.ToolchainSource = toolchain.Source
	log.Info("Toolchain selected", logger.WithField("toolchain", toolchain.String()))

	req := cleanup.NewRequest(args, e.config.Build.CleanTargets)
	if err := e.cleanup.Run(bcontext.WithOperation(ctx, "cleanup"), e.wc, req); err != nil {
		return nil, err
	}
	record.Cleaned = req.Requested

	if err := e.validator.ValidateDescriptor(descriptor); err != nil {
		return nil, err
	}

	if e.notifier != nil {
		e.notifier.NotifyBuildStart(filepath.Base(descriptor.Path))
	}

	return e.builder.Build(bcontext.WithOperation(ctx, "packaging"), e.wc, toolchain, descriptor)
}

// finish records the outcome before the reporter can block on a pause
func (e *Engine) finish(
	descriptor types.BuildDescriptor,
	record *state.BuildRecord,
	result *types.InvocationResult,
	err error,
	code int,
	log logger.Logger,
) {
	name := filepath.Base(descriptor.Path)
	record.ExitCode = code
	record.Duration = e.now().Sub(record.StartTime)
	if result != nil {
		record.OutputDirectory = result.OutputDirectory
		record.Duration = result.Duration
	}
	if err != nil {
		record.LastError = err.Error()
	}

	switch {
	case err != nil && errors.Is(err, context.Canceled):
		record.Status = types.BuildStatusInterrupted
		log.Warn("Build interrupted")

	case code == types.ExitSuccess:
		record.Status = types.BuildStatusSucceeded
		log.Success("Build succeeded", logger.WithField("duration", record.Duration))
		if e.notifier != nil {
			e.notifier.NotifyBuildSuccess(name, result.OutputDirectory, result.Duration)
		}

	default:
		record.Status = types.BuildStatusFailed
		if err != nil {
			log.Error("Build failed", logger.WithField("error", err))
		} else {
			log.Error("Build failed", logger.WithField("exit_code", code))
		}
		if e.notifier != nil {
			e.notifier.NotifyBuildFailure(name, code, err)
		}
	}

	if e.state != nil {
		if saveErr := e.state.Save(record); saveErr != nil {
			log.Warn("Failed to save build record", logger.WithField("error", saveErr))
		}
	}
}
