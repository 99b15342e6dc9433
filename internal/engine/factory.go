package engine

import (
	"github.com/poltergeist/bundler/internal/state"
	"github.com/poltergeist/bundler/pkg/builders"
	"github.com/poltergeist/bundler/pkg/logger"
	"github.com/poltergeist/bundler/pkg/notifier"
	"github.com/poltergeist/bundler/pkg/reporter"
	"github.com/poltergeist/bundler/pkg/types"
	"github.com/poltergeist/bundler/pkg/utils"
)

// Dependencies are the collaborators an Engine runs with. FileSystem,
// Builder and Reporter are required; a nil Notifier or StateManager turns
// that feature off.
type Dependencies struct {
	FileSystem   utils.FileSystem
	Builder      Builder
	Notifier     BuildNotifier
	StateManager StateManager
	Reporter     Reporter
}

// DependencyFactory creates default implementations of dependencies
type DependencyFactory struct {
	wc     types.WorkingContext
	logger logger.Logger
	config *types.BundlerConfig
}

// NewDependencyFactory creates a new dependency factory
func NewDependencyFactory(wc types.WorkingContext, log logger.Logger, config *types.BundlerConfig) *DependencyFactory {
	return &DependencyFactory{
		wc:     wc,
		logger: log,
		config: config,
	}
}

// CreateDefaults creates the production dependencies for the configuration
func (f *DependencyFactory) CreateDefaults() Dependencies {
	deps := Dependencies{
		FileSystem: utils.NewFileSystem(),
		Builder:    f.createBuilder(),
		Reporter:   f.createReporter(),
	}

	if f.config.NotificationsEnabled() {
		deps.Notifier = f.createNotifier()
	}
	if f.config.StateEnabled() {
		deps.StateManager = state.NewStateManager(f.wc, f.logger.WithStage("state"))
	}

	return deps
}

// CreateWithOverrides creates dependencies with specific overrides.
// Non-nil values replace the defaults.
func (f *DependencyFactory) CreateWithOverrides(overrides Dependencies) Dependencies {
	deps := f.CreateDefaults()

	if overrides.FileSystem != nil {
		deps.FileSystem = overrides.FileSystem
	}
	if overrides.Builder != nil {
		deps.Builder = overrides.Builder
	}
	if overrides.Notifier != nil {
		deps.Notifier = overrides.Notifier
	}
	if overrides.StateManager != nil {
		deps.StateManager = overrides.StateManager
	}
	if overrides.Reporter != nil {
		deps.Reporter = overrides.Reporter
	}

	return deps
}

func (f *DependencyFactory) createBuilder() Builder {
	return builders.NewPackager(
		builders.ExecRunner{},
		f.config.Packaging,
		f.config.Build.OutputDir,
		f.logger.WithStage("packaging"),
	)
}

func (f *DependencyFactory) createReporter() Reporter {
	return reporter.New(
		reporter.WithPauseMode(f.config.Pause),
		reporter.WithLogger(f.logger.WithStage("report")),
	)
}

func (f *DependencyFactory) createNotifier() BuildNotifier {
	return notifier.New(notifier.Config{
		Enabled: true,
		Sound:   f.config.NotificationSound(),
	}, f.logger.WithStage("notify"))
}
