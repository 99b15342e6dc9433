// Package notifier provides build notification functionality
package notifier

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/poltergeist/bundler/pkg/logger"
)

// BuildNotifier handles build notifications
type BuildNotifier struct {
	enabled bool
	sound   bool
	logger  logger.Logger
	notify  func(title, message string) error
	beep    func() error
}

// Config represents notification configuration
type Config struct {
	Enabled bool
	// Sound beeps on failure in addition to the notification
	Sound bool
}

// Option configures a BuildNotifier
type Option func(*BuildNotifier)

// WithSender replaces the desktop notification backend
func WithSender(notify func(title, message string) error, beep func() error) Option {
	return func(n *BuildNotifier) {
		if notify != nil {
			n.notify = notify
		}
		if beep != nil {
			n.beep = beep
		}
	}
}

// New creates a new build notifier
func New(config Config, log logger.Logger, opts ...Option) *BuildNotifier {
	if log == nil {
		log = logger.Nop()
	}
	n := &BuildNotifier{
		enabled: config.Enabled,
		sound:   config.Sound,
		logger:  log,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyBuildStart notifies that a build has started
func (n *BuildNotifier) NotifyBuildStart(name string) {
	if !n.enabled {
		return
	}
	n.send("📦 Bundler", fmt.Sprintf("Packaging %s...", name))
}

// NotifyBuildSuccess notifies that a build succeeded
func (n *BuildNotifier) NotifyBuildSuccess(name string, outputDir string, duration time.Duration) {
	if !n.enabled {
		return
	}
	n.send("✅ Build Succeeded",
		fmt.Sprintf("%s packaged in %s\n%s", name, formatDuration(duration), outputDir))
}

// NotifyBuildFailure notifies that a build failed. err is nil when the
// packaging tool ran and returned exitCode.
func (n *BuildNotifier) NotifyBuildFailure(name string, exitCode int, err error) {
	if !n.enabled {
		return
	}

	message := fmt.Sprintf("%s: exit code %d", name, exitCode)
	if err != nil {
		message = fmt.Sprintf("%s: %v", name, err)
	}
	n.send("❌ Build Failed", message)

	if n.sound {
		if err := n.beep(); err != nil {
			n.logger.Debug("Failed to play sound", logger.WithField("error", err))
		}
	}
}

// Notification failures never affect the build outcome.
func (n *BuildNotifier) send(title, message string) {
	if err := n.notify(title, message); err != nil {
		n.logger.Debug("Failed to send notification", logger.WithField("error", err))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
