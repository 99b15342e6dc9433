// Package reporter turns the outcome of a build cycle into operator output
// and the process exit code
package reporter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/poltergeist/bundler/pkg/logger"
	"github.com/poltergeist/bundler/pkg/types"
)

// Reporter prints the final build status and optionally waits for the
// operator before the process exits
type Reporter struct {
	out         io.Writer
	in          io.Reader
	pause       types.PauseMode
	interactive func() bool
	logger      logger.Logger

	errorStyle   *color.Color
	successStyle *color.Color
	infoStyle    *color.Color
	warningStyle *color.Color
}

// Option configures a Reporter
type Option func(*Reporter)

// WithOutput sets where status lines are written
func WithOutput(w io.Writer) Option {
	return func(r *Reporter) { r.out = w }
}

// WithInput sets the reader the pause waits on
func WithInput(in io.Reader) Option {
	return func(r *Reporter) { r.in = in }
}

// WithPauseMode sets the pause policy
func WithPauseMode(mode types.PauseMode) Option {
	return func(r *Reporter) { r.pause = mode }
}

// WithInteractive overrides terminal detection for PauseAuto
func WithInteractive(fn func() bool) Option {
	return func(r *Reporter) { r.interactive = fn }
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(r *Reporter) { r.logger = log }
}

// New creates a reporter writing to stdout and pausing on stdin
func New(opts ...Option) *Reporter {
	r := &Reporter{
		out:          os.Stdout,
		in:           os.Stdin,
		pause:        types.PauseAuto,
		interactive:  IsInteractive,
		logger:       logger.Nop(),
		errorStyle:   color.New(color.FgRed, color.Bold),
		successStyle: color.New(color.FgGreen, color.Bold),
		infoStyle:    color.New(color.FgCyan),
		warningStyle: color.New(color.FgYellow),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsInteractive reports whether both stdin and stdout are terminals
func IsInteractive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ExitCode maps the outcome of a build cycle to the process exit code.
//
// err is set when the cycle ended without the packaging tool producing an
// exit code: an interrupt maps to ExitInterrupted, anything else to
// ExitFailure. Otherwise the tool's own exit code is returned unchanged.
func ExitCode(result *types.InvocationResult, err error) int {
	switch {
	case err != nil && errors.Is(err, context.Canceled):
		return types.ExitInterrupted
	case err != nil, result == nil:
		return types.ExitFailure
	default:
		return result.ExitCode
	}
}

// Report prints the outcome and returns ExitCode(result, err). An interrupted
// run never pauses.
func (r *Reporter) Report(result *types.InvocationResult, err error) int {
	code := ExitCode(result, err)

	switch {
	case code == types.ExitInterrupted && err != nil:
		r.warningStyle.Fprintln(r.out, "⚠️  Build interrupted")
		return code

	case err != nil:
		r.errorStyle.Fprintf(r.out, "❌ Build failed: %v\n", err)

	case result == nil:
		r.errorStyle.Fprintln(r.out, "❌ Build failed: no result")

	case code != types.ExitSuccess:
		r.errorStyle.Fprintf(r.out, "❌ Build failed with exit code %d\n", code)

	default:
		r.successStyle.Fprintln(r.out, "✅ Build completed successfully")
		r.infoStyle.Fprintf(r.out, "Output: %s\n", result.OutputDirectory)
	}

	r.maybePause()
	return code
}

// ShouldPause resolves the pause policy against terminal detection
func (r *Reporter) ShouldPause() bool {
	switch r.pause {
	case types.PauseAlways:
		return true
	case types.PauseNever:
		return false
	default:
		return r.interactive()
	}
}

func (r *Reporter) maybePause() {
	if !r.ShouldPause() {
		return
	}

	fmt.Fprint(r.out, "Press Enter to exit...")
	// EOF and read errors end the pause like Enter does
	if _, err := bufio.NewReader(r.in).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		r.logger.Debug("Pause ended by read error", logger.WithField("error", err))
	}
	fmt.Fprintln(r.out)
}
