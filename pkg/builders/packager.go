// Package builders runs the external packaging tool
package builders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/poltergeist/bundler/pkg/logger"
	"github.com/poltergeist/bundler/pkg/types"
)

const (
	DefaultModule    = "PyInstaller"
	DefaultOutputDir = "dist"

	logDirName  = ".bundler/logs"
	logFileName = "build.log"
)

// Packager invokes the packaging tool as a module of the selected toolchain
type Packager struct {
	runner    Runner
	config    types.PackagingConfig
	outputDir string
	logger    logger.Logger
	stdout    io.Writer
	stderr    io.Writer
	stdin     io.Reader
	logToFile bool
}

// Option configures a Packager
type Option func(*Packager)

// WithStreams sets where the packaging tool's console goes
func WithStreams(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(p *Packager) {
		p.stdin = stdin
		p.stdout = stdout
		p.stderr = stderr
	}
}

// WithoutLogFile disables the build log under .bundler/logs
func WithoutLogFile() Option {
	return func(p *Packager) { p.logToFile = false }
}

// NewPackager creates a packager. An empty module or output directory falls
// back to the defaults.
func NewPackager(runner Runner, cfg types.PackagingConfig, outputDir string, log logger.Logger, opts ...Option) *Packager {
	if cfg.Module == "" {
		cfg.Module = DefaultModule
	}
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	if log == nil {
		log = logger.Nop()
	}

	p := &Packager{
		runner:    runner,
		config:    cfg,
		outputDir: outputDir,
		logger:    log,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		logToFile: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Arguments returns the interpreter arguments for a descriptor:
// -m <module> [extra args...] <descriptor>
func (p *Packager) Arguments(descriptor types.BuildDescriptor) []string {
	args := make([]string, 0, len(p.config.ExtraArgs)+3)
	args = append(args, "-m", p.config.Module)
	args = append(args, p.config.ExtraArgs...)
	return append(args, descriptor.Path)
}

// Build runs the packaging tool once and blocks until it exits. The tool's
// exit code is returned in the result unchanged. An error means no exit code
// exists: the process did not start, or ctx was cancelled.
func (p *Packager) Build(ctx context.Context, wc types.WorkingContext, toolchain types.ToolchainSelection, descriptor types.BuildDescriptor) (*types.InvocationResult, error) {
	startTime := time.Now()

	env, err := p.environment(wc)
	if err != nil {
		return nil, err
	}

	logFile := p.openLogFile(wc)
	defer func() {
		if logFile != nil {
			logFile.Close()
		}
	}()

	args := p.Arguments(descriptor)
	p.writeLog(logFile, fmt.Sprintf("\n=== Build started at %s ===\n", startTime.Format("2006-01-02 15:04:05")))
	p.writeLog(logFile, fmt.Sprintf("Executing: %s %v\n", toolchain.ExecutablePath, args))

	p.logger.Info("Invoking packaging tool",
		logger.WithField("toolchain", toolchain.String()),
		logger.WithField("module", p.config.Module),
		logger.WithField("descriptor", descriptor.Path))

	stdout, stderr := p.stdout, p.stderr
	if logFile != nil {
		stdout = io.MultiWriter(p.stdout, logFile)
		stderr = io.MultiWriter(p.stderr, logFile)
	}

	exitCode, err := p.runner.Run(ctx, Command{
		Path:   toolchain.ExecutablePath,
		Args:   args,
		Dir:    wc.RootDirectory,
		Env:    env,
		Stdin:  p.stdin,
		Stdout: stdout,
		Stderr: stderr,
	})
	duration := time.Since(startTime)

	if ctxErr := ctx.Err(); ctxErr != nil {
		p.writeLog(logFile, fmt.Sprintf("\n=== Build INTERRUPTED after %s ===\n", duration))
		return nil, fmt.Errorf("packaging interrupted: %w", ctxErr)
	}
	if err != nil {
		p.writeLog(logFile, fmt.Sprintf("\n=== Build could not start: %v ===\n", err))
		return nil, fmt.Errorf("%w: %s: %v", ErrStartFailed, toolchain.ExecutablePath, err)
	}

	// Killed by a signal: there is no code to propagate.
	if exitCode < 0 {
		exitCode = types.ExitFailure
	}

	result := &types.InvocationResult{
		ExitCode:        exitCode,
		OutputDirectory: wc.Resolve(p.outputDir),
		Duration:        duration,
	}

	if exitCode != types.ExitSuccess {
		p.logger.Error("Packaging tool failed", logger.WithField("exit_code", exitCode), logger.WithField("duration", duration))
		p.writeLog(logFile, fmt.Sprintf("\n=== Build FAILED with exit code %d after %s ===\n", exitCode, duration))
		return result, nil
	}

	p.logger.Success(fmt.Sprintf("Packaging completed in %s", duration.Round(time.Millisecond)))
	p.writeLog(logFile, fmt.Sprintf("\n=== Build SUCCEEDED after %s ===\n", duration))
	return result, nil
}

// LogPath returns the build log location for a working context
func LogPath(wc types.WorkingContext) string {
	return filepath.Join(wc.Resolve(logDirName), logFileName)
}

// environment returns the inherited environment overlaid with the env file
func (p *Packager) environment(wc types.WorkingContext) ([]string, error) {
	env := os.Environ()
	if p.config.EnvFile == "" {
		return env, nil
	}

	path := wc.Resolve(p.config.EnvFile)
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.logger.Debug("No environment file", logger.WithField("path", path))
			return env, nil
		}
		return nil, fmt.Errorf("%w %s: %v", ErrEnvFile, path, err)
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+vars[k])
	}

	p.logger.Debug("Loaded environment file", logger.WithField("path", path), logger.WithField("variables", len(vars)))
	return env, nil
}

func (p *Packager) openLogFile(wc types.WorkingContext) *os.File {
	if !p.logToFile {
		return nil
	}

	path := LogPath(wc)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		p.logger.Warn("Failed to create log directory", logger.WithField("error", err))
		return nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		p.logger.Warn("Failed to open build log", logger.WithField("error", err))
		return nil
	}
	return file
}

func (p *Packager) writeLog(file *os.File, message string) {
	if file != nil {
		file.WriteString(message)
	}
}
