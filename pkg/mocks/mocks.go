// Package mocks provides hand-written test doubles for bundler's seams
package mocks

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/poltergeist/bundler/pkg/builders"
	"github.com/poltergeist/bundler/pkg/utils"
)

// MockFileSystem is an in-memory utils.FileSystem
type MockFileSystem struct {
	mu        sync.Mutex
	files     map[string]bool
	dirs      map[string]bool
	removeErr map[string]error
	removed   []string
}

var _ utils.FileSystem = (*MockFileSystem)(nil)

// NewMockFileSystem creates an empty mock filesystem
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files:     make(map[string]bool),
		dirs:      make(map[string]bool),
		removeErr: make(map[string]error),
	}
}

// AddFile registers a regular file and its parent directories
func (m *MockFileSystem) AddFile(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.files[path] = true
	m.addParents(path)
}

// AddDir registers a directory and its parents
func (m *MockFileSystem) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.dirs[path] = true
	m.addParents(path)
}

func (m *MockFileSystem) addParents(path string) {
	for dir := filepath.Dir(path); dir != path; path, dir = dir, filepath.Dir(dir) {
		m.dirs[dir] = true
	}
}

// SetRemoveError makes RemoveAll fail for path
func (m *MockFileSystem) SetRemoveError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeErr[filepath.Clean(path)] = err
}

// Removed returns the paths passed to RemoveAll, in call order
func (m *MockFileSystem) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

// Exists implements utils.FileSystem
func (m *MockFileSystem) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	return m.files[path] || m.dirs[path]
}

// IsDirectory implements utils.FileSystem
func (m *MockFileSystem) IsDirectory(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirs[filepath.Clean(path)]
}

// IsRegularFile implements utils.FileSystem
func (m *MockFileSystem) IsRegularFile(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[filepath.Clean(path)]
}

// RemoveAll implements utils.FileSystem
func (m *MockFileSystem) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.removed = append(m.removed, path)

	if err, ok := m.removeErr[path]; ok {
		return err
	}

	prefix := path + string(filepath.Separator)
	for p := range m.files {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
	for p := range m.dirs {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(m.dirs, p)
		}
	}
	return nil
}

// MockRunner is a scripted builders.Runner
type MockRunner struct {
	mu       sync.Mutex
	exitCode int
	err      error
	output   string
	delay    time.Duration
	calls    []builders.Command
	onRun    func(builders.Command)
}

var _ builders.Runner = (*MockRunner)(nil)

// NewMockRunner creates a runner that exits with exitCode
func NewMockRunner(exitCode int) *MockRunner {
	return &MockRunner{exitCode: exitCode}
}

// SetError makes Run fail to start the process
func (m *MockRunner) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetOutput sets what the fake process writes to stdout
func (m *MockRunner) SetOutput(output string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.output = output
}

// SetDelay makes Run block for d or until ctx is done
func (m *MockRunner) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// OnRun registers a hook invoked at the start of every Run
func (m *MockRunner) OnRun(fn func(builders.Command)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRun = fn
}

// Calls returns the commands Run received
func (m *MockRunner) Calls() []builders.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]builders.Command(nil), m.calls...)
}

// Run implements builders.Runner
func (m *MockRunner) Run(ctx context.Context, cmd builders.Command) (int, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	exitCode, err, output, delay, hook := m.exitCode, m.err, m.output, m.delay, m.onRun
	m.mu.Unlock()

	if hook != nil {
		hook(cmd)
	}
	if err != nil {
		return -1, err
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return -1, ctx.Err()
		}
	}

	if output != "" && cmd.Stdout != nil {
		if _, werr := io.WriteString(cmd.Stdout, output); werr != nil {
			return -1, fmt.Errorf("mock write: %w", werr)
		}
	}
	return exitCode, nil
}

// NotifierCall records one notification
type NotifierCall struct {
	Kind     string
	Name     string
	ExitCode int
	Err      error
}

// MockNotifier records notifications instead of showing them
type MockNotifier struct {
	mu    sync.Mutex
	calls []NotifierCall
}

// NewMockNotifier creates a recording notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// NotifyBuildStart records a start notification
func (m *MockNotifier) NotifyBuildStart(name string) {
	m.record(NotifierCall{Kind: "start", Name: name})
}

// NotifyBuildSuccess records a success notification
func (m *MockNotifier) NotifyBuildSuccess(name string, outputDir string, duration time.Duration) {
	m.record(NotifierCall{Kind: "success", Name: name})
}

// NotifyBuildFailure records a failure notification
func (m *MockNotifier) NotifyBuildFailure(name string, exitCode int, err error) {
	m.record(NotifierCall{Kind: "failure", Name: name, ExitCode: exitCode, Err: err})
}

// Calls returns the recorded notifications
func (m *MockNotifier) Calls() []NotifierCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]NotifierCall(nil), m.calls...)
}

func (m *MockNotifier) record(c NotifierCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}
