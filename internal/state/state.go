// Package state persists the record of the last build cycle
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/poltergeist/bundler/pkg/logger"
	"github.com/poltergeist/bundler/pkg/types"
	"github.com/poltergeist/bundler/pkg/utils"
)

const (
	stateDirName   = ".bundler/state"
	recordFileName = "last-build.json"
	revisionLength = 12
)

// BuildRecord is the persisted outcome of one build cycle
type BuildRecord struct {
	RunID           string                `json:"runId"`
	Status          types.BuildStatus     `json:"status"`
	ExitCode        int                   `json:"exitCode"`
	Toolchain       string                `json:"toolchain,omitempty"`
	ToolchainSource types.ToolchainSource `json:"toolchainSource,omitempty"`
	Cleaned         bool                  `json:"cleaned"`
	Descriptor      string                `json:"descriptor,omitempty"`
	OutputDirectory string                `json:"outputDirectory,omitempty"`
	StartTime       time.Time             `json:"startTime"`
	Duration        time.Duration         `json:"duration"`
	Revision        string                `json:"revision,omitempty"`
	Dirty           bool                  `json:"dirty,omitempty"`
	LastError       string                `json:"lastError,omitempty"`
	ProcessID       int                   `json:"processId"`
}

// StateManager reads and writes the build record of a project
type StateManager struct {
	stateDir string
	logger   logger.Logger
	mu       sync.Mutex
}

// NewStateManager creates a state manager rooted at the working context
func NewStateManager(wc types.WorkingContext, log logger.Logger) *StateManager {
	if log == nil {
		log = logger.Nop()
	}
	return &StateManager{
		stateDir: wc.Resolve(stateDirName),
		logger:   log,
	}
}

// Path returns the build record location
func (sm *StateManager) Path() string {
	return filepath.Join(sm.stateDir, recordFileName)
}

// Save writes the record atomically
func (sm *StateManager) Save(record *BuildRecord) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := utils.WriteFileAtomic(sm.Path(), data); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Load reads the previous record. A missing record returns an error
// satisfying errors.Is(err, os.ErrNotExist).
func (sm *StateManager) Load() (*BuildRecord, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	data, err := os.ReadFile(sm.Path())
	if err != nil {
		return nil, err
	}

	var record BuildRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return &record, nil
}

// LogPrevious reports the previous record at debug level, if there is one
func (sm *StateManager) LogPrevious() {
	record, err := sm.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			sm.logger.Warn("Failed to read previous build record", logger.WithField("error", err))
		}
		return
	}

	sm.logger.Debug("Previous build",
		logger.WithField("status", record.Status),
		logger.WithField("exit_code", record.ExitCode),
		logger.WithField("started", record.StartTime.Format(time.RFC3339)),
		logger.WithField("revision", record.Revision))
}

// Revision returns the abbreviated HEAD commit of the repository containing
// dir and whether its worktree has uncommitted changes. Outside a repository,
// or on an unborn branch, it returns "".
func Revision(dir string) (string, bool) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", false
	}

	ref, err := repo.Head()
	if err != nil {
		return "", false
	}

	revision := ref.Hash().String()
	if len(revision) > revisionLength {
		revision = revision[:revisionLength]
	}

	dirty := false
	if wt, err := repo.Worktree(); err == nil {
		if status, err := wt.Status(); err == nil {
			dirty = !status.IsClean()
		}
	}
	return revision, dirty
}
