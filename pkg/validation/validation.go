// Package validation checks bundler configuration and the build descriptor
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/poltergeist/bundler/pkg/types"
	"github.com/poltergeist/bundler/pkg/utils"
)

var (
	// ErrDescriptorNotFound indicates the build descriptor file is missing
	ErrDescriptorNotFound = errors.New("build descriptor not found")

	// ErrDescriptorNotFile indicates the build descriptor path is not a regular file
	ErrDescriptorNotFile = errors.New("build descriptor is not a regular file")

	// ErrInvalidConfig indicates a configuration with at least one error-level issue
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationLevel represents issue severity
type ValidationLevel string

const (
	ValidationLevelError   ValidationLevel = "error"
	ValidationLevelWarning ValidationLevel = "warning"
)

// ValidationError is one configuration issue
type ValidationError struct {
	Field   string
	Message string
	Level   ValidationLevel
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Level, e.Field, e.Message)
}

// ValidationResult contains validation results
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// AddError adds an issue to the result
func (r *ValidationResult) AddError(field, message string, level ValidationLevel) {
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Message: message,
		Level:   level,
	})
	if level == ValidationLevelError {
		r.Valid = false
	}
}

// Warnings returns the warning-level issues
func (r *ValidationResult) Warnings() []ValidationError {
	var warnings []ValidationError
	for _, e := range r.Errors {
		if e.Level == ValidationLevelWarning {
			warnings = append(warnings, e)
		}
	}
	return warnings
}

// Err returns nil for a valid result, otherwise ErrInvalidConfig wrapping
// every error-level issue
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	var msgs []string
	for _, e := range r.Errors {
		if e.Level == ValidationLevelError {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Validator validates configuration and build inputs
type Validator struct {
	fs utils.FileSystem
}

// NewValidator creates a validator backed by fs
func NewValidator(fs utils.FileSystem) *Validator {
	return &Validator{fs: fs}
}

// ValidateDescriptor fails fast when the build descriptor is missing, so the
// operator sees a clear message instead of the packaging tool's own error
func (v *Validator) ValidateDescriptor(descriptor types.BuildDescriptor) error {
	if !v.fs.Exists(descriptor.Path) {
		return fmt.Errorf("%w: %s", ErrDescriptorNotFound, descriptor.Path)
	}
	if !v.fs.IsRegularFile(descriptor.Path) {
		return fmt.Errorf("%w: %s", ErrDescriptorNotFile, descriptor.Path)
	}
	return nil
}

// ValidateConfig checks a configuration for values the pipeline cannot use
func (v *Validator) ValidateConfig(cfg *types.BundlerConfig) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(cfg.Toolchain.SystemExecutable) == "" {
		result.AddError("toolchain.systemExecutable", "system executable is required", ValidationLevelError)
	}
	if strings.TrimSpace(cfg.Toolchain.IsolatedDir) == "" {
		result.AddError("toolchain.isolatedDir", "isolated environment directory is required", ValidationLevelError)
	}

	if strings.TrimSpace(cfg.Packaging.Module) == "" {
		result.AddError("packaging.module", "packaging module is required", ValidationLevelError)
	}
	if strings.TrimSpace(cfg.Packaging.Descriptor) == "" {
		result.AddError("packaging.descriptor", "build descriptor is required", ValidationLevelError)
	} else if filepath.IsAbs(cfg.Packaging.Descriptor) {
		result.AddError("packaging.descriptor", "descriptor should be relative to the project root", ValidationLevelWarning)
	}

	v.validateRelativeDir("build.outputDir", cfg.Build.OutputDir, result)
	for i, target := range cfg.Build.CleanTargets {
		v.validateRelativeDir(fmt.Sprintf("build.cleanTargets[%d]", i), target, result)
	}

	if cfg.Pause != "" {
		if _, err := types.ParsePauseMode(string(cfg.Pause)); err != nil {
			result.AddError("pause", err.Error(), ValidationLevelError)
		}
	}

	switch cfg.LogLevel() {
	case types.LogLevelDebug, types.LogLevelInfo, types.LogLevelWarn, types.LogLevelError:
	default:
		result.AddError("logging.level", fmt.Sprintf("unknown level %q, using info", cfg.LogLevel()), ValidationLevelWarning)
	}

	return result
}

// validateRelativeDir requires a directory that stays strictly inside the root
func (v *Validator) validateRelativeDir(field, dir string, result *ValidationResult) {
	if strings.TrimSpace(dir) == "" {
		result.AddError(field, "directory is required", ValidationLevelError)
		return
	}
	if filepath.IsAbs(dir) {
		result.AddError(field, fmt.Sprintf("must be relative to the project root: %s", dir), ValidationLevelError)
		return
	}
	clean := filepath.Clean(dir)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		result.AddError(field, fmt.Sprintf("must stay inside the project root: %s", dir), ValidationLevelError)
	}
}
