// Package config handles configuration loading and management
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/poltergeist/bundler/pkg/builders"
	"github.com/poltergeist/bundler/pkg/cleanup"
	"github.com/poltergeist/bundler/pkg/environment"
	"github.com/poltergeist/bundler/pkg/types"
	"github.com/poltergeist/bundler/pkg/utils"
	"github.com/poltergeist/bundler/pkg/validation"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file base name looked up in the project root
	FileName = "bundler"

	DefaultDescriptor = "excel_diff.spec"
	DefaultEnvFile    = ".env"
)

// Manager handles configuration operations
type Manager struct {
	validator *validation.Validator
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{validator: validation.NewValidator(utils.NewFileSystem())}
}

// Default returns the configuration used when no file is present
func Default() *types.BundlerConfig {
	notify := false
	state := true

	return &types.BundlerConfig{
		Toolchain: types.ToolchainConfig{
			IsolatedDir:      environment.DefaultIsolatedDir,
			SystemExecutable: environment.DefaultSystemExecutable,
		},
		Packaging: types.PackagingConfig{
			Module:     builders.DefaultModule,
			Descriptor: DefaultDescriptor,
			EnvFile:    DefaultEnvFile,
		},
		Build: types.BuildConfig{
			CleanTargets: cleanup.DefaultTargets(),
			OutputDir:    builders.DefaultOutputDir,
		},
		Notifications: &types.NotificationConfig{Enabled: &notify},
		Logging:       &types.LoggingConfig{Level: types.LogLevelInfo},
		State:         &types.StateConfig{Enabled: &state},
		Pause:         types.PauseAuto,
	}
}

// Load returns the defaults when path is empty, otherwise LoadConfig(path)
func (m *Manager) Load(path string) (*types.BundlerConfig, error) {
	if path == "" {
		cfg := Default()
		return cfg, m.ValidateConfig(cfg)
	}
	return m.LoadConfig(path)
}

// LoadConfig reads a JSON or YAML file over the defaults and validates it.
// Unknown keys are rejected.
func (m *Manager) LoadConfig(path string) (*types.BundlerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := m.parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := m.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ValidateConfig validates a configuration
func (m *Manager) ValidateConfig(cfg *types.BundlerConfig) error {
	return m.validator.ValidateConfig(cfg).Err()
}

// Warnings returns the issues that do not stop a build but that the
// operator should see
func (m *Manager) Warnings(cfg *types.BundlerConfig) []validation.ValidationError {
	return m.validator.ValidateConfig(cfg).Warnings()
}

func (m *Manager) parse(data []byte) (*types.BundlerConfig, error) {
	cfg := Default()

	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	// JSON first, like the file it most often is
	if json.Valid(data) {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders a configuration as YAML
func Marshal(cfg *types.BundlerConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
