// Package cli provides the command-line interface for bundler
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/fatih/color"
	"github.com/poltergeist/bundler/internal/engine"
	"github.com/poltergeist/bundler/pkg/config"
	"github.com/poltergeist/bundler/pkg/environment"
	"github.com/poltergeist/bundler/pkg/logger"
	"github.com/poltergeist/bundler/pkg/process"
	"github.com/poltergeist/bundler/pkg/types"
	"github.com/poltergeist/bundler/pkg/validation"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "BUNDLER"

// envOverrides are the configuration keys BUNDLER_* variables may set
var envOverrides = []string{
	"toolchain.isolatedDir",
	"toolchain.systemExecutable",
	"packaging.module",
	"packaging.descriptor",
	"packaging.envFile",
	"build.outputDir",
	"logging.file",
}

// CLI encapsulates the command-line interface
type CLI struct {
	config    *Config
	rootCmd   *cobra.Command
	viper     *viper.Viper
	output    io.Writer
	errorOut  io.Writer
	overrides engine.Dependencies
	warnings  []validation.ValidationError
	exitCode  int
}

// NewCLI creates a new CLI instance with the given configuration
func NewCLI(cfg *Config) *CLI {
	if cfg == nil {
		cfg = NewConfig()
	}

	c := &CLI{
		config:   cfg,
		viper:    viper.New(),
		output:   os.Stdout,
		errorOut: os.Stderr,
	}
	c.setupCommands()
	return c
}

// NewCLIWithOutput creates a CLI with custom output writers
func NewCLIWithOutput(cfg *Config, output, errorOut io.Writer) *CLI {
	c := NewCLI(cfg)
	c.output = output
	c.errorOut = errorOut
	c.rootCmd.SetOut(output)
	c.rootCmd.SetErr(errorOut)
	return c
}

// WithDependencies replaces engine dependencies; nil fields keep the defaults
func (c *CLI) WithDependencies(deps engine.Dependencies) *CLI {
	c.overrides = deps
	return c
}

// Run executes the CLI with the given arguments and returns the exit code
func (c *CLI) Run(ctx context.Context, args []string) int {
	c.exitCode = types.ExitSuccess
	if args == nil {
		args = []string{}
	}
	c.rootCmd.SetArgs(args)
	if err := c.rootCmd.ExecuteContext(ctx); err != nil {
		c.printError(err.Error())
		return types.ExitFailure
	}
	return c.exitCode
}

// Execute runs bundler with the process arguments
func Execute(version string) int {
	cfg := NewConfig()
	cfg.Version = version
	return NewCLI(cfg).Run(context.Background(), os.Args[1:])
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:   "bundler [clean]",
		Short: "Package the application into a distributable bundle",
		Long: `📦 Bundler - one-shot packaging for the excel_diff desktop tool

Bundler picks the project's virtual environment interpreter when there is one,
optionally removes stale build output, runs the packaging tool against the
build descriptor and reports where the bundle went.

Pass "clean" (any case) as the first argument to remove build/ and dist/ first.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.runBuild,
	}

	c.setupFlags()

	c.rootCmd.Version = c.config.Version
	c.rootCmd.SetVersionTemplate("📦 Bundler v{{.Version}}\n")
}

func (c *CLI) setupFlags() {
	flags := c.rootCmd.PersistentFlags()

	flags.StringVar(&c.config.ConfigFile, "config", "", "config file (default: bundler.yaml or bundler.json in the root, then the user config dir)")
	flags.StringVar(&c.config.ProjectRoot, "root", c.config.ProjectRoot, "project root directory")
	flags.StringVarP(&c.config.Verbosity, "verbosity", "v", c.config.Verbosity, "log level (debug, info, warn, error)")
	flags.StringVar(&c.config.Pause, "pause", "", "wait for Enter before exit: auto, always or never")
	flags.BoolVar(&c.config.Notify, "notify", false, "show a desktop notification when the build finishes")
	c.rootCmd.Flags().BoolVar(&c.config.PrintConfig, "print-config", false, "print the effective configuration and exit")

	_ = c.viper.BindPFlag("logging.level", flags.Lookup("verbosity"))
	_ = c.viper.BindPFlag("pause", flags.Lookup("pause"))
	_ = c.viper.BindPFlag("notifications.enabled", flags.Lookup("notify"))
}

func (c *CLI) runBuild(cmd *cobra.Command, args []string) error {
	wc, err := environment.Resolve(c.config.ProjectRoot)
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig(wc)
	if err != nil {
		return err
	}

	if c.config.PrintConfig {
		for _, w := range c.warnings {
			c.printWarning(fmt.Sprintf("%s: %s", w.Field, w.Message))
		}
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = c.output.Write(data)
		return err
	}

	log := logger.CreateLogger(logFilePath(wc, cfg), string(cfg.LogLevel()))
	if closer, ok := log.(io.Closer); ok {
		defer closer.Close()
	}
	if path := c.viper.ConfigFileUsed(); path != "" {
		log.Debug("Using config file", logger.WithField("file", path))
	}
	for _, w := range c.warnings {
		log.Warn(fmt.Sprintf("Config %s: %s", w.Field, w.Message))
	}

	pm := process.NewManager(log.WithStage("process"))
	ctx, stop := pm.Start(cmd.Context())
	defer stop()

	deps := engine.NewDependencyFactory(wc, log, cfg).CreateWithOverrides(c.overrides)
	c.exitCode = engine.New(cfg, wc, log, deps).Run(ctx, args)

	if sig := pm.Signal(); sig != nil {
		log.Warn("Stopped by signal", logger.WithField("signal", sig), logger.WithField("exit_code", c.exitCode))
	}
	return nil
}

// loadConfig finds the config file, parses it over the defaults and applies
// BUNDLER_* environment variables and flags on top
func (c *CLI) loadConfig(wc types.WorkingContext) (*types.BundlerConfig, error) {
	v := c.viper
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := c.config.ConfigFile
	if path != "" {
		path = wc.Resolve(path)
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(wc.RootDirectory)
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, "bundler"))
		v.SetConfigName(config.FileName)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else {
			path = v.ConfigFileUsed()
		}
	}

	manager := config.NewManager()
	cfg, err := manager.Load(path)
	if err != nil {
		return nil, err
	}

	if err := c.applyOverrides(cfg); err != nil {
		return nil, err
	}
	if err := manager.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	c.warnings = manager.Warnings(cfg)
	return cfg, nil
}

func (c *CLI) applyOverrides(cfg *types.BundlerConfig) error {
	v := c.viper

	for _, key := range envOverrides {
		if !v.IsSet(key) {
			continue
		}
		value := v.GetString(key)
		switch key {
		case "toolchain.isolatedDir":
			cfg.Toolchain.IsolatedDir = value
		case "toolchain.systemExecutable":
			cfg.Toolchain.SystemExecutable = value
		case "packaging.module":
			cfg.Packaging.Module = value
		case "packaging.descriptor":
			cfg.Packaging.Descriptor = value
		case "packaging.envFile":
			cfg.Packaging.EnvFile = value
		case "build.outputDir":
			cfg.Build.OutputDir = value
		case "logging.file":
			if cfg.Logging == nil {
				cfg.Logging = &types.LoggingConfig{}
			}
			cfg.Logging.File = value
		}
	}

	if v.IsSet("logging.level") {
		if cfg.Logging == nil {
			cfg.Logging = &types.LoggingConfig{}
		}
		cfg.Logging.Level = types.LogLevel(strings.ToLower(v.GetString("logging.level")))
	}

	if v.IsSet("pause") {
		mode, err := types.ParsePauseMode(v.GetString("pause"))
		if err != nil {
			return err
		}
		cfg.Pause = mode
	}

	if v.IsSet("notifications.enabled") {
		enabled := v.GetBool("notifications.enabled")
		if cfg.Notifications == nil {
			cfg.Notifications = &types.NotificationConfig{}
		}
		cfg.Notifications.Enabled = &enabled
	}

	return nil
}

func logFilePath(wc types.WorkingContext, cfg *types.BundlerConfig) string {
	if cfg.LogFile() == "" {
		return ""
	}
	return wc.Resolve(cfg.LogFile())
}

func (c *CLI) printError(message string) {
	fmt.Fprintf(c.errorOut, "📦 %s %s\n", color.RedString("[Bundler]"), message)
}

func (c *CLI) printWarning(message string) {
	fmt.Fprintf(c.errorOut, "📦 %s %s\n", color.YellowString("[Bundler]"), message)
}
