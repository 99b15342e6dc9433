package cli

// Config holds the command line settings of one invocation
type Config struct {
	ConfigFile  string
	ProjectRoot string
	Verbosity   string
	Pause       string
	Notify      bool
	PrintConfig bool
	Version     string
}

// NewConfig creates a new CLI configuration with defaults
func NewConfig() *Config {
	return &Config{
		ProjectRoot: ".",
		Verbosity:   "info",
	}
}
