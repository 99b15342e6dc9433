package builders

import "errors"

// Sentinel errors for packaging runs, checked with errors.Is
var (
	// ErrStartFailed indicates the packaging process could not be started
	ErrStartFailed = errors.New("packaging tool failed to start")

	// ErrEnvFile indicates the environment file exists but could not be read
	ErrEnvFile = errors.New("cannot load environment file")
)
