// Package process provides process management utilities
package process

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/poltergeist/bundler/pkg/logger"
)

// Manager turns termination signals into context cancellation
type Manager struct {
	logger   logger.Logger
	signals  chan os.Signal
	external bool
	received os.Signal
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// Option configures a Manager
type Option func(*Manager)

// WithSignalChannel makes the manager listen on ch instead of the OS
func WithSignalChannel(ch chan os.Signal) Option {
	return func(m *Manager) {
		m.signals = ch
		m.external = true
	}
}

// NewManager creates a new process manager
func NewManager(log logger.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	m := &Manager{logger: log}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start listens for SIGINT and SIGTERM. The returned context is cancelled
// when one arrives or parent is done. stop releases the signal handler and
// must be called once the run is over.
func (m *Manager) Start(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ctx, cancel
	}
	m.running = true
	if m.signals == nil {
		m.signals = make(chan os.Signal, 1)
	}
	sigChan := m.signals
	m.mu.Unlock()

	if !m.external {
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	}

	done := make(chan struct{})
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		select {
		case <-done:
		case <-ctx.Done():
		case sig := <-sigChan:
			m.logger.Warn("Received signal, stopping the build", logger.WithField("signal", sig))
			m.mu.Lock()
			m.received = sig
			m.mu.Unlock()
			cancel()
		}
	}()

	var once sync.Once
	stop = func() {
		once.Do(func() {
			close(done)
			m.wg.Wait()
			if !m.external {
				signal.Stop(sigChan)
			}
			cancel()

			m.mu.Lock()
			m.running = false
			m.mu.Unlock()
		})
	}
	return ctx, stop
}

// Signal returns the signal that cancelled the run, or nil
func (m *Manager) Signal() os.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.received
}
