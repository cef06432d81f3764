// Package server runs the panel process: it starts the HTTP front, waits
// for a shutdown signal, and tears the remaining components down in order.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/benchdeck/benchdeck/pkg/logging"
)

// DefaultShutdownTimeout bounds how long a graceful shutdown may take,
// including waiting out a running benchmark.
const DefaultShutdownTimeout = 30 * time.Second

// Front is the HTTP server the process fronts. Start blocks until the
// server stops; Shutdown drains in-flight requests.
type Front interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// ConfigReloadFunc is a function that reloads configuration
type ConfigReloadFunc func() error

// component is one named teardown step.
type component struct {
	name  string
	close func(ctx context.Context) error
}

// GracefulServer wraps the HTTP front with signal handling and ordered
// shutdown. Components close in the order they were added, after the HTTP
// listener has drained, so nothing serves requests against half-closed
// collaborators.
type GracefulServer struct {
	front          Front
	components     []component
	logger         logging.Logger
	timeout        time.Duration
	shutdownCh     chan struct{} // closed when shutdown starts
	doneCh         chan struct{} // closed when teardown finishes
	shutdownOnce   sync.Once
	shutdownErr    error
	configReloadFn ConfigReloadFunc
	configMu       sync.RWMutex
}

// NewGracefulServer creates a graceful wrapper around front.
func NewGracefulServer(front Front, logger logging.Logger) *GracefulServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GracefulServer{
		front:      front,
		logger:     logger.With(logging.Component("lifecycle")),
		timeout:    DefaultShutdownTimeout,
		shutdownCh: make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// AddComponent registers a teardown step. Steps run in registration order
// during shutdown, each bounded by the remaining shutdown budget.
func (gs *GracefulServer) AddComponent(name string, close func(ctx context.Context) error) {
	gs.components = append(gs.components, component{name: name, close: close})
}

// Run starts the server and handles graceful shutdown signals. It returns
// after shutdown completes.
func (gs *GracefulServer) Run() error {
	go gs.handleSignals()

	if err := gs.front.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	// Start returned because Shutdown drained the listener; wait for the
	// component teardown to finish before reporting.
	<-gs.doneCh
	return gs.shutdownErr
}

// Shutdown initiates a graceful shutdown: the HTTP listener drains first,
// then each component closes in order. Safe to call more than once; every
// caller gets the same result.
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		gs.logger.Info("shutting down", logging.Duration("timeout", timeout))

		if err := gs.front.Shutdown(ctx); err != nil {
			gs.shutdownErr = err
			gs.logger.Error("HTTP shutdown", logging.Error(err))
		}

		for _, c := range gs.components {
			if err := c.close(ctx); err != nil {
				gs.logger.Error("closing component",
					logging.String("component", c.name),
					logging.Error(err))
				if gs.shutdownErr == nil {
					gs.shutdownErr = err
				}
				continue
			}
			gs.logger.Debug("component closed", logging.String("component", c.name))
		}

		gs.logger.Info("shutdown complete")
		close(gs.doneCh)
	})

	<-gs.doneCh
	return gs.shutdownErr
}

// handleSignals listens for OS signals and triggers graceful shutdown
func (gs *GracefulServer) handleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGINT,  // Ctrl+C
		syscall.SIGTERM, // Termination signal (systemd, docker, k8s)
		syscall.SIGHUP,  // Reload configuration
	)

	for sig := range sigCh {
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			gs.logger.Info("signal received, starting graceful shutdown",
				logging.String("signal", sig.String()))
			gs.Shutdown(gs.timeout)
			return

		case syscall.SIGHUP:
			gs.logger.Info("SIGHUP received, reloading configuration")
			if err := gs.ReloadConfig(); err != nil {
				gs.logger.Error("configuration reload", logging.Error(err))
			}
		}
	}
}

// IsShuttingDown returns true if shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownChannel returns a channel that closes when shutdown is initiated
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}

// SetConfigReloadFunc sets the function to call when configuration reload is triggered
func (gs *GracefulServer) SetConfigReloadFunc(fn ConfigReloadFunc) {
	gs.configMu.Lock()
	defer gs.configMu.Unlock()
	gs.configReloadFn = fn
}

// ReloadConfig triggers a configuration reload
func (gs *GracefulServer) ReloadConfig() error {
	gs.configMu.RLock()
	reloadFn := gs.configReloadFn
	gs.configMu.RUnlock()

	if reloadFn == nil {
		gs.logger.Warn("configuration reload requested, but no reload function configured")
		return nil
	}

	if err := reloadFn(); err != nil {
		return err
	}
	gs.logger.Info("configuration reload complete")
	return nil
}
