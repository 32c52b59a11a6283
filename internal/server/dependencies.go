package server

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/argus-gcs/linkrunner/internal/config"
	"github.com/argus-gcs/linkrunner/internal/session"
)

// Dependencies holds the shared state the diagnostics handlers read:
// configuration, a structured logger, and the single vehicle session,
// which is constructed here and connected separately through Connect.
type Dependencies struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Vehicle *session.Vehicle

	mu sync.RWMutex
}

// NewDependencies creates a new Dependencies instance.
func NewDependencies(cfg *config.Config) *Dependencies {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Vehicle: session.New(logger),
	}
}

// SetLogger allows updating the logger, useful for testing.
func (d *Dependencies) SetLogger(logger *logrus.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Logger = logger
}

// GetLogger returns the logger, thread-safe.
func (d *Dependencies) GetLogger() *logrus.Logger {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.Logger
}

// GetVehicle returns the vehicle session handle, thread-safe.
func (d *Dependencies) GetVehicle() *session.Vehicle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.Vehicle
}
