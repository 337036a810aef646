package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	defaultListenAddr        = ":8080"
	defaultWorkers           = 4
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 5 * time.Second
)

// Researcher is the research system served as tools, *research.Orchestrator
// implements it
type Researcher interface {
	Research(ctx context.Context, query string) string
	QuickSearch(ctx context.Context, query string) string
	HealthCheck(ctx context.Context) (string, error)
	Capabilities() string
}

type Config struct {
	Logger     *slog.Logger
	Researcher Researcher

	Version string
	// Transport is TransportStdio or TransportHTTP
	Transport         string
	ListenAddr        string
	Workers           int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Researcher == nil {
		return errors.New("researcher is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	switch c.Transport {
	case "":
		c.Transport = TransportStdio
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.Workers == 0 {
		c.Workers = defaultWorkers
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	return nil
}
