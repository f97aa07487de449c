package config

import (
	"fmt"
	"time"

	config_pkg "github.com/kumarabd/gokit/config"
	"github.com/snafflertools/consolidator/internal/metrics"
	"github.com/snafflertools/consolidator/pkg/ingest"
	"github.com/snafflertools/consolidator/pkg/server"
	"github.com/snafflertools/consolidator/pkg/store"
)

var (
	ApplicationName    = "snaffler-consolidator"
	ApplicationVersion = "dev"
)

type Config struct {
	Server  *server.Config   `json:"server,omitempty" yaml:"server,omitempty"`
	Ingest  *ingest.Config   `json:"ingest" yaml:"ingest"`
	Store   *store.Config    `json:"store" yaml:"store"`
	Metrics *metrics.Options `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// New creates a new config instance
func New() (*Config, error) {
	// Create default config object
	configObject := &Config{
		Server: &server.Config{
			HTTP: &server.HTTPConfig{
				Host: "0.0.0.0",
				Port: "8080",
				// Uploads and the parse event stream run for the
				// duration of the ingest; no read/write deadline.
				ReadTimeout:    0,
				WriteTimeout:   0,
				IdleTimeout:    60 * time.Second,
				MaxUploadBytes: 500 * 1024 * 1024,
			},
		},
		Ingest: &ingest.Config{
			ReadBufferBytes: 65536, // 64KB line reader buffer
			SampleLines:     50,    // lines shown by the debug sampler
		},
		Store: &store.Config{
			Dir: "", // empty means a fresh temporary directory
		},
		Metrics: &metrics.Options{},
	}

	// Load config using gokit config package
	finalConfig, err := config_pkg.New(configObject)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Safe type assertion
	if finalConfig == nil {
		return nil, fmt.Errorf("config is nil")
	}

	cfg, ok := finalConfig.(*Config)
	if !ok {
		return nil, fmt.Errorf("config type assertion failed: expected *Config, got %T", finalConfig)
	}

	return cfg, nil
}
