package server

import (
	"github.com/kumarabd/gokit/logger"
	"github.com/snafflertools/consolidator/internal/metrics"
	"github.com/snafflertools/consolidator/pkg/ingest"
	"github.com/snafflertools/consolidator/pkg/query"
	"github.com/snafflertools/consolidator/pkg/store"
)

// Config contains configuration for all server types
type Config struct {
	HTTP *HTTPConfig `json:"http" yaml:"http"`
}

// Handler owns the transport surfaces of the service
type Handler struct {
	HTTP   *HTTP
	config *Config
	log    *logger.Handler
}

// New creates a new server handler
func New(l *logger.Handler, m *metrics.Handler, serverConfig *Config, in *ingest.Handler, q *query.Handler, st *store.Store) (*Handler, error) {
	var httpServer *HTTP
	if serverConfig.HTTP != nil {
		httpServer = NewHTTP(serverConfig.HTTP, in, q, st, l, m)
	}

	return &Handler{
		HTTP:   httpServer,
		config: serverConfig,
		log:    l,
	}, nil
}

// Start starts the server
func (h *Handler) Start(ch chan struct{}) {
	if h.HTTP != nil {
		go func() {
			if err := h.HTTP.Start(); err != nil {
				h.log.Error().Err(err).Msg("HTTP server failed")
			}
			ch <- struct{}{}
		}()
	}
}
