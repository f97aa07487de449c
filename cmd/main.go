package main

import (
	"fmt"
	"os"

	"github.com/kumarabd/gokit/logger"
	"github.com/snafflertools/consolidator/internal/config"
	"github.com/snafflertools/consolidator/internal/metrics"
	"github.com/snafflertools/consolidator/pkg/cache"
	"github.com/snafflertools/consolidator/pkg/ingest"
	"github.com/snafflertools/consolidator/pkg/query"
	"github.com/snafflertools/consolidator/pkg/server"
	"github.com/snafflertools/consolidator/pkg/store"
)

// main is the entry point of the application
func main() {
	// Initialize a new logger with the application name and syslog format
	log, err := logger.New(config.ApplicationName, logger.Options{
		Format: logger.SyslogLogFormat,
	})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	// Initialize a new configuration handler
	configHandler, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("")
		os.Exit(1)
	}

	// Initialize a new metrics handler with the application name as namespace
	metricsHandler, err := metrics.New(config.ApplicationName)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	// Initialize the parsed record store
	storeHandler, err := store.New(configHandler.Store)
	if err != nil {
		log.Error().Err(err).Msg("store initialization failed")
		os.Exit(1)
	}
	log.Info().Str("dir", storeHandler.Dir()).Msg("store initialized")

	// Initialize the ingest pipeline
	ingestHandler, err := ingest.NewHandler(configHandler.Ingest, log, metricsHandler)
	if err != nil {
		log.Error().Err(err).Msg("ingest initialization failed")
		os.Exit(1)
	}
	log.Info().Msg("ingest initialized")

	// Initialize the page cache and the query layer on top of the store
	cacheHandler, err := cache.New()
	if err != nil {
		log.Error().Err(err).Msg("cache initialization failed")
		os.Exit(1)
	}
	queryHandler := query.New(storeHandler, cacheHandler, log, metricsHandler)
	log.Info().Msg("query initialized")

	// Create server instance
	srv, err := server.New(log, metricsHandler, configHandler.Server, ingestHandler, queryHandler, storeHandler)
	if err != nil {
		log.Error().Err(err).Msg("server initialization failed")
		os.Exit(1)
	}
	log.Info().Msg("server initialized")

	// Run the server with graceful shutdown
	ch := make(chan struct{})
	srv.Start(ch)
	<-ch
	log.Info().Msg("server stopped")
}
