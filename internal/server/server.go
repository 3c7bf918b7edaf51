// Package server wires the monitoring service together: storage,
// notification transports, the ingestion coordinator, the optional
// MQTT source and Kafka event mirror, and the HTTP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schutz/internal/config"
	"schutz/internal/dispatch"
	"schutz/internal/events"
	"schutz/internal/handlers"
	"schutz/internal/ingest"
	"schutz/internal/logger"
	"schutz/internal/middleware"
	mqttsource "schutz/internal/mqtt"
	"schutz/internal/retention"
	"schutz/internal/storage"
)

// Server is the top-level coordinator for the monitoring service.
type Server struct {
	cfg *config.Config

	store       storage.Store
	coordinator *ingest.Coordinator
	publisher   *events.Publisher
	subscriber  *mqttsource.Subscriber
	httpServer  *http.Server

	wg sync.WaitGroup
}

// New constructs a Server with the given config.
func New(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run starts all components and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	log := logger.WithComponent("server")
	log.Info().Msg("server starting")

	if err := s.initStore(ctx); err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer s.store.Close()

	s.initCoordinator()
	if s.publisher != nil {
		defer s.publisher.Close()
	}

	if err := s.initMQTT(); err != nil {
		return fmt.Errorf("initialize mqtt source: %w", err)
	}
	if s.subscriber != nil {
		defer s.subscriber.Close()
	}

	// Retention pruner
	pruner := retention.New(s.store, s.cfg.RetentionWindow, s.cfg.PruneInterval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		pruner.Run(ctx)
	}()

	s.initHTTPServer()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info().Str("addr", s.cfg.HTTPAddr).Msg("starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	return s.shutdown()
}

// initStore selects and connects the persistence backend.
func (s *Server) initStore(ctx context.Context) error {
	log := logger.WithComponent("server")

	switch s.cfg.StorageBackend {
	case "clickhouse":
		store, err := storage.NewClickHouseStore(ctx, storage.ClickHouseConfig{
			Addr:     s.cfg.ClickHouseAddr,
			Database: s.cfg.ClickHouseDB,
			Username: s.cfg.ClickHouseUser,
			Password: s.cfg.ClickHousePass,
		})
		if err != nil {
			return err
		}
		s.store = store
	default:
		s.store = storage.NewMemoryStore(s.cfg.ReadingCapacity)
	}

	log.Info().Str("backend", s.cfg.StorageBackend).Msg("storage initialized")
	return nil
}

// initCoordinator builds the dispatch transports, the optional Kafka
// mirror and the ingestion coordinator.
func (s *Server) initCoordinator() {
	log := logger.WithComponent("server")

	dispatcher := dispatch.New(dispatch.Config{
		Mailer: dispatch.NewSMTPMailer(dispatch.SMTPConfig{
			Host:     s.cfg.SMTPHost,
			Port:     s.cfg.SMTPPort,
			Username: s.cfg.SMTPUsername,
			Password: s.cfg.SMTPPassword,
			From:     s.cfg.SMTPFrom,
			Timeout:  s.cfg.SMTPTimeout,
		}),
		Webhooks:       dispatch.NewHTTPPoster(s.cfg.WebhookTimeout),
		MaxInFlight:    s.cfg.DispatchMaxInFlight,
		AttemptTimeout: s.cfg.WebhookTimeout,
	})

	var alertEvents ingest.AlertEvents
	if len(s.cfg.KafkaBrokers) > 0 {
		publisher, err := events.NewPublisher(s.cfg.KafkaBrokers, s.cfg.KafkaAlertTopic)
		if err != nil {
			log.Error().Err(err).Msg("alert event mirror disabled")
		} else {
			s.publisher = publisher
			alertEvents = publisher
			log.Info().
				Strs("brokers", s.cfg.KafkaBrokers).
				Str("topic", s.cfg.KafkaAlertTopic).
				Msg("alert event mirror enabled")
		}
	}

	s.coordinator = ingest.New(ingest.Config{
		Store:      s.store,
		Dispatcher: dispatcher,
		Events:     alertEvents,
	})
}

// initMQTT connects the optional MQTT ingestion source.
func (s *Server) initMQTT() error {
	if s.cfg.MQTTBroker == "" {
		return nil
	}

	subscriber, err := mqttsource.NewSubscriber(mqttsource.Config{
		Broker:   s.cfg.MQTTBroker,
		ClientID: s.cfg.MQTTClientID,
		Username: s.cfg.MQTTUsername,
		Password: s.cfg.MQTTPassword,
		Topic:    s.cfg.MQTTTopic,
	}, s.coordinator)
	if err != nil {
		return err
	}
	if err := subscriber.Start(); err != nil {
		subscriber.Close()
		return err
	}

	s.subscriber = subscriber
	return nil
}

// initHTTPServer builds the HTTP surface.
func (s *Server) initHTTPServer() {
	mux := http.NewServeMux()

	mux.Handle("/api/data", middleware.Chain(
		handlers.NewIngestHandler(s.coordinator),
		middleware.Recovery,
		middleware.Logging,
	))

	rulesHandler := middleware.Chain(
		handlers.NewRulesHandler(s.store),
		middleware.Recovery,
		middleware.Logging,
		middleware.APIKey(s.cfg.APIKey),
	)
	mux.Handle("/api/rules", rulesHandler)
	mux.Handle("/api/rules/", rulesHandler)

	mux.Handle("/api/readings", middleware.Chain(
		handlers.NewReadingsHandler(s.store),
		middleware.Recovery,
		middleware.Logging,
	))

	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// shutdown stops the HTTP server first, then waits for background
// goroutines.
func (s *Server) shutdown() error {
	log := logger.WithComponent("server")
	log.Info().Msg("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	s.wg.Wait()
	log.Info().Msg("server stopped gracefully")
	return nil
}

// healthHandler reports liveness and storage reachability.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		http.Error(w, fmt.Sprintf("unhealthy: %v", err), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}
