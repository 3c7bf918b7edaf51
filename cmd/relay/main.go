package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"schutz/internal/alertlog"
	"schutz/internal/logger"
	"schutz/internal/middleware"
	"schutz/internal/relay"
)

func main() {
	logger.Init(getEnv("LOG_LEVEL", "info"))
	log := logger.WithComponent("relay")

	addr := getEnv("RELAY_ADDR", ":5000")
	capacity, _ := strconv.Atoi(getEnv("RELAY_CAPACITY", "50"))

	alerts := alertlog.New(capacity)
	handler := relay.NewHandler(alerts)

	mux := http.NewServeMux()
	handler.Register(mux)

	srv := &http.Server{
		Addr:         addr,
		Handler:      middleware.Chain(mux, middleware.Recovery, middleware.Logging),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Int("capacity", capacity).Msg("relay listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("relay server error")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
