package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schutz/internal/config"
	"schutz/internal/logger"
	"schutz/internal/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	srv := server.New(cfg)

	// run server in background
	go func() {
		if err := srv.Run(ctx); err != nil {
			logger.Logger.Error().Err(err).Msg("server exited")
			cancel()
		}
	}()

	// wait for termination signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		logger.Logger.Info().Msg("shutting down")
		cancel()
	case <-ctx.Done():
	}

	// give graceful shutdown some time
	time.Sleep(500 * time.Millisecond)
	logger.Logger.Info().Msg("exited")
}
