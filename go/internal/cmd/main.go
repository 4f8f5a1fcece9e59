package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/quizbuzz/go/internal/dbconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rules := loadGameRules()

	pool, err := setupDatabase(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup database")
	}
	defer pool.Close()

	services := setupServices(pool, rules)

	// Broadcast fan-out runs on its own goroutine so room loops never block
	// on slow sockets.
	go services.Connections.Start(ctx)

	relay, publisher, err := setupRelay(services, dbconfig.NewConfigFromEnv().DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup outcome relay")
	}
	if relay != nil {
		defer publisher.Close()
		go func() {
			if err := relay.Start(ctx); err != nil {
				log.Error().Err(err).Msg("outcome relay failed")
			}
		}()
	}

	server := setupServer(services)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// Stop the room loops, then the fan-out goroutine.
	services.Rooms.Shutdown()
	cancel()

	log.Info().Msg("shutdown complete")
}
