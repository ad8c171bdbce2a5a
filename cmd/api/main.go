package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MediTrack-HMS/visit-queue-service/internal/broadcast"
	"github.com/MediTrack-HMS/visit-queue-service/internal/config"
	"github.com/MediTrack-HMS/visit-queue-service/internal/db"
	internalhttp "github.com/MediTrack-HMS/visit-queue-service/internal/http"
	"github.com/MediTrack-HMS/visit-queue-service/internal/messaging"
	"github.com/MediTrack-HMS/visit-queue-service/internal/observability"
	"github.com/MediTrack-HMS/visit-queue-service/internal/queue"
	"github.com/MediTrack-HMS/visit-queue-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("visit-queue-service", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry first, so everything below is instrumented.
	otelProvider, err := telemetry.InitProvider(ctx, telemetry.LoadConfig())
	if err != nil {
		log.Warn().Err(err).Msg("telemetry initialization failed, continuing without it")
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("metrics initialization failed, continuing without custom metrics")
		metrics = nil
	}

	database, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	publisher, err := messaging.NewPublisher(cfg.RabbitMQ.URL)
	if err != nil {
		// Broker trouble degrades to no events rather than refusing to boot.
		log.Warn().Err(err).Msg("event publisher unavailable, continuing without events")
		publisher = nil
	}
	if publisher != nil {
		defer publisher.Close()
	}

	hub := broadcast.NewHub()

	router := internalhttp.SetupRouter(database, cfg, publisherOrNil(publisher), hub, metrics)
	handler := internalhttp.CORSMiddleware(cfg.Server.AllowedOrigins)(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go runPurgeLoop(ctx, database, publisherOrNil(publisher), metrics, cfg.PurgeEvery)

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("environment", cfg.Environment).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if otelProvider != nil {
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("telemetry shutdown failed")
		}
	}
	log.Info().Msg("server stopped")
}

// runPurgeLoop periodically removes DONE tickets older than the retention
// window so yesterday's sessions never leak into today's numbering.
func runPurgeLoop(ctx context.Context, database *sql.DB, publisher messaging.PublisherInterface, metrics *telemetry.Metrics, every time.Duration) {
	queueService := queue.NewService(queue.NewRepository(database), publisher, metrics)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := queueService.PurgeStale(ctx); err != nil {
				log.Error().Err(err).Msg("queue retention sweep failed")
			}
		}
	}
}

// publisherOrNil keeps a typed-nil *Publisher from sneaking into the
// interface value handed to the services.
func publisherOrNil(p *messaging.Publisher) messaging.PublisherInterface {
	if p == nil {
		return nil
	}
	return p
}
