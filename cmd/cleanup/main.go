package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MediTrack-HMS/visit-queue-service/internal/config"
	"github.com/MediTrack-HMS/visit-queue-service/internal/db"
	"github.com/MediTrack-HMS/visit-queue-service/internal/observability"
	"github.com/MediTrack-HMS/visit-queue-service/internal/queue"
)

// Standalone retention sweep for deployments that schedule cleanup as a cron
// job instead of relying on the API server's background ticker.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	observability.InitLogger("visit-queue-cleanup", cfg.Environment)
	log.Info().Dur("retention", queue.StaleAfter).Msg("queue cleanup job starting")

	database, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	queueService := queue.NewService(queue.NewRepository(database), nil, nil)

	purged, err := queueService.PurgeStale(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cleanup failed")
	}

	log.Info().Int("purged", purged).Msg("queue cleanup job finished")
}
