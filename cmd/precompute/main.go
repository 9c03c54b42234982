package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/cinematch/internal/app"
	"github.com/timmy/cinematch/internal/config"
	"github.com/timmy/cinematch/internal/features"
	"github.com/timmy/cinematch/internal/logger"
	"github.com/timmy/cinematch/internal/repository"
	"github.com/timmy/cinematch/internal/vectorstore"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "cinematch-precompute",
	})
	logger.SetDefaultLogger(appLogger)

	configPath := flag.String("config", "", "Path to config file")
	force := flag.Bool("force", false, "Recompute over an unreadable vector cache instead of failing")
	publish := flag.Bool("publish", false, "Upsert the vectors into the configured Qdrant collection")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	start := time.Now()

	remote, err := app.RemoteStorage(ctx, cfg)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}
	records, err := app.LoadRecords(ctx, cfg, remote)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load corpus")
	}
	store, err := app.VectorStore(cfg, remote, *force)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize vector store")
	}

	corpus := features.Compose(records)
	vectors, err := store.Load(ctx, corpus.Features())
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to compute vectors")
	}

	appLogger.WithFields(logger.Fields{
		"total":       corpus.Stats.Total,
		"indexed":     corpus.Stats.Indexed,
		"dropped":     corpus.Stats.Dropped,
		"duplicates":  corpus.Stats.Duplicates,
		"from_cache":  vectors.FromCache,
		"dims":        vectors.Dims,
		"fingerprint": vectors.FingerprintHex(),
	}).Info("Vector cache ready")

	if *publish {
		written, err := publishVectors(ctx, cfg, corpus, vectors)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to publish vectors")
		}
		appLogger.WithFields(logger.Fields{
			logger.FieldCount: written,
			"collection":      cfg.Qdrant.Collection,
		}).Info("Vectors published")
	}

	appLogger.WithField(logger.FieldDurationMs, time.Since(start).Milliseconds()).Info("Precompute completed")
}

func publishVectors(ctx context.Context, cfg *config.Config, corpus *features.Corpus, vectors *vectorstore.Vectors) (int, error) {
	qdrantRepo, err := repository.NewQdrantRepository(&repository.QdrantConnectionConfig{
		Host:            cfg.Qdrant.Host,
		Port:            cfg.Qdrant.Port,
		Collection:      cfg.Qdrant.Collection,
		APIKey:          cfg.Qdrant.APIKey,
		UseTLS:          cfg.Qdrant.UseTLS,
		VectorDimension: vectors.Dims,
		BatchSize:       cfg.Qdrant.BatchSize,
	})
	if err != nil {
		return 0, err
	}
	defer qdrantRepo.Close()

	if err := qdrantRepo.EnsureCollection(ctx); err != nil {
		return 0, err
	}

	points := make([]repository.MoviePoint, 0, corpus.Len())
	skipped := 0
	for i, item := range corpus.Items {
		if isZero(vectors.Rows[i]) {
			// cosine distance is undefined for zero vectors
			skipped++
			continue
		}
		points = append(points, repository.MoviePoint{
			Row:    i,
			Title:  item.DisplayTitle,
			Genre:  item.DisplayGenre,
			Vector: vectors.Rows[i],
		})
	}
	if skipped > 0 {
		logger.CtxWarn(ctx, "Skipping %d movies with empty vectors", skipped)
	}

	fingerprint := vectors.FingerprintHex()
	written, err := qdrantRepo.UpsertMovies(ctx, fingerprint, points)
	if err != nil {
		return written, err
	}
	return written, qdrantRepo.DeleteStale(ctx, fingerprint)
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
