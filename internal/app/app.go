// Package app assembles the startup pipeline shared by the API server and the precompute tool.
package app

import (
	"context"
	"fmt"

	"github.com/timmy/cinematch/internal/config"
	"github.com/timmy/cinematch/internal/domain"
	"github.com/timmy/cinematch/internal/logger"
	"github.com/timmy/cinematch/internal/service"
	"github.com/timmy/cinematch/internal/source"
	"github.com/timmy/cinematch/internal/source/csvfile"
	"github.com/timmy/cinematch/internal/storage"
	"github.com/timmy/cinematch/internal/vectorstore"
)

// RemoteStorage connects to the S3-compatible store when the corpus or the cache lives
// there, and returns nil otherwise.
func RemoteStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, error) {
	if !cfg.NeedsObjectStorage() {
		return nil, nil
	}
	s3, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	if cfg.Cache.Backend == storage.BackendS3 {
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
	}
	return s3, nil
}

// CorpusSource returns the configured movie CSV source.
func CorpusSource(cfg *config.Config, remote storage.ObjectStorage) (source.Source, error) {
	switch cfg.Corpus.Source {
	case "", storage.BackendLocal:
		return csvfile.NewFileAdapter(cfg.Corpus.Path), nil
	case storage.BackendS3:
		if remote == nil {
			return nil, fmt.Errorf("corpus source s3 requires object storage")
		}
		return csvfile.NewObjectAdapter(remote, cfg.Corpus.Key), nil
	default:
		return nil, fmt.Errorf("unknown corpus source %q", cfg.Corpus.Source)
	}
}

// VectorStore builds the vectorizer and the cache-backed store.
func VectorStore(cfg *config.Config, remote storage.ObjectStorage, force bool) (*vectorstore.Store, error) {
	vectorizer, err := vectorstore.NewVectorizer(cfg)
	if err != nil {
		return nil, err
	}
	backend, err := storage.NewBackend(cfg.Cache.Backend, cfg.Cache.Dir, remote)
	if err != nil {
		return nil, err
	}
	return vectorstore.NewStore(backend, vectorizer, vectorstore.Options{Key: cfg.Cache.Key, Force: force})
}

// LoadRecords drains the configured corpus source.
func LoadRecords(ctx context.Context, cfg *config.Config, remote storage.ObjectStorage) ([]domain.MovieRecord, error) {
	src, err := CorpusSource(cfg, remote)
	if err != nil {
		return nil, err
	}
	if cfg.Corpus.Source == storage.BackendS3 {
		ok, err := remote.Exists(ctx, cfg.Corpus.Key)
		if err != nil {
			return nil, fmt.Errorf("check corpus object: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("corpus object %q: %w", cfg.Corpus.Key, storage.ErrObjectNotFound)
		}
	}
	logger.CtxInfo(ctx, "Loading corpus from %s", src.GetDisplayName())
	return source.LoadAll(ctx, src, cfg.Corpus.BatchSize)
}

// BuildEngine runs the full startup pipeline for cfg. It blocks until the engine is ready,
// ctx is cancelled, or a stage fails.
func BuildEngine(ctx context.Context, cfg *config.Config, force bool) (*service.Engine, *service.BuildResult, error) {
	remote, err := RemoteStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	records, err := LoadRecords(ctx, cfg, remote)
	if err != nil {
		return nil, nil, err
	}
	store, err := VectorStore(cfg, remote, force)
	if err != nil {
		return nil, nil, err
	}
	return service.BuildEngine(ctx, records, store, service.BuildOptions{
		ExcludedGenres: cfg.Recommend.ExcludedGenres,
	})
}
