// Package vectorstore turns feature strings into fixed-dimension vectors and keeps the
// result in a content-keyed cache object.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/timmy/cinematch/internal/config"
)

// Vectorizer maps every input text to one vector. All returned rows share one dimension,
// and row i corresponds to texts[i].
type Vectorizer interface {
	// Name identifies the method, e.g. "tfidf" or "jina/jina-embeddings-v3".
	Name() string
	// Version changes whenever the same input would produce different vectors.
	Version() string
	Vectorize(ctx context.Context, texts []string) ([][]float32, error)
}

// NewVectorizer builds the vectorizer selected by the vectorizer section.
func NewVectorizer(cfg *config.Config) (Vectorizer, error) {
	switch cfg.Vectorizer.Method {
	case "", config.VectorizerTFIDF:
		return NewTFIDF(cfg.Vectorizer.MaxFeatures), nil
	case config.VectorizerEmbedding:
		return NewEmbeddingVectorizer(&cfg.Embedding)
	default:
		return nil, fmt.Errorf("unknown vectorizer method %q", cfg.Vectorizer.Method)
	}
}
