package vectorstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/cinematch/internal/features"
	"github.com/timmy/cinematch/internal/logger"
	"github.com/timmy/cinematch/internal/storage"
)

// FingerprintSize is the byte length of a cache fingerprint.
const FingerprintSize = sha256.Size

var (
	// ErrCacheMiss means no usable cache object exists for the current input.
	ErrCacheMiss = errors.New("vector cache miss")
	// ErrCacheCorrupt means the cache object exists but cannot be decoded.
	ErrCacheCorrupt = errors.New("vector cache corrupt")
)

// Vectors is the row-aligned vector set for one corpus.
type Vectors struct {
	Rows        [][]float32
	Dims        int
	Fingerprint [FingerprintSize]byte
	// FromCache is true when the rows were read from the cache object.
	FromCache bool
}

func (v *Vectors) Len() int { return len(v.Rows) }

// FingerprintHex returns the fingerprint as lowercase hex.
func (v *Vectors) FingerprintHex() string { return hex.EncodeToString(v.Fingerprint[:]) }

// Options controls a Store.
type Options struct {
	// Key is the cache object key inside the backend.
	Key string
	// Force recomputes over a cache object that fails to decode instead of failing.
	Force bool
}

// Store loads vectors for a feature list, from cache when the content fingerprint matches.
type Store struct {
	backend    storage.ObjectStorage
	vectorizer Vectorizer
	opts       Options
}

func NewStore(backend storage.ObjectStorage, vectorizer Vectorizer, opts Options) (*Store, error) {
	if backend == nil || vectorizer == nil {
		return nil, errors.New("vectorstore: backend and vectorizer are required")
	}
	if opts.Key == "" {
		return nil, errors.New("vectorstore: cache key is required")
	}
	return &Store{backend: backend, vectorizer: vectorizer, opts: opts}, nil
}

// Vectorizer returns the configured vectorizer.
func (s *Store) Vectorizer() Vectorizer { return s.vectorizer }

// Fingerprint hashes everything that determines the vectors: normalization rules, vectorizer
// identity and every feature string in order.
func Fingerprint(v Vectorizer, texts []string) [FingerprintSize]byte {
	h := sha256.New()
	var n [8]byte
	writeField := func(s string) {
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}

	writeField(features.NormalizationVersion)
	writeField(v.Name())
	writeField(v.Version())
	binary.LittleEndian.PutUint64(n[:], uint64(len(texts)))
	h.Write(n[:])
	for _, t := range texts {
		writeField(t)
	}

	var out [FingerprintSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Load returns one vector per text. A cache object with the same fingerprint and shape is
// returned as is; otherwise all rows are computed and the cache object is overwritten.
// With Force set, an unreadable cache object is deleted before recomputing.
func (s *Store) Load(ctx context.Context, texts []string) (*Vectors, error) {
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent:  "vectorstore",
		logger.FieldVectorizer: s.vectorizer.Name(),
		logger.FieldCacheKey:   s.opts.Key,
	})
	fp := Fingerprint(s.vectorizer, texts)

	cached, err := s.read(ctx, fp, len(texts))
	switch {
	case err == nil:
		logger.With(logger.Fields{logger.FieldCount: cached.Len()}).Info(ctx, "Vector cache hit")
		return cached, nil
	case errors.Is(err, ErrCacheMiss):
		logger.CtxInfo(ctx, "Vector cache miss: %v", err)
	case errors.Is(err, ErrCacheCorrupt) && s.opts.Force:
		logger.CtxWarn(ctx, "Removing unreadable vector cache: %v", err)
		if err := s.backend.Delete(ctx, s.opts.Key); err != nil {
			return nil, fmt.Errorf("remove unreadable vector cache: %w", err)
		}
	default:
		return nil, err
	}

	start := time.Now()
	rows, err := s.vectorizer.Vectorize(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("vectorize %d texts: %w", len(texts), err)
	}
	v, err := newVectors(rows, len(texts), fp)
	if err != nil {
		return nil, err
	}
	logger.With(logger.Fields{logger.FieldCount: v.Len(), "dims": v.Dims}).
		WithSince(start).Info(ctx, "Vectors computed")

	if err := s.write(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func newVectors(rows [][]float32, want int, fp [FingerprintSize]byte) (*Vectors, error) {
	if len(rows) != want {
		return nil, fmt.Errorf("vectorizer returned %d rows for %d texts", len(rows), want)
	}
	dims := 0
	if len(rows) > 0 {
		dims = len(rows[0])
	}
	for i, row := range rows {
		if len(row) != dims {
			return nil, fmt.Errorf("row %d has dimension %d, expected %d", i, len(row), dims)
		}
	}
	return &Vectors{Rows: rows, Dims: dims, Fingerprint: fp}, nil
}

func (s *Store) read(ctx context.Context, fp [FingerprintSize]byte, rows int) (*Vectors, error) {
	rc, err := s.backend.Download(ctx, s.opts.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: no cache object", ErrCacheMiss)
		}
		return nil, fmt.Errorf("open vector cache: %w", err)
	}
	defer rc.Close()

	v, err := decodeVectors(rc)
	if err != nil {
		return nil, err
	}
	if v.Fingerprint != fp {
		return nil, fmt.Errorf("%w: stale fingerprint %s", ErrCacheMiss, v.FingerprintHex())
	}
	if v.Len() != rows {
		return nil, fmt.Errorf("%w: cached %d rows, corpus has %d", ErrCacheMiss, v.Len(), rows)
	}
	v.FromCache = true
	return v, nil
}

func (s *Store) write(ctx context.Context, v *Vectors) error {
	data, err := encodeVectors(v)
	if err != nil {
		return fmt.Errorf("encode vector cache: %w", err)
	}
	if err := s.backend.Upload(ctx, s.opts.Key, bytes.NewReader(data), int64(len(data)), "application/octet-stream"); err != nil {
		return fmt.Errorf("write vector cache: %w", err)
	}
	logger.With(logger.Fields{logger.FieldSize: len(data)}).Info(ctx, "Vector cache written")
	return nil
}
