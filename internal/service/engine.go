package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/timmy/cinematch/internal/domain"
	"github.com/timmy/cinematch/internal/features"
	"github.com/timmy/cinematch/internal/logger"
	"github.com/timmy/cinematch/internal/similarity"
	"github.com/timmy/cinematch/internal/vectorstore"
)

// ErrNotFound is returned when the query title does not resolve to a corpus item.
var ErrNotFound = errors.New("movie not found")

// DefaultExcludedGenres are the genre substrings removed from recommendations by default.
var DefaultExcludedGenres = []string{"animation", "family", "children"}

// Match is one recommended movie.
type Match struct {
	Title string  `json:"title"`
	Genre string  `json:"genre"`
	Score float32 `json:"score"`
	Index int     `json:"-"`
}

// Titles returns the display titles of matches in order.
func Titles(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Title
	}
	return out
}

// GenreFilter rejects candidates whose genre contains any excluded substring.
// Matching is done on normalized text, so "Sci-Fi" excludes "scifi" and vice versa.
type GenreFilter struct {
	excluded []string
}

func NewGenreFilter(excluded []string) GenreFilter {
	f := GenreFilter{excluded: make([]string, 0, len(excluded))}
	for _, e := range excluded {
		if n := features.Normalize(e); n != "" {
			f.excluded = append(f.excluded, n)
		}
	}
	return f
}

// Excludes reports whether a movie with the given genre must be skipped.
func (f GenreFilter) Excludes(genre string) bool {
	g := features.Normalize(genre)
	for _, e := range f.excluded {
		if strings.Contains(g, e) {
			return true
		}
	}
	return false
}

// Engine answers "movies similar to X" from a precomputed similarity matrix.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	corpus *features.Corpus
	matrix *similarity.Matrix
	filter GenreFilter
}

// NewEngine wires an already built corpus and matrix. Row i of the matrix must be corpus item i.
func NewEngine(corpus *features.Corpus, matrix *similarity.Matrix, filter GenreFilter) (*Engine, error) {
	if corpus == nil || matrix == nil {
		return nil, errors.New("engine: corpus and matrix are required")
	}
	if corpus.Len() != matrix.Len() {
		return nil, fmt.Errorf("engine: corpus has %d items but matrix is %dx%d", corpus.Len(), matrix.Len(), matrix.Len())
	}
	return &Engine{corpus: corpus, matrix: matrix, filter: filter}, nil
}

// BuildOptions configures BuildEngine.
type BuildOptions struct {
	ExcludedGenres []string
	// Workers bounds the similarity build; zero uses GOMAXPROCS.
	Workers int
}

// BuildResult describes what BuildEngine produced, for logging and the stats endpoint.
type BuildResult struct {
	Stats       features.ComposeStats `json:"compose"`
	Vectorizer  string                `json:"vectorizer"`
	Dims        int                   `json:"dims"`
	FromCache   bool                  `json:"from_cache"`
	Fingerprint string                `json:"fingerprint"`
}

// BuildEngine runs the whole startup pipeline: compose the corpus, load or compute the
// vectors, and build the similarity matrix. Any failure leaves no engine behind.
// Parameters:
//   - ctx: cancels vectorization and the similarity build.
//   - records: raw corpus rows in source order.
//   - store: vector store with its cache backend.
//   - opts: genre exclusion and build parallelism.
//
// Returns:
//   - *Engine: ready engine.
//   - *BuildResult: build statistics.
//   - error: non-nil if any stage fails.
func BuildEngine(ctx context.Context, records []domain.MovieRecord, store *vectorstore.Store, opts BuildOptions) (*Engine, *BuildResult, error) {
	ctx = logger.SetComponent(ctx, "engine")
	start := time.Now()

	corpus := features.Compose(records)
	logger.With(logger.Fields{
		"total":          corpus.Stats.Total,
		"dropped":        corpus.Stats.Dropped,
		"duplicates":     corpus.Stats.Duplicates,
		"crew_fallbacks": corpus.Stats.CrewFallbacks,
	}).WithCount(corpus.Len()).Info(ctx, "Corpus composed")
	if corpus.Len() == 0 {
		return nil, nil, errors.New("engine: corpus is empty after cleanup")
	}

	vectors, err := store.Load(ctx, corpus.Features())
	if err != nil {
		return nil, nil, fmt.Errorf("load vectors: %w", err)
	}

	simStart := time.Now()
	matrix, err := similarity.Build(ctx, vectors.Rows, similarity.Options{Workers: opts.Workers})
	if err != nil {
		return nil, nil, fmt.Errorf("build similarity matrix: %w", err)
	}
	logger.With(logger.Fields{"dims": vectors.Dims}).WithCount(matrix.Len()).WithSince(simStart).
		Info(ctx, "Similarity matrix built")

	excluded := opts.ExcludedGenres
	if excluded == nil {
		excluded = DefaultExcludedGenres
	}
	engine, err := NewEngine(corpus, matrix, NewGenreFilter(excluded))
	if err != nil {
		return nil, nil, err
	}

	result := &BuildResult{
		Stats:       corpus.Stats,
		Vectorizer:  store.Vectorizer().Name(),
		Dims:        vectors.Dims,
		FromCache:   vectors.FromCache,
		Fingerprint: vectors.FingerprintHex(),
	}
	logger.With(logger.Fields{"from_cache": vectors.FromCache}).WithSince(start).Info(ctx, "Recommendation engine ready")
	return engine, result, nil
}

// Len returns the number of indexed movies.
func (e *Engine) Len() int { return e.corpus.Len() }

// Recommend returns up to k movies most similar to title, best first. Ties keep corpus order.
// The query movie itself and movies with an excluded genre are skipped. k <= 0 yields no matches.
func (e *Engine) Recommend(title string, k int) ([]Match, error) {
	idx, ok := e.corpus.Lookup(title)
	if !ok {
		return nil, ErrNotFound
	}
	if k <= 0 {
		return []Match{}, nil
	}

	row := e.matrix.Row(idx)
	order := make([]int, len(row))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return row[order[a]] > row[order[b]]
	})

	matches := make([]Match, 0, k)
	for _, j := range order {
		if j == idx {
			continue
		}
		item := e.corpus.Items[j]
		if e.filter.Excludes(item.Genre) {
			continue
		}
		matches = append(matches, Match{
			Title: item.DisplayTitle,
			Genre: item.DisplayGenre,
			Score: row[j],
			Index: j,
		})
		if len(matches) == k {
			break
		}
	}
	return matches, nil
}
