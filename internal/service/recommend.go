package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/timmy/cinematch/internal/domain"
	"github.com/timmy/cinematch/internal/logger"
)

var (
	// ErrInvalidQuery is returned for titles without any letter or digit.
	ErrInvalidQuery = errors.New("movie title must contain letters or numbers")
	// ErrInternal wraps unexpected failures inside the engine.
	ErrInternal = errors.New("an unexpected error occurred")
)

// Recommender is the query side of Engine.
type Recommender interface {
	Recommend(title string, k int) ([]Match, error)
	Len() int
}

// HistoryStore records query attempts.
type HistoryStore interface {
	Add(ctx context.Context, title string, at time.Time) error
	Recent(ctx context.Context, limit int) ([]domain.SearchHistory, error)
	Count(ctx context.Context) (int64, error)
}

// RecommendConfig holds configuration for the recommend service.
type RecommendConfig struct {
	// HistoryLimit is how many recent searches are attached to a response.
	HistoryLimit int
}

// RecommendResponse is the result of one successful query.
type RecommendResponse struct {
	Title           string
	Recommendations []string
	Results         []Match
	History         []domain.SearchHistory
}

// Stats describes the loaded corpus.
type Stats struct {
	Movies int          `json:"movies"`
	Build  *BuildResult `json:"build,omitempty"`
}

// RecommendService is the boundary between transport and the engine: it validates input,
// records history and turns engine panics into ErrInternal.
type RecommendService struct {
	engine       Recommender
	history      HistoryStore
	build        *BuildResult
	historyLimit int
	now          func() time.Time
}

// NewRecommendService creates a new recommend service.
// Parameters:
//   - engine: built recommendation engine.
//   - history: search history store; nil disables history.
//   - build: build statistics reported by Stats; may be nil.
//   - cfg: service configuration; nil uses defaults.
//
// Returns:
//   - *RecommendService: initialized service.
func NewRecommendService(engine Recommender, history HistoryStore, build *BuildResult, cfg *RecommendConfig) *RecommendService {
	limit := 5
	if cfg != nil && cfg.HistoryLimit > 0 {
		limit = cfg.HistoryLimit
	}
	return &RecommendService{
		engine:       engine,
		history:      history,
		build:        build,
		historyLimit: limit,
		now:          time.Now,
	}
}

// ValidateTitle trims title and rejects it when it has no letter or digit.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return title, nil
		}
	}
	return "", ErrInvalidQuery
}

// Recommend validates the title, records it, and returns up to k recommendations together
// with the most recent searches.
func (s *RecommendService) Recommend(ctx context.Context, title string, k int) (*RecommendResponse, error) {
	title, err := ValidateTitle(title)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithField(ctx, logger.FieldQuery, title)
	start := time.Now()

	if s.history != nil {
		if err := s.history.Add(ctx, title, s.now()); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("Failed to record search")
		}
	}

	matches, err := s.recommend(title, k)
	if err != nil {
		status := "error"
		if errors.Is(err, ErrNotFound) {
			status = "not_found"
		}
		logger.With(logger.Fields{logger.FieldStatus: status}).WithSince(start).Warn(ctx, "Recommendation failed: %v", err)
		return nil, err
	}

	resp := &RecommendResponse{
		Title:           title,
		Recommendations: Titles(matches),
		Results:         matches,
		History:         s.recentOrEmpty(ctx, s.historyLimit),
	}
	logger.With(logger.Fields{logger.FieldStatus: "ok"}).WithCount(len(matches)).WithSince(start).
		Info(ctx, "Recommendation served")
	return resp, nil
}

func (s *RecommendService) recommend(title string, k int) (matches []Match, err error) {
	defer func() {
		if r := recover(); r != nil {
			matches = nil
			err = fmt.Errorf("%w: panic: %v", ErrInternal, r)
		}
	}()

	matches, err = s.engine.Recommend(title, k)
	if err != nil && !errors.Is(err, ErrNotFound) {
		err = fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return matches, err
}

// RecentSearches returns up to limit searches, newest first.
func (s *RecommendService) RecentSearches(ctx context.Context, limit int) ([]domain.SearchHistory, error) {
	if s.history == nil {
		return []domain.SearchHistory{}, nil
	}
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.history.Recent(ctx, limit)
}

// HistoryTotal returns how many searches have been recorded.
func (s *RecommendService) HistoryTotal(ctx context.Context) (int64, error) {
	if s.history == nil {
		return 0, nil
	}
	return s.history.Count(ctx)
}

func (s *RecommendService) recentOrEmpty(ctx context.Context, limit int) []domain.SearchHistory {
	recent, err := s.RecentSearches(ctx, limit)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Failed to load recent searches")
		return []domain.SearchHistory{}
	}
	return recent
}

// Stats reports corpus size and build details.
func (s *RecommendService) Stats() Stats {
	return Stats{Movies: s.engine.Len(), Build: s.build}
}
