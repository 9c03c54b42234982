package source

import (
	"context"
	"fmt"

	"github.com/timmy/cinematch/internal/domain"
)

// Source defines the interface for movie corpus sources.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	GetDisplayName() string

	// FetchBatch fetches a batch of movie records starting from the given cursor.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - cursor: pagination cursor or empty for first page.
	//   - limit: maximum number of records to fetch.
	// Returns:
	//   - records: batch of raw movie records in source order.
	//   - nextCursor: cursor for the next batch or empty if done.
	//   - err: non-nil if fetching fails.
	FetchBatch(ctx context.Context, cursor string, limit int) (records []domain.MovieRecord, nextCursor string, err error)
}

// LoadAll drains src batch by batch and returns every record in source order.
func LoadAll(ctx context.Context, src Source, batchSize int) ([]domain.MovieRecord, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	var all []domain.MovieRecord
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, next, err := src.FetchBatch(ctx, cursor, batchSize)
		if err != nil {
			return nil, fmt.Errorf("fetch %s at cursor %q: %w", src.GetSourceID(), cursor, err)
		}
		all = append(all, batch...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}
