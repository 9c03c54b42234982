package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/timmy/cinematch/internal/domain"
)

// HistoryRepository handles search history persistence.
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Add records one query attempt.
func (r *HistoryRepository) Add(ctx context.Context, title string, at time.Time) error {
	entry := &domain.SearchHistory{Title: title, SearchedAt: at}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("insert search history: %w", err)
	}
	return nil
}

// Recent returns up to limit searches, newest first.
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]domain.SearchHistory, error) {
	var entries []domain.SearchHistory
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list search history: %w", err)
	}
	return entries, nil
}

// Count returns the number of recorded searches.
func (r *HistoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.SearchHistory{}).Count(&count).Error
	return count, err
}
