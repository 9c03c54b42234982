package domain

import "time"

// HistoryTimeLayout is the display layout for search timestamps, e.g. "Sep 29, 2025 20:45".
const HistoryTimeLayout = "Jan 02, 2006 15:04"

// SearchHistory is one recorded recommendation query.
type SearchHistory struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title      string    `gorm:"type:text;not null" json:"title"`
	SearchedAt time.Time `gorm:"not null;index:idx_search_history_searched_at" json:"searched_at"`
}

// TableName returns the database table name for SearchHistory.
func (SearchHistory) TableName() string {
	return "search_history"
}

// DisplayTime formats the search timestamp for listing.
func (h SearchHistory) DisplayTime() string {
	return h.SearchedAt.Format(HistoryTimeLayout)
}
