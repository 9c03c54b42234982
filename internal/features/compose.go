package features

import (
	"strings"

	"github.com/timmy/cinematch/internal/domain"
)

// Feature weights: how many times each field is repeated in the combined string.
const (
	OverviewWeight = 1
	GenreWeight    = 3
	CastWeight     = 2
	TitleWeight    = 1
)

// ComposeStats counts what Compose did to the raw rows.
type ComposeStats struct {
	Total         int `json:"total"`
	Dropped       int `json:"dropped"`
	Duplicates    int `json:"duplicates"`
	CrewFallbacks int `json:"crew_fallbacks"`
	Indexed       int `json:"indexed"`
}

// Corpus is the immutable, indexed movie set. Row i of every derived structure
// (vectors, similarity matrix) refers to Items[i].
type Corpus struct {
	Items []domain.NormalizedMovie
	Stats ComposeStats

	titleIndex map[string]int
}

// Compose removes duplicate titles (first row wins, even when that row is then dropped),
// drops incomplete rows, normalizes every field and builds the weighted feature strings
// and the title index.
func Compose(records []domain.MovieRecord) *Corpus {
	c := &Corpus{
		Items:      make([]domain.NormalizedMovie, 0, len(records)),
		titleIndex: make(map[string]int, len(records)),
	}
	c.Stats.Total = len(records)

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.Title]; dup {
			c.Stats.Duplicates++
			continue
		}
		seen[rec.Title] = struct{}{}
		if !hasRequired(rec) {
			c.Stats.Dropped++
			continue
		}

		cast, fellBack := NormalizeContributors(rec.Crew, rec.HasCrew)
		if fellBack {
			c.Stats.CrewFallbacks++
		}

		item := domain.NormalizedMovie{
			DisplayTitle: rec.Title,
			DisplayGenre: strings.TrimSpace(rec.Genre),
			Title:        Normalize(rec.Title),
			Genre:        Normalize(rec.Genre),
			Overview:     Normalize(rec.Overview),
			Cast:         cast,
		}
		item.Features = CombineFeatures(item.Overview, item.Genre, item.Cast, item.Title)

		idx := len(c.Items)
		if _, taken := c.titleIndex[item.Title]; !taken && item.Title != "" {
			c.titleIndex[item.Title] = idx
		}
		c.Items = append(c.Items, item)
	}
	c.Stats.Indexed = len(c.Items)

	return c
}

// CombineFeatures builds overview + genre×3 + cast×2 + title, each repetition followed by a
// single space except the trailing title.
func CombineFeatures(overview, genre, cast, title string) string {
	var b strings.Builder
	b.Grow((len(overview)+1)*OverviewWeight + (len(genre)+1)*GenreWeight + (len(cast)+1)*CastWeight + len(title)*TitleWeight)

	repeat := func(s string, n int) {
		for i := 0; i < n; i++ {
			b.WriteString(s)
			b.WriteByte(' ')
		}
	}
	repeat(overview, OverviewWeight)
	repeat(genre, GenreWeight)
	repeat(cast, CastWeight)
	b.WriteString(title)
	return b.String()
}

func hasRequired(rec domain.MovieRecord) bool {
	return rec.HasTitle && strings.TrimSpace(rec.Title) != "" &&
		rec.HasGenre && strings.TrimSpace(rec.Genre) != "" &&
		rec.HasOverview && strings.TrimSpace(rec.Overview) != ""
}

// Len returns the number of indexed items.
func (c *Corpus) Len() int {
	return len(c.Items)
}

// Lookup normalizes title and resolves it to a row index.
func (c *Corpus) Lookup(title string) (int, bool) {
	idx, ok := c.titleIndex[Normalize(title)]
	return idx, ok
}

// Features returns the combined feature strings in row order.
func (c *Corpus) Features() []string {
	out := make([]string, len(c.Items))
	for i, item := range c.Items {
		out[i] = item.Features
	}
	return out
}
