// Package csvfile reads the movie corpus from a CSV file on disk or in object storage.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/timmy/cinematch/internal/domain"
	"github.com/timmy/cinematch/internal/storage"
)

// Accepted header names per field, compared case-insensitively.
var (
	titleHeaders    = []string{"title", "names", "name"}
	genreHeaders    = []string{"genre", "genres"}
	overviewHeaders = []string{"overview"}
	crewHeaders     = []string{"crew", "cast"}
)

type columns struct {
	title, genre, overview, crew int
}

// Adapter implements source.Source for a CSV corpus. The file is parsed once, on the
// first FetchBatch call, and then paged by row offset.
type Adapter struct {
	sourceID string
	location string
	open     func(ctx context.Context) (io.ReadCloser, error)

	records []domain.MovieRecord
	loaded  bool
}

// NewFileAdapter reads the CSV at path.
func NewFileAdapter(path string) *Adapter {
	return &Adapter{
		sourceID: "csv:" + path,
		location: path,
		open: func(ctx context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// NewObjectAdapter reads the CSV stored under key.
func NewObjectAdapter(store storage.ObjectStorage, key string) *Adapter {
	return &Adapter{
		sourceID: "csv-object:" + key,
		location: key,
		open: func(ctx context.Context) (io.ReadCloser, error) {
			return store.Download(ctx, key)
		},
	}
}

func (a *Adapter) GetSourceID() string { return a.sourceID }

func (a *Adapter) GetDisplayName() string {
	return fmt.Sprintf("Movie CSV (%s)", a.location)
}

// FetchBatch returns up to limit records starting at the row offset in cursor.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]domain.MovieRecord, string, error) {
	if !a.loaded {
		if err := a.load(ctx); err != nil {
			return nil, "", fmt.Errorf("failed to load movie csv: %w", err)
		}
		a.loaded = true
	}

	start := 0
	if cursor != "" {
		var err error
		start, err = strconv.Atoi(cursor)
		if err != nil || start < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q", cursor)
		}
	}
	if start >= len(a.records) {
		return []domain.MovieRecord{}, "", nil
	}
	if limit <= 0 {
		limit = len(a.records)
	}

	end := start + limit
	if end > len(a.records) {
		end = len(a.records)
	}
	next := ""
	if end < len(a.records) {
		next = strconv.Itoa(end)
	}
	return a.records[start:end], next, nil
}

func (a *Adapter) load(ctx context.Context) error {
	rc, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	records, err := Parse(rc)
	if err != nil {
		return err
	}
	a.records = records
	return nil
}

// Parse reads every data row of a movie CSV. Rows shorter than the header mark the
// missing cells as absent.
func Parse(r io.Reader) ([]domain.MovieRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var records []domain.MovieRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+2, err)
		}

		var rec domain.MovieRecord
		rec.Title, rec.HasTitle = cell(row, cols.title)
		rec.Genre, rec.HasGenre = cell(row, cols.genre)
		rec.Overview, rec.HasOverview = cell(row, cols.overview)
		rec.Crew, rec.HasCrew = cell(row, cols.crew)
		records = append(records, rec)
	}
	return records, nil
}

func resolveColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	find := func(names []string) int {
		for _, n := range names {
			if i, ok := index[n]; ok {
				return i
			}
		}
		return -1
	}

	cols := columns{
		title:    find(titleHeaders),
		genre:    find(genreHeaders),
		overview: find(overviewHeaders),
		crew:     find(crewHeaders),
	}
	var missing []string
	if cols.title < 0 {
		missing = append(missing, "title")
	}
	if cols.genre < 0 {
		missing = append(missing, "genre")
	}
	if cols.overview < 0 {
		missing = append(missing, "overview")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("csv header lacks required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func cell(row []string, i int) (string, bool) {
	if i < 0 || i >= len(row) {
		return "", false
	}
	return row[i], true
}
