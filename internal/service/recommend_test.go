package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/timmy/cinematch/internal/domain"
)

type fakeHistory struct {
	added   []string
	addErr  error
	entries []domain.SearchHistory
}

func (f *fakeHistory) Add(_ context.Context, title string, at time.Time) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, title)
	f.entries = append([]domain.SearchHistory{{ID: uint(len(f.added)), Title: title, SearchedAt: at}}, f.entries...)
	return nil
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]domain.SearchHistory, error) {
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return f.entries[:limit], nil
}

func (f *fakeHistory) Count(context.Context) (int64, error) {
	return int64(len(f.entries)), nil
}

type panickingEngine struct{}

func (panickingEngine) Recommend(string, int) ([]Match, error) { panic("index out of range") }
func (panickingEngine) Len() int                               { return 0 }

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "  Heat ", want: "Heat"},
		{in: "2012", want: "2012"},
		{in: "Amélie", want: "Amélie"},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "?!-", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ValidateTitle(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("ValidateTitle(%q) error = %v, want ErrInvalidQuery", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ValidateTitle(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestRecommendServiceRecordsHistory(t *testing.T) {
	history := &fakeHistory{}
	svc := NewRecommendService(buildTestEngine(t, sampleRecords()), history, nil, &RecommendConfig{HistoryLimit: 2})
	ctx := context.Background()

	if _, err := svc.Recommend(ctx, "Gravity", 3); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Recommend(ctx, "Unknown Movie", 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Recommend(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Recommend(ctx, "---", 3); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("Recommend(---) error = %v, want ErrInvalidQuery", err)
	}

	resp, err := svc.Recommend(ctx, " Heat ", 3)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Title != "Heat" || len(resp.Recommendations) != len(resp.Results) {
		t.Errorf("response = %+v", resp)
	}
	// invalid queries are not recorded; not-found ones are
	if want := []string{"Gravity", "Unknown Movie", "Heat"}; !reflect.DeepEqual(history.added, want) {
		t.Errorf("history = %v, want %v", history.added, want)
	}
	if len(resp.History) != 2 || resp.History[0].Title != "Heat" {
		t.Errorf("resp.History = %+v", resp.History)
	}
}

func TestRecommendServiceHistoryFailureIsNotFatal(t *testing.T) {
	svc := NewRecommendService(buildTestEngine(t, sampleRecords()), &fakeHistory{addErr: errors.New("disk full")}, nil, nil)
	resp, err := svc.Recommend(context.Background(), "Interstellar", 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Recommendations) == 0 {
		t.Error("expected recommendations")
	}
}

func TestRecommendServiceRecoversPanics(t *testing.T) {
	svc := NewRecommendService(panickingEngine{}, nil, nil, nil)
	resp, err := svc.Recommend(context.Background(), "Heat", 5)
	if !errors.Is(err, ErrInternal) || resp != nil {
		t.Errorf("Recommend() = %v, %v; want ErrInternal", resp, err)
	}
}

func TestRecommendServiceStats(t *testing.T) {
	build := &BuildResult{Vectorizer: "tfidf"}
	svc := NewRecommendService(buildTestEngine(t, sampleRecords()), nil, build, nil)
	stats := svc.Stats()
	if stats.Movies != 6 || stats.Build != build {
		t.Errorf("Stats() = %+v", stats)
	}
	recent, err := svc.RecentSearches(context.Background(), 5)
	if err != nil || len(recent) != 0 {
		t.Errorf("RecentSearches() without history = %v, %v", recent, err)
	}
}
