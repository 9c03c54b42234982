package csvfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/timmy/cinematch/internal/source"
	"github.com/timmy/cinematch/internal/storage"
)

const imdbSample = "\ufeffnames,date_x,score,genre,overview,crew\n" +
	"Interstellar,11/05/2014,84,\"Science Fiction, Drama\",A team travels through a wormhole.,\"Matthew McConaughey, Cooper\"\n" +
	"Heat,12/15/1995,79,Crime,A detective hunts a thief.,\n" +
	"Short Row,01/01/2000,50,Drama\n"

func TestParseHeaderAliasesAndShortRows(t *testing.T) {
	records, err := Parse(strings.NewReader(imdbSample))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Parse() returned %d records, want 3", len(records))
	}

	first := records[0]
	if first.Title != "Interstellar" || first.Genre != "Science Fiction, Drama" || !first.HasCrew {
		t.Errorf("first = %+v", first)
	}
	if heat := records[1]; !heat.HasCrew || heat.Crew != "" {
		t.Errorf("empty crew cell must be present and empty: %+v", heat)
	}
	short := records[2]
	if !short.HasGenre || short.HasOverview || short.HasCrew {
		t.Errorf("short row presence = %+v", short)
	}
}

func TestParseAlternateHeaders(t *testing.T) {
	records, err := Parse(strings.NewReader("Title,Genres,Overview\nHeat,Crime,Heist\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 || records[0].Title != "Heat" || records[0].HasCrew {
		t.Errorf("records = %+v", records)
	}
}

func TestParseMissingRequiredColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("names,crew\nHeat,Al Pacino\n"))
	if err == nil || !strings.Contains(err.Error(), "genre, overview") {
		t.Errorf("Parse() error = %v, want missing genre, overview", err)
	}
	if _, err := Parse(strings.NewReader("")); err == nil {
		t.Error("Parse(empty) must fail")
	}
}

func TestFileAdapterPaging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	if err := os.WriteFile(path, []byte(imdbSample), 0o644); err != nil {
		t.Fatal(err)
	}
	a := NewFileAdapter(path)

	batch, next, err := a.FetchBatch(context.Background(), "", 2)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(batch) != 2 || next != "2" {
		t.Fatalf("first batch = %d records, next %q", len(batch), next)
	}
	batch, next, err = a.FetchBatch(context.Background(), next, 2)
	if err != nil || len(batch) != 1 || next != "" {
		t.Fatalf("second batch = %d records, next %q, err %v", len(batch), next, err)
	}
	if _, _, err := a.FetchBatch(context.Background(), "x", 2); err == nil {
		t.Error("invalid cursor must fail")
	}

	all, err := source.LoadAll(context.Background(), NewFileAdapter(path), 1)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(all) != 3 || all[2].Title != "Short Row" {
		t.Errorf("LoadAll() = %+v", all)
	}
}

func TestObjectAdapter(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	data := []byte(imdbSample)
	if err := store.Upload(ctx, "corpus/imdb_movies.csv", bytes.NewReader(data), int64(len(data)), "text/csv"); err != nil {
		t.Fatal(err)
	}

	all, err := source.LoadAll(ctx, NewObjectAdapter(store, "corpus/imdb_movies.csv"), 100)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("LoadAll() returned %d records", len(all))
	}

	if _, err := source.LoadAll(ctx, NewObjectAdapter(store, "missing.csv"), 100); err == nil {
		t.Error("missing object must fail")
	}
}
