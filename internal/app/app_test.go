package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/timmy/cinematch/internal/config"
	"github.com/timmy/cinematch/internal/source/csvfile"
	"github.com/timmy/cinematch/internal/storage"
)

const corpusCSV = `names,genre,overview,crew
Interstellar,"Science Fiction, Drama",Astronauts travel through a wormhole in space.,"Matthew McConaughey, Anne Hathaway"
Wall-E,"Animation, Family",Astronauts travel through a wormhole in space.,Ben Burtt
Gravity,"Science Fiction, Thriller",Astronauts stranded in space.,Sandra Bullock
Heat,Crime,A detective hunts a thief.,Al Pacino
`

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "imdb_movies.csv")
	if err := os.WriteFile(path, []byte(corpusCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		Corpus:     config.CorpusConfig{Source: "local", Path: path, BatchSize: 2},
		Vectorizer: config.VectorizerConfig{Method: config.VectorizerTFIDF, MaxFeatures: 64},
		Cache:      config.CacheConfig{Backend: "local", Dir: filepath.Join(dir, "cache"), Key: "movie_vectors.bin"},
		Recommend:  config.RecommendConfig{DefaultK: 5, MaxK: 10, ExcludedGenres: []string{"animation", "family", "children"}},
	}
}

func TestBuildEngineFromLocalConfig(t *testing.T) {
	cfg := localConfig(t)

	engine, result, err := BuildEngine(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("BuildEngine() error = %v", err)
	}
	if result.FromCache || result.Stats.Indexed != 4 || result.Vectorizer != "tfidf" {
		t.Errorf("result = %+v", result)
	}

	got, err := engine.Recommend("Interstellar", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Title != "Gravity" || got[1].Title != "Heat" {
		t.Errorf("Recommend() = %+v, want Gravity then Heat", got)
	}

	if _, err := os.Stat(filepath.Join(cfg.Cache.Dir, cfg.Cache.Key)); err != nil {
		t.Errorf("cache file not written: %v", err)
	}
	_, warm, err := BuildEngine(context.Background(), cfg, false)
	if err != nil || !warm.FromCache {
		t.Errorf("second build = %+v, %v; want cache hit", warm, err)
	}
}

func TestCorpusSourceSelection(t *testing.T) {
	cfg := localConfig(t)
	src, err := CorpusSource(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*csvfile.Adapter); !ok {
		t.Errorf("CorpusSource() = %T", src)
	}

	cfg.Corpus.Source = "s3"
	if _, err := CorpusSource(cfg, nil); err == nil {
		t.Error("s3 corpus without object storage must fail")
	}
	cfg.Corpus.Source = "ftp"
	if _, err := CorpusSource(cfg, nil); err == nil {
		t.Error("unknown corpus source must fail")
	}
}

func TestRemoteStorageNotNeeded(t *testing.T) {
	remote, err := RemoteStorage(context.Background(), localConfig(t))
	if err != nil || remote != nil {
		t.Errorf("RemoteStorage() = %v, %v; want nil, nil", remote, err)
	}
}

func TestLoadRecordsFromObjectStorage(t *testing.T) {
	ctx := context.Background()
	cfg := localConfig(t)
	cfg.Corpus.Source = "s3"
	cfg.Corpus.Key = "corpus/imdb_movies.csv"

	remote, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := LoadRecords(ctx, cfg, remote); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("LoadRecords() without object error = %v, want ErrObjectNotFound", err)
	}

	if err := remote.Upload(ctx, cfg.Corpus.Key, strings.NewReader(corpusCSV), int64(len(corpusCSV)), "text/csv"); err != nil {
		t.Fatal(err)
	}
	records, err := LoadRecords(ctx, cfg, remote)
	if err != nil {
		t.Fatalf("LoadRecords() error = %v", err)
	}
	if len(records) != 4 || records[3].Title != "Heat" {
		t.Errorf("LoadRecords() = %+v", records)
	}
}
