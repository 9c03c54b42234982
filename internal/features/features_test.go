package features

import (
	"errors"
	"testing"

	"github.com/timmy/cinematch/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercase and trim", in: "  The Dark Knight  ", want: "the dark knight"},
		{name: "collapse whitespace", in: "a\t\tb\n\nc", want: "a b c"},
		{name: "strip punctuation", in: "Wall-E!", want: "walle"},
		{name: "punctuation between words leaves one space", in: "Mission: Impossible - Fallout", want: "mission impossible fallout"},
		{name: "digits kept", in: "2001: A Space Odyssey", want: "2001 a space odyssey"},
		{name: "non-ascii letters dropped", in: "Amélie", want: "amlie"},
		{name: "only symbols", in: "!!! ---", want: ""},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"a - b", "  Spider-Man: Into the Spider-Verse ", "ÉCOLE du monde", "x\n\t-\ty",
		"Ça va? 100%", "", "   ", "MiXeD CaSe 42",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeValue(t *testing.T) {
	if got := NormalizeValue(nil); got != "" {
		t.Errorf("NormalizeValue(nil) = %q", got)
	}
	if got := NormalizeValue(1999); got != "1999" {
		t.Errorf("NormalizeValue(1999) = %q", got)
	}
	if got := NormalizeValue("Heat!"); got != "heat" {
		t.Errorf("NormalizeValue(\"Heat!\") = %q", got)
	}
}

func TestParseContributors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		present bool
		want    string
		wantErr error
	}{
		{name: "names", raw: "Matthew McConaughey, Anne Hathaway", present: true, want: "matthew mcconaughey anne hathaway"},
		{name: "empty names dropped", raw: " ,Tom Hardy,, ", present: true, want: "tom hardy"},
		{name: "empty text", raw: "", present: true, want: ""},
		{name: "missing", raw: "", present: false, wantErr: ErrMissingContributors},
		{name: "invalid utf8", raw: "Bad\xffName", present: true, wantErr: ErrMalformedContributors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseContributors(tt.raw, tt.present)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseContributors() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseContributors() = %q, want %q", got, tt.want)
			}
			cast, fellBack := NormalizeContributors(tt.raw, tt.present)
			if cast != tt.want || fellBack != (tt.wantErr != nil) {
				t.Errorf("NormalizeContributors() = %q, %v; want %q, %v", cast, fellBack, tt.want, tt.wantErr != nil)
			}
		})
	}
}

func TestCombineFeaturesWeights(t *testing.T) {
	got := CombineFeatures("space travel", "scifi", "tom", "interstellar")
	want := "space travel scifi scifi scifi tom tom interstellar"
	if got != want {
		t.Errorf("CombineFeatures() = %q, want %q", got, want)
	}
}

func movie(title, genre, overview, crew string) domain.MovieRecord {
	return domain.MovieRecord{
		Title: title, Genre: genre, Overview: overview, Crew: crew,
		HasTitle: true, HasGenre: true, HasOverview: true, HasCrew: true,
	}
}

func TestCompose(t *testing.T) {
	noGenre := movie("No Genre", "", "plot", "x")
	noOverview := movie("No Overview", "Drama", "plot", "x")
	noOverview.HasOverview = false
	missingCrew := movie("Heat", "Crime", "Heist.", "")
	missingCrew.HasCrew = false
	badCrew := movie("Ronin", "Action", "Cars.", "Robert\xffDe Niro")

	records := []domain.MovieRecord{
		movie("Interstellar", "Sci-Fi, Drama", "A team travels through a wormhole.", "Matthew McConaughey, Anne Hathaway"),
		noGenre,
		movie("Interstellar", "Documentary", "Duplicate row.", ""),
		noOverview,
		missingCrew,
		badCrew,
		movie("Gravity", "Sci-Fi, Thriller", "Astronauts stranded.", "Sandra Bullock"),
	}

	c := Compose(records)

	if c.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", c.Len())
	}
	wantStats := ComposeStats{Total: 7, Dropped: 2, Duplicates: 1, CrewFallbacks: 2, Indexed: 4}
	if c.Stats != wantStats {
		t.Errorf("Stats = %+v, want %+v", c.Stats, wantStats)
	}

	first := c.Items[0]
	if first.DisplayTitle != "Interstellar" || first.Genre != "scifi drama" {
		t.Errorf("first item = %+v", first)
	}
	if first.Cast != "matthew mcconaughey anne hathaway" {
		t.Errorf("first cast = %q", first.Cast)
	}
	wantFeatures := "a team travels through a wormhole scifi drama scifi drama scifi drama " +
		"matthew mcconaughey anne hathaway matthew mcconaughey anne hathaway interstellar"
	if first.Features != wantFeatures {
		t.Errorf("Features = %q, want %q", first.Features, wantFeatures)
	}

	for title, want := range map[string]int{"INTERSTELLAR": 0, "heat": 1, "Ronin!": 2, " gravity ": 3} {
		idx, ok := c.Lookup(title)
		if !ok || idx != want {
			t.Errorf("Lookup(%q) = %d, %v; want %d", title, idx, ok, want)
		}
	}
	if _, ok := c.Lookup("No Genre"); ok {
		t.Error("dropped record must not be indexed")
	}
	if c.Items[1].Cast != "" || c.Items[2].Cast != "" {
		t.Error("missing or malformed crew must fall back to empty cast")
	}
	if got := c.Features(); len(got) != 4 || got[3] != c.Items[3].Features {
		t.Errorf("Features() = %v", got)
	}
}

func TestComposeDuplicateOfIncompleteRowIsDropped(t *testing.T) {
	incomplete := movie("Heat", "Crime", "", "Al Pacino")
	incomplete.HasOverview = false

	c := Compose([]domain.MovieRecord{
		incomplete,
		movie("Heat", "Crime", "A detective hunts a thief.", "Al Pacino"),
		movie("Ronin", "Action", "Mercenaries chase a case.", "Robert De Niro"),
	})

	if c.Len() != 1 || c.Items[0].DisplayTitle != "Ronin" {
		t.Fatalf("Items = %+v, want only Ronin", c.Items)
	}
	if _, ok := c.Lookup("Heat"); ok {
		t.Error("title whose first row is incomplete must not be indexed")
	}
	wantStats := ComposeStats{Total: 3, Dropped: 1, Duplicates: 1, Indexed: 1}
	if c.Stats != wantStats {
		t.Errorf("Stats = %+v, want %+v", c.Stats, wantStats)
	}
}

func TestComposeNormalizedTitleCollisionKeepsFirst(t *testing.T) {
	c := Compose([]domain.MovieRecord{
		movie("Wall-E", "Animation", "Robot.", ""),
		movie("WallE", "Drama", "Different film.", ""),
	})
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (raw titles differ)", c.Len())
	}
	if idx, _ := c.Lookup("walle"); idx != 0 {
		t.Errorf("Lookup(walle) = %d, want 0", idx)
	}
}
