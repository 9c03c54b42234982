package domain

// MovieRecord is one raw row of the movie corpus. The Has* flags distinguish a cell that was
// absent from the source row from one that was present but empty.
type MovieRecord struct {
	Title    string
	Genre    string
	Overview string
	Crew     string

	HasTitle    bool
	HasGenre    bool
	HasOverview bool
	HasCrew     bool
}

// NormalizedMovie is a corpus item after cleanup and feature composition.
type NormalizedMovie struct {
	// DisplayTitle is the raw title as it appeared in the corpus.
	DisplayTitle string
	// DisplayGenre is the raw genre text, trimmed.
	DisplayGenre string
	Title        string
	Genre        string
	Overview     string
	Cast         string
	// Features is the weighted string fed to the vectorizer.
	Features string
}
