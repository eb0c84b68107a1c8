package data

// Artist holds what we know about one performer, keyed by the name that
// appeared in an event lineup. Spotify fields are filled in by enrichment;
// an artist with no Spotify profile keeps its zero values and a Google
// search URL.
type Artist struct {
	// like "John Summit"
	Name string `gorm:"primaryKey"`

	// like "2odSgsoZewLaSLSzR1PlKr"; empty means no catalog match
	SpotifyID string

	// true iff the Spotify search found this artist
	HasProfile bool

	// up to five of the artist's top tracks, most popular first
	TopTracks []Track `gorm:"-"`

	// up to three genres, in Spotify's order
	Genres []string `gorm:"-"`

	// Spotify popularity in [0, 100], or -1 when unknown
	Popularity int

	// the artist's Spotify page when HasProfile, otherwise a Google
	// search for the name
	ProfileURL string
}

// Track pairs a track title with its Spotify ID. Titles and IDs travel
// together so they can never fall out of alignment.
type Track struct {
	Title     string
	SpotifyID string
}

// ArtistTrack persists one of an artist's top tracks. Position preserves
// the catalog's ordering.
type ArtistTrack struct {
	ArtistName string `gorm:"primaryKey"`
	Position   int    `gorm:"primaryKey"`
	Title      string
	SpotifyID  string
}

// ArtistGenre persists one of an artist's genres. Position preserves the
// catalog's ordering.
type ArtistGenre struct {
	ArtistName string `gorm:"primaryKey"`
	Position   int    `gorm:"primaryKey"`
	Genre      string
}
