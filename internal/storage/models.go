package storage

// PlaceDetails is a cached Places details answer.
type PlaceDetails struct {
	PlaceID  string
	Name     string
	Address  string
	Phone    string
	Hours    string // weekday descriptions already joined
	CachedAt int64  // Unix timestamp
}

// Translation is a cached translation of one review text.
type Translation struct {
	Target     string
	Translated string
	Provider   string
	CachedAt   int64
}
