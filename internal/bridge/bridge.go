// Package bridge declares the contracts the year resolution engine consumes
// from the outside world: the host music application's track mutator, the
// external metadata lookup, and the year cache. The engine only ever sees
// these interfaces; implementations live at the edges.
package bridge

import "context"

// TrackUpdater mutates one track's year in the host application. The bool
// result distinguishes an explicit refusal from a transport failure.
type TrackUpdater interface {
	UpdateTrackYear(ctx context.Context, trackID, year string) (bool, error)
}

// Lookup is the answer from the external metadata sources. Definitive means
// the provider-side scoring considers the year high-confidence, which lets
// it bypass fallback scrutiny.
type Lookup struct {
	Year       string
	Definitive bool
}

// AlbumLookup queries the external metadata providers. An empty Year means
// no provider knew the album.
type AlbumLookup interface {
	LookupAlbumYear(ctx context.Context, artist, album string) (Lookup, error)
}

// YearCache is the read-through/write-through cache contract. The engine
// owns no eviction policy.
type YearCache interface {
	GetCachedYear(artist, album string) (string, bool)
	StoreCachedYear(artist, album, year string) error
}
