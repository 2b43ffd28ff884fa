package music

import "sort"

// AlbumKey uniquely identifies an album within one resolution pass. The pair
// is case-sensitive; grouping never merges differently-cased names.
type AlbumKey struct {
	Artist string
	Album  string
}

// Key builds the album key for a track using its effective album artist.
func Key(t Track) AlbumKey {
	return AlbumKey{Artist: t.EffectiveAlbumArtist(), Album: t.Album}
}

// GroupByAlbum buckets tracks by album key. Tracks without an id are ignored;
// the host application cannot address them for updates.
func GroupByAlbum(tracks []Track) map[AlbumKey][]Track {
	albums := make(map[AlbumKey][]Track)
	for _, track := range tracks {
		if track.ID == "" {
			continue
		}
		key := Key(track)
		albums[key] = append(albums[key], track)
	}
	return albums
}

// SortedKeys returns album keys in a stable artist/album order, used by the
// sequential orchestrator mode for deterministic batching.
func SortedKeys(albums map[AlbumKey][]Track) []AlbumKey {
	keys := make([]AlbumKey, 0, len(albums))
	for key := range albums {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Artist != keys[j].Artist {
			return keys[i].Artist < keys[j].Artist
		}
		return keys[i].Album < keys[j].Album
	})
	return keys
}
