package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"yearfix/internal/bridge"
	"yearfix/internal/logging"
	"yearfix/internal/music"
	"yearfix/internal/pending"
	"yearfix/internal/resolve"
	"yearfix/internal/yearcache"
)

// trackDocument is the JSON shape of a library export fed to `yearfix run`.
type trackDocument struct {
	ID          string `json:"id"`
	Artist      string `json:"artist"`
	AlbumArtist string `json:"album_artist"`
	Album       string `json:"album"`
	Year        string `json:"year"`
	ReleaseYear string `json:"release_year"`
	Status      string `json:"status"`
}

func newRunCommand(app *appContext) *cobra.Command {
	var (
		tracksPath string
		lookupCmd  string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve release years for every album in a library export",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			tracks, err := loadTracks(tracksPath)
			if err != nil {
				return err
			}

			if err := app.cfg.EnsureDirectories(); err != nil {
				return err
			}

			// The pending store assumes a single writer; refuse to run two
			// passes against the same state directory.
			lock := flock.New(filepath.Join(app.cfg.Paths.StateDir, "yearfix.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire state lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another yearfix run holds %s", lock.Path())
			}
			defer func() { _ = lock.Unlock() }()

			store, err := pending.Open(app.cfg, app.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			cache := yearcache.New(filepath.Join(app.cfg.Paths.StateDir, "yearcache.json"), app.logger)

			var trackUpdater bridge.TrackUpdater = bridge.NewOSAScriptUpdater()
			if dryRun {
				trackUpdater = noopUpdater{}
			}
			var lookup bridge.AlbumLookup
			if lookupCmd != "" {
				lookup = &bridge.ScriptLookup{Command: lookupCmd}
			}

			service := resolve.New(app.cfg, store, cache, lookup, trackUpdater, app.logger)
			summary := service.Run(ctx, tracks)

			app.logger.Info("run complete",
				logging.Int("albums", summary.Albums),
				logging.Int("updated", summary.Updated),
				logging.Int("pending", summary.Pending),
				logging.Int("tracks_updated", summary.TracksUpdated),
				logging.Int("tracks_failed", summary.TracksFailed))
			return nil
		},
	}

	cmd.Flags().StringVar(&tracksPath, "tracks", "", "path to library export JSON (required)")
	cmd.Flags().StringVar(&lookupCmd, "lookup-cmd", "", "external command answering album year lookups")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve without writing years back")
	_ = cmd.MarkFlagRequired("tracks")
	return cmd
}

func loadTracks(path string) ([]music.Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tracks: %w", err)
	}
	var docs []trackDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse tracks: %w", err)
	}
	tracks := make([]music.Track, 0, len(docs))
	for _, doc := range docs {
		tracks = append(tracks, music.Track{
			ID:          doc.ID,
			Artist:      doc.Artist,
			AlbumArtist: doc.AlbumArtist,
			Album:       doc.Album,
			Year:        doc.Year,
			ReleaseYear: doc.ReleaseYear,
			Status:      music.Status(doc.Status),
		})
	}
	return tracks, nil
}

// noopUpdater satisfies the updater contract for dry runs.
type noopUpdater struct{}

func (noopUpdater) UpdateTrackYear(ctx context.Context, trackID, year string) (bool, error) {
	return true, nil
}
