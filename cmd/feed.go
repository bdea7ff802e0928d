package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunefeed/internal/formatter"
	"github.com/desertthunder/tunefeed/internal/services"
	"github.com/desertthunder/tunefeed/internal/shared"
	"github.com/urfave/cli/v3"
)

// FeedList prints one page of the feed.
func (r *Runner) FeedList(ctx context.Context, cmd *cli.Command) error {
	page := int(cmd.Int("page"))

	songPage, err := r.catalog.Songs(ctx, page)
	if err != nil {
		return fmt.Errorf("failed to fetch feed page: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(songPage, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Feed page %d of %d", songPage.Page, songPage.TotalPages))
	for i, track := range songPage.Items {
		r.writePlain("%2d. %s — %s (%s)\n", i+1, track.Title, track.ArtistName, shared.FormatDuration(track.Duration))
	}
	if songPage.HasNextPage {
		r.writePlain("\nRun with --page %d for more.\n", songPage.Page+1)
	}
	return nil
}

// FeedSections prints the curated home sections.
func (r *Runner) FeedSections(ctx context.Context, cmd *cli.Command) error {
	sections, err := r.catalog.Sections(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch sections: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(sections, cmd.Bool("pretty"))
	}

	for _, section := range sections {
		r.writePlainHeader(section.Title)
		for _, track := range section.Tracks {
			r.writePlain("  %s — %s\n", track.Title, track.ArtistName)
		}
	}
	return nil
}

// FeedArtist prints every song by one artist.
func (r *Runner) FeedArtist(ctx context.Context, cmd *cli.Command) error {
	artistID := int(cmd.Int("id"))
	if artistID <= 0 {
		return fmt.Errorf("%w: --id is required", shared.ErrMissingArgument)
	}

	tracks, err := r.catalog.ArtistSongs(ctx, artistID)
	if err != nil {
		return fmt.Errorf("failed to fetch artist songs: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	for _, track := range tracks {
		r.writePlain("%s — %s (%s plays)\n", track.Title, track.ArtistName, shared.FormatCount(track.PlayCount))
	}
	return nil
}

// FeedExport writes the first N feed pages to a playlist file.
func (r *Runner) FeedExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	pages := int(cmd.Int("pages"))
	if pages < 1 {
		pages = 1
	}

	var tracks []services.Track
	for page := 1; page <= pages; page++ {
		songPage, err := r.catalog.Songs(ctx, page)
		if err != nil {
			return fmt.Errorf("failed to fetch feed page %d: %w", page, err)
		}
		tracks = append(tracks, songPage.Items...)
		if !songPage.HasNextPage {
			break
		}
	}

	path, err := formatter.WriteQueueExport(cmd.String("output"), tracks, format)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.logger.Info("feed exported", "path", path, "tracks", len(tracks))
	return r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), path)
}

// feedCommand handles feed browsing and export
func feedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "Browse and export the music feed",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List one page of the feed",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Feed page to fetch", Value: 1},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.FeedList,
			},
			{
				Name:  "sections",
				Usage: "List the curated home sections",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.FeedSections,
			},
			{
				Name:  "artist",
				Usage: "List every song by one artist",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "id", Usage: "Artist ID", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.FeedArtist,
			},
			{
				Name:  "export",
				Usage: "Export feed pages to a playlist file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path", Value: "feed"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Playlist format (m3u, pls, csv)", Value: "m3u"},
					&cli.IntFlag{Name: "pages", Usage: "Number of feed pages to export", Value: 1},
				},
				Action: r.FeedExport,
			},
		},
	}
}
