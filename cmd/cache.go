package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// cacheWarmConcurrency bounds parallel page fetches during a cache warm.
const cacheWarmConcurrency = 4

// CacheStatus reports how many tracks are cached locally.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.openCache(); err != nil {
		return err
	}

	count, err := r.tracks.Count()
	if err != nil {
		return fmt.Errorf("failed to count cached tracks: %w", err)
	}

	r.writePlain("Cached tracks: %d\n", count)
	r.writePlain("Database: %s\n", r.config.Database.Path)
	return nil
}

// CacheClear soft-deletes every cached track.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.openCache(); err != nil {
		return err
	}

	cleared, err := r.tracks.Clear()
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	r.logger.Info("cache cleared", "tracks", cleared)
	return r.writePlain("✓ Cleared %d cached tracks\n", cleared)
}

// CacheWarm fetches feed pages concurrently and caches every track so the
// feed can be browsed offline.
func (r *Runner) CacheWarm(ctx context.Context, cmd *cli.Command) error {
	if err := r.openCache(); err != nil {
		return err
	}

	pages := int(cmd.Int("pages"))
	if pages < 1 {
		pages = 1
	}

	var cached atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(cacheWarmConcurrency)

	for page := 1; page <= pages; page++ {
		group.Go(func() error {
			songPage, err := r.catalog.Songs(groupCtx, page)
			if err != nil {
				return fmt.Errorf("failed to fetch page %d: %w", page, err)
			}
			for _, track := range songPage.Items {
				if err := r.tracks.CacheTrack(track, page); err != nil {
					return fmt.Errorf("failed to cache %q: %w", track.Title, err)
				}
				cached.Add(1)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	r.logger.Info("cache warmed", "pages", pages, "tracks", cached.Load())
	return r.writePlain("✓ Cached %d tracks from %d pages\n", cached.Load(), pages)
}

// cacheCommand handles the local offline track cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local track cache",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show cache size and location",
				Action: r.CacheStatus,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached track",
				Action: r.CacheClear,
			},
			{
				Name:  "warm",
				Usage: "Fetch feed pages and cache their tracks",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "pages", Usage: "Number of feed pages to cache", Value: 5},
				},
				Action: r.CacheWarm,
			},
		},
	}
}
