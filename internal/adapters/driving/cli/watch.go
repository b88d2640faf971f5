package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/evidentlabs/answercore/internal/core/services"
)

var (
	watchDebounce time.Duration
	watchIdleAge  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the uploads directory and keep indexes current",
	Long: `Watches the uploads directory for content changes and rebuilds the
affected scope's index. Index handles idle for longer than --idle-age
are evicted periodically. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "delay before rebuilding after a change")
	watchCmd.Flags().DurationVar(&watchIdleAge, "idle-age", 30*time.Minute, "evict index handles idle for longer than this")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if uploadsRoot == "" {
		return errors.New("uploads directory not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := services.NewWatcher(uploadsRoot, ingestService)
	watcher.SetDebounce(watchDebounce)

	if indexCache != nil && watchIdleAge > 0 {
		go evictIdleLoop(ctx, indexCache, watchIdleAge)
	}

	cmd.Printf("Watching %s (debounce %s). Press Ctrl+C to stop.\n", uploadsRoot, watchDebounce)

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}

	cmd.Println("Stopped.")
	return nil
}

// evictIdleLoop periodically drops index handles that have not been used.
func evictIdleLoop(ctx context.Context, cache *services.IndexCache, maxAge time.Duration) {
	ticker := time.NewTicker(maxAge / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cache.EvictIdle(maxAge)
		}
	}
}
