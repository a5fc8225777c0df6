package cmd

import (
	"fmt"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/dustin/go-humanize"
	"github.com/jon4hz/symlinkarr/internal/database"
	"github.com/mergestat/timediff"
	"github.com/spf13/cobra"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display statistics about indexed media, torrents and symlinks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		db, err := database.New(cfg.Database.Path, false)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Media: %d (%d movies, %d shows, %d anime)\n", stats.Media, stats.Movies, stats.Shows, stats.Anime)
		fmt.Printf("Torrents: %d (%d unresolved)\n", stats.Torrents, stats.UnresolvedTorrents)
		fmt.Printf("Media Files: %d (%s)\n", stats.MediaFiles, formatBytes(stats.TotalSize))
		fmt.Printf("Linked Files: %d (%s)\n", stats.LinkedFiles, formatBytes(stats.LinkedSize))
		fmt.Printf("Pending Files: %d\n", stats.PendingFiles)

		if stats.LastTorrentAt != nil {
			fmt.Printf("Last Torrent Indexed: %s (%s)\n", stats.LastTorrentAt.Format(time.RFC3339), timediff.TimeDiff(*stats.LastTorrentAt))
		}
		if stats.LastLinkAt != nil {
			fmt.Printf("Last Symlink Created: %s (%s)\n", stats.LastLinkAt.Format(time.RFC3339), timediff.TimeDiff(*stats.LastLinkAt))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}

func formatBytes(n int64) string {
	size, err := safecast.Convert[uint64](n)
	if err != nil {
		return "unknown"
	}
	return humanize.Bytes(size)
}
