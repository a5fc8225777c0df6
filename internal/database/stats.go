package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// Stats holds aggregated statistics about the store.
type Stats struct {
	Media              int64
	Movies             int64
	Shows              int64
	Anime              int64
	Torrents           int64
	UnresolvedTorrents int64
	MediaFiles         int64
	LinkedFiles        int64
	PendingFiles       int64
	TotalSize          int64
	LinkedSize         int64
	LastTorrentAt      *time.Time
	LastLinkAt         *time.Time
}

// Stats collects statistics about the stored entities.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := c.Transaction(ctx, func(tx *Tx) error {
		counts := []struct {
			dst   *int64
			kind  EntityKind
			conds []any
		}{
			{&s.Media, EntityMedia, nil},
			{&s.Movies, EntityMovie, nil},
			{&s.Shows, EntityShow, nil},
			{&s.Anime, EntityMedia, []any{"anime = ?", true}},
			{&s.Torrents, EntityTorrent, nil},
			{&s.UnresolvedTorrents, EntityTorrent, []any{"imdb_id IS NULL"}},
			{&s.MediaFiles, EntityMediaFile, nil},
			{&s.LinkedFiles, EntityMediaFile, []any{"symlink_path IS NOT NULL"}},
			{&s.PendingFiles, EntityMediaFile, []any{"symlink_path IS NULL AND imdb_id IS NOT NULL"}},
		}
		for _, cnt := range counts {
			n, err := tx.Count(cnt.kind, cnt.conds...)
			if err != nil {
				return err
			}
			*cnt.dst = n
		}

		if err := tx.db.Model(&MediaFile{}).
			Select("COALESCE(SUM(size), 0)").
			Scan(&s.TotalSize).Error; err != nil {
			return err
		}
		if err := tx.db.Model(&MediaFile{}).
			Where("symlink_path IS NOT NULL").
			Select("COALESCE(SUM(size), 0)").
			Scan(&s.LinkedSize).Error; err != nil {
			return err
		}

		var last Torrent
		err := tx.db.Order("created_at desc").First(&last).Error
		switch {
		case err == nil:
			s.LastTorrentAt = &last.CreatedAt
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		var linked MediaFile
		err = tx.db.Where("symlink_path IS NOT NULL").Order("updated_at desc").First(&linked).Error
		switch {
		case err == nil:
			s.LastLinkAt = &linked.UpdatedAt
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return nil
	})
	if err != nil {
		log.Error("failed to get database stats", "error", err)
		return nil, err
	}
	return &s, nil
}
