package database

import (
	"github.com/charmbracelet/log"
)

// propagateFromFile backfills the parent torrent's media from a file that
// references both. UpdateTorrent then fans the media out to the siblings.
func (tx *Tx) propagateFromFile(f *MediaFile) error {
	if f.TorrentID == nil || f.MediaID == nil {
		return nil
	}

	t, err := tx.GetTorrent(*f.TorrentID)
	if err != nil {
		return err
	}
	if t == nil || t.MediaID != nil {
		return nil
	}

	_, err = tx.UpdateTorrent(t, TorrentUpdate{MediaID: f.MediaID})
	return err
}

// fanOut sets the torrent's media on every file of the torrent that has none.
// Running it more than once is a no-op.
func (tx *Tx) fanOut(t *Torrent) error {
	if t.MediaID == nil {
		return nil
	}

	result := tx.db.Model(&MediaFile{}).
		Where("torrent_id = ? AND imdb_id IS NULL", t.ID).
		Update("imdb_id", *t.MediaID)
	if result.Error != nil {
		log.Error("failed to propagate media to torrent files", "torrent", t.Path, "error", result.Error)
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Debug("propagated media to torrent files", "torrent", t.Path, "imdb_id", *t.MediaID, "files", result.RowsAffected)
	}
	return nil
}
