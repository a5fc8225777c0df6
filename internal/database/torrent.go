package database

import (
	"errors"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddTorrent inserts t unless a torrent with the same path exists, in which
// case the stored torrent is returned unchanged.
func (tx *Tx) AddTorrent(t *Torrent) (*Torrent, error) {
	if t.Path == "" {
		return nil, errors.New("torrent has no path")
	}

	existing, err := tx.GetTorrentByPath(t.Path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Debug("torrent already exists, skipping", "path", t.Path)
		return existing, nil
	}

	if err := tx.db.Omit(clause.Associations).Create(t).Error; err != nil {
		log.Error("failed to create torrent", "path", t.Path, "error", err)
		return nil, err
	}
	return t, nil
}

// GetTorrent returns the torrent with the given id, or nil if there is none.
func (tx *Tx) GetTorrent(id uint) (*Torrent, error) {
	var t Torrent
	err := tx.db.First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get torrent", "id", id, "error", err)
		return nil, err
	}
	return &t, nil
}

// GetTorrentByPath returns the torrent stored for path, or nil if there is none.
func (tx *Tx) GetTorrentByPath(path string) (*Torrent, error) {
	var t Torrent
	err := tx.db.Where("path = ?", path).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get torrent by path", "path", path, "error", err)
		return nil, err
	}
	return &t, nil
}

// TorrentsWithoutMedia returns all torrents that are not linked to a media yet.
func (tx *Tx) TorrentsWithoutMedia() ([]Torrent, error) {
	var torrents []Torrent
	if err := tx.Find(EntityTorrent, &torrents, "imdb_id IS NULL"); err != nil {
		log.Error("failed to get torrents without media", "error", err)
		return nil, err
	}
	return torrents, nil
}

// TorrentsWithFiles returns all torrents with their files and the files' media.
func (tx *Tx) TorrentsWithFiles() ([]Torrent, error) {
	var torrents []Torrent
	err := tx.db.
		Preload("Files").
		Preload("Files.Media").
		Find(&torrents).Error
	if err != nil {
		log.Error("failed to get torrents with files", "error", err)
		return nil, err
	}
	return torrents, nil
}

// UpdateTorrent applies a fill-only update to t. When the torrent gains a
// media, the media is propagated to every file of the torrent that has none.
func (tx *Tx) UpdateTorrent(t *Torrent, in TorrentUpdate) (*Torrent, error) {
	hadMedia := t.MediaID != nil

	changed := MergeTorrent(t, in)
	if len(changed) > 0 {
		if err := tx.db.Model(t).Omit(clause.Associations).Updates(changed).Error; err != nil {
			log.Error("failed to update torrent", "path", t.Path, "error", err)
			return nil, err
		}
	}

	if !hadMedia && t.MediaID != nil {
		if err := tx.fanOut(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// DeleteTorrent removes t together with its files.
func (tx *Tx) DeleteTorrent(t *Torrent) error {
	if err := tx.db.Where("torrent_id = ?", t.ID).Delete(&MediaFile{}).Error; err != nil {
		log.Error("failed to delete torrent files", "path", t.Path, "error", err)
		return err
	}
	if err := tx.db.Delete(&Torrent{}, t.ID).Error; err != nil {
		log.Error("failed to delete torrent", "path", t.Path, "error", err)
		return err
	}
	return nil
}
