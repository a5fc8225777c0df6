package database

import (
	"errors"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddMediaFile stores f. If a file with one of f's paths is already stored,
// the non-null attributes of f are merged into it with a fill-only update
// and the stored file is returned instead.
func (tx *Tx) AddMediaFile(f *MediaFile) (*MediaFile, error) {
	paths := f.paths()
	if len(paths) == 0 {
		return nil, errors.New("media file has neither a symlink nor a target path")
	}

	existing, err := tx.GetMediaFileByPath(paths...)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return tx.UpdateMediaFile(existing, f.asUpdate())
	}

	// a new file of a resolved torrent inherits the torrent's media
	if f.TorrentID != nil && f.MediaID == nil {
		t, err := tx.GetTorrent(*f.TorrentID)
		if err != nil {
			return nil, err
		}
		if t != nil {
			f.MediaID = t.MediaID
		}
	}

	if err := tx.db.Omit(clause.Associations).Create(f).Error; err != nil {
		log.Error("failed to create media file", "paths", paths, "error", err)
		return nil, err
	}

	if err := tx.propagateFromFile(f); err != nil {
		return nil, err
	}
	return f, nil
}

// GetMediaFile returns the file with the given id and its media, or nil if there is none.
func (tx *Tx) GetMediaFile(id uint) (*MediaFile, error) {
	var f MediaFile
	err := tx.db.Preload("Media").First(&f, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get media file", "id", id, "error", err)
		return nil, err
	}
	return &f, nil
}

// GetMediaFileByPath returns the first file whose symlink or target path is
// one of paths, or nil if there is none.
func (tx *Tx) GetMediaFileByPath(paths ...string) (*MediaFile, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	var f MediaFile
	err := tx.db.
		Where("symlink_path IN ? OR target_path IN ?", paths, paths).
		Order("id").
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get media file by path", "paths", paths, "error", err)
		return nil, err
	}
	return &f, nil
}

// MediaFilesForTorrent returns the files of the torrent with the given id.
func (tx *Tx) MediaFilesForTorrent(torrentID uint) ([]MediaFile, error) {
	var files []MediaFile
	if err := tx.Find(EntityMediaFile, &files, "torrent_id = ?", torrentID); err != nil {
		log.Error("failed to get torrent files", "torrent_id", torrentID, "error", err)
		return nil, err
	}
	return files, nil
}

// UpdateMediaFile applies a fill-only update to f. If f then references both
// a torrent and a media, the media is propagated to the torrent.
func (tx *Tx) UpdateMediaFile(f *MediaFile, in MediaFileUpdate) (*MediaFile, error) {
	changed := MergeMediaFile(f, in)
	if len(changed) > 0 {
		if err := tx.db.Model(f).Omit(clause.Associations).Updates(changed).Error; err != nil {
			log.Error("failed to update media file", "id", f.ID, "error", err)
			return nil, err
		}
	}

	if err := tx.propagateFromFile(f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteMediaFile removes f.
func (tx *Tx) DeleteMediaFile(f *MediaFile) error {
	if err := tx.db.Delete(&MediaFile{}, f.ID).Error; err != nil {
		log.Error("failed to delete media file", "id", f.ID, "error", err)
		return err
	}
	return nil
}
