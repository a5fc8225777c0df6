package database

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddMedia inserts m unless a media with the same id exists, in which case
// the stored media is returned unchanged.
func (tx *Tx) AddMedia(m *Media) (*Media, error) {
	if m.ImdbID == "" {
		return nil, errors.New("media has no imdb id")
	}
	if !m.MediaType.Valid() {
		return nil, fmt.Errorf("invalid media type %q", m.MediaType)
	}

	existing, err := tx.GetMedia(m.ImdbID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Debug("media already exists, skipping", "imdb_id", m.ImdbID, "title", existing.Title)
		return existing, nil
	}

	if err := tx.db.Omit(clause.Associations).Create(m).Error; err != nil {
		log.Error("failed to create media", "imdb_id", m.ImdbID, "error", err)
		return nil, err
	}

	var kind any = &Movie{ImdbID: m.ImdbID}
	if m.IsShow() {
		kind = &Show{ImdbID: m.ImdbID}
	}
	if err := tx.db.Clauses(clause.OnConflict{DoNothing: true}).Create(kind).Error; err != nil {
		log.Error("failed to create media type row", "imdb_id", m.ImdbID, "error", err)
		return nil, err
	}

	return m, nil
}

// GetMedia returns the media with the given id, or nil if there is none.
func (tx *Tx) GetMedia(imdbID string) (*Media, error) {
	var m Media
	err := tx.db.First(&m, "imdb_id = ?", imdbID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get media", "imdb_id", imdbID, "error", err)
		return nil, err
	}
	return &m, nil
}

// FindMediaByTitle returns all media whose title contains title, ignoring case.
func (tx *Tx) FindMediaByTitle(title string) ([]Media, error) {
	var media []Media
	if err := tx.Find(EntityMedia, &media, "LOWER(title) LIKE LOWER(?)", "%"+title+"%"); err != nil {
		log.Error("failed to find media by title", "title", title, "error", err)
		return nil, err
	}
	return media, nil
}

// UpdateMedia applies a fill-only update to m.
func (tx *Tx) UpdateMedia(m *Media, in MediaUpdate) (*Media, error) {
	changed := MergeMedia(m, in)
	if len(changed) == 0 {
		return m, nil
	}
	if err := tx.db.Model(m).Updates(changed).Error; err != nil {
		log.Error("failed to update media", "imdb_id", m.ImdbID, "error", err)
		return nil, err
	}
	return m, nil
}

// DeleteMedia removes m. Torrents and files referencing it lose their media reference.
func (tx *Tx) DeleteMedia(m *Media) error {
	if err := tx.db.Delete(&Movie{}, "imdb_id = ?", m.ImdbID).Error; err != nil {
		return err
	}
	if err := tx.db.Delete(&Show{}, "imdb_id = ?", m.ImdbID).Error; err != nil {
		return err
	}
	if err := tx.db.Delete(&Media{}, "imdb_id = ?", m.ImdbID).Error; err != nil {
		log.Error("failed to delete media", "imdb_id", m.ImdbID, "error", err)
		return err
	}
	return nil
}
