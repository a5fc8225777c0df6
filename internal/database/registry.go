package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrUnknownEntity is returned when no handler is registered for an entity kind.
var ErrUnknownEntity = errors.New("no handler registered for entity kind")

// EntityKind is the closed set of entities the store knows about.
type EntityKind int

const (
	EntityMedia EntityKind = iota
	EntityMovie
	EntityShow
	EntityTorrent
	EntityMediaFile
)

func (k EntityKind) String() string {
	switch k {
	case EntityMedia:
		return "media"
	case EntityMovie:
		return "movie"
	case EntityShow:
		return "show"
	case EntityTorrent:
		return "torrent"
	case EntityMediaFile:
		return "mediafile"
	default:
		return fmt.Sprintf("entity(%d)", int(k))
	}
}

type entityHandler interface {
	// query returns a query over the rows of kind.
	query(db *gorm.DB, kind EntityKind) *gorm.DB
}

type mediaHandler struct{}

func (mediaHandler) query(db *gorm.DB, kind EntityKind) *gorm.DB {
	q := db.Model(&Media{})
	switch kind {
	case EntityMovie:
		q = q.Where("media_type = ?", MediaKindMovie)
	case EntityShow:
		q = q.Where("media_type = ?", MediaKindShow)
	}
	return q
}

type torrentHandler struct{}

func (torrentHandler) query(db *gorm.DB, _ EntityKind) *gorm.DB {
	return db.Model(&Torrent{})
}

type mediaFileHandler struct{}

func (mediaFileHandler) query(db *gorm.DB, _ EntityKind) *gorm.DB {
	return db.Model(&MediaFile{})
}

var handlers = map[EntityKind]entityHandler{
	EntityMedia:     mediaHandler{},
	EntityTorrent:   torrentHandler{},
	EntityMediaFile: mediaFileHandler{},
}

// supertypes maps subtypes without their own handler to the kind whose handler they use.
var supertypes = map[EntityKind]EntityKind{
	EntityMovie: EntityMedia,
	EntityShow:  EntityMedia,
}

func handlerFor(kind EntityKind) (entityHandler, error) {
	k := kind
	for {
		if h, ok := handlers[k]; ok {
			return h, nil
		}
		parent, ok := supertypes[k]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, kind)
		}
		k = parent
	}
}

func (tx *Tx) entityQuery(kind EntityKind, conds []any) (*gorm.DB, error) {
	h, err := handlerFor(kind)
	if err != nil {
		return nil, err
	}
	q := h.query(tx.db, kind)
	if len(conds) > 0 {
		q = q.Where(conds[0], conds[1:]...)
	}
	return q, nil
}

// Find loads all rows of kind matching conds into dest.
// conds follow gorm's Where arguments, e.g. Find(EntityTorrent, &ts, "imdb_id IS NULL").
func (tx *Tx) Find(kind EntityKind, dest any, conds ...any) error {
	q, err := tx.entityQuery(kind, conds)
	if err != nil {
		return err
	}
	return q.Find(dest).Error
}

// Count counts the rows of kind matching conds.
func (tx *Tx) Count(kind EntityKind, conds ...any) (int64, error) {
	q, err := tx.entityQuery(kind, conds)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
