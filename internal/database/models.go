package database

import "time"

// MediaKind distinguishes movies from shows.
type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindShow  MediaKind = "show"
)

// Valid reports whether k is one of the known media kinds.
func (k MediaKind) Valid() bool {
	return k == MediaKindMovie || k == MediaKindShow
}

// Media is a canonical movie or show identity keyed by its IMDb id (digits only, without the "tt").
type Media struct {
	ImdbID    string    `gorm:"primaryKey"`
	Title     string    `gorm:"not null"`
	Year      int       `gorm:"not null"`
	Anime     bool      `gorm:"not null;default:false"`
	MediaType MediaKind `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Media) TableName() string { return "media" }

// IsShow reports whether the media is a show.
func (m *Media) IsShow() bool {
	return m.MediaType == MediaKindShow
}

// Movie marks a Media row as a movie.
type Movie struct {
	ImdbID string `gorm:"primaryKey"`
}

// Show marks a Media row as a show.
type Show struct {
	ImdbID string `gorm:"primaryKey"`
}

// Torrent is a downloaded content directory. Path is its identity.
type Torrent struct {
	ID        uint   `gorm:"primaryKey"`
	Path      string `gorm:"uniqueIndex;not null"`
	Title     string `gorm:"not null"`
	Year      *int
	MediaID   *string     `gorm:"column:imdb_id;index"`
	Media     *Media      `gorm:"foreignKey:MediaID;references:ImdbID;constraint:OnDelete:SET NULL;"`
	Files     []MediaFile `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MediaFile is a single video file. In practice it is identified by its
// target path (the file inside a torrent) or its symlink path (the file in the library).
type MediaFile struct {
	ID          uint    `gorm:"primaryKey"`
	MediaID     *string `gorm:"column:imdb_id;index"`
	Media       *Media  `gorm:"foreignKey:MediaID;references:ImdbID;constraint:OnDelete:SET NULL;"`
	TorrentID   *uint   `gorm:"index"`
	Torrent     *Torrent
	SymlinkPath *string `gorm:"index"`
	TargetPath  *string `gorm:"index"`
	Size        int64   `gorm:"not null"`
	Season      *string
	Episode     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (MediaFile) TableName() string { return "mediafiles" }

// paths returns the non-empty paths the file can be identified by.
func (f *MediaFile) paths() []string {
	var paths []string
	if f.SymlinkPath != nil && *f.SymlinkPath != "" {
		paths = append(paths, *f.SymlinkPath)
	}
	if f.TargetPath != nil && *f.TargetPath != "" {
		paths = append(paths, *f.TargetPath)
	}
	return paths
}

// MediaUpdate holds the attributes of a fill-only Media update. Nil fields are ignored.
type MediaUpdate struct {
	Title *string
	Year  *int
}

// TorrentUpdate holds the attributes of a fill-only Torrent update. Nil fields are ignored.
type TorrentUpdate struct {
	Title   *string
	Year    *int
	MediaID *string
}

// MediaFileUpdate holds the attributes of a fill-only MediaFile update. Nil fields are ignored.
type MediaFileUpdate struct {
	MediaID     *string
	TorrentID   *uint
	SymlinkPath *string
	TargetPath  *string
	Size        *int64
	Season      *string
	Episode     *string
}

// asUpdate returns the non-null attributes of f as an update.
func (f *MediaFile) asUpdate() MediaFileUpdate {
	u := MediaFileUpdate{
		MediaID:     f.MediaID,
		TorrentID:   f.TorrentID,
		SymlinkPath: f.SymlinkPath,
		TargetPath:  f.TargetPath,
		Season:      f.Season,
		Episode:     f.Episode,
	}
	if f.Size > 0 {
		size := f.Size
		u.Size = &size
	}
	return u
}
