package symlinker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/symlinkarr/internal/config"
	"github.com/jon4hz/symlinkarr/internal/database"
	"github.com/jon4hz/symlinkarr/internal/parser"
	"github.com/samber/lo"
)

var (
	// ErrNoMedia is returned when a media file is not linked to a media yet.
	ErrNoMedia = errors.New("media file has no media")
	// ErrTargetNotFound is returned when the file a symlink should point to does not exist.
	ErrTargetNotFound = errors.New("symlink target not found")
)

// Symlinker creates the library symlinks of media files.
type Symlinker struct {
	db      *database.Client
	library string
	dirs    *config.DirectoriesConfig
}

// New creates a symlinker for the library at root.
func New(db *database.Client, root string, dirs *config.DirectoriesConfig) *Symlinker {
	return &Symlinker{
		db:      db,
		library: root,
		dirs:    dirs,
	}
}

// MediaDir returns the library directory of m.
func (s *Symlinker) MediaDir(m *database.Media) string {
	name := fmt.Sprintf("%s (%d) {%s%s}", SanitizeTitle(m.Title), m.Year, parser.IDPrefix, m.ImdbID)
	return filepath.Join(s.library, s.dirs.Dir(m.IsShow(), m.Anime), name)
}

// DerivePath returns the symlink path of f and creates its media directory.
// Episodes are named "{title} ({year}) - s{season}e{episode}{ext}", everything
// else "{title} ({year}) {imdb-tt{id}}{ext}". The path is not made unique.
func (s *Symlinker) DerivePath(f *database.MediaFile) (string, error) {
	m := f.Media
	if m == nil {
		return "", fmt.Errorf("%w: file %d", ErrNoMedia, f.ID)
	}

	dir := s.MediaDir(m)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	ext := filepath.Ext(lo.FromPtr(f.TargetPath))
	title := SanitizeTitle(m.Title)

	var name string
	if f.Episode != nil {
		name = fmt.Sprintf("%s (%d) - s%se%s%s", title, m.Year, lo.FromPtrOr(f.Season, "00"), *f.Episode, ext)
	} else {
		name = fmt.Sprintf("%s (%d) {%s%s}%s", title, m.Year, parser.IDPrefix, m.ImdbID, ext)
	}
	return filepath.Join(dir, name), nil
}

// exists reports whether something occupies path. Dangling symlinks count.
func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// UniquePath returns path if it is free. Otherwise " - v2", " - v3", ... is
// inserted before the extension and the first free path is returned.
func UniquePath(path string) string {
	if !exists(path) {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for version := 2; ; version++ {
		candidate := fmt.Sprintf("%s - v%d%s", base, version, ext)
		if !exists(candidate) {
			return candidate
		}
	}
}

// CreateSymlink links f into the library and records the symlink path.
// An existing recorded link is returned as is, a missing one is recreated.
// If the link cannot be created the error is logged and an empty path is returned.
func (s *Symlinker) CreateSymlink(ctx context.Context, f *database.MediaFile) (string, error) {
	if f.SymlinkPath != nil && exists(*f.SymlinkPath) {
		log.Debug("media file is already linked", "path", *f.SymlinkPath)
		return *f.SymlinkPath, nil
	}

	target := lo.FromPtr(f.TargetPath)
	if target == "" {
		return "", fmt.Errorf("%w: file %d has no target", ErrTargetNotFound, f.ID)
	}
	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	}

	var link string
	err := s.db.Transaction(ctx, func(tx *database.Tx) error {
		if f.Media == nil && f.MediaID != nil {
			m, err := tx.GetMedia(*f.MediaID)
			if err != nil {
				return err
			}
			f.Media = m
		}

		if f.SymlinkPath != nil {
			// the recorded link vanished, recreate it in place
			link = *f.SymlinkPath
		} else {
			path, err := s.DerivePath(f)
			if err != nil {
				return err
			}
			link = UniquePath(path)
		}

		if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
			log.Error("failed to create symlink directory", "path", link, "error", err)
			link = ""
			return nil
		}
		if err := os.Symlink(target, link); err != nil {
			log.Error("failed to create symlink", "path", link, "target", target, "error", err)
			link = ""
			return nil
		}

		if _, err := tx.UpdateMediaFile(f, database.MediaFileUpdate{SymlinkPath: lo.ToPtr(link)}); err != nil {
			_ = os.Remove(link)
			return err
		}
		log.Info("created symlink", "path", link, "target", target)
		return nil
	})
	if err != nil {
		return "", err
	}
	return link, nil
}
