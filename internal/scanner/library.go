package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/symlinkarr/internal/config"
	"github.com/jon4hz/symlinkarr/internal/database"
	"github.com/jon4hz/symlinkarr/internal/parser"
	"github.com/samber/lo"
)

// LibraryScanner indexes the media directories of the library.
type LibraryScanner struct {
	db         *database.Client
	categories []Category
}

// NewLibraryScanner creates a scanner for the library at root.
func NewLibraryScanner(db *database.Client, root string, dirs *config.DirectoriesConfig) *LibraryScanner {
	return &LibraryScanner{
		db:         db,
		categories: Categories(root, dirs),
	}
}

// FullScan indexes every media directory of every category that is not stored yet.
// Failures of single directories are logged and do not stop the scan.
func (s *LibraryScanner) FullScan(ctx context.Context) error {
	for _, cat := range s.categories {
		dirs, err := listDirs(cat.Path)
		if err != nil {
			log.Error("failed to list library category", "path", cat.Path, "error", err)
			continue
		}
		log.Debug("scanning library category", "path", cat.Path, "directories", len(dirs))

		for _, dir := range dirs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.scanDirectory(ctx, cat, dir); err != nil {
				log.Error("failed to scan library directory", "path", dir, "error", err)
			}
		}
	}
	return nil
}

func (s *LibraryScanner) scanDirectory(ctx context.Context, cat Category, dir string) error {
	name, err := parser.ParseLibraryName(dir)
	if errors.Is(err, parser.ErrFormat) {
		log.Warn("skipping library directory", "path", dir, "error", err)
		return nil
	}
	if err != nil {
		return err
	}

	year, err := strconv.Atoi(name.Year)
	if err != nil {
		return err
	}

	return s.db.Transaction(ctx, func(tx *database.Tx) error {
		existing, err := tx.GetMedia(name.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		media, err := tx.AddMedia(&database.Media{
			ImdbID:    name.ID,
			Title:     name.Title,
			Year:      year,
			Anime:     cat.Anime,
			MediaType: cat.Kind,
		})
		if err != nil {
			return err
		}

		files, err := collectVideoFiles(ctx, dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			log.Warn("no video files in library directory", "path", dir)
			return nil
		}

		for _, f := range files {
			season, episode := parser.ExtractLibraryEpisode(filepath.Base(f.Path))
			mf := &database.MediaFile{
				MediaID:     lo.ToPtr(media.ImdbID),
				SymlinkPath: lo.ToPtr(f.Path),
				Size:        f.Size,
				Season:      season,
				Episode:     episode,
			}
			if f.Target != "" {
				mf.TargetPath = lo.ToPtr(f.Target)
			}
			if _, err := tx.AddMediaFile(mf); err != nil {
				return err
			}
		}

		log.Info("indexed library media",
			"title", media.Title,
			"year", media.Year,
			"kind", media.MediaType,
			"files", len(files),
			"size", humanBytes(totalSize(files)),
		)
		return nil
	})
}
