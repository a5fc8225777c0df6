package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/jon4hz/symlinkarr/internal/config"
	"github.com/jon4hz/symlinkarr/internal/database"
	"github.com/samber/lo"
)

var videoExtensions = []string{".mkv", ".mov", ".avi", ".mp4", ".wmv"}

// IsVideo reports whether path has a video file extension.
func IsVideo(path string) bool {
	return lo.Contains(videoExtensions, strings.ToLower(filepath.Ext(path)))
}

// Category is a library directory holding one kind of media.
type Category struct {
	Path  string
	Kind  database.MediaKind
	Anime bool
}

// Categories returns the library categories below root.
// The anime categories are only included if anime is kept separately.
func Categories(root string, dirs *config.DirectoriesConfig) []Category {
	categories := []Category{
		{Path: filepath.Join(root, dirs.Movies), Kind: database.MediaKindMovie},
		{Path: filepath.Join(root, dirs.Shows), Kind: database.MediaKindShow},
	}
	if dirs.SeparateAnime {
		categories = append(categories,
			Category{Path: filepath.Join(root, dirs.AnimeMovies), Kind: database.MediaKindMovie, Anime: true},
			Category{Path: filepath.Join(root, dirs.AnimeShows), Kind: database.MediaKindShow, Anime: true},
		)
	}
	return categories
}

// VideoFile is a video file found on disk.
type VideoFile struct {
	Path   string
	Target string // resolved link target, empty if the file is not a symlink
	Size   int64
}

// listDirs returns the paths of the directories directly below root.
func listDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, e := range entries {
		path := filepath.Join(root, e.Name())
		if e.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil || !info.IsDir() {
				continue
			}
		} else if !e.IsDir() {
			continue
		}
		dirs = append(dirs, path)
	}
	return dirs, nil
}

// collectVideoFiles returns all video files below root in lexical order.
// Symlinked files are stat'ed through the link; dangling links are skipped.
func collectVideoFiles(ctx context.Context, root string) ([]VideoFile, error) {
	var files []VideoFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warn("failed to read path", "path", path, "error", err)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !IsVideo(path) {
			return nil
		}

		f := VideoFile{Path: path}
		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				log.Warn("failed to read symlink", "path", path, "error", err)
				return nil
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(path), target)
			}
			f.Target = target
		}

		info, err := os.Stat(path)
		if err != nil {
			log.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}
		f.Size = info.Size()
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func totalSize(files []VideoFile) int64 {
	return lo.SumBy(files, func(f VideoFile) int64 { return f.Size })
}

func humanBytes(n int64) string {
	u, err := safecast.Convert[uint64](n)
	if err != nil {
		return "0 B"
	}
	return humanize.Bytes(u)
}
