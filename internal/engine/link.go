package engine

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/symlinkarr/internal/database"
	"github.com/jon4hz/symlinkarr/internal/symlinker"
)

// LinkPending creates the symlinks of all files that have a media but no symlink.
// The files of a torrent are linked largest first, so the main file of a
// release gets the name without version suffix. It returns the number of created links.
func (e *Engine) LinkPending(ctx context.Context) (int, error) {
	var torrents []database.Torrent
	err := e.db.Transaction(ctx, func(tx *database.Tx) error {
		var err error
		torrents, err = tx.TorrentsWithFiles()
		return err
	})
	if err != nil {
		return 0, err
	}

	linked := 0
	for _, t := range torrents {
		files := slices.Clone(t.Files)
		slices.SortStableFunc(files, func(a, b database.MediaFile) int {
			return cmp.Compare(b.Size, a.Size)
		})

		for i := range files {
			if err := ctx.Err(); err != nil {
				return linked, err
			}

			f := &files[i]
			if f.Media == nil || f.SymlinkPath != nil {
				continue
			}

			link, err := e.linker.CreateSymlink(ctx, f)
			switch {
			case errors.Is(err, symlinker.ErrTargetNotFound):
				log.Warn("Symlink target is gone", "torrent", t.Path, "error", err)
			case err != nil:
				log.Error("Failed to link file", "torrent", t.Path, "file", f.ID, "error", err)
			case link != "":
				linked++
			}
		}
	}
	return linked, nil
}
