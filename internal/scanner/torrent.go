package scanner

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/symlinkarr/internal/database"
	"github.com/jon4hz/symlinkarr/internal/parser"
	"github.com/jon4hz/symlinkarr/internal/resolver"
	"github.com/samber/lo"
)

// TorrentScanner indexes torrent directories and links them to media.
type TorrentScanner struct {
	db       *database.Client
	root     string
	parser   *parser.Parser
	resolver *resolver.Resolver
}

// NewTorrentScanner creates a scanner for the torrents below root.
func NewTorrentScanner(db *database.Client, root string, p *parser.Parser, r *resolver.Resolver) *TorrentScanner {
	return &TorrentScanner{
		db:       db,
		root:     root,
		parser:   p,
		resolver: r,
	}
}

// FullScan indexes every torrent directory that is not stored yet.
func (s *TorrentScanner) FullScan(ctx context.Context) error {
	dirs, err := listDirs(s.root)
	if err != nil {
		log.Error("failed to list torrents", "path", s.root, "error", err)
		return nil
	}
	log.Debug("scanning torrents", "path", s.root, "directories", len(dirs))

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.scanDirectory(ctx, dir); err != nil {
			log.Error("failed to scan torrent", "path", dir, "error", err)
		}
	}
	return nil
}

func (s *TorrentScanner) scanDirectory(ctx context.Context, dir string) error {
	var exists bool
	err := s.db.Transaction(ctx, func(tx *database.Tx) error {
		t, err := tx.GetTorrentByPath(dir)
		exists = t != nil
		return err
	})
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	name, err := s.parser.ParseTorrentName(dir)
	if errors.Is(err, parser.ErrFormat) {
		log.Warn("skipping torrent", "path", dir, "error", err)
		return nil
	}
	if err != nil {
		return err
	}

	files, err := collectVideoFiles(ctx, dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Warn("no video files in torrent", "path", dir)
		return nil
	}

	return s.IndexTorrent(ctx, dir, name, files)
}

type selectedFile struct {
	VideoFile
	season  *string
	episode *string
}

// selectFiles picks the files of a torrent worth linking: the largest file
// of a movie, or every file of a show with a season and an episode.
func (s *TorrentScanner) selectFiles(kind database.MediaKind, files []VideoFile) []selectedFile {
	if len(files) == 0 {
		return nil
	}
	if kind != database.MediaKindShow {
		largest := lo.MaxBy(files, func(a, b VideoFile) bool {
			return a.Size > b.Size
		})
		return []selectedFile{{VideoFile: largest}}
	}

	var selected []selectedFile
	for _, f := range files {
		season, episode := s.parser.ExtractTorrentEpisode(f.Path)
		if season == nil || episode == nil {
			log.Debug("skipping file without season and episode", "path", f.Path)
			continue
		}
		selected = append(selected, selectedFile{VideoFile: f, season: season, episode: episode})
	}
	return selected
}

// IndexTorrent stores the torrent at path and the files worth linking in one transaction.
func (s *TorrentScanner) IndexTorrent(ctx context.Context, path string, name *parser.TorrentName, files []VideoFile) error {
	var year *int
	if name.Year != "" {
		y, err := strconv.Atoi(name.Year)
		if err != nil {
			return fmt.Errorf("invalid year %q: %w", name.Year, err)
		}
		year = &y
	}

	selected := s.selectFiles(name.Kind, files)
	if len(selected) == 0 {
		log.Warn("no linkable files in torrent", "path", path, "kind", name.Kind)
	}

	return s.db.Transaction(ctx, func(tx *database.Tx) error {
		t, err := tx.AddTorrent(&database.Torrent{
			Path:  path,
			Title: name.Title,
			Year:  year,
		})
		if err != nil {
			return err
		}

		for _, f := range selected {
			_, err := tx.AddMediaFile(&database.MediaFile{
				TorrentID:  lo.ToPtr(t.ID),
				TargetPath: lo.ToPtr(f.Path),
				Size:       f.Size,
				Season:     f.season,
				Episode:    f.episode,
			})
			if err != nil {
				return err
			}
		}

		log.Info("indexed torrent",
			"title", name.Title,
			"kind", name.Kind,
			"files", len(selected),
			"size", humanBytes(lo.SumBy(selected, func(f selectedFile) int64 { return f.Size })),
		)
		return nil
	})
}

// AddMissingMediaToTorrents resolves the media of every torrent that has none.
// Failures of single torrents are logged and do not stop the loop.
func (s *TorrentScanner) AddMissingMediaToTorrents(ctx context.Context) error {
	var torrents []database.Torrent
	err := s.db.Transaction(ctx, func(tx *database.Tx) error {
		var err error
		torrents, err = tx.TorrentsWithoutMedia()
		return err
	})
	if err != nil {
		return err
	}
	log.Debug("resolving torrents without media", "count", len(torrents))

	for i := range torrents {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.resolveTorrent(ctx, &torrents[i]); err != nil {
			log.Error("failed to resolve torrent", "path", torrents[i].Path, "error", err)
		}
	}
	return nil
}

func (s *TorrentScanner) resolveTorrent(ctx context.Context, t *database.Torrent) error {
	name, err := s.parser.ParseTorrentName(t.Path)
	if err != nil {
		return err
	}

	id, err := s.resolver.ResolveExternalID(ctx, name.Title, name.Year, name.Kind)
	if err != nil {
		return err
	}
	if id == "" {
		log.Info("no media found for torrent", "title", name.Title, "year", name.Year, "kind", name.Kind)
		return nil
	}

	var media *database.Media
	err = s.db.Transaction(ctx, func(tx *database.Tx) error {
		media, err = tx.GetMedia(id)
		return err
	})
	if err != nil {
		return err
	}

	var canonical *resolver.CanonicalMedia
	if media == nil {
		canonical, err = s.resolver.FetchCanonicalMedia(ctx, id)
		if err != nil {
			return err
		}
	}

	return s.db.Transaction(ctx, func(tx *database.Tx) error {
		if canonical != nil {
			media, err = tx.AddMedia(&database.Media{
				ImdbID:    canonical.ID,
				Title:     canonical.Title,
				Year:      canonical.Year,
				Anime:     canonical.Anime,
				MediaType: canonical.Kind,
			})
			if err != nil {
				return err
			}
		}

		if _, err := tx.UpdateTorrent(t, database.TorrentUpdate{MediaID: lo.ToPtr(media.ImdbID)}); err != nil {
			return err
		}
		log.Info("linked torrent to media", "path", t.Path, "title", media.Title, "imdb_id", media.ImdbID)
		return nil
	})
}
