package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// inTx runs fn in a transaction and fails the test on error.
func inTx(t *testing.T, c *Client, fn func(tx *Tx) error) {
	t.Helper()
	require.NoError(t, c.Transaction(context.Background(), fn))
}

func TestMergeMediaFile(t *testing.T) {
	f := &MediaFile{}

	changed := MergeMediaFile(f, MediaFileUpdate{Season: lo.ToPtr("01")})
	assert.Equal(t, map[string]any{"season": "01"}, changed)
	assert.Equal(t, "01", *f.Season)

	changed = MergeMediaFile(f, MediaFileUpdate{Season: lo.ToPtr("02"), Episode: lo.ToPtr("03")})
	assert.Equal(t, map[string]any{"episode": "03"}, changed)
	assert.Equal(t, "01", *f.Season)
	assert.Equal(t, "03", *f.Episode)
}

func TestMergeMediaFile_Size(t *testing.T) {
	tests := []struct {
		name     string
		existing int64
		incoming *int64
		want     int64
	}{
		{name: "fills zero size", existing: 0, incoming: lo.ToPtr(int64(200)), want: 200},
		{name: "keeps set size", existing: 100, incoming: lo.ToPtr(int64(200)), want: 100},
		{name: "ignores nil", existing: 0, incoming: nil, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &MediaFile{Size: tt.existing}
			MergeMediaFile(f, MediaFileUpdate{Size: tt.incoming})
			assert.Equal(t, tt.want, f.Size)
		})
	}
}

func TestMergeTorrent(t *testing.T) {
	tr := &Torrent{Title: "Old", MediaID: lo.ToPtr("1")}
	changed := MergeTorrent(tr, TorrentUpdate{
		Title:   lo.ToPtr("New"),
		Year:    lo.ToPtr(2020),
		MediaID: lo.ToPtr("2"),
	})

	assert.Equal(t, map[string]any{"year": 2020}, changed)
	assert.Equal(t, "Old", tr.Title)
	assert.Equal(t, "1", *tr.MediaID)
}

func TestMergeMedia(t *testing.T) {
	m := &Media{Title: "Title"}
	changed := MergeMedia(m, MediaUpdate{Title: lo.ToPtr("Other"), Year: lo.ToPtr(1999)})
	assert.Equal(t, map[string]any{"year": 1999}, changed)
	assert.Equal(t, "Title", m.Title)
}

func TestAddMedia_FirstWriterWins(t *testing.T) {
	c := newTestClient(t)

	inTx(t, c, func(tx *Tx) error {
		first, err := tx.AddMedia(&Media{ImdbID: "0133093", Title: "The Matrix", Year: 1999, MediaType: MediaKindMovie})
		require.NoError(t, err)
		assert.Equal(t, "The Matrix", first.Title)

		second, err := tx.AddMedia(&Media{ImdbID: "0133093", Title: "Something Else", Year: 2000, MediaType: MediaKindShow})
		require.NoError(t, err)
		assert.Equal(t, "The Matrix", second.Title)
		assert.Equal(t, MediaKindMovie, second.MediaType)

		n, err := tx.Count(EntityMedia)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		movies, err := tx.Count(EntityMovie)
		require.NoError(t, err)
		assert.Equal(t, int64(1), movies)
		return nil
	})
}

func TestAddMedia_Invalid(t *testing.T) {
	c := newTestClient(t)

	inTx(t, c, func(tx *Tx) error {
		_, err := tx.AddMedia(&Media{Title: "No ID", MediaType: MediaKindMovie})
		assert.Error(t, err)

		_, err = tx.AddMedia(&Media{ImdbID: "1", Title: "Bad", MediaType: "episode"})
		assert.Error(t, err)
		return nil
	})
}

func TestFindMediaByTitle(t *testing.T) {
	c := newTestClient(t)

	inTx(t, c, func(tx *Tx) error {
		_, err := tx.AddMedia(&Media{ImdbID: "1", Title: "Dune", Year: 1984, MediaType: MediaKindMovie})
		require.NoError(t, err)
		_, err = tx.AddMedia(&Media{ImdbID: "2", Title: "Dune", Year: 2021, MediaType: MediaKindMovie})
		require.NoError(t, err)
		_, err = tx.AddMedia(&Media{ImdbID: "3", Title: "Arrival", Year: 2016, MediaType: MediaKindMovie})
		require.NoError(t, err)
		_, err = tx.AddMedia(&Media{ImdbID: "4", Title: "Dune: Part Two", Year: 2024, MediaType: MediaKindMovie})
		require.NoError(t, err)

		tests := []struct {
			title string
			want  []string
		}{
			{"dune", []string{"1", "2", "4"}},
			{"PART two", []string{"4"}},
			{"riva", []string{"3"}},
			{"Blade Runner", nil},
		}
		for _, tt := range tests {
			found, err := tx.FindMediaByTitle(tt.title)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, lo.Map(found, func(m Media, _ int) string { return m.ImdbID }), tt.title)
		}
		return nil
	})
}

func TestAddTorrent_SkipExistingPath(t *testing.T) {
	c := newTestClient(t)

	inTx(t, c, func(tx *Tx) error {
		first, err := tx.AddTorrent(&Torrent{Path: "/torrents/a", Title: "A"})
		require.NoError(t, err)

		second, err := tx.AddTorrent(&Torrent{Path: "/torrents/a", Title: "B"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "A", second.Title)

		n, err := tx.Count(EntityTorrent)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return nil
	})
}

func TestAddMediaFile_MergesByPath(t *testing.T) {
	c := newTestClient(t)

	inTx(t, c, func(tx *Tx) error {
		tr, err := tx.AddTorrent(&Torrent{Path: "/torrents/show", Title: "Show"})
		require.NoError(t, err)

		// library side first: symlink pointing at the torrent file
		lib, err := tx.AddMediaFile(&MediaFile{
			SymlinkPath: lo.ToPtr("/library/shows/Show/e1.mkv"),
			TargetPath:  lo.ToPtr("/torrents/show/e1.mkv"),
			Size:        100,
			Season:      lo.ToPtr("01"),
		})
		require.NoError(t, err)

		// torrent side discovers the same target
		merged, err := tx.AddMediaFile(&MediaFile{
			TorrentID:  &tr.ID,
			TargetPath: lo.ToPtr("/torrents/show/e1.mkv"),
			Size:       999,
			Season:     lo.ToPtr("02"),
			Episode:    lo.ToPtr("01"),
		})
		require.NoError(t, err)

		assert.Equal(t, lib.ID, merged.ID)
		assert.Equal(t, tr.ID, *merged.TorrentID)
		assert.Equal(t, int64(100), merged.Size)
		assert.Equal(t, "01", *merged.Season)
		assert.Equal(t, "01", *merged.Episode)

		n, err := tx.Count(EntityMediaFile)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return nil
	})
}

func TestAddMediaFile_NoPath(t *testing.T) {
	c := newTestClient(t)

	inTx(t, c, func(tx *Tx) error {
		_, err := tx.AddMediaFile(&MediaFile{Size: 1})
		assert.Error(t, err)
		return nil
	})
}

func TestUpdateMediaFile_FillOnly(t *testing.T) {
	c := newTestClient(t)

	inTx(t, c, func(tx *Tx) error {
		f, err := tx.AddMediaFile(&MediaFile{TargetPath: lo.ToPtr("/t/a.mkv"), Size: 1})
		require.NoError(t, err)

		_, err = tx.UpdateMediaFile(f, MediaFileUpdate{Season: lo.ToPtr("01")})
		require.NoError(t, err)
		_, err = tx.UpdateMediaFile(f, MediaFileUpdate{Season: lo.ToPtr("02")})
		require.NoError(t, err)

		stored, err := tx.GetMediaFile(f.ID)
		require.NoError(t, err)
		assert.Equal(t, "01", *stored.Season)
		return nil
	})
}

func TestUpdateTorrent_FanOut(t *testing.T) {
	c := newTestClient(t)

	inTx(t, c, func(tx *Tx) error {
		_, err := tx.AddMedia(&Media{ImdbID: "42", Title: "Show", Year: 2020, MediaType: MediaKindShow})
		require.NoError(t, err)
		_, err = tx.AddMedia(&Media{ImdbID: "7", Title: "Other", Year: 2001, MediaType: MediaKindShow})
		require.NoError(t, err)

		tr, err := tx.AddTorrent(&Torrent{Path: "/torrents/show", Title: "Show"})
		require.NoError(t, err)

		for _, p := range []string{"/torrents/show/e1.mkv", "/torrents/show/e2.mkv"} {
			_, err := tx.AddMediaFile(&MediaFile{TorrentID: &tr.ID, TargetPath: lo.ToPtr(p), Size: 10})
			require.NoError(t, err)
		}

		_, err = tx.UpdateTorrent(tr, TorrentUpdate{MediaID: lo.ToPtr("42")})
		require.NoError(t, err)

		files, err := tx.MediaFilesForTorrent(tr.ID)
		require.NoError(t, err)
		require.Len(t, files, 2)
		for _, f := range files {
			require.NotNil(t, f.MediaID)
			assert.Equal(t, "42", *f.MediaID)
		}

		// write-once: a second media id is ignored
		_, err = tx.UpdateTorrent(tr, TorrentUpdate{MediaID: lo.ToPtr("7")})
		require.NoError(t, err)
		stored, err := tx.GetTorrent(tr.ID)
		require.NoError(t, err)
		assert.Equal(t, "42", *stored.MediaID)
		return nil
	})
}

func TestUpdateTorrent_FanOutKeepsExistingMedia(t *testing.T) {
	c := newTestClient(t)

	inTx(t, c, func(tx *Tx) error {
		_, err := tx.AddMedia(&Media{ImdbID: "1", Title: "A", Year: 2000, MediaType: MediaKindMovie})
		require.NoError(t, err)
		_, err = tx.AddMedia(&Media{ImdbID: "2", Title: "B", Year: 2000, MediaType: MediaKindMovie})
		require.NoError(t, err)

		tr, err := tx.AddTorrent(&Torrent{Path: "/torrents/x", Title: "X"})
		require.NoError(t, err)
		_, err = tx.AddMediaFile(&MediaFile{TargetPath: lo.ToPtr("/torrents/x/a.mkv"), Size: 1, MediaID: lo.ToPtr("2")})
		require.NoError(t, err)
		// attach the torrent to the existing file without going through propagation
		require.NoError(t, tx.db.Model(&MediaFile{}).Where("target_path = ?", "/torrents/x/a.mkv").Update("torrent_id", tr.ID).Error)
		_, err = tx.AddMediaFile(&MediaFile{TorrentID: &tr.ID, TargetPath: lo.ToPtr("/torrents/x/b.mkv"), Size: 1})
		require.NoError(t, err)

		tr, err = tx.GetTorrent(tr.ID)
		require.NoError(t, err)
		_, err = tx.UpdateTorrent(tr, TorrentUpdate{MediaID: lo.ToPtr("1")})
		require.NoError(t, err)

		a, err := tx.GetMediaFileByPath("/torrents/x/a.mkv")
		require.NoError(t, err)
		assert.Equal(t, "2", *a.MediaID)
		b, err := tx.GetMediaFileByPath("/torrents/x/b.mkv")
		require.NoError(t, err)
		assert.Equal(t, "1", *b.MediaID)
		return nil
	})
}

func TestMediaFile_PropagatesToTorrentAndSiblings(t *testing.T) {
	c := newTestClient(t)

	inTx(t, c, func(tx *Tx) error {
		_, err := tx.AddMedia(&Media{ImdbID: "42", Title: "Show", Year: 2020, MediaType: MediaKindShow})
		require.NoError(t, err)
		tr, err := tx.AddTorrent(&Torrent{Path: "/torrents/show", Title: "Show"})
		require.NoError(t, err)

		e1, err := tx.AddMediaFile(&MediaFile{TorrentID: &tr.ID, TargetPath: lo.ToPtr("/torrents/show/e1.mkv"), Size: 10})
		require.NoError(t, err)
		_, err = tx.AddMediaFile(&MediaFile{TorrentID: &tr.ID, TargetPath: lo.ToPtr("/torrents/show/e2.mkv"), Size: 10})
		require.NoError(t, err)

		// the library scan learns the identity of e1
		_, err = tx.UpdateMediaFile(e1, MediaFileUpdate{MediaID: lo.ToPtr("42")})
		require.NoError(t, err)

		stored, err := tx.GetTorrent(tr.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.MediaID)
		assert.Equal(t, "42", *stored.MediaID)

		e2, err := tx.GetMediaFileByPath("/torrents/show/e2.mkv")
		require.NoError(t, err)
		require.NotNil(t, e2.MediaID)
		assert.Equal(t, "42", *e2.MediaID)
		return nil
	})
}

func TestAddMediaFile_InheritsTorrentMedia(t *testing.T) {
	c := newTestClient(t)

	inTx(t, c, func(tx *Tx) error {
		_, err := tx.AddMedia(&Media{ImdbID: "42", Title: "Show", Year: 2020, MediaType: MediaKindShow})
		require.NoError(t, err)
		tr, err := tx.AddTorrent(&Torrent{Path: "/torrents/show", Title: "Show"})
		require.NoError(t, err)
		_, err = tx.UpdateTorrent(tr, TorrentUpdate{MediaID: lo.ToPtr("42")})
		require.NoError(t, err)

		f, err := tx.AddMediaFile(&MediaFile{TorrentID: &tr.ID, TargetPath: lo.ToPtr("/torrents/show/e02.mkv"), Size: 1})
		require.NoError(t, err)
		assert.Equal(t, lo.ToPtr("42"), f.MediaID)

		stored, err := tx.GetMediaFile(f.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.Media)
		assert.Equal(t, "Show", stored.Media.Title)
		return nil
	})
}

func TestSchema_ForeignKeys(t *testing.T) {
	c := newTestClient(t)

	ddl := func(table string) string {
		var sql string
		require.NoError(t, c.db.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&sql).Error)
		require.NotEmpty(t, sql, table)
		return sql
	}

	assert.NotContains(t, ddl("media"), "FOREIGN KEY")
	for _, table := range []string{"torrents", "mediafiles"} {
		assert.Regexp(t, "FOREIGN KEY \\(.imdb_id.\\) REFERENCES .media.\\s*\\(.imdb_id.\\)", ddl(table), table)
	}
}

func TestDeleteTorrent_Cascades(t *testing.T) {
	c := newTestClient(t)

	inTx(t, c, func(tx *Tx) error {
		tr, err := tx.AddTorrent(&Torrent{Path: "/torrents/a", Title: "A"})
		require.NoError(t, err)
		_, err = tx.AddMediaFile(&MediaFile{TorrentID: &tr.ID, TargetPath: lo.ToPtr("/torrents/a/a.mkv"), Size: 1})
		require.NoError(t, err)
		_, err = tx.AddMediaFile(&MediaFile{TargetPath: lo.ToPtr("/elsewhere/b.mkv"), Size: 1})
		require.NoError(t, err)

		require.NoError(t, tx.DeleteTorrent(tr))

		n, err := tx.Count(EntityMediaFile)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return nil
	})
}

func TestFind_Registry(t *testing.T) {
	c := newTestClient(t)

	inTx(t, c, func(tx *Tx) error {
		_, err := tx.AddMedia(&Media{ImdbID: "1", Title: "Movie", Year: 2000, MediaType: MediaKindMovie})
		require.NoError(t, err)
		_, err = tx.AddMedia(&Media{ImdbID: "2", Title: "Show", Year: 2000, MediaType: MediaKindShow})
		require.NoError(t, err)

		tests := []struct {
			name    string
			kind    EntityKind
			want    []string
			wantErr error
		}{
			{name: "media", kind: EntityMedia, want: []string{"1", "2"}},
			{name: "movie falls back to media", kind: EntityMovie, want: []string{"1"}},
			{name: "show falls back to media", kind: EntityShow, want: []string{"2"}},
			{name: "unknown kind", kind: EntityKind(99), wantErr: ErrUnknownEntity},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var media []Media
				err := tx.Find(tt.kind, &media)
				if tt.wantErr != nil {
					assert.True(t, errors.Is(err, tt.wantErr))
					return
				}
				require.NoError(t, err)
				ids := lo.Map(media, func(m Media, _ int) string { return m.ImdbID })
				assert.ElementsMatch(t, tt.want, ids)
			})
		}
		return nil
	})
}

func TestTransaction_Rollback(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := c.Transaction(ctx, func(tx *Tx) error {
		if _, err := tx.AddTorrent(&Torrent{Path: "/torrents/a", Title: "A"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	inTx(t, c, func(tx *Tx) error {
		got, err := tx.GetTorrentByPath("/torrents/a")
		require.NoError(t, err)
		assert.Nil(t, got)
		return nil
	})
}

func TestReset(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	inTx(t, c, func(tx *Tx) error {
		_, err := tx.AddTorrent(&Torrent{Path: "/torrents/a", Title: "A"})
		return err
	})

	require.NoError(t, c.Reset(ctx))

	inTx(t, c, func(tx *Tx) error {
		n, err := tx.Count(EntityTorrent)
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	})
}

func TestStats(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	inTx(t, c, func(tx *Tx) error {
		_, err := tx.AddMedia(&Media{ImdbID: "1", Title: "Movie", Year: 2000, MediaType: MediaKindMovie, Anime: true})
		require.NoError(t, err)
		tr, err := tx.AddTorrent(&Torrent{Path: "/torrents/a", Title: "A"})
		require.NoError(t, err)
		_, err = tx.AddTorrent(&Torrent{Path: "/torrents/b", Title: "B"})
		require.NoError(t, err)
		_, err = tx.AddMediaFile(&MediaFile{TorrentID: &tr.ID, TargetPath: lo.ToPtr("/torrents/a/a.mkv"), Size: 300, MediaID: lo.ToPtr("1")})
		require.NoError(t, err)
		_, err = tx.AddMediaFile(&MediaFile{SymlinkPath: lo.ToPtr("/library/x.mkv"), Size: 200})
		return err
	})

	s, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Media)
	assert.Equal(t, int64(1), s.Movies)
	assert.Equal(t, int64(0), s.Shows)
	assert.Equal(t, int64(1), s.Anime)
	assert.Equal(t, int64(2), s.Torrents)
	// torrent a picked up the media from its file
	assert.Equal(t, int64(1), s.UnresolvedTorrents)
	assert.Equal(t, int64(2), s.MediaFiles)
	assert.Equal(t, int64(1), s.LinkedFiles)
	assert.Equal(t, int64(1), s.PendingFiles)
	assert.Equal(t, int64(500), s.TotalSize)
	assert.Equal(t, int64(200), s.LinkedSize)
	assert.NotNil(t, s.LastTorrentAt)
	assert.NotNil(t, s.LastLinkAt)
}
