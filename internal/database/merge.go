package database

// Fill-only merges. A field is only written while it is unset on the
// existing record; set fields are never replaced. Each merge mutates the
// existing record and returns the changed columns, ready for gorm's Updates.

// MergeMedia applies a fill-only update to m.
func MergeMedia(m *Media, in MediaUpdate) map[string]any {
	changed := make(map[string]any)
	if m.Title == "" && in.Title != nil && *in.Title != "" {
		m.Title = *in.Title
		changed["title"] = m.Title
	}
	if m.Year == 0 && in.Year != nil && *in.Year != 0 {
		m.Year = *in.Year
		changed["year"] = m.Year
	}
	return changed
}

// MergeTorrent applies a fill-only update to t.
func MergeTorrent(t *Torrent, in TorrentUpdate) map[string]any {
	changed := make(map[string]any)
	if t.Title == "" && in.Title != nil && *in.Title != "" {
		t.Title = *in.Title
		changed["title"] = t.Title
	}
	fill(changed, "year", &t.Year, in.Year)
	fill(changed, "imdb_id", &t.MediaID, in.MediaID)
	return changed
}

// MergeMediaFile applies a fill-only update to f.
func MergeMediaFile(f *MediaFile, in MediaFileUpdate) map[string]any {
	changed := make(map[string]any)
	fill(changed, "imdb_id", &f.MediaID, in.MediaID)
	fill(changed, "torrent_id", &f.TorrentID, in.TorrentID)
	fill(changed, "symlink_path", &f.SymlinkPath, in.SymlinkPath)
	fill(changed, "target_path", &f.TargetPath, in.TargetPath)
	fill(changed, "season", &f.Season, in.Season)
	fill(changed, "episode", &f.Episode, in.Episode)
	if f.Size == 0 && in.Size != nil && *in.Size > 0 {
		f.Size = *in.Size
		changed["size"] = f.Size
	}
	return changed
}

func fill[T any](changed map[string]any, column string, dst **T, src *T) {
	if *dst != nil || src == nil {
		return
	}
	v := *src
	*dst = &v
	changed[column] = v
}
