package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/jon4hz/symlinkarr/internal/database"
	"github.com/jon4hz/symlinkarr/internal/metadata"
	"github.com/jon4hz/symlinkarr/internal/metadata/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		input string
		want  database.MediaKind
	}{
		{"TV Series", database.MediaKindShow},
		{"tv mini series", database.MediaKindShow},
		{"series", database.MediaKindShow},
		{"movie", database.MediaKindMovie},
		{"episode", database.MediaKindMovie},
		{"", database.MediaKindMovie},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.input))
		})
	}
}

func TestIsAnime(t *testing.T) {
	tests := []struct {
		name      string
		genres    []string
		countries []string
		want      bool
	}{
		{name: "anime genre", genres: []string{"Anime"}, want: true},
		{name: "japanese animation", genres: []string{"Animation", "Drama"}, countries: []string{"Japan"}, want: true},
		{name: "animation elsewhere", genres: []string{"Animation"}, countries: []string{"United States"}},
		{name: "japanese drama", genres: []string{"Drama"}, countries: []string{"Japan"}},
		{name: "nothing", genres: nil, countries: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAnime(tt.genres, tt.countries))
		})
	}
}

func TestResolver_ResolveExternalID(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMockService()
	m.SetSearchResults("Breaking Bad 2008",
		metadata.SearchResult{ID: "1", Classification: "movie"},
		metadata.SearchResult{ID: "0903747", Classification: "TV Series"},
	)
	m.SetSearchResults("Heat",
		metadata.SearchResult{ID: "0113277", Classification: "movie"},
	)
	r := New(m)

	tests := []struct {
		name    string
		title   string
		year    string
		kind    database.MediaKind
		want    string
		wantErr error
	}{
		{name: "first match of kind", title: "Breaking Bad", year: "2008", kind: database.MediaKindShow, want: "0903747"},
		{name: "movie kind", title: "Breaking Bad", year: "2008", kind: database.MediaKindMovie, want: "1"},
		{name: "query without year", title: "Heat", kind: database.MediaKindMovie, want: "0113277"},
		{name: "no match", title: "Heat", kind: database.MediaKindShow, want: ""},
		{name: "no results", title: "Unknown", kind: database.MediaKindMovie, want: ""},
		{name: "empty title", title: " ", kind: database.MediaKindMovie, wantErr: ErrValidation},
		{name: "unknown kind", title: "Heat", kind: database.MediaKind("music"), wantErr: ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveExternalID(ctx, tt.title, tt.year, tt.kind)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_ResolveExternalID_LookupError(t *testing.T) {
	m := mock.NewMockService()
	m.SearchByTitleError = errors.New("connection refused")

	_, err := New(m).ResolveExternalID(context.Background(), "Heat", "1995", database.MediaKindMovie)
	assert.ErrorIs(t, err, ErrLookup)
}

func TestResolver_FetchCanonicalMedia(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMockService()
	m.AddTitle(&metadata.Title{
		ID:             "0245429",
		Title:          "Spirited Away",
		Year:           2001,
		Classification: "movie",
		Genres:         []string{"Animation", "Adventure"},
		Countries:      []string{"Japan"},
	})
	m.AddTitle(&metadata.Title{
		ID:             "0903747",
		Title:          "Breaking Bad",
		Year:           2008,
		Classification: "series",
		Genres:         []string{"Crime", "Drama"},
	})
	r := New(m)

	got, err := r.FetchCanonicalMedia(ctx, "0245429")
	require.NoError(t, err)
	assert.Equal(t, &CanonicalMedia{ID: "0245429", Title: "Spirited Away", Year: 2001, Anime: true, Kind: database.MediaKindMovie}, got)

	got, err = r.FetchCanonicalMedia(ctx, "0903747")
	require.NoError(t, err)
	assert.Equal(t, &CanonicalMedia{ID: "0903747", Title: "Breaking Bad", Year: 2008, Kind: database.MediaKindShow}, got)

	_, err = r.FetchCanonicalMedia(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = r.FetchCanonicalMedia(ctx, "404")
	assert.ErrorIs(t, err, ErrNotFound)

	m.FetchByIDError = errors.New("timeout")
	_, err = r.FetchCanonicalMedia(ctx, "0245429")
	assert.ErrorIs(t, err, ErrLookup)
}
