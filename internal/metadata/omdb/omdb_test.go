package omdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jon4hz/symlinkarr/internal/config"
	"github.com/jon4hz/symlinkarr/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(&config.MetadataConfig{
		URL:        srv.URL,
		APIKey:     "secret",
		MaxRetries: 2,
		Timeout:    time.Second,
	}, WithBackOff(func() backoff.BackOff {
		return backoff.NewConstantBackOff(time.Millisecond)
	}))
}

func TestClient_SearchByTitle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("apikey"))
		assert.Equal(t, "The Matrix", q.Get("s"))
		assert.Equal(t, "1999", q.Get("y"))
		_, _ = w.Write([]byte(`{
			"Search": [
				{"Title": "The Matrix", "Year": "1999", "imdbID": "tt0133093", "Type": "movie"},
				{"Title": "The Matrix Revisited", "Year": "2001", "imdbID": "tt0295432", "Type": "movie"}
			],
			"totalResults": "2",
			"Response": "True"
		}`))
	})

	results, err := c.SearchByTitle(context.Background(), "The Matrix 1999")
	require.NoError(t, err)
	assert.Equal(t, []metadata.SearchResult{
		{ID: "0133093", Classification: "movie"},
		{ID: "0295432", Classification: "movie"},
	}, results)
}

func TestClient_SearchByTitle_FallsBackToFullQuery(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if q.Get("y") != "" {
			_, _ = w.Write([]byte(`{"Response": "False", "Error": "Movie not found!"}`))
			return
		}
		assert.Equal(t, "Blade Runner 2049", q.Get("s"))
		_, _ = w.Write([]byte(`{"Search": [{"imdbID": "tt1856101", "Type": "movie"}], "Response": "True"}`))
	})

	results, err := c.SearchByTitle(context.Background(), "Blade Runner 2049")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1856101", results[0].ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_SearchByTitle_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response": "False", "Error": "Movie not found!"}`))
	})

	results, err := c.SearchByTitle(context.Background(), "Nothing")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClient_SearchByTitle_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response": "False", "Error": "Invalid API key!"}`))
	})

	_, err := c.SearchByTitle(context.Background(), "Anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key!")
}

func TestClient_FetchByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tt0245429", r.URL.Query().Get("i"))
		_, _ = w.Write([]byte(`{
			"Title": "Spirited Away",
			"Year": "2001",
			"Genre": "Animation, Adventure, Family",
			"Country": "Japan",
			"imdbID": "tt0245429",
			"Type": "movie",
			"Response": "True"
		}`))
	})

	title, err := c.FetchByID(context.Background(), "0245429")
	require.NoError(t, err)
	assert.Equal(t, &metadata.Title{
		ID:             "0245429",
		Title:          "Spirited Away",
		Year:           2001,
		Classification: "movie",
		Genres:         []string{"Animation", "Adventure", "Family"},
		Countries:      []string{"Japan"},
	}, title)
}

func TestClient_FetchByID_Absent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response": "False", "Error": "Incorrect IMDb ID."}`))
	})

	title, err := c.FetchByID(context.Background(), "0000000")
	require.NoError(t, err)
	assert.Nil(t, title)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"Title": "Heat", "Year": "1995", "imdbID": "tt0113277", "Type": "movie", "Response": "True"}`))
	})

	title, err := c.FetchByID(context.Background(), "0113277")
	require.NoError(t, err)
	require.NotNil(t, title)
	assert.Equal(t, "Heat", title.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.FetchByID(context.Background(), "0113277")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchByID(context.Background(), "0113277")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"1999", 1999},
		{"2011–2019", 2011},
		{"2020–", 2020},
		{"N/A", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseYear(tt.input))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Animation", "Comedy"}, splitList("Animation, Comedy"))
	assert.Nil(t, splitList("N/A"))
	assert.Nil(t, splitList(""))
}
