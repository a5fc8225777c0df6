package metadata

import "context"

// SearchResult is a single hit of a title search.
type SearchResult struct {
	// ID is the numeric IMDb id without the "tt" prefix.
	ID             string `json:"id"`
	Classification string `json:"classification"`
}

// Title holds the metadata of a single title.
type Title struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Year           int      `json:"year"`
	Classification string   `json:"classification"`
	Genres         []string `json:"genres"`
	Countries      []string `json:"countries"`
}

// Service looks up titles in an external metadata service.
type Service interface {
	// SearchByTitle returns the hits for query in relevance order.
	SearchByTitle(ctx context.Context, query string) ([]SearchResult, error)
	// FetchByID returns the title with the given id, or nil if the service does not know it.
	FetchByID(ctx context.Context, id string) (*Title, error)
}
