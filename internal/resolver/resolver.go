package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/symlinkarr/internal/database"
	"github.com/jon4hz/symlinkarr/internal/metadata"
	"github.com/samber/lo"
)

var (
	// ErrValidation is returned for invalid input.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound is returned when the metadata service does not know a title.
	ErrNotFound = errors.New("title not found")
	// ErrLookup is returned when the metadata service fails.
	ErrLookup = errors.New("metadata lookup failed")
)

// showClassifications are the lower case classification labels of shows.
var showClassifications = []string{"tv series", "tv mini series", "series"}

// CanonicalMedia is the canonical identity of a title.
type CanonicalMedia struct {
	ID    string
	Title string
	Year  int
	Anime bool
	Kind  database.MediaKind
}

// Resolver maps parsed names to external ids with a metadata service.
type Resolver struct {
	service metadata.Service
}

// New creates a new resolver.
func New(service metadata.Service) *Resolver {
	return &Resolver{service: service}
}

// Classify maps a classification label of the metadata service to a media kind.
func Classify(classification string) database.MediaKind {
	if lo.Contains(showClassifications, strings.ToLower(strings.TrimSpace(classification))) {
		return database.MediaKindShow
	}
	return database.MediaKindMovie
}

// IsAnime reports whether a title with the given genres and countries is anime.
func IsAnime(genres, countries []string) bool {
	if lo.Contains(genres, "Anime") {
		return true
	}
	return lo.Contains(genres, "Animation") && lo.Contains(countries, "Japan")
}

// ResolveExternalID searches the id of the first result matching kind.
// It returns an empty id if nothing matches.
func (r *Resolver) ResolveExternalID(ctx context.Context, title, year string, kind database.MediaKind) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: empty title", ErrValidation)
	}
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown media kind %q", ErrValidation, kind)
	}

	query := title
	if year != "" {
		query = title + " " + year
	}

	results, err := r.service.SearchByTitle(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%w: search %q: %w", ErrLookup, query, err)
	}

	match, ok := lo.Find(results, func(res metadata.SearchResult) bool {
		return Classify(res.Classification) == kind
	})
	if !ok {
		log.Debug("no matching search result", "query", query, "kind", kind, "results", len(results))
		return "", nil
	}
	return match.ID, nil
}

// FetchCanonicalMedia fetches the canonical identity of id.
func (r *Resolver) FetchCanonicalMedia(ctx context.Context, id string) (*CanonicalMedia, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty id", ErrValidation)
	}

	title, err := r.service.FetchByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %q: %w", ErrLookup, id, err)
	}
	if title == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return &CanonicalMedia{
		ID:    id,
		Title: title.Title,
		Year:  title.Year,
		Anime: IsAnime(title.Genres, title.Countries),
		Kind:  Classify(title.Classification),
	}, nil
}
