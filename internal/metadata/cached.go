package metadata

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	gocache "github.com/eko/gocache/lib/v4/cache"
	"github.com/jon4hz/symlinkarr/internal/cache"
)

const (
	searchCachePrefix = "metadata-search-"
	titleCachePrefix  = "metadata-title-"
)

// CachedService caches the lookups of another Service.
// Empty search results and unknown titles are not cached.
type CachedService struct {
	next    Service
	results *cache.PrefixedCache[[]SearchResult]
	titles  *cache.PrefixedCache[*Title]
}

var _ Service = (*CachedService)(nil)

// NewCached wraps next with a cache. Entries expire after ttl.
func NewCached(next Service, c *gocache.Cache[any], ttl time.Duration) *CachedService {
	return &CachedService{
		next:    next,
		results: cache.NewPrefixedCache[[]SearchResult](c, searchCachePrefix, ttl),
		titles:  cache.NewPrefixedCache[*Title](c, titleCachePrefix, ttl),
	}
}

func searchKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// SearchByTitle implements Service.
func (s *CachedService) SearchByTitle(ctx context.Context, query string) ([]SearchResult, error) {
	key := searchKey(query)
	if results, err := s.results.Get(ctx, key); err == nil {
		log.Debug("metadata search cache hit", "query", query)
		return results, nil
	}

	results, err := s.next.SearchByTitle(ctx, query)
	if err != nil || len(results) == 0 {
		return results, err
	}
	if err := s.results.Set(ctx, key, results); err != nil {
		log.Warn("failed to cache search results", "query", query, "error", err)
	}
	return results, nil
}

// FetchByID implements Service.
func (s *CachedService) FetchByID(ctx context.Context, id string) (*Title, error) {
	if title, err := s.titles.Get(ctx, id); err == nil && title != nil {
		log.Debug("metadata title cache hit", "id", id)
		return title, nil
	}

	title, err := s.next.FetchByID(ctx, id)
	if err != nil || title == nil {
		return title, err
	}
	if err := s.titles.Set(ctx, id, title); err != nil {
		log.Warn("failed to cache title", "id", id, "error", err)
	}
	return title, nil
}

// Clear drops all cached lookups.
func (s *CachedService) Clear(ctx context.Context) error {
	return s.titles.Clear(ctx)
}
