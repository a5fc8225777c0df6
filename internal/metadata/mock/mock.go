package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/jon4hz/symlinkarr/internal/metadata"
)

// MockService is a mock implementation of metadata.Service for testing.
type MockService struct {
	mu sync.RWMutex

	searches map[string][]metadata.SearchResult
	titles   map[string]*metadata.Title

	// Call counters
	SearchCalls int
	FetchCalls  int

	// Error simulation
	SearchByTitleError error
	FetchByIDError     error
}

var _ metadata.Service = (*MockService)(nil)

// NewMockService creates a new MockService instance.
func NewMockService() *MockService {
	return &MockService{
		searches: make(map[string][]metadata.SearchResult),
		titles:   make(map[string]*metadata.Title),
	}
}

// Reset clears all data, counters and errors from the mock.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.searches = make(map[string][]metadata.SearchResult)
	m.titles = make(map[string]*metadata.Title)
	m.SearchCalls = 0
	m.FetchCalls = 0
	m.SearchByTitleError = nil
	m.FetchByIDError = nil
}

// SetSearchResults sets the results returned for query. Queries are matched case-insensitively.
func (m *MockService) SetSearchResults(query string, results ...metadata.SearchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches[strings.ToLower(query)] = results
}

// AddTitle makes title available to FetchByID.
func (m *MockService) AddTitle(title *metadata.Title) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles[title.ID] = title
}

// SearchByTitle is a mock implementation.
func (m *MockService) SearchByTitle(ctx context.Context, query string) ([]metadata.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SearchCalls++
	if m.SearchByTitleError != nil {
		return nil, m.SearchByTitleError
	}
	return m.searches[strings.ToLower(query)], nil
}

// FetchByID is a mock implementation.
func (m *MockService) FetchByID(ctx context.Context, id string) (*metadata.Title, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FetchCalls++
	if m.FetchByIDError != nil {
		return nil, m.FetchByIDError
	}
	title, ok := m.titles[id]
	if !ok {
		return nil, nil
	}
	t := *title
	return &t, nil
}
