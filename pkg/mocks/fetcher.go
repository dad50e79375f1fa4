package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/poster/pkg/ports"
)

// Fetcher is a mock implementation of ports.Fetcher serving canned bodies.
type Fetcher struct {
	mu    sync.Mutex
	Files map[string][]byte
	Calls []string

	FetchFunc func(ctx context.Context, url string) ([]byte, error)
}

// NewFetcher creates a new mock Fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{Files: make(map[string][]byte)}
}

func (m *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, url)
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, url)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrFetch, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.Files[url]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s: status 404", ports.ErrFetch, url)
}

var _ ports.Fetcher = (*Fetcher)(nil)
