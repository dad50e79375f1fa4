package ports

import "context"

// Fetcher downloads remote resources.
type Fetcher interface {
	// Fetch returns the body of the resource at url.
	// It blocks until the transfer completes or ctx is done.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
