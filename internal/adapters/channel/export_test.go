package channel

import (
	"net/http"
	"time"

	"go.trai.ch/viva/internal/core/ports"
)

// NewClientWithHTTP exposes newClientWithHTTP for tests.
func NewClientWithHTTP(cacheDir string, ttl time.Duration, logger ports.Logger, client *http.Client, now func() time.Time) *Client {
	return newClientWithHTTP(cacheDir, ttl, logger, client, now)
}

// NewFetcherWithClient exposes newFetcherWithClient for tests.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return newFetcherWithClient(client)
}

// SetMaxSteps bounds the search of s.
func (s *Solver) SetMaxSteps(n int) {
	s.maxSteps = n
}
