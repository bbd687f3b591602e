// Package channel implements the Resolver and PackageFetcher ports against conda channels.
package channel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	vivafs "go.trai.ch/viva/internal/adapters/fs"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	httpClientTimeout = 5 * time.Minute
	repodataFileName  = "repodata.json"

	// NoarchSubdir holds platform independent packages in every channel.
	NoarchSubdir = "noarch"
)

// Repodata is the index of one channel subdir.
type Repodata struct {
	Info struct {
		Subdir string `json:"subdir"`
	} `json:"info"`
	Packages      map[string]RepodataRecord `json:"packages"`
	PackagesConda map[string]RepodataRecord `json:"packages.conda"`
}

// RepodataRecord is a single package entry of a Repodata index.
type RepodataRecord struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build"`
	BuildNumber int      `json:"build_number"`
	Depends     []string `json:"depends"`
	SHA256      string   `json:"sha256"`
	Size        int64    `json:"size"`
	Subdir      string   `json:"subdir"`
	Timestamp   int64    `json:"timestamp"`
}

// cacheEntry is the on-disk form of a cached Repodata index.
type cacheEntry struct {
	URL       string          `json:"url"`
	FetchedAt time.Time       `json:"fetched_at"`
	Repodata  json.RawMessage `json:"repodata"`
}

// RepodataSource provides channel indexes to the Solver.
type RepodataSource interface {
	Fetch(ctx context.Context, channelURL, subdir string, refresh bool) (*Repodata, error)
}

// Client downloads channel indexes and keeps them in an on-disk cache.
type Client struct {
	cacheDir   string
	ttl        time.Duration
	httpClient *http.Client
	logger     ports.Logger
	now        func() time.Time
}

// NewClient creates a Client caching indexes below cacheDir for ttl.
func NewClient(cacheDir string, ttl time.Duration, logger ports.Logger) *Client {
	return newClientWithHTTP(cacheDir, ttl, logger, &http.Client{Timeout: httpClientTimeout}, time.Now)
}

// newClientWithHTTP creates a Client with a custom http client and clock (used for testing).
func newClientWithHTTP(cacheDir string, ttl time.Duration, logger ports.Logger, client *http.Client, now func() time.Time) *Client {
	return &Client{
		cacheDir:   filepath.Clean(cacheDir),
		ttl:        ttl,
		httpClient: client,
		logger:     logger,
		now:        now,
	}
}

// Fetch returns the index of channelURL/subdir. A cached copy younger than the
// TTL is used unless refresh is set. When the channel cannot be reached a stale
// cached copy is used with a warning. A subdir the channel does not serve is empty.
func (c *Client) Fetch(ctx context.Context, channelURL, subdir string, refresh bool) (*Repodata, error) {
	url := strings.TrimRight(channelURL, "/") + "/" + subdir + "/" + repodataFileName
	cachePath := c.cachePath(url)

	cached, cacheErr := c.loadFromCache(cachePath)
	if cacheErr == nil && !refresh && c.now().Sub(cached.FetchedAt) < c.ttl {
		return decodeRepodata(cached.Repodata, url)
	}

	raw, err := c.download(ctx, url)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &Repodata{}, nil
		}
		if cacheErr == nil && ctx.Err() == nil {
			c.logger.Warn(fmt.Sprintf("using cached index for %s: %v", url, err))
			return decodeRepodata(cached.Repodata, url)
		}
		return nil, err
	}

	repodata, err := decodeRepodata(raw, url)
	if err != nil {
		return nil, err
	}

	if err := c.saveToCache(cachePath, url, raw); err != nil {
		c.logger.Warn(fmt.Sprintf("could not cache index for %s: %v", url, err))
	}

	return repodata, nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrChannelFetchFailed.Error()), "url", url)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrChannelFetchFailed.Error()), "url", url)
	}
	defer resp.Body.Close() //nolint:errcheck // Response body close

	if resp.StatusCode == http.StatusNotFound {
		return nil, zerr.With(zerr.Wrap(domain.ErrNotFound, "channel subdir not found"), "url", url)
	}
	if resp.StatusCode != http.StatusOK {
		fetchErr := zerr.With(zerr.Wrap(domain.ErrChannelFetchFailed, "unexpected status"), "status_code", resp.StatusCode)
		return nil, zerr.With(fetchErr, "url", url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrChannelFetchFailed.Error()), "url", url)
	}
	return body, nil
}

func decodeRepodata(raw []byte, url string) (*Repodata, error) {
	var repodata Repodata
	if err := json.Unmarshal(raw, &repodata); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrChannelParseFailed.Error()), "url", url)
	}
	return &repodata, nil
}

// cachePath returns the cache file for an index URL.
func (c *Client) cachePath(url string) string {
	hash := sha256.Sum256([]byte(url))
	return filepath.Join(c.cacheDir, hex.EncodeToString(hash[:])+".json")
}

func (c *Client) loadFromCache(path string) (*cacheEntry, error) {
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, zerr.Wrap(err, "failed to read index cache")
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.Wrap(err, "failed to decode index cache")
	}
	return &entry, nil
}

func (c *Client) saveToCache(path, url string, raw []byte) error {
	data, err := json.Marshal(cacheEntry{
		URL:       url,
		FetchedAt: c.now().UTC(),
		Repodata:  raw,
	})
	if err != nil {
		return zerr.Wrap(err, "failed to encode index cache")
	}
	return vivafs.AtomicWriteFile(path, data, domain.FilePerm)
}
