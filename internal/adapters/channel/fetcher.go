package channel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/zerr"
)

// Fetcher implements ports.PackageFetcher over HTTP.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a new Fetcher.
func NewFetcher() *Fetcher {
	return newFetcherWithClient(&http.Client{Timeout: httpClientTimeout})
}

// newFetcherWithClient creates a Fetcher with a custom http client (used for testing).
func newFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{httpClient: client}
}

// Fetch downloads the record's archive into dir and verifies its SHA-256.
// The archive keeps its channel file name so the extractor can pick the format.
func (f *Fetcher) Fetch(ctx context.Context, rec domain.PackageRecord, dir string) (string, error) {
	if rec.SHA256 == "" {
		return "", zerr.With(zerr.Wrap(domain.ErrMissingContentHash, "record has no sha256"), "package", rec.Key())
	}
	if rec.URL == "" {
		return "", zerr.With(zerr.Wrap(domain.ErrPackageDownloadFailed, "record has no url"), "package", rec.Key())
	}

	name := rec.Filename
	if name == "" {
		name = path.Base(rec.URL)
	}
	dest := filepath.Join(dir, filepath.Base(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rec.URL, http.NoBody)
	if err != nil {
		return "", f.downloadErr(err, rec)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", f.downloadErr(err, rec)
	}
	defer resp.Body.Close() //nolint:errcheck // Response body close

	if resp.StatusCode != http.StatusOK {
		statusErr := zerr.With(zerr.Wrap(domain.ErrPackageDownloadFailed, "unexpected status"), "status_code", resp.StatusCode)
		return "", zerr.With(statusErr, "url", rec.URL)
	}

	//nolint:gosec // dest is inside the caller's temp dir
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, domain.PrivateFilePerm)
	if err != nil {
		return "", f.downloadErr(err, rec)
	}

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, hasher), resp.Body); err != nil {
		_ = out.Close()
		return "", f.downloadErr(err, rec)
	}
	if err := out.Close(); err != nil {
		return "", f.downloadErr(err, rec)
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(actual, rec.SHA256) {
		_ = os.Remove(dest)
		mismatch := zerr.With(zerr.Wrap(domain.ErrChecksumMismatch, "downloaded archive does not match its record"), "package", rec.Key())
		mismatch = zerr.With(mismatch, "expected", rec.SHA256)
		return "", zerr.With(mismatch, "actual", actual)
	}

	return dest, nil
}

func (f *Fetcher) downloadErr(err error, rec domain.PackageRecord) error {
	wrapped := zerr.With(zerr.Wrap(err, "download interrupted"), "package", rec.Key())
	return errors.Join(domain.ErrPackageDownloadFailed, zerr.With(wrapped, "url", rec.URL))
}
