package channel_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/viva/internal/adapters/channel"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const zlibRepodata = `{
  "info": {"subdir": "linux-64"},
  "packages": {
    "zlib-1.3-h0.tar.bz2": {"name": "zlib", "version": "1.3", "build": "h0", "build_number": 0, "sha256": "aa", "depends": []}
  },
  "packages.conda": {},
  "unknown_field": true
}`

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func newRepodataServer(t *testing.T, hits *atomic.Int32, status *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if code := int(status.Load()); code != 0 && code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		switch r.URL.Path {
		case "/conda-forge/linux-64/repodata.json":
			_, _ = w.Write([]byte(zlibRepodata))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FetchCachesWithinTTL(t *testing.T) {
	t.Parallel()

	var hits, status atomic.Int32
	srv := newRepodataServer(t, &hits, &status)

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	clk := &clock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	client := channel.NewClientWithHTTP(t.TempDir(), time.Hour, logger, srv.Client(), clk.Now)

	base := srv.URL + "/conda-forge"

	repodata, err := client.Fetch(context.Background(), base, "linux-64", false)
	require.NoError(t, err)
	require.Contains(t, repodata.Packages, "zlib-1.3-h0.tar.bz2")
	assert.Equal(t, "linux-64", repodata.Info.Subdir)
	assert.Equal(t, int32(1), hits.Load())

	_, err = client.Fetch(context.Background(), base, "linux-64", false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "fresh cache is used")

	_, err = client.Fetch(context.Background(), base, "linux-64", true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load(), "refresh bypasses the cache")

	clk.now = clk.now.Add(2 * time.Hour)
	_, err = client.Fetch(context.Background(), base, "linux-64", false)
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load(), "expired cache is refetched")
}

func TestClient_FetchMissingSubdirIsEmpty(t *testing.T) {
	t.Parallel()

	var hits, status atomic.Int32
	srv := newRepodataServer(t, &hits, &status)

	ctrl := gomock.NewController(t)
	client := channel.NewClientWithHTTP(t.TempDir(), time.Hour, mocks.NewMockLogger(ctrl), srv.Client(), time.Now)

	repodata, err := client.Fetch(context.Background(), srv.URL+"/conda-forge", "osx-arm64", false)
	require.NoError(t, err)
	assert.Empty(t, repodata.Packages)
}

func TestClient_FetchFallsBackToStaleCache(t *testing.T) {
	t.Parallel()

	var hits, status atomic.Int32
	srv := newRepodataServer(t, &hits, &status)

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).Times(1)

	clk := &clock{now: time.Now()}
	client := channel.NewClientWithHTTP(t.TempDir(), time.Minute, logger, srv.Client(), clk.Now)
	base := srv.URL + "/conda-forge"

	_, err := client.Fetch(context.Background(), base, "linux-64", false)
	require.NoError(t, err)

	status.Store(http.StatusBadGateway)
	clk.now = clk.now.Add(time.Hour)

	repodata, err := client.Fetch(context.Background(), base, "linux-64", false)
	require.NoError(t, err)
	assert.Contains(t, repodata.Packages, "zlib-1.3-h0.tar.bz2")
}

func TestClient_FetchErrors(t *testing.T) {
	t.Parallel()

	t.Run("server error without cache", func(t *testing.T) {
		t.Parallel()

		var hits, status atomic.Int32
		status.Store(http.StatusInternalServerError)
		srv := newRepodataServer(t, &hits, &status)

		ctrl := gomock.NewController(t)
		client := channel.NewClientWithHTTP(t.TempDir(), time.Hour, mocks.NewMockLogger(ctrl), srv.Client(), time.Now)

		_, err := client.Fetch(context.Background(), srv.URL+"/conda-forge", "linux-64", false)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrChannelFetchFailed)
	})

	t.Run("garbage index", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}))
		t.Cleanup(srv.Close)

		ctrl := gomock.NewController(t)
		client := channel.NewClientWithHTTP(t.TempDir(), time.Hour, mocks.NewMockLogger(ctrl), srv.Client(), time.Now)

		_, err := client.Fetch(context.Background(), srv.URL+"/conda-forge", "linux-64", false)
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrChannelParseFailed.Error())
	})
}
