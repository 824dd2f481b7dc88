package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/exrx-scraper/pkg/config"
	"github.com/Sriram-PR/exrx-scraper/pkg/utils"
)

// testLogger returns a logger that discards output
func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// mockSite serves fixed bodies per path over TLS and counts requests per path
func mockSite(t *testing.T, pages map[string]string, statuses map[string]int) (*httptest.Server, map[string]*atomic.Int32) {
	t.Helper()
	hits := make(map[string]*atomic.Int32)
	for path := range pages {
		hits[path] = &atomic.Int32{}
	}
	for path := range statuses {
		if _, ok := hits[path]; !ok {
			hits[path] = &atomic.Int32{}
		}
	}
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if counter, ok := hits[r.URL.Path]; ok {
			counter.Add(1)
		}
		if code, ok := statuses[r.URL.Path]; ok {
			w.WriteHeader(code)
			fmt.Fprint(w, pages[r.URL.Path])
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server, hits
}

func TestFetchDocument_Success(t *testing.T) {
	server, hits := mockSite(t, map[string]string{
		"/page": `<html><body><h1 class="page-title">Chest Exercises</h1></body></html>`,
	}, nil)

	fetcher := NewFetcher(server.Client(), "", nil, testLogger())
	res := fetcher.FetchDocument(context.Background(), server.URL+"/page")

	require.True(t, res.OK(), "unexpected error: %v", res.Err)
	assert.NoError(t, res.Failure())
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, server.URL+"/page", res.URL)
	assert.Equal(t, "Chest Exercises", res.Document().Find("h1.page-title").Text())
	assert.Equal(t, int32(1), hits["/page"].Load())
}

func TestFetchDocument_NonSuccessStatusIsParsed(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
		category string
	}{
		{"404 Not Found", http.StatusNotFound, utils.ErrClientHTTPError, "HTTP_404"},
		{"500 Internal Server Error", http.StatusInternalServerError, utils.ErrServerHTTPError, "HTTP_5xx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := mockSite(t,
				map[string]string{"/page": `<h1 class="page-title">Page Not Found</h1>`},
				map[string]int{"/page": tt.status})

			fetcher := NewFetcher(server.Client(), "", nil, testLogger())
			res := fetcher.FetchDocument(context.Background(), server.URL+"/page")

			require.True(t, res.OK(), "unexpected error: %v", res.Err)
			assert.NoError(t, res.Err)
			assert.Equal(t, tt.status, res.StatusCode)
			assert.Equal(t, "Page Not Found", res.Document().Find("h1.page-title").Text())

			// The status still surfaces for bookkeeping
			assert.True(t, errors.Is(res.Failure(), tt.sentinel), "got %v", res.Failure())
			assert.Equal(t, tt.category, utils.CategorizeError(res.Failure()))
		})
	}
}

func TestFetchDocument_FailOnHTTPError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"404 Not Found", http.StatusNotFound, utils.ErrClientHTTPError},
		{"429 Too Many Requests", http.StatusTooManyRequests, utils.ErrClientHTTPError},
		{"500 Internal Server Error", http.StatusInternalServerError, utils.ErrServerHTTPError},
		{"304 Not Modified", http.StatusNotModified, utils.ErrOtherHTTPError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, hits := mockSite(t,
				map[string]string{"/page": `<h1 class="page-title">Error page</h1>`},
				map[string]int{"/page": tt.status})

			fetcher := NewFetcher(server.Client(), "", nil, testLogger())
			fetcher.SetFailOnHTTPError(true)
			res := fetcher.FetchDocument(context.Background(), server.URL+"/page")

			assert.False(t, res.OK())
			assert.Nil(t, res.Doc)
			assert.Equal(t, tt.status, res.StatusCode)
			assert.True(t, errors.Is(res.Err, tt.sentinel), "got %v", res.Err)
			assert.Equal(t, res.Err, res.Failure())
			assert.Equal(t, int32(1), hits["/page"].Load(), "no retries expected")

			// Extraction on a failed result degrades to empty selections
			assert.Equal(t, 0, res.Document().Find("h1").Length())
			assert.Equal(t, "", res.Document().Find("h1.page-title").Text())
		})
	}
}

func TestFetchDocument_NetworkError(t *testing.T) {
	server := httptest.NewTLSServer(http.NotFoundHandler())
	client := server.Client()
	deadURL := server.URL + "/gone"
	server.Close()

	fetcher := NewFetcher(client, "", nil, testLogger())
	res := fetcher.FetchDocument(context.Background(), deadURL)

	assert.False(t, res.OK())
	assert.Equal(t, 0, res.StatusCode)
	assert.True(t, errors.Is(res.Err, utils.ErrNetwork), "got %v", res.Err)
}

func TestFetchDocument_InvalidURL(t *testing.T) {
	fetcher := NewFetcher(http.DefaultClient, "", nil, testLogger())
	res := fetcher.FetchDocument(context.Background(), "://not a url")

	assert.False(t, res.OK())
	assert.True(t, errors.Is(res.Err, utils.ErrRequestCreation), "got %v", res.Err)
}

func TestFetchDocument_ContextCancelled(t *testing.T) {
	server, _ := mockSite(t, map[string]string{"/page": "<p>hi</p>"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewFetcher(server.Client(), "", nil, testLogger())
	res := fetcher.FetchDocument(ctx, server.URL+"/page")

	assert.False(t, res.OK())
	assert.True(t, errors.Is(res.Err, context.Canceled), "got %v", res.Err)
	assert.False(t, errors.Is(res.Err, utils.ErrNetwork))
}

func TestFetchDocument_UserAgent(t *testing.T) {
	var gotAgent atomic.Value
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent.Store(r.Header.Get("User-Agent"))
		fmt.Fprint(w, "<p>ok</p>")
	}))
	t.Cleanup(server.Close)

	fetcher := NewFetcher(server.Client(), "exrx-scraper/test", nil, testLogger())
	res := fetcher.FetchDocument(context.Background(), server.URL)

	require.True(t, res.OK())
	assert.Equal(t, "exrx-scraper/test", gotAgent.Load())
}

func TestFetchDocument_RobotsDisallowed(t *testing.T) {
	server, hits := mockSite(t, map[string]string{
		"/robots.txt":       "User-agent: *\nDisallow: /private/\n",
		"/private/page":     "<p>secret</p>",
		"/Lists/Directory": "<p>public</p>",
	}, nil)

	robots := NewRobotsGate(server.Client(), testLogger())
	fetcher := NewFetcher(server.Client(), "exrx-scraper", robots, testLogger())

	res := fetcher.FetchDocument(context.Background(), server.URL+"/private/page")
	assert.False(t, res.OK())
	assert.True(t, errors.Is(res.Err, utils.ErrRobotsDisallowed), "got %v", res.Err)
	assert.Equal(t, int32(0), hits["/private/page"].Load())

	res = fetcher.FetchDocument(context.Background(), server.URL+"/Lists/Directory")
	assert.True(t, res.OK(), "unexpected error: %v", res.Err)

	assert.Equal(t, int32(1), hits["/robots.txt"].Load(), "robots.txt should be cached per host")
}

func TestRobotsGate_MissingRobotsAllowsAll(t *testing.T) {
	server, _ := mockSite(t, map[string]string{"/page": "<p>ok</p>"}, nil)

	robots := NewRobotsGate(server.Client(), testLogger())
	fetcher := NewFetcher(server.Client(), "", robots, testLogger())

	res := fetcher.FetchDocument(context.Background(), server.URL+"/page")
	assert.True(t, res.OK(), "unexpected error: %v", res.Err)
}

func TestNewClient_AppliesSettings(t *testing.T) {
	cfg := config.Default()
	cfg.HTTPClientSettings.Timeout = 3 * time.Second
	disabled := false
	cfg.HTTPClientSettings.ForceAttemptHTTP2 = &disabled

	client := NewClient(cfg.HTTPClientSettings, testLogger())

	assert.Equal(t, 3*time.Second, client.Timeout)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.False(t, transport.ForceAttemptHTTP2)
	assert.Equal(t, cfg.HTTPClientSettings.MaxIdleConnsPerHost, transport.MaxIdleConnsPerHost)
}

func TestEmptyDocument(t *testing.T) {
	doc := EmptyDocument()
	assert.Equal(t, 0, doc.Find("a").Length())
	assert.Equal(t, "", doc.Find("h1").Text())
	_, exists := doc.Find("a").Attr("href")
	assert.False(t, exists)
}
