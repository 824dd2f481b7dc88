package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	"github.com/Sriram-PR/exrx-scraper/pkg/utils"
)

// RobotsGate fetches, caches and checks robots.txt data per host
type RobotsGate struct {
	client  *http.Client
	cache   map[string]*robotstxt.RobotsData // host -> parsed data (nil = unavailable, allow all)
	cacheMu sync.Mutex
	log     *logrus.Entry
}

// NewRobotsGate creates a RobotsGate using the shared HTTP client
func NewRobotsGate(client *http.Client, log *logrus.Entry) *RobotsGate {
	return &RobotsGate{
		client: client,
		cache:  make(map[string]*robotstxt.RobotsData),
		log:    log,
	}
}

// Allowed reports whether userAgent may fetch target.
// Returns true when robots.txt cannot be obtained or parsed.
func (g *RobotsGate) Allowed(ctx context.Context, target *url.URL, userAgent string) bool {
	data := g.robotsData(ctx, target)
	if data == nil {
		return true
	}
	return data.TestAgent(target.RequestURI(), userAgent)
}

// robotsData returns cached robots data for target's host, fetching it on first use.
// The lock is held across the fetch so concurrent harvest tasks trigger a single request per host.
func (g *RobotsGate) robotsData(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()

	host := target.Host
	if data, found := g.cache[host]; found {
		return data
	}

	robotsURL := (&url.URL{Scheme: target.Scheme, Host: host, Path: "/robots.txt"}).String()
	robotsLog := g.log.WithField("robots_url", robotsURL)

	data, err := g.fetchRobots(ctx, robotsURL)
	if err != nil {
		robotsLog.Warnf("robots.txt unavailable, allowing all: %v", err)
		// Don't cache cancellation, a later call may still succeed
		if ctx.Err() == nil {
			g.cache[host] = nil
		}
		return nil
	}

	robotsLog.Info("Fetched and parsed robots.txt")
	g.cache[host] = data
	return data
}

func (g *RobotsGate) fetchRobots(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrResponseBodyRead, err)
	}

	// FromStatusAndBytes applies the usual conventions: 4xx allows everything, 5xx disallows everything
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("%w: robots.txt: %w", utils.ErrParsing, err)
	}
	return data, nil
}
