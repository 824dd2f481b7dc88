package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/Sriram-PR/exrx-scraper/pkg/utils"
)

// Result is the outcome of fetching one page.
// Err == nil means Doc holds the parsed response body, whatever its status code;
// otherwise Doc is nil and Err says why.
type Result struct {
	URL        string
	StatusCode int // 0 if no response was received
	Doc        *goquery.Document
	Err        error
}

// OK reports whether the page was retrieved and parsed
func (r Result) OK() bool {
	return r.Err == nil && r.Doc != nil
}

// Failure returns Err, or a status error when a parsed response was not 2xx.
// Nil means the page was fetched cleanly.
func (r Result) Failure() error {
	if r.Err != nil {
		return r.Err
	}
	if r.StatusCode != 0 {
		return classifyStatus(r.StatusCode)
	}
	return nil
}

// Document returns the parsed page, or an empty document if retrieval failed.
// Selections on the empty document match nothing, so extraction degrades to empty values.
func (r Result) Document() *goquery.Document {
	if r.Doc != nil {
		return r.Doc
	}
	return EmptyDocument()
}

// EmptyDocument returns a document with no content
func EmptyDocument() *goquery.Document {
	return goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
}

// Fetcher retrieves pages and parses them into goquery documents.
// Failures never escape as panics or aborted runs: they are logged and returned in Result.Err.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	robots     *RobotsGate // nil disables robots.txt checks
	failOnHTTP bool        // treat non-2xx responses as failed fetches
	log        *logrus.Entry
}

// NewFetcher creates a new Fetcher instance. robots may be nil.
func NewFetcher(client *http.Client, userAgent string, robots *RobotsGate, log *logrus.Entry) *Fetcher {
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		robots:    robots,
		log:       log,
	}
}

// SetFailOnHTTPError makes non-2xx responses fail instead of being parsed
func (f *Fetcher) SetFailOnHTTPError(on bool) {
	f.failOnHTTP = on
}

// FetchDocument performs a single GET for rawURL and parses the response body as HTML,
// whatever the status code, unless SetFailOnHTTPError is on.
// There is no retry: a failed page yields a Result with Err set and the caller moves on.
func (f *Fetcher) FetchDocument(ctx context.Context, rawURL string) Result {
	reqLog := f.log.WithField("url", rawURL)
	result := Result{URL: rawURL}

	result.StatusCode, result.Doc, result.Err = f.fetch(ctx, rawURL)
	if result.Err != nil {
		result.Doc = nil
		reqLog.WithFields(logrus.Fields{
			"status_code": result.StatusCode,
			"error_type":  utils.CategorizeError(result.Err),
		}).Warnf("Fetch failed: %v", result.Err)
		return result
	}

	if statusErr := classifyStatus(result.StatusCode); statusErr != nil {
		reqLog.WithField("status_code", result.StatusCode).Warnf("Parsing non-2xx response: %v", statusErr)
		return result
	}

	reqLog.Debug("Successfully fetched")
	return result
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (int, *goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	if f.robots != nil && !f.robots.Allowed(ctx, req.URL, f.userAgent) {
		return 0, nil, fmt.Errorf("%w: %s", utils.ErrRobotsDisallowed, rawURL)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// Context errors pass through unwrapped so callers can tell cancellation from network trouble
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, nil, err
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return 0, nil, fmt.Errorf("%w: %w", utils.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if f.failOnHTTP {
		if statusErr := classifyStatus(resp.StatusCode); statusErr != nil {
			io.Copy(io.Discard, resp.Body)
			return resp.StatusCode, nil, statusErr
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return resp.StatusCode, nil, err
		}
		return resp.StatusCode, nil, fmt.Errorf("%w: HTML body: %w", utils.ErrParsing, err)
	}
	return resp.StatusCode, doc, nil
}

// classifyStatus maps a non-2xx status code to the matching sentinel error
func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500:
		return fmt.Errorf("%w: status %d (%s)", utils.ErrServerHTTPError, code, http.StatusText(code))
	case code >= 400:
		return fmt.Errorf("%w: status %d (%s)", utils.ErrClientHTTPError, code, http.StatusText(code))
	default:
		return fmt.Errorf("%w: status %d (%s)", utils.ErrOtherHTTPError, code, http.StatusText(code))
	}
}
