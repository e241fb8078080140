package wiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/OFFIS-RIT/lineage/internal/util"
	"github.com/OFFIS-RIT/lineage/pkg/logger"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://en.wikipedia.org/w/api.php"
	DefaultUserAgent = "lineage/1.0 (https://github.com/OFFIS-RIT/lineage)"

	maxResponseBytes = 8 << 20
)

// Client talks to a MediaWiki action API. All requests go through one
// token bucket, identical concurrent lookups share a single request and
// transient failures are retried with exponential backoff.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	backoff   util.Backoff
	group     singleflight.Group
}

type ClientParams struct {
	BaseURL   string
	UserAgent string
	// RateLimit is the sustained request rate per second.
	RateLimit  float64
	Burst      int
	MaxRetries int
	Timeout    time.Duration
	// RetryDelay is the first backoff delay. Defaults to 500ms.
	RetryDelay time.Duration
	HTTPClient *http.Client
}

func NewClient(params ClientParams) *Client {
	if params.BaseURL == "" {
		params.BaseURL = DefaultBaseURL
	}
	if params.UserAgent == "" {
		params.UserAgent = DefaultUserAgent
	}
	if params.RateLimit <= 0 {
		params.RateLimit = 5
	}
	if params.Burst <= 0 {
		params.Burst = 5
	}
	if params.MaxRetries < 0 {
		params.MaxRetries = 0
	}
	if params.Timeout <= 0 {
		params.Timeout = 15 * time.Second
	}
	if params.RetryDelay <= 0 {
		params.RetryDelay = 500 * time.Millisecond
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: params.Timeout}
	}

	return &Client{
		baseURL:   params.BaseURL,
		userAgent: params.UserAgent,
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Limit(params.RateLimit), params.Burst),
		backoff: util.Backoff{
			MaxTries:  params.MaxRetries + 1,
			Initial:   params.RetryDelay,
			Max:       10 * time.Second,
			Jitter:    params.RetryDelay / 2,
			Retryable: IsTransient,
		},
	}
}

// FetchPage returns the page stored under title, following redirects.
// Concurrent calls for the same title share one upstream request; a caller
// whose context ends stops waiting without cancelling the shared request.
func (c *Client) FetchPage(ctx context.Context, title string) (*Page, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrPageNotFound
	}

	ch := c.group.DoChan(title, func() (any, error) {
		return util.RetryWithBackoff(context.WithoutCancel(ctx), c.backoff, func(ctx context.Context) (*Page, error) {
			return c.fetchOnce(ctx, title)
		})
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Page), nil
	}
}

func (c *Client) fetchOnce(ctx context.Context, title string) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL(title), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observeRequest(outcomeNetworkError, start)
		logger.Warn("[Wiki] Request failed", "title", title, "err", err)
		return nil, fmt.Errorf("failed to fetch page %q: %w", title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		observeRequest(outcomeHTTPError, start)
		logger.Warn("[Wiki] Unexpected status", "title", title, "status", resp.StatusCode)
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		observeRequest(outcomeNetworkError, start)
		return nil, fmt.Errorf("failed to read response for %q: %w", title, err)
	}

	page, err := ParseQueryResponse(body)
	switch {
	case errors.Is(err, ErrPageNotFound):
		observeRequest(outcomeNotFound, start)
	case err != nil:
		observeRequest(outcomeInvalid, start)
	default:
		observeRequest(outcomeOK, start)
	}
	return page, err
}

func (c *Client) queryURL(title string) string {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("format", "json")
	q.Set("formatversion", "2")
	q.Set("redirects", "1")
	q.Set("titles", title)
	q.Set("prop", "extracts|pageimages|info|categories|revisions")
	q.Set("exintro", "1")
	q.Set("explaintext", "1")
	q.Set("piprop", "thumbnail")
	q.Set("pithumbsize", "400")
	q.Set("inprop", "url")
	q.Set("cllimit", "max")
	q.Set("clshow", "!hidden")
	q.Set("rvprop", "content")
	q.Set("rvslots", "main")
	return c.baseURL + "?" + q.Encode()
}

// ParseQueryResponse decodes a formatversion=2 action=query response for a
// single title.
func ParseQueryResponse(body []byte) (*Page, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("wiki api returned invalid json")
	}
	res := gjson.ParseBytes(body)

	if apiErr := res.Get("error"); apiErr.Exists() {
		code := apiErr.Get("code").String()
		if code == "invalidtitle" || code == "missingtitle" {
			return nil, ErrPageNotFound
		}
		return nil, &APIError{Code: code, Info: apiErr.Get("info").String()}
	}

	page := res.Get("query.pages.0")
	if !page.Exists() || page.Get("missing").Bool() || page.Get("invalid").Bool() {
		return nil, ErrPageNotFound
	}

	out := &Page{
		CanonicalTitle: page.Get("title").String(),
		Summary:        strings.TrimSpace(page.Get("extract").String()),
		ThumbnailURL:   page.Get("thumbnail.source").String(),
		PageURL:        page.Get("canonicalurl").String(),
		RawMarkup:      page.Get("revisions.0.slots.main.content").String(),
	}
	if out.PageURL == "" {
		out.PageURL = page.Get("fullurl").String()
	}
	for _, cat := range page.Get("categories.#.title").Array() {
		out.Categories = append(out.Categories, strings.TrimPrefix(cat.String(), "Category:"))
	}
	if out.CanonicalTitle == "" {
		return nil, ErrPageNotFound
	}

	return out, nil
}
