// Package wiki fetches encyclopedia pages from a MediaWiki action API.
package wiki

import (
	"context"
	"errors"
	"fmt"
)

// ErrPageNotFound is returned when the requested page does not exist.
var ErrPageNotFound = errors.New("wiki page not found")

// Page is the subset of an encyclopedia page the graph needs.
type Page struct {
	CanonicalTitle string   `json:"canonicalTitle"`
	Summary        string   `json:"summary"`
	ThumbnailURL   string   `json:"thumbnailUrl,omitempty"`
	PageURL        string   `json:"pageUrl"`
	RawMarkup      string   `json:"rawMarkup"`
	Categories     []string `json:"categories"`
}

// Source returns pages by title. Implementations return ErrPageNotFound
// (possibly wrapped) for missing pages and any other error for failures
// that may succeed when retried later.
type Source interface {
	FetchPage(ctx context.Context, title string) (*Page, error)
}

// HTTPError is a non-200 response from the API.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("wiki api returned status %d", e.StatusCode)
}

// Temporary reports whether the status is worth retrying.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// APIError is an error object in an otherwise successful API response.
type APIError struct {
	Code string
	Info string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wiki api error %s: %s", e.Code, e.Info)
}

// IsTransient reports whether err is a fetch failure that says nothing
// about the page itself. Missing pages and API level errors are permanent.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrPageNotFound) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	return true
}
