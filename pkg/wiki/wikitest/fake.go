// Package wikitest provides an in-memory wiki.Source for tests.
package wikitest

import (
	"context"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/lineage/pkg/wiki"
)

// FakeSource serves pages from a map keyed by title. Titles are matched
// with underscores and spaces treated alike. Unknown titles return
// wiki.ErrPageNotFound.
type FakeSource struct {
	mu    sync.Mutex
	pages map[string]*wiki.Page
	errs  map[string]error
	calls map[string]int
	total int
}

func NewFakeSource() *FakeSource {
	return &FakeSource{
		pages: make(map[string]*wiki.Page),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func key(title string) string {
	return strings.ReplaceAll(strings.TrimSpace(title), "_", " ")
}

// AddPage registers a page under its canonical title and any extra aliases,
// which behave like redirects.
func (f *FakeSource) AddPage(page *wiki.Page, aliases ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[key(page.CanonicalTitle)] = page
	for _, alias := range aliases {
		f.pages[key(alias)] = page
	}
}

// AddArtist registers a page that passes musical artist classification.
func (f *FakeSource) AddArtist(title, markup string) {
	f.AddPage(&wiki.Page{
		CanonicalTitle: title,
		Summary:        title + " is a musician.",
		PageURL:        "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(title, " ", "_"),
		ThumbnailURL:   "https://upload.example.org/" + strings.ReplaceAll(title, " ", "_") + ".jpg",
		RawMarkup:      "{{Infobox musical artist\n| name = " + title + "\n}}\n" + markup,
	})
}

// SetError makes every fetch of title fail with err until cleared with nil.
func (f *FakeSource) SetError(title string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, key(title))
		return
	}
	f.errs[key(title)] = err
}

func (f *FakeSource) FetchPage(ctx context.Context, title string) (*wiki.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	k := key(title)
	f.calls[k]++
	f.total++
	if err, ok := f.errs[k]; ok {
		return nil, err
	}
	page, ok := f.pages[k]
	if !ok {
		return nil, wiki.ErrPageNotFound
	}
	cp := *page
	cp.Categories = append([]string(nil), page.Categories...)
	return &cp, nil
}

// Calls returns how often title was fetched.
func (f *FakeSource) Calls(title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key(title)]
}

// TotalCalls returns the number of fetches across all titles.
func (f *FakeSource) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}
