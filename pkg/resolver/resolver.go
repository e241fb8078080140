// Package resolver turns an artist identifier into a validated artist,
// consulting the store before the encyclopedia.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/lineage/pkg/common"
	"github.com/OFFIS-RIT/lineage/pkg/logger"
	"github.com/OFFIS-RIT/lineage/pkg/store"
	"github.com/OFFIS-RIT/lineage/pkg/wiki"
)

// ErrNotFound means the identifier does not name a musical artist, either
// because no page exists or because the page failed classification.
var ErrNotFound = errors.New("artist not found")

type Options struct {
	// RejectionTTL is how long a rejection suppresses refetching. Zero or
	// negative disables rejection caching.
	RejectionTTL time.Duration
	Now          func() time.Time
}

type Resolver struct {
	store  store.ArtistStore
	source wiki.Source
	opts   Options
}

func New(s store.ArtistStore, source wiki.Source, opts Options) *Resolver {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Resolver{store: s, source: source, opts: opts}
}

// Resolve returns the validated artist for identifier. A stored validated
// record is returned without contacting the source.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (*common.Artist, error) {
	id := common.Slug(identifier)
	if id == "" {
		return nil, ErrNotFound
	}

	existing, err := r.store.GetArtist(ctx, id)
	switch {
	case err == nil:
		if existing.IsValidated() {
			resolveTotal.WithLabelValues(resultCacheHit).Inc()
			return existing, nil
		}
		if r.rejectionFresh(existing) {
			resolveTotal.WithLabelValues(resultCachedRejection).Inc()
			return nil, ErrNotFound
		}
	case errors.Is(err, store.ErrArtistNotFound):
	default:
		return nil, fmt.Errorf("failed to read artist %q: %w", id, err)
	}

	page, err := r.source.FetchPage(ctx, common.LookupTitle(id))
	if errors.Is(err, wiki.ErrPageNotFound) {
		resolveTotal.WithLabelValues(resultRejected).Inc()
		r.reject(ctx, id)
		return nil, ErrNotFound
	}
	if err != nil {
		resolveTotal.WithLabelValues(resultError).Inc()
		logger.Warn("[Resolver] Fetch failed", "id", id, "err", err)
		return nil, fmt.Errorf("failed to fetch %q: %w", id, err)
	}

	if !IsMusicalArtist(page.RawMarkup, page.Categories) {
		resolveTotal.WithLabelValues(resultRejected).Inc()
		logger.Debug("[Resolver] Not a musical artist", "id", id, "title", page.CanonicalTitle)
		r.reject(ctx, id)
		return nil, ErrNotFound
	}

	now := r.opts.Now()
	artist := common.Artist{
		ID:        common.Slug(page.CanonicalTitle),
		Name:      page.CanonicalTitle,
		Summary:   page.Summary,
		ImageURL:  page.ThumbnailURL,
		WikiURL:   page.PageURL,
		Status:    common.ArtistStatusValidated,
		FetchedAt: &now,
	}
	if err := r.store.UpsertArtist(ctx, artist); err != nil {
		return nil, fmt.Errorf("failed to store artist %q: %w", artist.ID, err)
	}
	resolveTotal.WithLabelValues(resultFetched).Inc()
	logger.Debug("[Resolver] Validated artist", "id", artist.ID, "input", id)

	return r.store.GetArtist(ctx, artist.ID)
}

func (r *Resolver) rejectionFresh(a *common.Artist) bool {
	if r.opts.RejectionTTL <= 0 || a.Status != common.ArtistStatusRejected || a.RejectedAt == nil {
		return false
	}
	return r.opts.Now().Sub(*a.RejectedAt) < r.opts.RejectionTTL
}

// reject records a classification failure. A failed write only costs a
// refetch next time, so it is logged and otherwise ignored.
func (r *Resolver) reject(ctx context.Context, id string) {
	if err := r.store.MarkRejected(ctx, id, r.opts.Now()); err != nil {
		logger.Warn("[Resolver] Failed to record rejection", "id", id, "err", err)
	}
}

var (
	artistInfoboxes = []string{
		"{{infobox musical artist",
		"{{infobox band",
		"{{infobox person",
	}
	artistCategoryTerms = []string{
		"musician", "singer", "band", "rapper", "musical group",
		"orchestra", "performer", "songwriter",
	}
)

// IsMusicalArtist classifies a page by its infobox template or, failing
// that, by its category labels.
func IsMusicalArtist(markup string, categories []string) bool {
	lower := strings.ToLower(markup)
	for _, box := range artistInfoboxes {
		if strings.Contains(lower, box) {
			return true
		}
	}
	for _, cat := range categories {
		cat = strings.ToLower(cat)
		for _, term := range artistCategoryTerms {
			if strings.Contains(cat, term) {
				return true
			}
		}
	}
	return false
}
