// Package archive keeps a copy of every fetched page in object storage and
// serves it when the encyclopedia cannot be reached.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/OFFIS-RIT/lineage/internal/util"
	"github.com/OFFIS-RIT/lineage/pkg/common"
	"github.com/OFFIS-RIT/lineage/pkg/logger"
	"github.com/OFFIS-RIT/lineage/pkg/wiki"
)

// Files is the object storage the archive writes to. *storage.Bucket
// satisfies it.
type Files interface {
	GetFile(ctx context.Context, key string) ([]byte, error)
	PutFile(ctx context.Context, key string, contentType string, body []byte) error
}

// Source decorates a wiki.Source. Successful fetches are archived; a
// transient upstream failure falls back to the archived copy. Missing pages
// are passed through untouched so the archive never resurrects a page that
// was deleted upstream.
type Source struct {
	upstream wiki.Source
	files    Files
}

func New(upstream wiki.Source, files Files) *Source {
	return &Source{upstream: upstream, files: files}
}

var _ wiki.Source = (*Source)(nil)

// Key is the object key a title is archived under.
func Key(title string) string {
	return "pages/" + url.PathEscape(common.Slug(title)) + ".json"
}

func (s *Source) FetchPage(ctx context.Context, title string) (*wiki.Page, error) {
	page, err := s.upstream.FetchPage(ctx, title)
	if err == nil {
		s.store(ctx, title, page)
		return page, nil
	}
	if !wiki.IsTransient(err) || ctx.Err() != nil {
		return nil, err
	}

	archived, archiveErr := s.load(ctx, title)
	if archiveErr != nil {
		logger.Debug("[Archive] No archived copy", "title", title, "err", archiveErr)
		return nil, err
	}
	logger.Warn("[Archive] Serving archived page", "title", title, "err", err)
	return archived, nil
}

func (s *Source) store(ctx context.Context, title string, page *wiki.Page) {
	body, err := json.Marshal(page)
	if err != nil {
		logger.Warn("[Archive] Failed to encode page", "title", title, "err", err)
		return
	}
	keys := []string{Key(page.CanonicalTitle)}
	if alias := Key(title); alias != keys[0] {
		keys = append(keys, alias)
	}
	for _, key := range keys {
		err := util.RetryErrWithContext(ctx, 2, func(ctx context.Context) error {
			return s.files.PutFile(ctx, key, "application/json", body)
		})
		if err != nil {
			logger.Warn("[Archive] Failed to archive page", "key", key, "err", err)
		}
	}
}

func (s *Source) load(ctx context.Context, title string) (*wiki.Page, error) {
	body, err := s.files.GetFile(ctx, Key(title))
	if err != nil {
		return nil, err
	}
	var page wiki.Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode archived page: %w", err)
	}
	if page.CanonicalTitle == "" {
		return nil, errors.New("archived page has no title")
	}
	return &page, nil
}
