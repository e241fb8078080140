// Package influence keeps the stored influence edges of an artist in step
// with its encyclopedia page.
package influence

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lineage/pkg/common"
	"github.com/OFFIS-RIT/lineage/pkg/extract"
	"github.com/OFFIS-RIT/lineage/pkg/leaselock"
	"github.com/OFFIS-RIT/lineage/pkg/logger"
	"github.com/OFFIS-RIT/lineage/pkg/store"
	"github.com/OFFIS-RIT/lineage/pkg/wiki"
)

type Resolver interface {
	Resolve(ctx context.Context, identifier string) (*common.Artist, error)
}

type Options struct {
	// TTL is how long a completed sync stays fresh. Zero or negative
	// re-extracts on every call.
	TTL   time.Duration
	Lease leaselock.Options
	Now   func() time.Time
}

// Syncer extracts relations for validated artists and writes them as
// shells and edges. Writers of the same artist are serialized by a lease so
// concurrent graph builds never extract one page twice at the same time.
type Syncer struct {
	resolver Resolver
	source   wiki.Source
	store    store.ArtistStore
	locker   leaselock.Locker
	opts     Options
}

func NewSyncer(r Resolver, source wiki.Source, s store.ArtistStore, locker leaselock.Locker, opts Options) *Syncer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Lease.Wait = true
	if opts.Lease.TTL <= 0 {
		opts.Lease.TTL = 2 * time.Minute
	}
	if opts.Lease.TokenPrefix == "" {
		opts.Lease.TokenPrefix = "sync-"
	}
	return &Syncer{resolver: r, source: source, store: s, locker: locker, opts: opts}
}

// Sync makes sure the influences of id are stored and returns how many new
// edges were written. It returns the resolver's not-found error for ids
// that are not musical artists.
func (s *Syncer) Sync(ctx context.Context, id string) (int, error) {
	artist, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return 0, err
	}
	if s.fresh(artist) {
		return 0, nil
	}

	written := 0
	err = s.locker.WithLease(ctx, "influences:"+artist.ID, s.opts.Lease, func(ctx context.Context) error {
		current, err := s.store.GetArtist(ctx, artist.ID)
		if err != nil {
			return fmt.Errorf("failed to reload artist %q: %w", artist.ID, err)
		}
		if s.fresh(current) {
			return nil
		}

		page, err := s.source.FetchPage(ctx, common.LookupTitle(artist.ID))
		if err != nil {
			return fmt.Errorf("failed to fetch page for %q: %w", artist.ID, err)
		}

		written, err = s.write(ctx, artist.ID, extract.Extract(page.RawMarkup, artist.ID))
		if err != nil {
			return err
		}
		return s.store.MarkInfluencesSynced(ctx, artist.ID, s.opts.Now())
	})
	if err != nil {
		return written, err
	}

	logger.Debug("[Influence] Synced", "id", artist.ID, "new_edges", written)
	return written, nil
}

func (s *Syncer) fresh(a *common.Artist) bool {
	if s.opts.TTL <= 0 || a.InfluencesSyncedAt == nil {
		return false
	}
	return s.opts.Now().Sub(*a.InfluencesSyncedAt) < s.opts.TTL
}

func (s *Syncer) write(ctx context.Context, subjectID string, relations []extract.Relation) (int, error) {
	written := 0
	for _, rel := range relations {
		targetID := common.Slug(rel.Target)
		if err := s.store.EnsureShell(ctx, targetID, rel.Target); err != nil {
			return written, err
		}
		edge := rel.Edge(subjectID)
		edge.CreatedAt = s.opts.Now()
		created, err := s.store.CreateEdge(ctx, edge)
		if err != nil {
			return written, err
		}
		if created {
			written++
		}
	}
	return written, nil
}
