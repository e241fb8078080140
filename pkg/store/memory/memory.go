// Package memory is an ArtistStore kept in process memory. It backs tests
// and CLI dry runs; nothing survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/OFFIS-RIT/lineage/pkg/common"
	"github.com/OFFIS-RIT/lineage/pkg/store"
)

type edgeKey struct {
	from, to   string
	kind       common.RelationKind
	provenance common.Provenance
}

type Store struct {
	mu      sync.RWMutex
	artists map[string]common.Artist
	edges   []common.InfluenceEdge
	keys    map[edgeKey]struct{}
	now     func() time.Time
}

func New() *Store {
	return &Store{
		artists: make(map[string]common.Artist),
		keys:    make(map[edgeKey]struct{}),
		now:     time.Now,
	}
}

var _ store.ArtistStore = (*Store)(nil)

func (s *Store) GetArtist(ctx context.Context, id string) (*common.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artists[id]
	if !ok {
		return nil, store.ErrArtistNotFound
	}
	return cloneArtist(a), nil
}

func (s *Store) UpsertArtist(ctx context.Context, artist common.Artist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.artists[artist.ID]; ok && artist.InfluencesSyncedAt == nil {
		artist.InfluencesSyncedAt = existing.InfluencesSyncedAt
	}
	artist.Status = common.ArtistStatusValidated
	artist.RejectedAt = nil
	if artist.FetchedAt == nil {
		now := s.now()
		artist.FetchedAt = &now
	}
	s.artists[artist.ID] = *cloneArtist(artist)
	return nil
}

func (s *Store) EnsureShell(ctx context.Context, id string, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.artists[id]; ok {
		return nil
	}
	s.artists[id] = common.Artist{ID: id, Name: name, Status: common.ArtistStatusShell}
	return nil
}

func (s *Store) MarkRejected(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.artists[id]
	if ok && a.Status == common.ArtistStatusValidated {
		return nil
	}
	if !ok {
		a = common.Artist{ID: id, Name: common.LookupTitle(id)}
	}
	a.Status = common.ArtistStatusRejected
	a.RejectedAt = &at
	s.artists[id] = a
	return nil
}

func (s *Store) MarkInfluencesSynced(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.artists[id]
	if !ok {
		return store.ErrArtistNotFound
	}
	a.InfluencesSyncedAt = &at
	s.artists[id] = a
	return nil
}

func (s *Store) CreateEdge(ctx context.Context, edge common.InfluenceEdge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := edgeKey{from: edge.FromID, to: edge.ToID, kind: edge.Kind, provenance: edge.Provenance}
	if _, ok := s.keys[k]; ok {
		return false, nil
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = s.now()
	}
	s.keys[k] = struct{}{}
	s.edges = append(s.edges, edge)
	return true, nil
}

func (s *Store) Neighbors(ctx context.Context, id string) ([]common.Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []common.Neighbor
	for _, e := range s.edges {
		var other string
		var outgoing bool
		switch id {
		case e.FromID:
			other, outgoing = e.ToID, true
		case e.ToID:
			other = e.FromID
		default:
			continue
		}
		a, ok := s.artists[other]
		if !ok {
			a = common.Artist{ID: other, Name: common.LookupTitle(other), Status: common.ArtistStatusShell}
		}
		out = append(out, common.Neighbor{
			Artist:     *cloneArtist(a),
			Kind:       e.Kind,
			Provenance: e.Provenance,
			Outgoing:   outgoing,
		})
	}
	return out, nil
}

// Edges returns a copy of every stored edge in insertion order.
func (s *Store) Edges() []common.InfluenceEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]common.InfluenceEdge(nil), s.edges...)
}

func cloneArtist(a common.Artist) *common.Artist {
	cp := a
	cp.FetchedAt = cloneTime(a.FetchedAt)
	cp.RejectedAt = cloneTime(a.RejectedAt)
	cp.InfluencesSyncedAt = cloneTime(a.InfluencesSyncedAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
