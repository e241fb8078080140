package store

import (
	"context"
	"errors"
	"time"

	"github.com/OFFIS-RIT/lineage/pkg/common"
)

// ErrArtistNotFound is returned by GetArtist when no record exists.
var ErrArtistNotFound = errors.New("artist not found")

// ArtistStore persists artists and influence edges. It doubles as the cache
// for everything fetched from the encyclopedia.
type ArtistStore interface {
	GetArtist(ctx context.Context, id string) (*common.Artist, error)

	// UpsertArtist writes a validated artist keyed by ID. Display metadata
	// and FetchedAt are replaced; a rejection marker is cleared.
	UpsertArtist(ctx context.Context, artist common.Artist) error
	// EnsureShell creates a shell record if id is unknown and leaves any
	// existing record untouched.
	EnsureShell(ctx context.Context, id string, name string) error
	// MarkRejected records a failed classification. Validated records are
	// never demoted.
	MarkRejected(ctx context.Context, id string, at time.Time) error
	MarkInfluencesSynced(ctx context.Context, id string, at time.Time) error

	// CreateEdge inserts the edge unless one with the same
	// (FromID, ToID, Kind, Provenance) exists. It reports whether a row was
	// written.
	CreateEdge(ctx context.Context, edge common.InfluenceEdge) (bool, error)
	// Neighbors returns every edge touching id in either direction together
	// with the artist on the other end.
	Neighbors(ctx context.Context, id string) ([]common.Neighbor, error)
}
