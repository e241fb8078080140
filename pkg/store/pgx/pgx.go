// Package pgx implements store.ArtistStore on PostgreSQL.
package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lineage/internal/util"
	"github.com/OFFIS-RIT/lineage/pkg/common"
	"github.com/OFFIS-RIT/lineage/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

// ArtistDBStorage keeps artists and influence edges in the tables created by
// the migrations in migrations/.
type ArtistDBStorage struct {
	conn pgxIConn
}

var _ store.ArtistStore = (*ArtistDBStorage)(nil)

// NewArtistDBStorage wraps a pool, connection or transaction.
func NewArtistDBStorage(conn pgxIConn) *ArtistDBStorage {
	return &ArtistDBStorage{conn: conn}
}

func (s *ArtistDBStorage) GetArtist(ctx context.Context, id string) (*common.Artist, error) {
	row := s.conn.QueryRow(ctx, getArtistSQL, id)
	a, err := scanArtist(row)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, store.ErrArtistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artist %q: %w", id, err)
	}
	return a, nil
}

func (s *ArtistDBStorage) UpsertArtist(ctx context.Context, artist common.Artist) error {
	fetchedAt := time.Now()
	if artist.FetchedAt != nil {
		fetchedAt = *artist.FetchedAt
	}
	_, err := s.conn.Exec(ctx, upsertArtistSQL,
		artist.ID,
		util.SanitizePostgresText(artist.Name),
		util.SanitizePostgresText(artist.Summary),
		artist.ImageURL,
		artist.WikiURL,
		fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert artist %q: %w", artist.ID, err)
	}
	return nil
}

func (s *ArtistDBStorage) EnsureShell(ctx context.Context, id string, name string) error {
	_, err := s.conn.Exec(ctx, ensureShellSQL, id, util.SanitizePostgresText(name))
	if err != nil {
		return fmt.Errorf("failed to create shell artist %q: %w", id, err)
	}
	return nil
}

func (s *ArtistDBStorage) MarkRejected(ctx context.Context, id string, at time.Time) error {
	_, err := s.conn.Exec(ctx, markRejectedSQL, id, util.SanitizePostgresText(common.LookupTitle(id)), at)
	if err != nil {
		return fmt.Errorf("failed to mark artist %q rejected: %w", id, err)
	}
	return nil
}

func (s *ArtistDBStorage) MarkInfluencesSynced(ctx context.Context, id string, at time.Time) error {
	tag, err := s.conn.Exec(ctx, markInfluencesSyncedSQL, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark influences synced for %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrArtistNotFound
	}
	return nil
}

func (s *ArtistDBStorage) CreateEdge(ctx context.Context, edge common.InfluenceEdge) (bool, error) {
	tag, err := s.conn.Exec(ctx, createEdgeSQL, edge.FromID, edge.ToID, string(edge.Kind), string(edge.Provenance))
	if err != nil {
		return false, fmt.Errorf("failed to create edge %s -> %s: %w", edge.FromID, edge.ToID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ArtistDBStorage) Neighbors(ctx context.Context, id string) ([]common.Neighbor, error) {
	rows, err := s.conn.Query(ctx, neighborsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbors of %q: %w", id, err)
	}
	defer rows.Close()

	var out []common.Neighbor
	for rows.Next() {
		var (
			n          common.Neighbor
			kind, prov string
		)
		a, err := scanArtist(rows, &kind, &prov, &n.Outgoing)
		if err != nil {
			return nil, fmt.Errorf("failed to scan neighbor of %q: %w", id, err)
		}
		n.Artist = *a
		n.Kind = common.RelationKind(kind)
		n.Provenance = common.Provenance(prov)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate neighbors of %q: %w", id, err)
	}
	return out, nil
}

func scanArtist(row pgxv5.Row, extra ...any) (*common.Artist, error) {
	var (
		a      common.Artist
		status string
	)
	dest := []any{
		&a.ID, &a.Name, &a.Summary, &a.ImageURL, &a.WikiURL, &status,
		&a.FetchedAt, &a.RejectedAt, &a.InfluencesSyncedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	a.Status = common.ArtistStatus(status)
	return &a, nil
}
