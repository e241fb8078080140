package pgx

const artistColumns = `a.id, a.name, a.summary, a.image_url, a.wiki_url, a.status,
       a.fetched_at, a.rejected_at, a.influences_synced_at`

const getArtistSQL = `
SELECT ` + artistColumns + `
FROM artists a
WHERE a.id = $1;
`

const upsertArtistSQL = `
INSERT INTO artists (id, name, summary, image_url, wiki_url, status, fetched_at, rejected_at)
VALUES ($1, $2, $3, $4, $5, 'validated', $6, NULL)
ON CONFLICT (id) DO UPDATE
SET name        = EXCLUDED.name,
    summary     = EXCLUDED.summary,
    image_url   = EXCLUDED.image_url,
    wiki_url    = EXCLUDED.wiki_url,
    status      = 'validated',
    fetched_at  = EXCLUDED.fetched_at,
    rejected_at = NULL,
    updated_at  = now();
`

const ensureShellSQL = `
INSERT INTO artists (id, name, status)
VALUES ($1, $2, 'shell')
ON CONFLICT (id) DO NOTHING;
`

const markRejectedSQL = `
INSERT INTO artists (id, name, status, rejected_at)
VALUES ($1, $2, 'rejected', $3)
ON CONFLICT (id) DO UPDATE
SET status      = 'rejected',
    rejected_at = EXCLUDED.rejected_at,
    updated_at  = now()
WHERE artists.status <> 'validated';
`

const markInfluencesSyncedSQL = `
UPDATE artists
SET influences_synced_at = $2,
    updated_at           = now()
WHERE id = $1;
`

const createEdgeSQL = `
INSERT INTO influence_edges (from_id, to_id, kind, provenance)
VALUES ($1, $2, $3, $4)
ON CONFLICT (from_id, to_id, kind, provenance) DO NOTHING;
`

const neighborsSQL = `
SELECT ` + artistColumns + `, e.kind, e.provenance, e.outgoing
FROM (
    SELECT to_id AS other_id, kind, provenance, created_at, TRUE AS outgoing
    FROM influence_edges
    WHERE from_id = $1
    UNION ALL
    SELECT from_id AS other_id, kind, provenance, created_at, FALSE AS outgoing
    FROM influence_edges
    WHERE to_id = $1
) e
JOIN artists a ON a.id = e.other_id
ORDER BY e.created_at, a.id;
`
