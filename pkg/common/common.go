package common

import (
	"strings"
	"time"
)

// ArtistStatus describes where an artist record is in its lifecycle.
//
// A record starts as a shell when it is first referenced as the target of
// an influence relation. It becomes validated once its page was fetched and
// classified as a musical artist, or rejected when the page does not exist
// or is not about a musical artist.
type ArtistStatus string

const (
	ArtistStatusShell     ArtistStatus = "shell"
	ArtistStatusValidated ArtistStatus = "validated"
	ArtistStatusRejected  ArtistStatus = "rejected"
)

// Artist represents one encyclopedia subject. Only records with FetchedAt
// set have passed classification; shell and rejected records must never be
// treated as validated.
type Artist struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Summary  string       `json:"summary,omitempty"`
	ImageURL string       `json:"imageUrl,omitempty"`
	WikiURL  string       `json:"wikiUrl,omitempty"`
	Status   ArtistStatus `json:"status"`

	FetchedAt          *time.Time `json:"fetchedAt,omitempty"`
	RejectedAt         *time.Time `json:"rejectedAt,omitempty"`
	InfluencesSyncedAt *time.Time `json:"influencesSyncedAt,omitempty"`
}

// IsValidated reports whether the artist passed classification.
func (a *Artist) IsValidated() bool {
	return a != nil && a.FetchedAt != nil && a.Status == ArtistStatusValidated
}

// RelationKind is the semantic tag of an influence edge.
type RelationKind string

const (
	// KindInfluencedBy marks "subject is influenced by target". The stored
	// edge points from the target to the subject.
	KindInfluencedBy RelationKind = "influenced_by"
	// KindInfluenced marks "subject influenced target". The stored edge
	// points from the subject to the target.
	KindInfluenced RelationKind = "influenced"
)

// Provenance is the structural origin of an extracted relation.
type Provenance string

const (
	ProvenanceInfobox Provenance = "infobox"
	ProvenanceSection Provenance = "section"
)

// InfluenceEdge is one directed relation between two artists. Edges are
// unique by (FromID, ToID, Kind, Provenance).
type InfluenceEdge struct {
	FromID     string       `json:"fromId"`
	ToID       string       `json:"toId"`
	Kind       RelationKind `json:"kind"`
	Provenance Provenance   `json:"provenance"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// Neighbor is an edge incident to a queried artist, seen from that artist.
// Outgoing is true when the queried artist is the edge's FromID.
type Neighbor struct {
	Artist     Artist
	Kind       RelationKind
	Provenance Provenance
	Outgoing   bool
}

// GraphNode is one artist in a query result.
type GraphNode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Depth    int    `json:"depth"`
	ImageURL string `json:"imageUrl,omitempty"`
	WikiURL  string `json:"wikiUrl,omitempty"`
}

// GraphLink is one directed edge in a query result.
type GraphLink struct {
	Source       string       `json:"source"`
	Target       string       `json:"target"`
	RelationType RelationKind `json:"relationType"`
}

// GraphResult is the transient answer to a neighborhood query. It is never
// persisted.
type GraphResult struct {
	Nodes     []GraphNode `json:"nodes"`
	Links     []GraphLink `json:"links"`
	Truncated bool        `json:"truncated"`
}

// EmptyGraphResult returns the "nothing to show" result.
func EmptyGraphResult() *GraphResult {
	return &GraphResult{
		Nodes: []GraphNode{},
		Links: []GraphLink{},
	}
}

// Slug turns a human readable page title into a canonical identifier by
// replacing spaces with underscores.
func Slug(title string) string {
	return strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
}

// LookupTitle turns an identifier back into a title suitable for a page
// lookup. Underscores and hyphens become spaces.
func LookupTitle(id string) string {
	r := strings.NewReplacer("_", " ", "-", " ")
	return strings.TrimSpace(r.Replace(id))
}
