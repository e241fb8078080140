// Package graph answers bounded-depth neighborhood queries over the stored
// influence graph, growing the store on demand as the traversal reaches
// artists whose influences were never extracted.
package graph

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/OFFIS-RIT/lineage/pkg/common"
	"github.com/OFFIS-RIT/lineage/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	MinDepth     = 1
	MaxDepth     = 3
	DefaultDepth = 2
)

type Resolver interface {
	Resolve(ctx context.Context, identifier string) (*common.Artist, error)
}

type Syncer interface {
	Sync(ctx context.Context, id string) (int, error)
}

type NeighborStore interface {
	Neighbors(ctx context.Context, id string) ([]common.Neighbor, error)
}

type Options struct {
	MaxNodes     int
	MaxEdges     int
	MaxNeighbors int
	// Parallelism bounds concurrent neighbor resolutions for one node.
	Parallelism int
}

func (o Options) withDefaults() Options {
	if o.MaxNodes <= 0 {
		o.MaxNodes = 200
	}
	if o.MaxEdges <= 0 {
		o.MaxEdges = 450
	}
	if o.MaxNeighbors <= 0 {
		o.MaxNeighbors = 10
	}
	if o.Parallelism <= 0 {
		o.Parallelism = 4
	}
	return o
}

// Builder runs breadth-first expansions. It holds no per-query state and is
// safe for concurrent use.
type Builder struct {
	resolver Resolver
	syncer   Syncer
	store    NeighborStore
	opts     Options
}

func NewBuilder(r Resolver, s Syncer, store NeighborStore, opts Options) *Builder {
	return &Builder{resolver: r, syncer: s, store: store, opts: opts.withDefaults()}
}

// ClampDepth limits depth to [MinDepth, MaxDepth].
func ClampDepth(depth int) int {
	return min(max(depth, MinDepth), MaxDepth)
}

type frontierItem struct {
	id    string
	depth int
}

type linkKey struct {
	source, target string
}

// build is the state of one Build call.
type build struct {
	*Builder
	maxDepth  int
	visited   map[string]struct{}
	discarded map[string]struct{}
	links     map[linkKey]struct{}
	frontier  []frontierItem
	result    *common.GraphResult
}

// Build expands the neighborhood of root up to depth hops. An unknown root
// yields an empty result. Failures below the root only shrink the result;
// the returned error is non-nil only when ctx ends.
func (b *Builder) Build(ctx context.Context, root string, depth int) (*common.GraphResult, error) {
	start := time.Now()
	depth = ClampDepth(depth)

	rootArtist, err := b.resolver.Resolve(ctx, root)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debug("[Graph] Root not resolved", "root", root, "err", err)
		observeBuild(outcomeEmpty, start, 0, 0)
		return common.EmptyGraphResult(), nil
	}

	st := &build{
		Builder:   b,
		maxDepth:  depth,
		visited:   make(map[string]struct{}),
		discarded: make(map[string]struct{}),
		links:     make(map[linkKey]struct{}),
		result:    common.EmptyGraphResult(),
	}
	st.visit(rootArtist.ID, rootArtist, 0)

	if err := st.run(ctx); err != nil {
		return nil, err
	}
	if st.capReached() {
		st.result.Truncated = true
	}

	outcome := outcomeComplete
	if st.result.Truncated {
		outcome = outcomeTruncated
	}
	observeBuild(outcome, start, len(st.result.Nodes), len(st.result.Links))
	logger.Debug("[Graph] Built", "root", rootArtist.ID, "depth", depth,
		"nodes", len(st.result.Nodes), "links", len(st.result.Links), "truncated", st.result.Truncated)

	return st.result, nil
}

func (st *build) capReached() bool {
	return len(st.result.Nodes) >= st.opts.MaxNodes || len(st.result.Links) >= st.opts.MaxEdges
}

func (st *build) run(ctx context.Context) error {
	for len(st.frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if st.capReached() {
			st.result.Truncated = true
			return nil
		}

		item := st.frontier[0]
		st.frontier = st.frontier[1:]
		if item.depth >= st.maxDepth {
			continue
		}

		if done, err := st.expand(ctx, item); err != nil || done {
			return err
		}
	}
	return nil
}

// expand adds the retained neighbors of one frontier node. It reports
// done once a cap stops the traversal.
func (st *build) expand(ctx context.Context, item frontierItem) (bool, error) {
	if _, err := st.syncer.Sync(ctx, item.id); err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		logger.Warn("[Graph] Influence sync failed", "id", item.id, "err", err)
	}

	neighbors, err := st.store.Neighbors(ctx, item.id)
	if err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		logger.Warn("[Graph] Failed to read neighbors", "id", item.id, "err", err)
		return false, nil
	}

	neighbors = SortNeighbors(neighbors)
	if len(neighbors) > st.opts.MaxNeighbors {
		neighbors = neighbors[:st.opts.MaxNeighbors]
	}

	resolved, err := st.resolveNeighbors(ctx, neighbors)
	if err != nil {
		return true, err
	}

	for _, n := range neighbors {
		if st.capReached() {
			st.result.Truncated = true
			return true, nil
		}

		otherID := n.Artist.ID
		if _, seen := st.visited[otherID]; !seen {
			if _, bad := st.discarded[otherID]; bad {
				continue
			}
			display := &n.Artist
			if !n.Artist.IsValidated() {
				display = resolved[otherID]
			}
			if display == nil {
				st.discarded[otherID] = struct{}{}
				continue
			}
			st.visit(otherID, display, item.depth+1)
		}

		source, target := otherID, item.id
		if n.Outgoing {
			source, target = item.id, otherID
		}
		st.link(source, target, n.Kind)
	}
	return false, nil
}

// resolveNeighbors resolves the unvisited shells among neighbors
// concurrently. Failed resolutions are absent from the returned map.
func (st *build) resolveNeighbors(ctx context.Context, neighbors []common.Neighbor) (map[string]*common.Artist, error) {
	var pending []string
	queued := make(map[string]struct{})
	for _, n := range neighbors {
		id := n.Artist.ID
		if n.Artist.IsValidated() {
			continue
		}
		if _, ok := st.visited[id]; ok {
			continue
		}
		if _, ok := st.discarded[id]; ok {
			continue
		}
		if _, ok := queued[id]; ok {
			continue
		}
		queued[id] = struct{}{}
		pending = append(pending, id)
	}

	resolved := make(map[string]*common.Artist, len(pending))
	if len(pending) == 0 {
		return resolved, nil
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(st.opts.Parallelism)
	for _, id := range pending {
		g.Go(func() error {
			artist, err := st.resolver.Resolve(gCtx, id)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Debug("[Graph] Dropping neighbor", "id", id, "err", err)
				return nil
			}
			mu.Lock()
			resolved[id] = artist
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

func (st *build) visit(id string, display *common.Artist, depth int) {
	st.visited[id] = struct{}{}
	name := display.Name
	if name == "" {
		name = common.LookupTitle(id)
	}
	st.result.Nodes = append(st.result.Nodes, common.GraphNode{
		ID:       id,
		Name:     name,
		Depth:    depth,
		ImageURL: display.ImageURL,
		WikiURL:  display.WikiURL,
	})
	st.frontier = append(st.frontier, frontierItem{id: id, depth: depth})
}

func (st *build) link(source, target string, kind common.RelationKind) {
	key := linkKey{source: source, target: target}
	if _, ok := st.links[key]; ok {
		return
	}
	st.links[key] = struct{}{}
	st.result.Links = append(st.result.Links, common.GraphLink{
		Source:       source,
		Target:       target,
		RelationType: kind,
	})
}

// SortNeighbors orders neighbors by neighbor id, then outgoing before
// incoming, then relation kind. The input slice is sorted in place.
func SortNeighbors(neighbors []common.Neighbor) []common.Neighbor {
	sort.SliceStable(neighbors, func(i, j int) bool {
		a, b := neighbors[i], neighbors[j]
		if a.Artist.ID != b.Artist.ID {
			return a.Artist.ID < b.Artist.ID
		}
		if a.Outgoing != b.Outgoing {
			return a.Outgoing
		}
		return a.Kind < b.Kind
	})
	return neighbors
}
