package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-index/internal/logger"
)

// DuplicateDetector clusters near-identical vectors of a collection.
type DuplicateDetector struct {
	store driven.VectorStore
}

// NewDuplicateDetector creates a detector reading from store.
func NewDuplicateDetector(store driven.VectorStore) *DuplicateDetector {
	return &DuplicateDetector{store: store}
}

// Find scans every vector of collection and searches its nearest neighbours
// above opts.Threshold. Each vector with at least one neighbour other than
// itself yields a cluster of itself plus those neighbours.
//
// Clusters with identical membership are emitted once, in first-seen order.
// Overlapping but different clusters are all emitted unless opts.Connected
// asks for them to be merged into connected components.
func (d *DuplicateDetector) Find(ctx context.Context, collection string, opts domain.DuplicateOptions) ([]domain.DuplicateCluster, error) {
	opts = opts.WithDefaults()

	points, err := scrollAll(ctx, d.store, collection, opts.PageSize, false, true)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}
	logger.Info("scanning %d vectors in %s for duplicates (threshold %.2f)", len(points), collection, opts.Threshold)

	threshold := opts.Threshold
	adjacency := make(map[int64]map[int64]struct{})
	var order []int64

	for _, p := range points {
		hits, err := d.store.Search(ctx, collection, p.Vector, opts.Neighbours, &threshold)
		if err != nil {
			return nil, fmt.Errorf("search neighbours of %d: %w", p.ID, err)
		}
		for _, h := range hits {
			if h.ID == p.ID {
				continue
			}
			set, ok := adjacency[p.ID]
			if !ok {
				set = map[int64]struct{}{p.ID: {}}
				adjacency[p.ID] = set
				order = append(order, p.ID)
			}
			set[h.ID] = struct{}{}
		}
	}

	if opts.Connected {
		return connectedClusters(adjacency, order), nil
	}
	return distinctClusters(adjacency, order), nil
}

// distinctClusters emits each adjacency set once, skipping exact repeats.
func distinctClusters(adjacency map[int64]map[int64]struct{}, order []int64) []domain.DuplicateCluster {
	seen := make(map[string]struct{})
	var clusters []domain.DuplicateCluster
	for _, id := range order {
		ids := sortedIDs(adjacency[id])
		key := clusterKey(ids)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		clusters = append(clusters, domain.DuplicateCluster{IDs: ids})
	}
	return clusters
}

// connectedClusters merges adjacency sets sharing a member with union-find.
func connectedClusters(adjacency map[int64]map[int64]struct{}, order []int64) []domain.DuplicateCluster {
	parent := make(map[int64]int64)
	var find func(int64) int64
	find = func(x int64) int64 {
		p, ok := parent[x]
		if !ok {
			parent[x] = x
			return x
		}
		if p != x {
			parent[x] = find(p)
		}
		return parent[x]
	}
	union := func(a, b int64) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for _, id := range order {
		for member := range adjacency[id] {
			union(id, member)
		}
	}

	members := make(map[int64]map[int64]struct{})
	var roots []int64
	for _, id := range order {
		for member := range adjacency[id] {
			root := find(member)
			set, ok := members[root]
			if !ok {
				set = make(map[int64]struct{})
				members[root] = set
				roots = append(roots, root)
			}
			set[member] = struct{}{}
		}
	}

	clusters := make([]domain.DuplicateCluster, 0, len(roots))
	for _, root := range roots {
		clusters = append(clusters, domain.DuplicateCluster{IDs: sortedIDs(members[root])})
	}
	return clusters
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func clusterKey(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
