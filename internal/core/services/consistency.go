package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/logger"
)

// CheckConsistency scans the id set of every collection and reports ids that
// are missing from at least one other collection of the index.
func (s *Synchronizer) CheckConsistency(ctx context.Context) (*domain.ConsistencyReport, error) {
	roles := s.layout.roles
	report := &domain.ConsistencyReport{
		Counts:  make(map[string]int, len(roles)),
		Orphans: make(map[string][]int64),
	}

	sets := make([]map[int64]struct{}, len(roles))
	for i, role := range roles {
		points, err := scrollAll(ctx, s.store, role.name, s.pageSize, false, false)
		if err != nil {
			return nil, fmt.Errorf("check consistency: %w", err)
		}
		sets[i] = make(map[int64]struct{}, len(points))
		for _, p := range points {
			sets[i][p.ID] = struct{}{}
		}
		report.Counts[role.name] = len(points)
	}

	for i, role := range roles {
		var orphans []int64
		for id := range sets[i] {
			for j := range sets {
				if j == i {
					continue
				}
				if _, ok := sets[j][id]; !ok {
					orphans = append(orphans, id)
					break
				}
			}
		}
		if len(orphans) > 0 {
			slices.Sort(orphans)
			report.Orphans[role.name] = orphans
		}
	}
	return report, nil
}

// Repair deletes every orphan found by CheckConsistency.
func (s *Synchronizer) Repair(ctx context.Context) (*domain.ConsistencyReport, error) {
	report, err := s.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}
	for collection, ids := range report.Orphans {
		if err := s.store.Delete(ctx, collection, ids); err != nil {
			return report, fmt.Errorf("repair %s: %w", collection, err)
		}
		logger.Info("repair: removed %d orphan(s) from %s", len(ids), collection)
	}
	return report, nil
}
