package services

import (
	"crs-scheduling-service/internal/domain"
)

// GroupByProximity groups items with a greedy single pass.
//
// Items are visited in input order and each joins the first existing group
// whose anchor (its first item) lies within radiusKm; otherwise it anchors a
// new group. Anchors never move, so membership depends on input order.
func GroupByProximity[T any](items []T, at func(T) domain.Coordinates, radiusKm float64) [][]T {
	groups := make([][]T, 0)

	for _, item := range items {
		added := false
		for i := range groups {
			if domain.DistanceKm(at(item), at(groups[i][0])) <= radiusKm {
				groups[i] = append(groups[i], item)
				added = true
				break
			}
		}

		if !added {
			groups = append(groups, []T{item})
		}
	}

	return groups
}

// ClusterJobs groups jobs into proximity clusters in creation order.
func ClusterJobs(jobs []*domain.Job, radiusKm float64) []domain.Cluster {
	groups := GroupByProximity(jobs, func(j *domain.Job) domain.Coordinates { return j.Coordinates }, radiusKm)

	clusters := make([]domain.Cluster, 0, len(groups))
	for _, g := range groups {
		clusters = append(clusters, domain.Cluster{Anchor: g[0], Jobs: g})
	}
	return clusters
}
