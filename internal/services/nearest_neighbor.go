package services

import (
	"crs-scheduling-service/internal/domain"
	"math"
)

// OptimizeRoute orders jobs using a greedy nearest-neighbor algorithm from depot.
//
// At each step the remaining job closest to the current position is visited next.
// Ties go to the job that appears first in the input, so the result is
// deterministic for a fixed input order. It does not attempt a global TSP
// solution; daily job counts are small enough that O(n^2) is fine.
// The input slice is not modified.
func OptimizeRoute(depot domain.Coordinates, jobs []*domain.Job) []*domain.Job {
	if len(jobs) <= 1 {
		return jobs
	}

	remaining := make([]*domain.Job, len(jobs))
	copy(remaining, jobs)

	route := make([]*domain.Job, 0, len(jobs))
	current := depot

	for len(remaining) > 0 {
		nearestIndex := 0
		nearestDistance := math.Inf(1)

		// Select next stop by minimum straight-line distance (greedy step).
		for i, j := range remaining {
			d := domain.DistanceKm(current, j.Coordinates)
			if d < nearestDistance {
				nearestDistance = d
				nearestIndex = i
			}
		}

		next := remaining[nearestIndex]
		route = append(route, next)
		current = next.Coordinates
		remaining = append(remaining[:nearestIndex], remaining[nearestIndex+1:]...)
	}

	return route
}

// RouteMileage returns the round-trip length of visiting jobs in order,
// starting and ending at depot, in whole miles.
func RouteMileage(depot domain.Coordinates, jobs []*domain.Job) int {
	if len(jobs) == 0 {
		return 0
	}

	totalKm := domain.DistanceKm(depot, jobs[0].Coordinates)
	for i := 0; i < len(jobs)-1; i++ {
		totalKm += domain.DistanceKm(jobs[i].Coordinates, jobs[i+1].Coordinates)
	}
	totalKm += domain.DistanceKm(jobs[len(jobs)-1].Coordinates, depot)

	return int(math.Round(totalKm * domain.KmToMiles))
}
