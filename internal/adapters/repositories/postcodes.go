package repositories

import (
	"crs-scheduling-service/internal/domain"
	"slices"
)

// topDistricts counts postcode districts and returns the most frequent,
// ties broken alphabetically.
func topDistricts(postcodes []string, limit int) []string {
	counts := make(map[string]int)
	for _, p := range postcodes {
		d := domain.PostcodeDistrict(p)
		if d == "" {
			continue
		}
		counts[d]++
	}

	districts := make([]string, 0, len(counts))
	for d := range counts {
		districts = append(districts, d)
	}

	slices.SortFunc(districts, func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})

	if limit > 0 && len(districts) > limit {
		districts = districts[:limit]
	}
	return districts
}
