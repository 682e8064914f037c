package services

import (
	"crs-scheduling-service/internal/domain"
	"math"
)

// Discount offered when a new job joins a day with a crew already nearby.
const ProximityDiscountRate = 0.30

// Site is a customer location quoted as part of a multi-site order.
type Site struct {
	Name        string
	Coordinates domain.Coordinates
}

type SiteClusterDiscount struct {
	Sites []Site
	Rate  float64
}

type MultiSiteDiscount struct {
	Clusters []SiteClusterDiscount
	// Site-weighted average rate across all clusters.
	OverallRate float64
}

// clusterRate is the discount earned by a group of neighbouring sites.
func clusterRate(n int) float64 {
	switch {
	case n >= 10:
		return 0.35
	case n >= 5:
		return 0.30
	case n >= 2:
		return 0.20
	}
	return 0
}

// MultiSiteDiscounts clusters sites by proximity and assigns each cluster
// a discount rate by its size.
func MultiSiteDiscounts(sites []Site, radiusKm float64) MultiSiteDiscount {
	groups := GroupByProximity(sites, func(s Site) domain.Coordinates { return s.Coordinates }, radiusKm)

	out := MultiSiteDiscount{Clusters: make([]SiteClusterDiscount, 0, len(groups))}
	weighted := 0.0
	for _, g := range groups {
		rate := clusterRate(len(g))
		out.Clusters = append(out.Clusters, SiteClusterDiscount{Sites: g, Rate: rate})
		weighted += rate * float64(len(g))
	}
	if len(sites) > 0 {
		out.OverallRate = weighted / float64(len(sites))
	}

	return out
}

var bulkLadder = []struct {
	minSites int
	rate     float64
}{
	{50, 0.40},
	{20, 0.35},
	{10, 0.30},
	{5, 0.20},
	{2, 0.10},
}

// BulkDiscount returns the volume discount rate for an order of siteCount sites.
func BulkDiscount(siteCount int) float64 {
	for _, step := range bulkLadder {
		if siteCount >= step.minSites {
			return step.rate
		}
	}
	return 0
}

// ApplyDiscount returns price reduced by rate, rounded to the nearest penny.
func ApplyDiscount(pricePence int64, rate float64) int64 {
	if rate <= 0 {
		return pricePence
	}
	if rate >= 1 {
		return 0
	}
	return int64(math.Round(float64(pricePence) * (1 - rate)))
}
