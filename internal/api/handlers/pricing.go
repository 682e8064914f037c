package handlers

import (
	"crs-scheduling-service/internal/api/dto"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/ports"
	"crs-scheduling-service/internal/services"
	"fmt"
	"net/http"
	"strings"
)

const maxPricingSites = 500

// PricingHandler quotes discounts for orders covering several sites.
type PricingHandler struct {
	Geocoder ports.Geocoder
	RadiusKm float64
}

// MultiSite clusters the requested sites and returns per-cluster and bulk
// discount rates. Sites without coordinates are geocoded by postcode. When a
// price is given, the better of the two rates is applied to it.
func (h *PricingHandler) MultiSite(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.MultiSiteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Sites) == 0 {
		writeError(w, r, http.StatusBadRequest, "sites must be non-empty")
		return
	}
	if len(req.Sites) > maxPricingSites {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("at most %d sites per request", maxPricingSites))
		return
	}

	sites := make([]services.Site, 0, len(req.Sites))
	for i, s := range req.Sites {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("site-%d", i+1)
		}

		at := domain.Coordinates{Lat: s.Lat, Lon: s.Lon}
		if at == (domain.Coordinates{}) {
			postcode := strings.TrimSpace(s.Postcode)
			if postcode == "" {
				writeError(w, r, http.StatusBadRequest, fmt.Sprintf("site %s needs coordinates or a postcode", name))
				return
			}
			c, err := h.Geocoder.Coordinates(r.Context(), postcode)
			if err != nil {
				writeServiceError(w, r, "geocode site", err)
				return
			}
			at = c
		}

		sites = append(sites, services.Site{Name: name, Coordinates: at})
	}

	discount := services.MultiSiteDiscounts(sites, h.RadiusKm)
	bulk := services.BulkDiscount(len(sites))

	res := dto.MultiSiteResponse{
		Clusters:    make([]dto.SiteClusterResponse, 0, len(discount.Clusters)),
		OverallRate: discount.OverallRate,
		BulkRate:    bulk,
	}
	for _, c := range discount.Clusters {
		names := make([]string, 0, len(c.Sites))
		for _, s := range c.Sites {
			names = append(names, s.Name)
		}
		res.Clusters = append(res.Clusters, dto.SiteClusterResponse{Sites: names, Rate: c.Rate})
	}
	if req.PricePence > 0 {
		res.DiscountedPence = services.ApplyDiscount(req.PricePence, max(discount.OverallRate, bulk))
	}

	writeJSON(w, r, http.StatusOK, res)
}
