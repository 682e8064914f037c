package dto

type SiteRequest struct {
	Name     string  `json:"name"`
	Postcode string  `json:"postcode"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

type MultiSiteRequest struct {
	Sites []SiteRequest `json:"sites"`
	// Optional total before discount, in pence.
	PricePence int64 `json:"price_pence"`
}

type SiteClusterResponse struct {
	Sites []string `json:"sites"`
	Rate  float64  `json:"rate"`
}

type MultiSiteResponse struct {
	Clusters        []SiteClusterResponse `json:"clusters"`
	OverallRate     float64               `json:"overall_rate"`
	BulkRate        float64               `json:"bulk_rate"`
	DiscountedPence int64                 `json:"discounted_price_pence,omitempty"`
}
