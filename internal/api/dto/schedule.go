package dto

type MaterialsResponse struct {
	TarmacBags    int `json:"tarmac_bags"`
	SealantTubs   int `json:"sealant_tubs"`
	AggregateBags int `json:"aggregate_bags"`
}

type DayScheduleResponse struct {
	Date         string            `json:"date"`
	Jobs         []JobResponse     `json:"jobs"`
	JobCount     int               `json:"job_count"`
	TotalMileage int               `json:"total_mileage"`
	TotalRevenue int64             `json:"total_revenue_pence"`
	TotalHours   float64           `json:"total_hours"`
	Materials    MaterialsResponse `json:"materials"`
	ByStatus     map[string]int    `json:"by_status"`
	BySize       map[string]int    `json:"by_size"`
}

type CapacityResponse struct {
	Date        string `json:"date"`
	Size        string `json:"size"`
	HasCapacity bool   `json:"has_capacity"`
}

type AvailabilityResponse struct {
	Available            bool   `json:"available"`
	Date                 string `json:"date,omitempty"`
	HasProximityDiscount bool   `json:"has_proximity_discount"`
	NearbyJobs           int    `json:"nearby_jobs"`
	Message              string `json:"message,omitempty"`
}

type WeeklyReportResponse struct {
	WeekStart       string                `json:"week_start"`
	WeekEnd         string                `json:"week_end"`
	TotalJobs       int                   `json:"total_jobs"`
	TotalRevenue    int64                 `json:"total_revenue_pence"`
	AverageJobValue int64                 `json:"average_job_value_pence"`
	TopPostcodes    []string              `json:"top_postcodes"`
	Days            []DayScheduleResponse `json:"days"`
}
