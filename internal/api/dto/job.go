package dto

import "time"

type CreateJobRequest struct {
	QuoteReference string  `json:"quote_reference"`
	CompanyName    string  `json:"company_name"`
	ContactName    string  `json:"contact_name"`
	Phone          string  `json:"phone"`
	Email          string  `json:"email"`
	Address        string  `json:"address"`
	Postcode       string  `json:"postcode"`
	AccessNotes    string  `json:"access_notes"`
	Size           string  `json:"size"`
	AreaSqm        float64 `json:"area_sqm"`
	PricePence     int64   `json:"price_pence"`
	// YYYY-MM-DD; when empty the next available day is used.
	ScheduledDate string `json:"scheduled_date"`
}

type JobResponse struct {
	Reference             string     `json:"reference"`
	QuoteReference        string     `json:"quote_reference,omitempty"`
	CompanyName           string     `json:"company_name"`
	ContactName           string     `json:"contact_name,omitempty"`
	Address               string     `json:"address"`
	Postcode              string     `json:"postcode"`
	Lat                   float64    `json:"lat"`
	Lon                   float64    `json:"lon"`
	Size                  string     `json:"size"`
	PricePence            int64      `json:"price_pence"`
	ScheduledDate         string     `json:"scheduled_date"`
	ArrivalTime           *time.Time `json:"arrival_time"`
	DepartureTime         *time.Time `json:"departure_time"`
	Status                string     `json:"status"`
	OnWayNotificationSent bool       `json:"on_way_notification_sent"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type CrewLocationRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type CrewLocationResponse struct {
	Reference  string  `json:"reference"`
	DistanceKm float64 `json:"distance_km"`
	ETAMinutes int     `json:"eta_minutes"`
	Notified   bool    `json:"notified"`
}
