package api

import (
	"crs-scheduling-service/internal/api/handlers"
	"crs-scheduling-service/internal/platform/obs"
	"crs-scheduling-service/internal/ports"
	"crs-scheduling-service/internal/services"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services and ports the HTTP layer is built from.
type Deps struct {
	Scheduler *services.Scheduler
	Jobs      *services.JobService
	Geocoder  ports.Geocoder
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	obs.RegisterDefault()

	mux := http.NewServeMux()

	schedHandler := &handlers.ScheduleHandler{Scheduler: d.Scheduler}
	jobHandler := &handlers.JobHandler{Jobs: d.Jobs, Scheduler: d.Scheduler}
	pricingHandler := &handlers.PricingHandler{
		Geocoder: d.Geocoder,
		RadiusKm: d.Scheduler.Config().ProximityRadiusKm,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/schedules", schedHandler.Schedule)
	mux.HandleFunc("/capacity", schedHandler.Capacity)
	mux.HandleFunc("/availability", schedHandler.Availability)
	mux.HandleFunc("/reports/weekly", schedHandler.WeeklyReport)

	mux.HandleFunc("/jobs", jobHandler.Create)
	mux.HandleFunc("/jobs/{reference}", jobHandler.Get)
	mux.HandleFunc("/jobs/{reference}/status", jobHandler.UpdateStatus)
	mux.HandleFunc("/jobs/{reference}/location", jobHandler.UpdateLocation)

	mux.HandleFunc("/pricing/multi-site", pricingHandler.MultiSite)

	return requestIDMiddleware(metricsMiddleware(mux, loggingMiddleware(mux)))
}
