package handlers

import (
	"crs-scheduling-service/internal/api/dto"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/services"
	"net/http"
	"strings"
	"time"
)

// JobHandler exposes job creation, lookup and crew tracking endpoints.
type JobHandler struct {
	Jobs      *services.JobService
	Scheduler *services.Scheduler
}

// Create books a job from an accepted quote. Without a scheduled_date the
// next available weekday is used; an explicit date must still have room.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.CreateJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	postcode := strings.TrimSpace(req.Postcode)
	if postcode == "" {
		writeError(w, r, http.StatusBadRequest, "postcode is required")
		return
	}
	if req.PricePence < 0 {
		writeError(w, r, http.StatusBadRequest, "price_pence must not be negative")
		return
	}
	size := domain.ParseSizeCategory(req.Size)

	var date time.Time
	if req.ScheduledDate == "" {
		avail, err := h.Scheduler.FindNextAvailable(r.Context(), postcode, size, 0)
		if err != nil {
			writeServiceError(w, r, "find next available", err)
			return
		}
		if avail == nil {
			writeError(w, r, http.StatusConflict, "fully booked")
			return
		}
		date = avail.Date
	} else {
		d, err := domain.ParseDate(req.ScheduledDate, h.Scheduler.Config().Location)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "scheduled_date must be YYYY-MM-DD")
			return
		}
		has, err := h.Scheduler.HasCapacity(r.Context(), d, size)
		if err != nil {
			writeServiceError(w, r, "has capacity", err)
			return
		}
		if !has {
			writeError(w, r, http.StatusConflict, "no capacity on "+req.ScheduledDate)
			return
		}
		date = d
	}

	job, err := h.Jobs.CreateFromQuote(r.Context(), services.Quote{
		Reference:   req.QuoteReference,
		CompanyName: req.CompanyName,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		Postcode:    postcode,
		AccessNotes: req.AccessNotes,
		Size:        size,
		AreaSqm:     req.AreaSqm,
		Price:       req.PricePence,
	}, date)
	if err != nil {
		writeServiceError(w, r, "create job", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toJobResponse(job))
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	job, err := h.Jobs.GetJob(r.Context(), r.PathValue("reference"))
	if err != nil {
		writeServiceError(w, r, "get job", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toJobResponse(job))
}

func (h *JobHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status := domain.JobStatus(strings.TrimSpace(req.Status))
	if !status.Valid() {
		writeError(w, r, http.StatusBadRequest, "status must be one of scheduled, in_progress, completed")
		return
	}

	job, err := h.Jobs.UpdateStatus(r.Context(), r.PathValue("reference"), status)
	if err != nil {
		writeServiceError(w, r, "update job status", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toJobResponse(job))
}

func (h *JobHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.CrewLocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ref := r.PathValue("reference")
	pos, err := h.Jobs.UpdateCrewLocation(r.Context(), ref, domain.Coordinates{Lat: req.Lat, Lon: req.Lon})
	if err != nil {
		writeServiceError(w, r, "update crew location", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.CrewLocationResponse{
		Reference:  ref,
		DistanceKm: pos.DistanceKm,
		ETAMinutes: pos.ETAMinutes,
		Notified:   pos.Notified,
	})
}
