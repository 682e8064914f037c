package handlers

import (
	"crs-scheduling-service/internal/api/dto"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/services"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ScheduleHandler exposes day schedules, capacity and availability queries.
type ScheduleHandler struct {
	Scheduler *services.Scheduler
}

// dateParam reads a YYYY-MM-DD query parameter, defaulting to today.
func (h *ScheduleHandler) dateParam(r *http.Request, key string) (time.Time, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return h.Scheduler.Today(), true
	}
	d, err := domain.ParseDate(v, h.Scheduler.Config().Location)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func (h *ScheduleHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	date, ok := h.dateParam(r, "date")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	schedule, err := h.Scheduler.BuildSchedule(r.Context(), date)
	if err != nil {
		writeServiceError(w, r, "build schedule", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toDayScheduleResponse(schedule))
}

func (h *ScheduleHandler) Capacity(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	date, ok := h.dateParam(r, "date")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	size := domain.ParseSizeCategory(r.URL.Query().Get("size"))

	has, err := h.Scheduler.HasCapacity(r.Context(), date, size)
	if err != nil {
		writeServiceError(w, r, "has capacity", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.CapacityResponse{
		Date:        domain.DateKey(date),
		Size:        string(size),
		HasCapacity: has,
	})
}

// Availability finds the next bookable weekday for a postcode. A fully
// booked window is a normal answer, not an error.
func (h *ScheduleHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	postcode := strings.TrimSpace(q.Get("postcode"))
	if postcode == "" {
		writeError(w, r, http.StatusBadRequest, "postcode is required")
		return
	}
	size := domain.ParseSizeCategory(q.Get("size"))

	days := 0
	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			writeError(w, r, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = n
	}

	avail, err := h.Scheduler.FindNextAvailable(r.Context(), postcode, size, days)
	if err != nil {
		writeServiceError(w, r, "find next available", err)
		return
	}
	if avail == nil {
		writeJSON(w, r, http.StatusOK, dto.AvailabilityResponse{
			Available: false,
			Message:   "fully booked",
		})
		return
	}

	writeJSON(w, r, http.StatusOK, dto.AvailabilityResponse{
		Available:            true,
		Date:                 domain.DateKey(avail.Date),
		HasProximityDiscount: avail.HasProximityDiscount,
		NearbyJobs:           avail.NearbyJobs,
	})
}

func (h *ScheduleHandler) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	start, ok := h.dateParam(r, "week_start")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "week_start must be YYYY-MM-DD")
		return
	}

	rep, err := h.Scheduler.WeeklyReport(r.Context(), start)
	if err != nil {
		writeServiceError(w, r, "weekly report", err)
		return
	}

	res := dto.WeeklyReportResponse{
		WeekStart:       domain.DateKey(rep.WeekStart),
		WeekEnd:         domain.DateKey(rep.WeekEnd),
		TotalJobs:       rep.TotalJobs,
		TotalRevenue:    rep.TotalRevenue,
		AverageJobValue: rep.AverageJobValue,
		TopPostcodes:    rep.TopPostcodes,
		Days:            make([]dto.DayScheduleResponse, 0, len(rep.Days)),
	}
	if res.TopPostcodes == nil {
		res.TopPostcodes = []string{}
	}
	for _, d := range rep.Days {
		res.Days = append(res.Days, toDayScheduleResponse(d))
	}

	writeJSON(w, r, http.StatusOK, res)
}
