package repositories

import (
	"crs-scheduling-service/internal/domain"
	"time"
)

var testDay = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func newJob(ref, postcode string, date time.Time) *domain.Job {
	return &domain.Job{
		Reference:     ref,
		CompanyName:   "Co " + ref,
		Postcode:      postcode,
		Coordinates:   domain.Coordinates{Lat: 52.4, Lon: -1.5},
		Size:          domain.SizeSmall,
		Price:         95000,
		ScheduledDate: date,
		Status:        domain.StatusScheduled,
		CreatedAt:     time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}
