package services

import (
	"context"
	"crs-scheduling-service/internal/adapters/geocode"
	"crs-scheduling-service/internal/adapters/repositories"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/ports"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	testDepot = domain.Coordinates{Lat: 52.4068, Lon: -1.5197}

	// Monday.
	testDate = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	// Friday before testDate.
	testNow = time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
)

func newTestJob(ref string, lat, lon float64, size domain.SizeCategory, price int64, date time.Time) *domain.Job {
	return &domain.Job{
		Reference:     ref,
		Postcode:      "CV1 1AA",
		Coordinates:   domain.Coordinates{Lat: lat, Lon: lon},
		Size:          size,
		Price:         price,
		ScheduledDate: date,
		Status:        domain.StatusScheduled,
		CreatedAt:     testNow,
	}
}

// scenarioJobs returns three jobs on date: A next to the depot, then B and C
// about 20 km north and 100 m apart.
func scenarioJobs(date time.Time) []*domain.Job {
	return []*domain.Job{
		newTestJob("A", 52.4070, -1.5190, domain.SizeMedium, 200000, date),
		newTestJob("B", 52.5867, -1.5197, domain.SizeMedium, 250000, date),
		newTestJob("C", 52.5876, -1.5197, domain.SizeSmall, 90000, date),
	}
}

func testGeocoder() *geocode.StaticGeocoder {
	return geocode.NewStaticGeocoder(map[string]domain.Coordinates{
		"CV1 5FB": {Lat: 52.4071, Lon: -1.5192},
		"LE1 6TE": {Lat: 52.6339, Lon: -1.1323},
	})
}

func newTestScheduler(t *testing.T, repo ports.JobRepository) *Scheduler {
	t.Helper()

	cfg := DefaultSchedulerConfig()
	cfg.Depot = testDepot

	s, err := NewScheduler(cfg, nil, repo, testGeocoder())
	require.NoError(t, err)

	return s.WithClock(func() time.Time { return testNow })
}

func refs(jobs []*domain.Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Reference)
	}
	return out
}

var errStoreDown = errors.New("store down")

// failingRepo fails every read with errStoreDown.
type failingRepo struct {
	*repositories.MemoryJobRepository
}

func (failingRepo) JobsForDate(context.Context, time.Time) ([]*domain.Job, error) {
	return nil, errStoreDown
}

// saveFailingRepo fails every write with errStoreDown.
type saveFailingRepo struct {
	*repositories.MemoryJobRepository
}

func (saveFailingRepo) SaveJob(context.Context, *domain.Job) error {
	return errStoreDown
}

// countingRepo counts JobsForDate calls per date.
type countingRepo struct {
	*repositories.MemoryJobRepository
	calls []string
}

func (r *countingRepo) JobsForDate(ctx context.Context, date time.Time) ([]*domain.Job, error) {
	r.calls = append(r.calls, domain.DateKey(date))
	return r.MemoryJobRepository.JobsForDate(ctx, date)
}
