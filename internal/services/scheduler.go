package services

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/platform/obs"
	"crs-scheduling-service/internal/ports"
	"errors"
	"fmt"
	"time"
)

// SchedulerConfig holds the fixed parameters of the daily scheduling model.
// Zero values are replaced by the defaults from DefaultSchedulerConfig.
type SchedulerConfig struct {
	// Home base every route starts and ends at.
	Depot    domain.Coordinates
	Location *time.Location

	ClusterRadiusKm   float64
	ProximityRadiusKm float64

	DayStartHour  int
	MaxDailyHours float64
	LookaheadDays int
}

// Coventry depot, 8am start, 10 working hours, 30 day lookahead.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Depot:             domain.Coordinates{Lat: 52.4068, Lon: -1.5197},
		Location:          time.UTC,
		ClusterRadiusKm:   5,
		ProximityRadiusKm: 5 / domain.KmToMiles,
		DayStartHour:      8,
		MaxDailyHours:     10,
		LookaheadDays:     30,
	}
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	d := DefaultSchedulerConfig()
	if c.Depot == (domain.Coordinates{}) {
		c.Depot = d.Depot
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	if c.ClusterRadiusKm <= 0 {
		c.ClusterRadiusKm = d.ClusterRadiusKm
	}
	if c.ProximityRadiusKm <= 0 {
		c.ProximityRadiusKm = d.ProximityRadiusKm
	}
	if c.DayStartHour <= 0 {
		c.DayStartHour = d.DayStartHour
	}
	if c.MaxDailyHours <= 0 {
		c.MaxDailyHours = d.MaxDailyHours
	}
	if c.LookaheadDays <= 0 {
		c.LookaheadDays = d.LookaheadDays
	}
	return c
}

// Scheduler builds day schedules and answers capacity questions.
//
// It keeps no state between calls; every operation reads the job repository
// at call time. Concurrent calls for the same date may observe different job
// sets if a write lands between their reads. The scheduler is safe for
// concurrent use.
type Scheduler struct {
	cfg       SchedulerConfig
	estimator *domain.Estimator
	repo      ports.JobRepository
	geocoder  ports.Geocoder
	now       func() time.Time
}

func NewScheduler(
	cfg SchedulerConfig,
	estimator *domain.Estimator,
	repo ports.JobRepository,
	geocoder ports.Geocoder,
) (*Scheduler, error) {
	if repo == nil {
		return nil, errors.New("new scheduler: job repository must be non-nil")
	}
	if geocoder == nil {
		return nil, errors.New("new scheduler: geocoder must be non-nil")
	}
	if estimator == nil {
		estimator = domain.DefaultEstimator()
	}

	return &Scheduler{
		cfg:       cfg.withDefaults(),
		estimator: estimator,
		repo:      repo,
		geocoder:  geocoder,
		now:       time.Now,
	}, nil
}

// WithClock replaces the wall clock used to decide what "tomorrow" is.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

func (s *Scheduler) Config() SchedulerConfig { return s.cfg }

func (s *Scheduler) Estimator() *domain.Estimator { return s.estimator }

// Today returns the current calendar date in the scheduler's location.
func (s *Scheduler) Today() time.Time { return domain.Date(s.now(), s.cfg.Location) }

func (s *Scheduler) scheduledHours(jobs []*domain.Job) float64 {
	total := 0.0
	for _, j := range jobs {
		total += s.estimator.Hours(j.Size)
	}
	return total
}

func (s *Scheduler) fits(jobs []*domain.Job, size domain.SizeCategory) bool {
	return s.scheduledHours(jobs)+s.estimator.Hours(size) <= s.cfg.MaxDailyHours
}

// HasCapacity reports whether a job of the given size still fits in the
// working hours of date, given the jobs already scheduled on it.
func (s *Scheduler) HasCapacity(ctx context.Context, date time.Time, size domain.SizeCategory) (bool, error) {
	date = domain.Date(date, s.cfg.Location)

	jobs, err := s.repo.JobsForDate(ctx, date)
	if err != nil {
		return false, fmt.Errorf("has capacity: jobs for %s: %w", domain.DateKey(date), err)
	}

	return s.fits(jobs, size), nil
}

func (s *Scheduler) within(jobs []*domain.Job, at domain.Coordinates) []*domain.Job {
	out := make([]*domain.Job, 0)
	for _, j := range jobs {
		if domain.DistanceKm(at, j.Coordinates) <= s.cfg.ProximityRadiusKm {
			out = append(out, j)
		}
	}
	return out
}

// NearbyJobs returns jobs on date that lie within the proximity radius of postcode.
func (s *Scheduler) NearbyJobs(ctx context.Context, postcode string, date time.Time) ([]*domain.Job, error) {
	date = domain.Date(date, s.cfg.Location)

	at, err := s.geocoder.Coordinates(ctx, postcode)
	if err != nil {
		return nil, fmt.Errorf("nearby jobs: geocode %q: %w", postcode, err)
	}

	jobs, err := s.repo.JobsForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("nearby jobs: jobs for %s: %w", domain.DateKey(date), err)
	}

	return s.within(jobs, at), nil
}

// FindNextAvailable walks forward from tomorrow and returns the first weekday
// with room for a job of the given size, flagging whether a job is already
// booked near postcode that day.
//
// Weekend days count towards maxDays. A nil result with a nil error means
// nothing is free within the window; callers present that as fully booked.
// maxDays <= 0 uses the configured lookahead. The postcode is resolved
// before any day is checked, so an unknown postcode is an error even when
// the window is fully booked.
func (s *Scheduler) FindNextAvailable(
	ctx context.Context,
	postcode string,
	size domain.SizeCategory,
	maxDays int,
) (_ *domain.Availability, err error) {
	defer obs.Time(ctx, "scheduler.FindNextAvailable")(&err)

	if maxDays <= 0 {
		maxDays = s.cfg.LookaheadDays
	}

	at, err := s.geocoder.Coordinates(ctx, postcode)
	if err != nil {
		return nil, fmt.Errorf("find next available: geocode %q: %w", postcode, err)
	}

	date := s.Today().AddDate(0, 0, 1)
	for i := 0; i < maxDays; i, date = i+1, date.AddDate(0, 0, 1) {
		if domain.IsWeekend(date) {
			continue
		}

		jobs, err := s.repo.JobsForDate(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("find next available: jobs for %s: %w", domain.DateKey(date), err)
		}

		if !s.fits(jobs, size) {
			continue
		}

		nearby := s.within(jobs, at)
		return &domain.Availability{
			Date:                 date,
			HasProximityDiscount: len(nearby) > 0,
			NearbyJobs:           len(nearby),
		}, nil
	}

	return nil, nil
}

// BuildSchedule produces the sequenced, time-stamped plan for date.
//
// Jobs are clustered by proximity, each cluster is ordered by nearest
// neighbour from the depot, and the clusters are walked in creation order
// assigning arrival and departure times from the day start. The returned
// jobs are copies; repository jobs are not modified.
func (s *Scheduler) BuildSchedule(ctx context.Context, date time.Time) (_ *domain.DaySchedule, err error) {
	defer obs.Time(ctx, "scheduler.BuildSchedule")(&err)
	defer func() {
		if err != nil {
			obs.ScheduleBuilds.WithLabelValues("error").Inc()
			return
		}
		obs.ScheduleBuilds.WithLabelValues("ok").Inc()
	}()

	date = domain.Date(date, s.cfg.Location)

	jobs, err := s.repo.JobsForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("build schedule: jobs for %s: %w", domain.DateKey(date), err)
	}

	schedule := &domain.DaySchedule{
		Date:     date,
		Jobs:     []*domain.Job{},
		ByStatus: map[domain.JobStatus]int{},
		BySize:   map[domain.SizeCategory]int{},
	}
	obs.ScheduleJobs.Observe(float64(len(jobs)))

	if len(jobs) == 0 {
		return schedule, nil
	}

	copies := make([]*domain.Job, 0, len(jobs))
	for _, j := range jobs {
		copies = append(copies, j.Clone())
	}

	sequence := make([]*domain.Job, 0, len(copies))
	for _, c := range ClusterJobs(copies, s.cfg.ClusterRadiusKm) {
		sequence = append(sequence, OptimizeRoute(s.cfg.Depot, c.Jobs)...)
	}

	clock := time.Date(date.Year(), date.Month(), date.Day(), s.cfg.DayStartHour, 0, 0, 0, s.cfg.Location)
	for _, j := range sequence {
		arrive := clock
		clock = clock.Add(s.estimator.Duration(j.Size))
		depart := clock

		j.ArrivalTime = &arrive
		j.DepartureTime = &depart

		schedule.TotalRevenue += j.Price
		schedule.TotalHours += s.estimator.Hours(j.Size)
		schedule.Materials = schedule.Materials.Add(s.estimator.Materials(j.Size))
		schedule.ByStatus[j.Status]++
		schedule.BySize[j.Size]++
	}

	schedule.Jobs = sequence
	schedule.JobCount = len(sequence)
	schedule.TotalMileage = RouteMileage(s.cfg.Depot, sequence)

	return schedule, nil
}
