package services

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/platform/obs"
	"crs-scheduling-service/internal/ports"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidInput marks errors caused by a bad request rather than a failure.
var ErrInvalidInput = errors.New("invalid input")

// Minutes of driving assumed per straight-line kilometre when estimating crew ETA.
const minutesPerKm = 2

// Reference draws per job before CreateFromQuote gives up on collisions.
const maxReferenceAttempts = 5

// Crews closer than this trigger the one-off "on the way" notification.
const onWayThresholdMinutes = 30

// Quote is the accepted quote a job is created from.
type Quote struct {
	Reference   string
	CompanyName string
	ContactName string
	Phone       string
	Email       string
	Address     string
	Postcode    string
	AccessNotes string
	Size        domain.SizeCategory
	AreaSqm     float64
	// Final price in pence.
	Price int64
}

// CrewPosition is the answer to a crew location update.
type CrewPosition struct {
	DistanceKm float64
	ETAMinutes int
	Notified   bool
}

// JobService handles the job lifecycle around the scheduler: creation from
// quotes, status transitions and crew tracking.
type JobService struct {
	repo     ports.JobRepository
	geocoder ports.Geocoder
	notifier ports.Notifier
	loc      *time.Location
	now      func() time.Time
	newRef   func(time.Time) string
}

func NewJobService(
	repo ports.JobRepository,
	geocoder ports.Geocoder,
	notifier ports.Notifier,
	loc *time.Location,
) (*JobService, error) {
	if repo == nil {
		return nil, errors.New("new job service: job repository must be non-nil")
	}
	if geocoder == nil {
		return nil, errors.New("new job service: geocoder must be non-nil")
	}
	if loc == nil {
		loc = time.UTC
	}

	return &JobService{
		repo:     repo,
		geocoder: geocoder,
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
		newRef:   NewJobReference,
	}, nil
}

func (s *JobService) WithClock(now func() time.Time) *JobService {
	s.now = now
	return s
}

const refAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewJobReference returns a reference of the form CRS-YYMMDD-XXXX where the
// suffix is four random base-36 characters.
func NewJobReference(now time.Time) string {
	id := uuid.New()
	n := binary.BigEndian.Uint64(id[:8])

	var suffix [4]byte
	for i := len(suffix) - 1; i >= 0; i-- {
		suffix[i] = refAlphabet[n%uint64(len(refAlphabet))]
		n /= uint64(len(refAlphabet))
	}
	return fmt.Sprintf("CRS-%s-%s", now.Format("060102"), suffix[:])
}

// CreateFromQuote converts an accepted quote into a scheduled job on date.
func (s *JobService) CreateFromQuote(ctx context.Context, q Quote, date time.Time) (_ *domain.Job, err error) {
	defer obs.Time(ctx, "jobs.CreateFromQuote")(&err)

	postcode := strings.TrimSpace(q.Postcode)
	if postcode == "" {
		return nil, fmt.Errorf("create job: postcode must be non-empty: %w", ErrInvalidInput)
	}
	if q.Price < 0 {
		return nil, fmt.Errorf("create job: price must not be negative (got %d): %w", q.Price, ErrInvalidInput)
	}

	coords, err := s.geocoder.Coordinates(ctx, postcode)
	if err != nil {
		return nil, fmt.Errorf("create job: geocode %q: %w", postcode, err)
	}

	size := q.Size
	if !size.Valid() {
		size = domain.SizeMedium
	}

	now := s.now()
	job := &domain.Job{
		QuoteReference: q.Reference,
		CompanyName:    q.CompanyName,
		ContactName:    q.ContactName,
		Phone:          q.Phone,
		Email:          q.Email,
		Address:        q.Address,
		Postcode:       postcode,
		Coordinates:    coords,
		AccessNotes:    q.AccessNotes,
		Size:           size,
		AreaSqm:        q.AreaSqm,
		Price:          q.Price,
		ScheduledDate:  domain.Date(date, s.loc),
		Status:         domain.StatusScheduled,
		CreatedAt:      now,
	}

	for attempt := 1; ; attempt++ {
		job.Reference = s.newRef(now)
		err = s.repo.CreateJob(ctx, job)
		if err == nil {
			break
		}
		if !errors.Is(err, ports.ErrJobExists) || attempt == maxReferenceAttempts {
			return nil, fmt.Errorf("create job: save %s: %w", job.Reference, err)
		}
		log.Printf("req_id=%s job reference collision: ref=%s attempt=%d", obs.RequestID(ctx), job.Reference, attempt)
	}

	s.notify(ctx, ports.Notification{Kind: ports.NotifyJobScheduled, Job: job})
	return job, nil
}

func (s *JobService) GetJob(ctx context.Context, reference string) (*domain.Job, error) {
	job, err := s.repo.GetJob(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", reference, err)
	}
	return job, nil
}

// UpdateStatus moves a job to status and notifies the customer on arrival
// and completion.
func (s *JobService) UpdateStatus(ctx context.Context, reference string, status domain.JobStatus) (*domain.Job, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("update job status: status %q: %w", status, ErrInvalidInput)
	}

	job, err := s.repo.GetJob(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("update job status: get %s: %w", reference, err)
	}

	now := s.now()
	job.Status = status
	job.UpdatedAt = &now

	if err := s.repo.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("update job status: save %s: %w", reference, err)
	}

	switch status {
	case domain.StatusInProgress:
		s.notify(ctx, ports.Notification{Kind: ports.NotifyCrewArrived, Job: job})
	case domain.StatusCompleted:
		s.notify(ctx, ports.Notification{Kind: ports.NotifyJobComplete, Job: job})
	}

	return job, nil
}

// UpdateCrewLocation estimates the crew's ETA to a job from its current
// position and sends the "on the way" notification once, the first time the
// crew is within thirty minutes.
func (s *JobService) UpdateCrewLocation(ctx context.Context, reference string, at domain.Coordinates) (*CrewPosition, error) {
	job, err := s.repo.GetJob(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("update crew location: get %s: %w", reference, err)
	}

	dist := domain.DistanceKm(at, job.Coordinates)
	pos := &CrewPosition{
		DistanceKm: dist,
		ETAMinutes: int(math.Round(dist * minutesPerKm)),
	}

	// Persist the flag before notifying; the notice goes out at most once.
	if pos.ETAMinutes <= onWayThresholdMinutes && !job.OnWayNotificationSent {
		job.OnWayNotificationSent = true
		if err := s.repo.SaveJob(ctx, job); err != nil {
			return nil, fmt.Errorf("update crew location: save %s: %w", reference, err)
		}
		s.notify(ctx, ports.Notification{Kind: ports.NotifyCrewOnWay, Job: job, ETAMinutes: pos.ETAMinutes})
		pos.Notified = true
	}

	return pos, nil
}

// Notification failures are logged and do not fail the job operation.
func (s *JobService) notify(ctx context.Context, n ports.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		log.Printf("req_id=%s notify failed: kind=%s job=%s err=%v", obs.RequestID(ctx), n.Kind, n.Job.Reference, err)
	}
}
