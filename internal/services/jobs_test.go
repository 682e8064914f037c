package services

import (
	"context"
	"crs-scheduling-service/internal/adapters/repositories"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/ports"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []ports.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg ports.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) kinds() []ports.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ports.NotificationKind, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.Kind)
	}
	return out
}

func newTestJobService(t *testing.T, repo ports.JobRepository, n ports.Notifier) *JobService {
	t.Helper()
	s, err := NewJobService(repo, testGeocoder(), n, time.UTC)
	require.NoError(t, err)
	return s.WithClock(func() time.Time { return testNow })
}

func TestNewJobReference(t *testing.T) {
	ref := NewJobReference(testNow)
	assert.Regexp(t, regexp.MustCompile(`^CRS-260102-[0-9A-Z]{4}$`), ref)
}

func TestCreateFromQuote(t *testing.T) {
	repo := repositories.NewMemoryJobRepository()
	n := &recordingNotifier{}
	s := newTestJobService(t, repo, n)

	job, err := s.CreateFromQuote(context.Background(), Quote{
		Reference:   "Q-1001",
		CompanyName: "Central Retail Park",
		Email:       "ops@example.com",
		Postcode:    " CV1 5FB ",
		Size:        domain.SizeLarge,
		Price:       480000,
	}, testDate.Add(13*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "CV1 5FB", job.Postcode)
	assert.Equal(t, domain.Coordinates{Lat: 52.4071, Lon: -1.5192}, job.Coordinates)
	assert.Equal(t, domain.StatusScheduled, job.Status)
	assert.Equal(t, "2026-01-05", domain.DateKey(job.ScheduledDate))
	assert.Zero(t, job.ScheduledDate.Hour())
	assert.Equal(t, []ports.NotificationKind{ports.NotifyJobScheduled}, n.kinds())

	stored, err := repo.GetJob(context.Background(), job.Reference)
	require.NoError(t, err)
	assert.Equal(t, "Q-1001", stored.QuoteReference)
	assert.Equal(t, int64(480000), stored.Price)
}

// fixedRefs hands out refs in order, repeating the last one when exhausted.
func fixedRefs(refs ...string) func(time.Time) string {
	var mu sync.Mutex
	i := 0
	return func(time.Time) string {
		mu.Lock()
		defer mu.Unlock()
		r := refs[min(i, len(refs)-1)]
		i++
		return r
	}
}

func TestCreateFromQuoteRetriesReferenceCollision(t *testing.T) {
	repo := repositories.NewMemoryJobRepository()
	n := &recordingNotifier{}
	s := newTestJobService(t, repo, n)
	s.newRef = fixedRefs("CRS-260102-AAAA", "CRS-260102-AAAA", "CRS-260102-BBBB")
	ctx := context.Background()

	first, err := s.CreateFromQuote(ctx, Quote{Reference: "Q-1", Postcode: "CV1 5FB"}, testDate)
	require.NoError(t, err)
	assert.Equal(t, "CRS-260102-AAAA", first.Reference)

	second, err := s.CreateFromQuote(ctx, Quote{Reference: "Q-2", Postcode: "LE1 6TE"}, testDate)
	require.NoError(t, err)
	assert.Equal(t, "CRS-260102-BBBB", second.Reference)

	stored, err := repo.GetJob(ctx, "CRS-260102-AAAA")
	require.NoError(t, err)
	assert.Equal(t, "Q-1", stored.QuoteReference)
	assert.Equal(t, "CV1 5FB", stored.Postcode)

	jobs, err := repo.JobsForDate(ctx, testDate)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.Len(t, n.kinds(), 2)
}

func TestCreateFromQuoteGivesUpOnRepeatedCollisions(t *testing.T) {
	repo := repositories.NewMemoryJobRepository()
	n := &recordingNotifier{}
	s := newTestJobService(t, repo, n)
	s.newRef = fixedRefs("CRS-260102-AAAA")
	ctx := context.Background()

	_, err := s.CreateFromQuote(ctx, Quote{Reference: "Q-1", Postcode: "CV1 5FB"}, testDate)
	require.NoError(t, err)

	_, err = s.CreateFromQuote(ctx, Quote{Reference: "Q-2", Postcode: "LE1 6TE"}, testDate)
	assert.ErrorIs(t, err, ports.ErrJobExists)

	stored, err := repo.GetJob(ctx, "CRS-260102-AAAA")
	require.NoError(t, err)
	assert.Equal(t, "Q-1", stored.QuoteReference)
	assert.Len(t, n.kinds(), 1)
}

func TestCreateFromQuoteIssuesDistinctReferences(t *testing.T) {
	repo := repositories.NewMemoryJobRepository()
	s := newTestJobService(t, repo, nil)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		job, err := s.CreateFromQuote(ctx, Quote{Postcode: "CV1 5FB"}, testDate)
		require.NoError(t, err)
		require.False(t, seen[job.Reference], "reference %s issued twice", job.Reference)
		seen[job.Reference] = true
	}

	jobs, err := repo.JobsForDate(ctx, testDate)
	require.NoError(t, err)
	assert.Len(t, jobs, 2000)
}

func TestCreateFromQuoteDefaultsSize(t *testing.T) {
	s := newTestJobService(t, repositories.NewMemoryJobRepository(), nil)

	job, err := s.CreateFromQuote(context.Background(), Quote{Postcode: "CV1 5FB"}, testDate)
	require.NoError(t, err)
	assert.Equal(t, domain.SizeMedium, job.Size)
}

func TestCreateFromQuoteValidation(t *testing.T) {
	s := newTestJobService(t, repositories.NewMemoryJobRepository(), nil)
	ctx := context.Background()

	_, err := s.CreateFromQuote(ctx, Quote{Postcode: "  "}, testDate)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.CreateFromQuote(ctx, Quote{Postcode: "CV1 5FB", Price: -1}, testDate)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.CreateFromQuote(ctx, Quote{Postcode: "ZZ9 9ZZ"}, testDate)
	assert.ErrorIs(t, err, ports.ErrUnknownPostcode)
}

func TestCreateFromQuoteNotifierFailureIsNotFatal(t *testing.T) {
	n := &recordingNotifier{err: errors.New("smtp down")}
	s := newTestJobService(t, repositories.NewMemoryJobRepository(), n)

	_, err := s.CreateFromQuote(context.Background(), Quote{Postcode: "CV1 5FB"}, testDate)
	require.NoError(t, err)
	assert.Len(t, n.kinds(), 1)
}

func TestUpdateStatus(t *testing.T) {
	repo := repositories.NewMemoryJobRepository(scenarioJobs(testDate)...)
	n := &recordingNotifier{}
	s := newTestJobService(t, repo, n)
	ctx := context.Background()

	job, err := s.UpdateStatus(ctx, "A", domain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, job.Status)
	require.NotNil(t, job.UpdatedAt)
	assert.True(t, job.UpdatedAt.Equal(testNow))

	_, err = s.UpdateStatus(ctx, "A", domain.StatusCompleted)
	require.NoError(t, err)

	stored, err := repo.GetJob(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.Equal(t, []ports.NotificationKind{ports.NotifyCrewArrived, ports.NotifyJobComplete}, n.kinds())
}

func TestUpdateStatusErrors(t *testing.T) {
	s := newTestJobService(t, repositories.NewMemoryJobRepository(scenarioJobs(testDate)...), nil)
	ctx := context.Background()

	_, err := s.UpdateStatus(ctx, "A", domain.JobStatus("cancelled"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.UpdateStatus(ctx, "missing", domain.StatusCompleted)
	assert.ErrorIs(t, err, ports.ErrJobNotFound)
}

func TestUpdateCrewLocationNotifiesOnce(t *testing.T) {
	repo := repositories.NewMemoryJobRepository(scenarioJobs(testDate)...)
	n := &recordingNotifier{}
	s := newTestJobService(t, repo, n)
	ctx := context.Background()

	// 20 km from B: 40 minutes out, too early to notify.
	pos, err := s.UpdateCrewLocation(ctx, "B", testDepot)
	require.NoError(t, err)
	assert.Equal(t, 40, pos.ETAMinutes)
	assert.False(t, pos.Notified)
	assert.Empty(t, n.kinds())

	// ~10 km out.
	closer := domain.Coordinates{Lat: 52.4968, Lon: -1.5197}
	pos, err = s.UpdateCrewLocation(ctx, "B", closer)
	require.NoError(t, err)
	assert.LessOrEqual(t, pos.ETAMinutes, 30)
	assert.True(t, pos.Notified)

	pos, err = s.UpdateCrewLocation(ctx, "B", closer)
	require.NoError(t, err)
	assert.False(t, pos.Notified)

	assert.Equal(t, []ports.NotificationKind{ports.NotifyCrewOnWay}, n.kinds())
	n.mu.Lock()
	assert.Equal(t, pos.ETAMinutes, n.sent[0].ETAMinutes)
	n.mu.Unlock()

	stored, err := repo.GetJob(ctx, "B")
	require.NoError(t, err)
	assert.True(t, stored.OnWayNotificationSent)
}

func TestUpdateCrewLocationSaveFailureSendsNothing(t *testing.T) {
	repo := saveFailingRepo{repositories.NewMemoryJobRepository(scenarioJobs(testDate)...)}
	n := &recordingNotifier{}
	s := newTestJobService(t, repo, n)

	closer := domain.Coordinates{Lat: 52.4968, Lon: -1.5197}
	_, err := s.UpdateCrewLocation(context.Background(), "B", closer)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, n.kinds())
}

func TestUpdateCrewLocationUnknownJob(t *testing.T) {
	s := newTestJobService(t, repositories.NewMemoryJobRepository(), nil)

	_, err := s.UpdateCrewLocation(context.Background(), "nope", testDepot)
	assert.ErrorIs(t, err, ports.ErrJobNotFound)
}
