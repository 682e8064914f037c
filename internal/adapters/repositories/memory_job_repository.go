package repositories

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/ports"
	"errors"
	"fmt"
	"sync"
	"time"
)

// MemoryJobRepository is an in-memory JobRepository for tests.
// Jobs are returned in insertion order.
type MemoryJobRepository struct {
	mu    sync.Mutex
	jobs  map[string]*domain.Job
	order []string
}

func NewMemoryJobRepository(jobs ...*domain.Job) *MemoryJobRepository {
	r := &MemoryJobRepository{jobs: make(map[string]*domain.Job)}
	for i, j := range jobs {
		if err := r.SaveJob(context.Background(), j); err != nil {
			panic(fmt.Sprintf("new memory job repository: job #%d: %v", i, err))
		}
	}
	return r
}

func (r *MemoryJobRepository) JobsForDate(ctx context.Context, date time.Time) ([]*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := domain.DateKey(date)
	out := make([]*domain.Job, 0)
	for _, ref := range r.order {
		j := r.jobs[ref]
		if domain.DateKey(j.ScheduledDate) == key {
			out = append(out, j.Clone())
		}
	}
	return out, nil
}

func (r *MemoryJobRepository) GetJob(ctx context.Context, reference string) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[reference]
	if !ok {
		return nil, ports.ErrJobNotFound
	}
	return j.Clone(), nil
}

func (r *MemoryJobRepository) CreateJob(ctx context.Context, job *domain.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job == nil || job.Reference == "" {
		return errors.New("memory job repository: job reference must be non-empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.Reference]; ok {
		return fmt.Errorf("create job %s: %w", job.Reference, ports.ErrJobExists)
	}
	r.order = append(r.order, job.Reference)
	r.jobs[job.Reference] = job.Clone()
	return nil
}

func (r *MemoryJobRepository) SaveJob(ctx context.Context, job *domain.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job == nil || job.Reference == "" {
		return errors.New("memory job repository: job reference must be non-empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.Reference]; !ok {
		r.order = append(r.order, job.Reference)
	}
	r.jobs[job.Reference] = job.Clone()
	return nil
}

func (r *MemoryJobRepository) TopPostcodes(ctx context.Context, from, to time.Time, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fromKey, toKey := domain.DateKey(from), domain.DateKey(to)
	postcodes := make([]string, 0)
	for _, ref := range r.order {
		j := r.jobs[ref]
		k := domain.DateKey(j.ScheduledDate)
		if k >= fromKey && k < toKey {
			postcodes = append(postcodes, j.Postcode)
		}
	}
	return topDistricts(postcodes, limit), nil
}
