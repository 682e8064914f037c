package ports

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"errors"
	"time"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobExists   = errors.New("job reference already exists")
)

// Port: a boundary for reading and persisting Job entities.
type JobRepository interface {
	// Retrieve all jobs scheduled on the calendar date of date.
	JobsForDate(ctx context.Context, date time.Time) ([]*domain.Job, error)
	// Retrieve a single job; returns ErrJobNotFound when absent.
	GetJob(ctx context.Context, reference string) (*domain.Job, error)
	// Insert a new job; returns ErrJobExists when the reference is taken.
	CreateJob(ctx context.Context, job *domain.Job) error
	// Insert or replace a job keyed by its reference.
	SaveJob(ctx context.Context, job *domain.Job) error
	// Return the most frequent postcode districts for jobs in [from, to).
	TopPostcodes(ctx context.Context, from, to time.Time, limit int) ([]string, error)
}
