package repositories

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/platform/obs"
	"crs-scheduling-service/internal/ports"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgreSQL-backed implementation of the JobRepository port (pgx stdlib driver).
type SQLJobRepository struct {
	DB  *sql.DB
	Loc *time.Location
}

func NewSQLJobRepository(db *sql.DB, loc *time.Location) *SQLJobRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &SQLJobRepository{DB: db, Loc: loc}
}

const sqlJobSelect = `
	SELECT
		reference,
		quote_reference,
		company_name,
		contact_name,
		phone,
		email,
		address,
		postcode,
		lat,
		lon,
		access_notes,
		size,
		area_sqm,
		price_pence,
		to_char(scheduled_date, 'YYYY-MM-DD'),
		arrival_time,
		departure_time,
		status,
		on_way_notified,
		created_at,
		updated_at
	FROM jobs
	`

// Return all jobs scheduled on date, oldest first.
func (s *SQLJobRepository) JobsForDate(ctx context.Context, date time.Time) (_ []*domain.Job, err error) {
	defer obs.Time(ctx, "jobs.repo.JobsForDate")(&err)

	if s.DB == nil {
		return nil, errors.New("sql job repository: DB is nil")
	}

	q := sqlJobSelect + `
	WHERE scheduled_date = $1::date
	ORDER BY created_at, reference;
	`
	rows, err := s.DB.QueryContext(ctx, q, domain.DateKey(date))
	if err != nil {
		return nil, fmt.Errorf("jobs for date: query jobs table: %w", err)
	}
	defer rows.Close()

	jobs := make([]*domain.Job, 0, 16)
	for rows.Next() {
		job, err := s.scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("jobs for date: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("jobs for date: row iteration: %w", err)
	}

	return jobs, nil
}

func (s *SQLJobRepository) GetJob(ctx context.Context, reference string) (*domain.Job, error) {
	if s.DB == nil {
		return nil, errors.New("sql job repository: DB is nil")
	}

	q := sqlJobSelect + `
	WHERE reference = $1;
	`
	job, err := s.scanJob(s.DB.QueryRowContext(ctx, q, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	return job, nil
}

const sqlInsertJob = `
	INSERT INTO jobs (
		reference, quote_reference, company_name, contact_name, phone, email,
		address, postcode, lat, lon, access_notes, size, area_sqm, price_pence,
		scheduled_date, arrival_time, departure_time, status, on_way_notified,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		$15::date, $16, $17, $18, $19, $20, $21)`

// Insert a new job; an existing reference is reported as ports.ErrJobExists.
func (s *SQLJobRepository) CreateJob(ctx context.Context, job *domain.Job) (err error) {
	defer obs.Time(ctx, "jobs.repo.CreateJob")(&err)

	if s.DB == nil {
		return errors.New("sql job repository: DB is nil")
	}
	if job == nil || job.Reference == "" {
		return errors.New("create job: job reference must be non-empty")
	}

	res, err := s.DB.ExecContext(ctx, sqlInsertJob+`
	ON CONFLICT (reference) DO NOTHING;
	`, sqlJobArgs(job)...)
	if err != nil {
		return fmt.Errorf("create job reference=%s: %w", job.Reference, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create job reference=%s: rows affected: %w", job.Reference, err)
	}
	if n == 0 {
		return fmt.Errorf("create job reference=%s: %w", job.Reference, ports.ErrJobExists)
	}

	return nil
}

func (s *SQLJobRepository) SaveJob(ctx context.Context, job *domain.Job) error {
	if s.DB == nil {
		return errors.New("sql job repository: DB is nil")
	}
	if job == nil || job.Reference == "" {
		return errors.New("save job: job reference must be non-empty")
	}

	q := sqlInsertJob + `
	ON CONFLICT (reference) DO UPDATE
	SET quote_reference = EXCLUDED.quote_reference,
		company_name = EXCLUDED.company_name,
		contact_name = EXCLUDED.contact_name,
		phone = EXCLUDED.phone,
		email = EXCLUDED.email,
		address = EXCLUDED.address,
		postcode = EXCLUDED.postcode,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		access_notes = EXCLUDED.access_notes,
		size = EXCLUDED.size,
		area_sqm = EXCLUDED.area_sqm,
		price_pence = EXCLUDED.price_pence,
		scheduled_date = EXCLUDED.scheduled_date,
		arrival_time = EXCLUDED.arrival_time,
		departure_time = EXCLUDED.departure_time,
		status = EXCLUDED.status,
		on_way_notified = EXCLUDED.on_way_notified,
		updated_at = EXCLUDED.updated_at;
	`

	if _, err := s.DB.ExecContext(ctx, q, sqlJobArgs(job)...); err != nil {
		return fmt.Errorf("save job reference=%s: %w", job.Reference, err)
	}

	return nil
}

func sqlJobArgs(job *domain.Job) []any {
	return []any{
		job.Reference,
		job.QuoteReference,
		job.CompanyName,
		job.ContactName,
		job.Phone,
		job.Email,
		job.Address,
		job.Postcode,
		job.Coordinates.Lat,
		job.Coordinates.Lon,
		job.AccessNotes,
		string(job.Size),
		job.AreaSqm,
		job.Price,
		domain.DateKey(job.ScheduledDate),
		nullTime(job.ArrivalTime),
		nullTime(job.DepartureTime),
		string(job.Status),
		job.OnWayNotificationSent,
		job.CreatedAt,
		nullTime(job.UpdatedAt),
	}
}

func (s *SQLJobRepository) TopPostcodes(ctx context.Context, from, to time.Time, limit int) ([]string, error) {
	if s.DB == nil {
		return nil, errors.New("sql job repository: DB is nil")
	}

	q := `
	SELECT postcode
	FROM jobs
	WHERE scheduled_date >= $1::date
		AND scheduled_date < $2::date;
	`
	rows, err := s.DB.QueryContext(ctx, q, domain.DateKey(from), domain.DateKey(to))
	if err != nil {
		return nil, fmt.Errorf("top postcodes: query jobs table: %w", err)
	}
	defer rows.Close()

	postcodes := make([]string, 0, 64)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("top postcodes: scan row: %w", err)
		}
		postcodes = append(postcodes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top postcodes: row iteration: %w", err)
	}

	return topDistricts(postcodes, limit), nil
}

func (s *SQLJobRepository) scanJob(row rowScanner) (*domain.Job, error) {
	var (
		j                       domain.Job
		size, status, date      string
		arrival, departure, upd sql.NullTime
	)

	err := row.Scan(
		&j.Reference,
		&j.QuoteReference,
		&j.CompanyName,
		&j.ContactName,
		&j.Phone,
		&j.Email,
		&j.Address,
		&j.Postcode,
		&j.Coordinates.Lat,
		&j.Coordinates.Lon,
		&j.AccessNotes,
		&size,
		&j.AreaSqm,
		&j.Price,
		&date,
		&arrival,
		&departure,
		&status,
		&j.OnWayNotificationSent,
		&j.CreatedAt,
		&upd,
	)
	if err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	if j.ScheduledDate, err = domain.ParseDate(date, s.Loc); err != nil {
		return nil, fmt.Errorf("scan row %s: scheduled_date: %w", j.Reference, err)
	}

	j.Size = domain.ParseSizeCategory(size)
	j.Status = domain.JobStatus(status)
	j.ArrivalTime = timePtr(arrival)
	j.DepartureTime = timePtr(departure)
	j.UpdatedAt = timePtr(upd)

	return &j, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
