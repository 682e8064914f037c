package repositories

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/ports"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sqliteJobColumns = `
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
		scheduled_date,
		arrival_time,
		departure_time,
		status,
		on_way_notified,
		created_at,
		updated_at`

// SQLite-backed implementation of the JobRepository port.
// Dates are stored as YYYY-MM-DD text and timestamps as RFC 3339 text;
// Loc is the location calendar dates are interpreted in.
type SqliteJobRepository struct {
	DB  *sql.DB
	Loc *time.Location
}

func NewSqliteJobRepository(db *sql.DB, loc *time.Location) *SqliteJobRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &SqliteJobRepository{DB: db, Loc: loc}
}

// Return all jobs scheduled on date, in insertion order.
func (s *SqliteJobRepository) JobsForDate(ctx context.Context, date time.Time) ([]*domain.Job, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite job repository: DB is nil")
	}

	query := `SELECT` + sqliteJobColumns + `
	FROM jobs
	WHERE scheduled_date = ?
	ORDER BY rowid;
	`
	rows, err := s.DB.QueryContext(ctx, query, domain.DateKey(date))
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

func (s *SqliteJobRepository) GetJob(ctx context.Context, reference string) (*domain.Job, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite job repository: DB is nil")
	}

	query := `SELECT` + sqliteJobColumns + `
	FROM jobs
	WHERE reference = ?;
	`
	job, err := s.scanJob(s.DB.QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	return job, nil
}

const sqliteInsertJob = `
	INSERT INTO jobs (` + sqliteJobColumns + `
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Insert a new job. An existing reference is left untouched and reported
// as ports.ErrJobExists.
func (s *SqliteJobRepository) CreateJob(ctx context.Context, job *domain.Job) error {
	if s.DB == nil {
		return errors.New("sqlite job repository: DB is nil")
	}
	if job == nil || job.Reference == "" {
		return errors.New("create job: job reference must be non-empty")
	}

	res, err := s.DB.ExecContext(ctx, sqliteInsertJob+`
	ON CONFLICT (reference) DO NOTHING;
	`, sqliteJobArgs(job)...)
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

// Insert a job or update it in place, keeping its original rowid.
func (s *SqliteJobRepository) SaveJob(ctx context.Context, job *domain.Job) error {
	if s.DB == nil {
		return errors.New("sqlite job repository: DB is nil")
	}
	if job == nil || job.Reference == "" {
		return errors.New("save job: job reference must be non-empty")
	}

	query := sqliteInsertJob + `
	ON CONFLICT (reference) DO UPDATE SET
		quote_reference = excluded.quote_reference,
		company_name = excluded.company_name,
		contact_name = excluded.contact_name,
		phone = excluded.phone,
		email = excluded.email,
		address = excluded.address,
		postcode = excluded.postcode,
		lat = excluded.lat,
		lon = excluded.lon,
		access_notes = excluded.access_notes,
		size = excluded.size,
		area_sqm = excluded.area_sqm,
		price_pence = excluded.price_pence,
		scheduled_date = excluded.scheduled_date,
		arrival_time = excluded.arrival_time,
		departure_time = excluded.departure_time,
		status = excluded.status,
		on_way_notified = excluded.on_way_notified,
		updated_at = excluded.updated_at;
	`

	if _, err := s.DB.ExecContext(ctx, query, sqliteJobArgs(job)...); err != nil {
		return fmt.Errorf("save job reference=%s: %w", job.Reference, err)
	}

	return nil
}

func sqliteJobArgs(job *domain.Job) []any {
	onWay := 0
	if job.OnWayNotificationSent {
		onWay = 1
	}

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
		formatTimePtr(job.ArrivalTime),
		formatTimePtr(job.DepartureTime),
		string(job.Status),
		onWay,
		job.CreatedAt.UTC().Format(time.RFC3339Nano),
		formatTimePtr(job.UpdatedAt),
	}
}

func (s *SqliteJobRepository) TopPostcodes(ctx context.Context, from, to time.Time, limit int) ([]string, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite job repository: DB is nil")
	}

	query := `
	SELECT postcode
	FROM jobs
	WHERE scheduled_date >= ?
		AND scheduled_date < ?;
	`
	rows, err := s.DB.QueryContext(ctx, query, domain.DateKey(from), domain.DateKey(to))
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

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SqliteJobRepository) scanJob(row rowScanner) (*domain.Job, error) {
	var (
		j                       domain.Job
		size, status, date      string
		created                 string
		arrival, departure, upd sql.NullString
		onWay                   int
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
		&onWay,
		&created,
		&upd,
	)
	if err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	if j.ScheduledDate, err = domain.ParseDate(date, s.Loc); err != nil {
		return nil, fmt.Errorf("scan row %s: scheduled_date: %w", j.Reference, err)
	}
	if j.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("scan row %s: created_at: %w", j.Reference, err)
	}
	if j.ArrivalTime, err = parseTimePtr(arrival); err != nil {
		return nil, fmt.Errorf("scan row %s: arrival_time: %w", j.Reference, err)
	}
	if j.DepartureTime, err = parseTimePtr(departure); err != nil {
		return nil, fmt.Errorf("scan row %s: departure_time: %w", j.Reference, err)
	}
	if j.UpdatedAt, err = parseTimePtr(upd); err != nil {
		return nil, fmt.Errorf("scan row %s: updated_at: %w", j.Reference, err)
	}

	j.Size = domain.ParseSizeCategory(size)
	j.Status = domain.JobStatus(status)
	j.OnWayNotificationSent = onWay != 0

	return &j, nil
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimePtr(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
