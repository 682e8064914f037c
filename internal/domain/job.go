package domain

import (
	"strings"
	"time"
)

// SizeCategory classifies the scope of a repair job.
// The set is closed; anything outside it is treated as medium.
type SizeCategory string

const (
	SizeSmall  SizeCategory = "small"
	SizeMedium SizeCategory = "medium"
	SizeLarge  SizeCategory = "large"
	SizeXLarge SizeCategory = "xlarge"
)

// SizeCategories lists every size category in ascending order.
var SizeCategories = []SizeCategory{SizeSmall, SizeMedium, SizeLarge, SizeXLarge}

// Valid reports whether s is one of the four known categories.
func (s SizeCategory) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge, SizeXLarge:
		return true
	}
	return false
}

// ParseSizeCategory normalizes s and falls back to medium for unknown values.
func ParseSizeCategory(s string) SizeCategory {
	c := SizeCategory(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return SizeMedium
	}
	return c
}

type JobStatus string

const (
	StatusScheduled  JobStatus = "scheduled"
	StatusInProgress JobStatus = "in_progress"
	StatusCompleted  JobStatus = "completed"
)

func (s JobStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Represents a single repair job at a customer site.
//
// Coordinates and Size are fixed when the job is created from a quote and are
// read-only inputs to scheduling. ArrivalTime and DepartureTime are the only
// fields the scheduler writes, and only on the copies it returns.
type Job struct {
	Reference      string
	QuoteReference string

	CompanyName string
	ContactName string
	Phone       string
	Email       string

	Address     string
	Postcode    string
	Coordinates Coordinates
	AccessNotes string

	Size    SizeCategory
	AreaSqm float64
	// Price in pence.
	Price int64

	ScheduledDate time.Time
	ArrivalTime   *time.Time
	DepartureTime *time.Time

	Status                JobStatus
	OnWayNotificationSent bool
	CreatedAt             time.Time
	UpdatedAt             *time.Time
}

// Clone returns a copy of the job that shares no pointers with j.
func (j *Job) Clone() *Job {
	c := *j
	if j.ArrivalTime != nil {
		t := *j.ArrivalTime
		c.ArrivalTime = &t
	}
	if j.DepartureTime != nil {
		t := *j.DepartureTime
		c.DepartureTime = &t
	}
	if j.UpdatedAt != nil {
		t := *j.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

// PostcodeDistrict returns the outward code of a UK postcode ("CV1 2AB" -> "CV1").
func PostcodeDistrict(postcode string) string {
	p := strings.ToUpper(strings.TrimSpace(postcode))
	if p == "" {
		return ""
	}
	if i := strings.IndexByte(p, ' '); i > 0 {
		return p[:i]
	}
	// Unspaced postcodes always end in a three character inward code.
	if len(p) > 4 {
		return p[:len(p)-3]
	}
	return p
}
