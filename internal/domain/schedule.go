package domain

import "time"

// Cluster is a group of jobs within a fixed radius of its anchor.
// The anchor is the first job added and never moves.
// Clusters only exist for the duration of one scheduling computation.
type Cluster struct {
	Anchor *Job
	Jobs   []*Job
}

// Represents the sequenced work plan for a single calendar day.
// Jobs are ordered in visiting sequence with ArrivalTime and DepartureTime set.
// A DaySchedule is rebuilt from scratch whenever it is requested.
type DaySchedule struct {
	Date         time.Time
	Jobs         []*Job
	JobCount     int
	TotalMileage int
	// Revenue in pence.
	TotalRevenue int64
	TotalHours   float64
	Materials    Materials
	ByStatus     map[JobStatus]int
	BySize       map[SizeCategory]int
}

// Availability is the first bookable day found for a new job.
type Availability struct {
	Date                 time.Time
	HasProximityDiscount bool
	NearbyJobs           int
}

// WeeklyReport aggregates seven consecutive day schedules.
type WeeklyReport struct {
	WeekStart time.Time
	WeekEnd   time.Time
	TotalJobs int
	// Revenue in pence.
	TotalRevenue    int64
	AverageJobValue int64
	Days            []*DaySchedule
	TopPostcodes    []string
}
