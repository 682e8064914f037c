package ports

import (
	"context"
	"crs-scheduling-service/internal/domain"
)

type NotificationKind string

const (
	NotifyJobScheduled NotificationKind = "job_scheduled"
	NotifyCrewOnWay    NotificationKind = "crew_on_way"
	NotifyCrewArrived  NotificationKind = "crew_arrived"
	NotifyJobComplete  NotificationKind = "job_complete"
)

type Notification struct {
	Kind       NotificationKind
	Job        *domain.Job
	ETAMinutes int
}

// Contract for telling a customer about a change to their job.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
