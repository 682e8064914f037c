package notify

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/platform/obs"
	"crs-scheduling-service/internal/ports"
	"errors"
	"log"
)

// LogNotifier writes customer notifications to the service log instead of
// sending them. It stands in for an email/SMS gateway in local runs.
type LogNotifier struct {
	Logger *log.Logger
}

func NewLogNotifier(l *log.Logger) *LogNotifier {
	if l == nil {
		l = log.Default()
	}
	return &LogNotifier{Logger: l}
}

func (n *LogNotifier) Notify(ctx context.Context, msg ports.Notification) error {
	if msg.Job == nil {
		return errors.New("notify: notification has no job")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	j := msg.Job
	switch msg.Kind {
	case ports.NotifyCrewOnWay:
		n.Logger.Printf("req_id=%s notify kind=%s job=%s to=%q eta_min=%d",
			obs.RequestID(ctx), msg.Kind, j.Reference, j.Email, msg.ETAMinutes)
	default:
		n.Logger.Printf("req_id=%s notify kind=%s job=%s to=%q date=%s",
			obs.RequestID(ctx), msg.Kind, j.Reference, j.Email, domain.DateKey(j.ScheduledDate))
	}

	return nil
}
