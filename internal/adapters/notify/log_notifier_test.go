package notify

import (
	"bytes"
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/platform/obs"
	"crs-scheduling-service/internal/ports"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(log.New(&buf, "", 0))

	job := &domain.Job{
		Reference:     "CRS-260105-ABCD",
		Email:         "ops@example.com",
		ScheduledDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	ctx := obs.WithRequestID(context.Background(), "req-1")

	require.NoError(t, n.Notify(ctx, ports.Notification{Kind: ports.NotifyJobScheduled, Job: job}))
	require.NoError(t, n.Notify(ctx, ports.Notification{Kind: ports.NotifyCrewOnWay, Job: job, ETAMinutes: 25}))

	out := buf.String()
	assert.Contains(t, out, "req_id=req-1 notify kind=job_scheduled job=CRS-260105-ABCD")
	assert.Contains(t, out, "date=2026-01-05")
	assert.Contains(t, out, "kind=crew_on_way")
	assert.Contains(t, out, "eta_min=25")
}

func TestLogNotifierRejectsMissingJob(t *testing.T) {
	n := NewLogNotifier(nil)
	assert.Error(t, n.Notify(context.Background(), ports.Notification{Kind: ports.NotifyJobComplete}))
}
