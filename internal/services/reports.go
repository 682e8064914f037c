package services

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/platform/obs"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

const topPostcodeLimit = 3

// WeeklyReport builds the seven day schedules starting at weekStart and
// aggregates jobs and revenue across them. Days are built concurrently;
// the first failure cancels the rest and is returned.
func (s *Scheduler) WeeklyReport(ctx context.Context, weekStart time.Time) (_ *domain.WeeklyReport, err error) {
	defer obs.Time(ctx, "scheduler.WeeklyReport")(&err)

	weekStart = domain.Date(weekStart, s.cfg.Location)
	weekEnd := weekStart.AddDate(0, 0, 6)

	days := make([]*domain.DaySchedule, 7)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for i := range days {
		date := weekStart.AddDate(0, 0, i)
		g.Go(func() error {
			sched, err := s.BuildSchedule(gctx, date)
			if err != nil {
				return err
			}
			days[i] = sched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("weekly report: %w", err)
	}

	report := &domain.WeeklyReport{
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Days:      days,
	}
	for _, d := range days {
		report.TotalJobs += d.JobCount
		report.TotalRevenue += d.TotalRevenue
	}
	if report.TotalJobs > 0 {
		report.AverageJobValue = report.TotalRevenue / int64(report.TotalJobs)
	}

	top, err := s.repo.TopPostcodes(ctx, weekStart, weekStart.AddDate(0, 0, 7), topPostcodeLimit)
	if err != nil {
		return nil, fmt.Errorf("weekly report: top postcodes: %w", err)
	}
	report.TopPostcodes = top

	return report, nil
}
