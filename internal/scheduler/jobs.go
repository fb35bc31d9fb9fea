package scheduler

import (
	"context"
	"time"

	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/features/calendar"
	"crm-imobiliario/internal/features/funnel"
	"crm-imobiliario/internal/features/reporting"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobFunnelBackfill  = "funnel-backfill"
	JobChannelRenewal  = "calendar-channel-renewal"
	JobReportingExport = "reporting-export"
)

// NewScheduler registers the periodic jobs and ties the cron loop to the
// application lifecycle
func NewScheduler(
	lc fx.Lifecycle,
	cfg *config.Config,
	funnelService funnel.FunnelService,
	calendarService calendar.CalendarService,
	reportingService reporting.ReportingService,
	logger *zap.Logger,
) (*Scheduler, error) {
	s := New(logger.Named("scheduler"))

	jobs := []Job{
		{
			Name:     JobFunnelBackfill,
			Schedule: cfg.FunnelBackfillSchedule,
			Timeout:  5 * time.Minute,
			Run: func(ctx context.Context) error {
				res, err := funnelService.SyncLeadsToFunnel(ctx)
				if err != nil {
					return err
				}
				if res.Synced > 0 {
					logger.Info("leads placed in funnel", zap.Int("synced", res.Synced))
				}
				return nil
			},
		},
		{
			Name:     JobChannelRenewal,
			Schedule: cfg.ChannelRenewalSchedule,
			Timeout:  5 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := calendarService.RenewChannels(ctx)
				return err
			},
		},
	}
	if reportingService.Enabled() {
		jobs = append(jobs, Job{
			Name:     JobReportingExport,
			Schedule: cfg.ReportingSchedule,
			Timeout:  30 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := reportingService.Export(ctx, reporting.TriggerSchedule)
				return err
			},
		})
	}

	for _, job := range jobs {
		if err := s.Register(job); err != nil {
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
	return s, nil
}
