package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"Karion/internal/domain/models"
	domrepo "Karion/internal/domain/repository"
	applogger "Karion/pkg/logger"
)

// Channel is a named overview destination.
type Channel struct {
	Name      string
	Publisher domrepo.OverviewPublisher
	// Live channels also receive the frequent stream refresh, not only the scheduled run.
	Live bool
}

type publishRecorder interface {
	RecordPublished(channel string)
}

// OverviewJob evaluates the market overview on a cron schedule and fans it out.
type OverviewJob struct {
	market   *MarketUseCase
	channels []Channel
	cron     *cron.Cron
	schedule string
	stream   time.Duration
	metrics  publishRecorder
	l        *applogger.Logger
}

func NewOverviewJob(market *MarketUseCase, channels []Channel, schedule string, stream time.Duration, metrics publishRecorder, l *applogger.Logger) *OverviewJob {
	return &OverviewJob{
		market:   market,
		channels: channels,
		cron:     cron.New(),
		schedule: schedule,
		stream:   stream,
		metrics:  metrics,
		l:        applogger.OrNop(l).Component("overview_job"),
	}
}

// Start registers the scheduled run and, when configured, the live refresh.
func (j *OverviewJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.run(false) }); err != nil {
		return fmt.Errorf("schedule %q: %w", j.schedule, err)
	}
	if j.stream > 0 {
		if _, err := j.cron.AddFunc(fmt.Sprintf("@every %s", j.stream), func() { j.run(true) }); err != nil {
			return fmt.Errorf("stream interval %s: %w", j.stream, err)
		}
	}
	j.cron.Start()
	j.l.Info("scheduler started",
		applogger.String("schedule", j.schedule),
		applogger.Duration("stream", j.stream),
		applogger.Int("channels", len(j.channels)),
	)
	return nil
}

// Stop waits for a running evaluation to finish or for ctx to expire.
func (j *OverviewJob) Stop(ctx context.Context) error {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *OverviewJob) run(liveOnly bool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := j.RunOnce(ctx, liveOnly); err != nil {
		j.l.Error("overview publish failed", applogger.Error(err))
	}
}

// RunOnce evaluates one overview and sends it to every channel, or to live channels only.
// Only the full run advances the momentum baseline. A failing channel does not stop the others.
func (j *OverviewJob) RunOnce(ctx context.Context, liveOnly bool) error {
	var o *models.MarketOverview
	if liveOnly {
		o = j.market.Preview(ctx)
	} else {
		o = j.market.Overview(ctx)
	}
	var errs []error
	for _, ch := range j.channels {
		if liveOnly && !ch.Live {
			continue
		}
		if err := ch.Publisher.PublishOverview(ctx, o); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name, err))
			continue
		}
		if j.metrics != nil {
			j.metrics.RecordPublished(ch.Name)
		}
	}
	if !liveOnly {
		j.l.Info("overview published", applogger.String("regime", string(o.Regime)), applogger.String("at", o.LastUpdate))
	}
	return errors.Join(errs...)
}

// Latest evaluates an overview without publishing it or moving the momentum baseline,
// e.g. to greet a new subscriber.
func (j *OverviewJob) Latest(ctx context.Context) *models.MarketOverview {
	return j.market.Preview(ctx)
}
