// Package jobs runs fetch requests in the background, saving their entries and
// recording progress as they go.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
	"github.com/Nixie-Tech-LLC/sehri/internal/notify"
	"github.com/Nixie-Tech-LLC/sehri/internal/prayertime"
	"github.com/Nixie-Tech-LLC/sehri/internal/progress"
)

type Fetcher interface {
	Run(ctx context.Context, req model.FetchRequest, onProgress prayertime.ProgressFunc) ([]model.PrayerTimeEntry, error)
}

type ScheduleSink interface {
	UpsertSchedules(ctx context.Context, entries []model.PrayerTimeEntry) (int, error)
}

type Notifier interface {
	Publish(ev notify.ScheduleEvent) error
}

type Config struct {
	// BatchSize is the number of entries per upsert call.
	BatchSize int
	// Timeout bounds a background job. Zero means no limit.
	Timeout time.Duration
}

type Result struct {
	JobID   string `json:"jobId"`
	Fetched int    `json:"fetched"`
	Saved   int    `json:"saved"`
}

type Runner struct {
	fetcher  Fetcher
	sink     ScheduleSink
	registry progress.Registry
	notifier Notifier
	cfg      Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(fetcher Fetcher, sink ScheduleSink, registry progress.Registry, notifier Notifier, cfg Config) *Runner {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 100
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		fetcher:  fetcher,
		sink:     sink,
		registry: registry,
		notifier: notifier,
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start validates req, records the job as fetching and runs it in the
// background. The returned id is the key for the job's progress.
func (r *Runner) Start(req model.FetchRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", prayertime.WithType(prayertime.ErrValidation, err)
	}
	if err := r.ctx.Err(); err != nil {
		return "", fmt.Errorf("runner closed: %w", err)
	}

	jobID := uuid.NewString()
	r.record(r.ctx, model.FetchProgress{JobID: jobID, Status: model.FetchStatusFetching, UpdatedAt: time.Now().UTC()})

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx := r.ctx
		if r.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
			defer cancel()
		}
		if _, err := r.Run(ctx, jobID, req); err != nil {
			log.Error().Err(err).Str("job_id", jobID).Msg("fetch job failed")
		}
	}()
	return jobID, nil
}

// Run fetches req, saves the entries and leaves a terminal progress record.
// Completed is only recorded once every entry has been saved.
func (r *Runner) Run(ctx context.Context, jobID string, req model.FetchRequest) (Result, error) {
	res := Result{JobID: jobID}
	var latest model.FetchProgress

	entries, err := r.fetcher.Run(ctx, req, func(p model.FetchProgress) {
		p.JobID = jobID
		latest = p
		if p.Status == model.FetchStatusCompleted {
			// saving still has to happen
			p.Status = model.FetchStatusFetching
		}
		r.record(ctx, p)
	})
	if err != nil {
		r.fail(latest, jobID, err)
		return res, err
	}
	res.Fetched = len(entries)

	saved, err := r.save(ctx, entries)
	res.Saved = saved
	if err != nil {
		err = prayertime.WithType(prayertime.ErrDatabase, err)
		// earlier chunks stay committed
		latest.Saved = saved
		r.fail(latest, jobID, err)
		return res, err
	}

	done := latest
	done.JobID = jobID
	done.Status = model.FetchStatusCompleted
	done.Saved = saved
	done.Percentage = 100
	done.UpdatedAt = time.Now().UTC()
	r.record(ctx, done)

	if saved > 0 {
		if err := r.notifier.Publish(notify.ScheduleEvent{
			Type:      notify.EventSchedulesUpdated,
			JobID:     jobID,
			Saved:     saved,
			Districts: req.Districts,
			Source:    "fetch",
		}); err != nil {
			log.Warn().Err(err).Str("job_id", jobID).Msg("failed to publish schedule update")
		}
	}

	log.Info().Str("job_id", jobID).Int("fetched", res.Fetched).Int("saved", saved).Msg("fetch job completed")
	return res, nil
}

func (r *Runner) save(ctx context.Context, entries []model.PrayerTimeEntry) (int, error) {
	saved := 0
	for start := 0; start < len(entries); start += r.cfg.BatchSize {
		end := min(start+r.cfg.BatchSize, len(entries))
		n, err := r.sink.UpsertSchedules(ctx, entries[start:end])
		saved += n
		if err != nil {
			return saved, fmt.Errorf("save entries %d-%d: %w", start, end, err)
		}
	}
	return saved, nil
}

func (r *Runner) fail(latest model.FetchProgress, jobID string, err error) {
	p := latest
	p.JobID = jobID
	p.Status = model.FetchStatusFailed
	p.Error = prayertime.UserMessage(prayertime.Categorize(err))
	p.UpdatedAt = time.Now().UTC()
	// the job context may already be done
	r.record(context.Background(), p)
}

func (r *Runner) record(ctx context.Context, p model.FetchProgress) {
	if err := r.registry.Set(ctx, p); err != nil {
		log.Warn().Err(err).Str("job_id", p.JobID).Msg("failed to record progress")
	}
}

// Progress returns the last recorded state of jobID.
func (r *Runner) Progress(ctx context.Context, jobID string) (model.FetchProgress, bool, error) {
	return r.registry.Get(ctx, jobID)
}

// Close cancels running jobs and waits for them to record their final state.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}

// Wait blocks until every started job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}
