package prayertime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

// hijriMonthDays approximates a Hijri month for progress totals; the real
// length is only known once the upstream answers.
const hijriMonthDays = 30

// ProgressFunc receives a snapshot after every batch and once at the end.
type ProgressFunc func(model.FetchProgress)

type OrchestratorConfig struct {
	MaxConcurrentDistricts int
	// DistrictDelay staggers district starts inside a batch and separates
	// consecutive batches.
	DistrictDelay time.Duration
}

// Orchestrator turns a FetchRequest into the deduplicated set of entries for
// every requested district and day.
type Orchestrator struct {
	client *Client
	cfg    OrchestratorConfig
}

func NewOrchestrator(client *Client, cfg OrchestratorConfig) *Orchestrator {
	if cfg.MaxConcurrentDistricts < 1 {
		cfg.MaxConcurrentDistricts = 5
	}
	return &Orchestrator{client: client, cfg: cfg}
}

func (o *Orchestrator) Client() *Client { return o.client }

// plan is a FetchRequest resolved into concrete work.
type plan struct {
	districts []string
	dates     []string
	hijri     bool
	year      int
	month     int
}

func (p plan) total() int {
	if p.hijri {
		return len(p.districts) * hijriMonthDays
	}
	return len(p.districts) * len(p.dates)
}

func resolvePlan(req model.FetchRequest) (plan, error) {
	var p plan
	if len(req.Districts) == 0 {
		p.districts = model.DistrictNames()
	} else {
		seen := make(map[string]bool, len(req.Districts))
		for _, name := range req.Districts {
			d, ok := model.LookupDistrict(name)
			if !ok {
				return plan{}, validationf("invalid district %q", name)
			}
			if !seen[d.Name] {
				seen[d.Name] = true
				p.districts = append(p.districts, d.Name)
			}
		}
	}

	var err error
	switch req.Mode {
	case model.FetchModeDateRange:
		p.dates, err = DateRange(req.StartDate, req.EndDate)
	case model.FetchModeMultiMonth:
		p.dates, err = MonthDates(req.Year, req.Months)
	case model.FetchModeHijriMonth:
		if req.HijriYear <= 0 || req.HijriMonth < 1 || req.HijriMonth > 12 {
			return plan{}, validationf("invalid hijri month %d/%d", req.HijriYear, req.HijriMonth)
		}
		p.hijri, p.year, p.month = true, req.HijriYear, req.HijriMonth
	default:
		err = validationf("invalid fetch mode %q", req.Mode)
	}
	if err != nil {
		return plan{}, err
	}
	return p, nil
}

// Run fetches every district in sequential batches of at most
// MaxConcurrentDistricts concurrent districts. Failed days are dropped by the
// client; in Hijri mode a failed district is dropped here. Run itself fails
// only for an unusable request, a cancelled context, or when no Hijri
// district succeeded.
func (o *Orchestrator) Run(ctx context.Context, req model.FetchRequest, onProgress ProgressFunc) ([]model.PrayerTimeEntry, error) {
	if onProgress == nil {
		onProgress = func(model.FetchProgress) {}
	}
	emit := func(current, total int, district string, status model.FetchStatus) {
		onProgress(model.FetchProgress{
			Current:         current,
			Total:           total,
			Percentage:      min(model.Percent(current, total), 100),
			CurrentDistrict: district,
			Status:          status,
			UpdatedAt:       time.Now().UTC(),
		})
	}

	p, err := resolvePlan(req)
	if err != nil {
		emit(0, 0, "", model.FetchStatusFailed)
		return nil, err
	}
	total := p.total()
	emit(0, total, "", model.FetchStatusFetching)

	batches := chunk(p.districts, o.cfg.MaxConcurrentDistricts)
	log.Info().
		Str("mode", string(req.Mode)).
		Int("districts", len(p.districts)).
		Int("dates", len(p.dates)).
		Int("batches", len(batches)).
		Msg("prayer time fetch started")

	var (
		acc       []model.PrayerTimeEntry
		failed    int
		lastDistr string
	)
	for i, batch := range batches {
		if i > 0 {
			if err := sleep(ctx, o.cfg.DistrictDelay); err != nil {
				emit(len(acc), total, lastDistr, model.FetchStatusFailed)
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			emit(len(acc), total, lastDistr, model.FetchStatusFailed)
			return nil, err
		}

		results, batchFailed := o.runBatch(ctx, p, batch)
		for _, r := range results {
			acc = append(acc, r...)
		}
		failed += batchFailed
		lastDistr = batch[len(batch)-1]

		emit(len(acc), total, lastDistr, model.FetchStatusFetching)
	}

	if err := ctx.Err(); err != nil {
		emit(len(acc), total, lastDistr, model.FetchStatusFailed)
		return nil, err
	}
	if p.hijri && failed > 0 && failed == len(p.districts) {
		emit(len(acc), total, lastDistr, model.FetchStatusFailed)
		return nil, fmt.Errorf("hijri month %d/%d: all %d districts failed", p.year, p.month, failed)
	}

	entries := dedupe(acc)
	emit(len(entries), total, lastDistr, model.FetchStatusCompleted)
	log.Info().
		Int("entries", len(entries)).
		Int("failed_districts", failed).
		Msg("prayer time fetch completed")
	return entries, nil
}

// runBatch fetches one batch concurrently. Results are indexed by the
// district's position in the batch so the join is deterministic.
func (o *Orchestrator) runBatch(ctx context.Context, p plan, batch []string) ([][]model.PrayerTimeEntry, int) {
	results := make([][]model.PrayerTimeEntry, len(batch))
	failures := make([]bool, len(batch))

	var g errgroup.Group
	for k, district := range batch {
		k, district := k, district
		g.Go(func() error {
			if err := sleep(ctx, time.Duration(k)*o.cfg.DistrictDelay); err != nil {
				failures[k] = p.hijri
				return nil
			}
			if !p.hijri {
				results[k] = o.client.FetchDistrictByDates(ctx, district, p.dates)
				return nil
			}
			entries, err := o.client.FetchDistrictHijriMonth(ctx, district, p.year, p.month)
			if err != nil {
				failures[k] = true
				if !errors.Is(err, context.Canceled) {
					log.Error().Err(err).
						Str("district", district).
						Str("category", string(Categorize(err))).
						Msg("hijri month fetch failed")
				}
				return nil
			}
			results[k] = entries
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, f := range failures {
		if f {
			n++
		}
	}
	return results, n
}

func chunk(items []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

func dedupe(entries []model.PrayerTimeEntry) []model.PrayerTimeEntry {
	seen := make(map[string]bool, len(entries))
	out := make([]model.PrayerTimeEntry, 0, len(entries))
	for _, e := range entries {
		k := e.Location + "|" + e.Date
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}
