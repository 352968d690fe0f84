package prayertime

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

type ClientConfig struct {
	// RequestDelay separates consecutive upstream requests of one district.
	RequestDelay time.Duration
	Retry        RetryPolicy
}

// Client fetches normalized sehri/iftar times for a single district.
type Client struct {
	upstream     Upstream
	limiter      *Limiter
	cache        *Cache
	requestDelay time.Duration
	retry        RetryPolicy
}

func NewClient(upstream Upstream, limiter *Limiter, cache *Cache, cfg ClientConfig) *Client {
	return &Client{
		upstream:     upstream,
		limiter:      limiter,
		cache:        cache,
		requestDelay: cfg.RequestDelay,
		retry:        cfg.Retry,
	}
}

func (c *Client) Cache() *Cache { return c.cache }

func (c *Client) Limiter() *Limiter { return c.limiter }

// FetchDistrictByDates returns the entries it could fetch for district, in
// date order. A day that still fails after retries is logged and skipped.
func (c *Client) FetchDistrictByDates(ctx context.Context, district string, dates []string) []model.PrayerTimeEntry {
	out := make([]model.PrayerTimeEntry, 0, len(dates))
	requested := false

	for _, date := range dates {
		key := DayKey(district, date)
		if cached, ok := c.cache.Get(key); ok {
			out = append(out, cached...)
			continue
		}
		if ctx.Err() != nil {
			break
		}

		if requested && c.requestDelay > 0 {
			if err := sleep(ctx, c.requestDelay); err != nil {
				break
			}
		}
		requested = true

		entry, err := c.fetchDay(ctx, district, date)
		if err != nil {
			log.Warn().Err(err).
				Str("district", district).
				Str("date", date).
				Str("category", string(Categorize(err))).
				Msg("skipping day after failed fetch")
			continue
		}
		c.cache.Set(key, []model.PrayerTimeEntry{entry})
		out = append(out, entry)
	}
	return out
}

func (c *Client) fetchDay(ctx context.Context, district, date string) (model.PrayerTimeEntry, error) {
	var data DayData
	op := fmt.Sprintf("fetch day %s %s", district, date)
	err := c.retry.Do(ctx, op, func(ctx context.Context) error {
		if err := c.limiter.Acquire(ctx); err != nil {
			return err
		}
		var err error
		data, err = c.upstream.DayTimings(ctx, district, date)
		return err
	})
	if err != nil {
		return model.PrayerTimeEntry{}, err
	}
	return toEntry(district, date, data.Timings)
}

// FetchDistrictHijriMonth returns every day of one Hijri month for district.
// The whole month is one request, so a failure is returned to the caller.
func (c *Client) FetchDistrictHijriMonth(ctx context.Context, district string, year, month int) ([]model.PrayerTimeEntry, error) {
	key := HijriKey(district, year, month)
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	var days []DayData
	op := fmt.Sprintf("fetch hijri month %s %d/%d", district, year, month)
	err := c.retry.Do(ctx, op, func(ctx context.Context) error {
		if err := c.limiter.Acquire(ctx); err != nil {
			return err
		}
		var err error
		days, err = c.upstream.HijriCalendar(ctx, district, year, month)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.PrayerTimeEntry, 0, len(days))
	for _, d := range days {
		date, err := ParseGregorianDate(d.Date.Gregorian.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entry, err := toEntry(district, date, d.Timings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, entry)
	}
	c.cache.Set(key, out)
	return out, nil
}

func toEntry(district, date string, t Timings) (model.PrayerTimeEntry, error) {
	sehri := FormatTimeTo24Hour(t.Fajr)
	iftar := FormatTimeTo24Hour(t.Maghrib)
	if !IsClockTime(sehri) {
		return model.PrayerTimeEntry{}, validationf("unusable Fajr %q for %s on %s", t.Fajr, district, date)
	}
	if !IsClockTime(iftar) {
		return model.PrayerTimeEntry{}, validationf("unusable Maghrib %q for %s on %s", t.Maghrib, district, date)
	}
	return model.PrayerTimeEntry{Date: date, Sehri: sehri, Iftar: iftar, Location: district}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
