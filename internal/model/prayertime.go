package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// PrayerTimeEntry is one district's sehri/iftar pair for one Gregorian day.
type PrayerTimeEntry struct {
	Date     string `db:"date" json:"date"`         // YYYY-MM-DD
	Sehri    string `db:"sehri" json:"sehri"`       // HH:mm, from Fajr
	Iftar    string `db:"iftar" json:"iftar"`       // HH:mm, from Maghrib
	Location string `db:"location" json:"location"` // district name
}

type FetchMode string

const (
	FetchModeDateRange  FetchMode = "dateRange"
	FetchModeMultiMonth FetchMode = "multiMonth"
	FetchModeHijriMonth FetchMode = "hijriMonth"
)

// FetchRequest describes one acquisition job. Only the fields belonging to
// Mode are read; an empty Districts list means every district.
type FetchRequest struct {
	Mode       FetchMode `json:"mode"`
	StartDate  string    `json:"startDate,omitempty"`
	EndDate    string    `json:"endDate,omitempty"`
	Year       int       `json:"year,omitempty"`
	Months     []int     `json:"months,omitempty"`
	HijriMonth int       `json:"hijriMonth,omitempty"`
	HijriYear  int       `json:"hijriYear,omitempty"`
	Districts  []string  `json:"districts,omitempty"`
}

var ErrInvalidFetchRequest = errors.New("invalid fetch request")

// Validate checks the shape of the request. Date parsing and district lookup
// happen when the request is expanded.
func (r FetchRequest) Validate() error {
	switch r.Mode {
	case FetchModeDateRange:
		if r.StartDate == "" || r.EndDate == "" {
			return fmt.Errorf("%w: startDate and endDate are required", ErrInvalidFetchRequest)
		}
	case FetchModeMultiMonth:
		if r.Year == 0 || len(r.Months) == 0 {
			return fmt.Errorf("%w: year and months are required", ErrInvalidFetchRequest)
		}
	case FetchModeHijriMonth:
		if r.HijriYear <= 0 {
			return fmt.Errorf("%w: hijriYear is required", ErrInvalidFetchRequest)
		}
		if r.HijriMonth < 1 || r.HijriMonth > 12 {
			return fmt.Errorf("%w: hijriMonth must be between 1 and 12", ErrInvalidFetchRequest)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidFetchRequest, r.Mode)
	}
	for _, d := range r.Districts {
		if _, ok := LookupDistrict(d); !ok {
			return fmt.Errorf("%w: unknown district %q", ErrInvalidFetchRequest, d)
		}
	}
	return nil
}

type FetchStatus string

const (
	FetchStatusFetching  FetchStatus = "fetching"
	FetchStatusCompleted FetchStatus = "completed"
	FetchStatusFailed    FetchStatus = "failed"
)

// FetchProgress is the streamed state of one acquisition job.
type FetchProgress struct {
	JobID           string      `json:"jobId,omitempty"`
	Current         int         `json:"current"`
	Total           int         `json:"total"`
	Percentage      int         `json:"percentage"`
	CurrentDistrict string      `json:"currentDistrict,omitempty"`
	Status          FetchStatus `json:"status"`
	Saved           int         `json:"saved,omitempty"`
	Error           string      `json:"error,omitempty"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// Terminal reports whether no further updates will follow.
func (p FetchProgress) Terminal() bool {
	return p.Status == FetchStatusCompleted || p.Status == FetchStatusFailed
}

// Percent is round(current/total*100), 0 when total is 0.
func Percent(current, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(current) / float64(total) * 100))
}
