package prayertime

import (
	"sort"
	"time"
)

const (
	isoDate      = "2006-01-02"
	MaxRangeDays = 366
)

// DateRange lists every ISO date from start to end inclusive.
func DateRange(start, end string) ([]string, error) {
	from, err := time.Parse(isoDate, start)
	if err != nil {
		return nil, validationf("invalid startDate %q", start)
	}
	to, err := time.Parse(isoDate, end)
	if err != nil {
		return nil, validationf("invalid endDate %q", end)
	}
	if to.Before(from) {
		return nil, validationf("endDate %s is before startDate %s", end, start)
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > MaxRangeDays {
		return nil, validationf("date range of %d days exceeds %d", days, MaxRangeDays)
	}

	out := make([]string, 0, days)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(isoDate))
	}
	return out, nil
}

// MonthDates lists every day of the given months of year in calendar order.
// Repeated months are fetched once.
func MonthDates(year int, months []int) ([]string, error) {
	if year < 1900 || year > 2200 {
		return nil, validationf("invalid year %d", year)
	}
	seen := make(map[int]bool, len(months))
	uniq := make([]int, 0, len(months))
	for _, m := range months {
		if m < 1 || m > 12 {
			return nil, validationf("invalid month %d", m)
		}
		if !seen[m] {
			seen[m] = true
			uniq = append(uniq, m)
		}
	}
	if len(uniq) == 0 {
		return nil, validationf("no months requested")
	}
	sort.Ints(uniq)

	var out []string
	for _, m := range uniq {
		first := time.Date(year, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
			out = append(out, d.Format(isoDate))
		}
	}
	return out, nil
}
