// Package schedulecsv reads and writes schedules as CSV with the header
// date,location,sehri,iftar.
package schedulecsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
	"github.com/Nixie-Tech-LLC/sehri/internal/prayertime"
)

var Header = []string{"date", "location", "sehri", "iftar"}

// RowError reports a rejected row by its line in the file.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Reason) }

func Write(w io.Writer, schedules []model.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, s := range schedules {
		if err := cw.Write([]string{s.Date, s.Location, s.Sehri, s.Iftar}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Parse returns the valid rows and a RowError for every rejected one. The
// error is reserved for unreadable input or a missing header. Columns may
// appear in any order; times accept the same forms as the upstream API.
func Parse(r io.Reader) ([]model.PrayerTimeEntry, []RowError, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columns(head)
	if err != nil {
		return nil, nil, err
	}

	var (
		entries  []model.PrayerTimeEntry
		rejected []RowError
		seen     = map[string]int{}
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rejected = append(rejected, RowError{Line: perr.Line, Reason: perr.Err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}

		entry, reason := parseRow(rec, cols)
		if reason != "" {
			rejected = append(rejected, RowError{Line: line, Reason: reason})
			continue
		}
		key := entry.Location + "|" + entry.Date
		if first, dup := seen[key]; dup {
			rejected = append(rejected, RowError{Line: line, Reason: fmt.Sprintf("duplicate of line %d", first)})
			continue
		}
		seen[key] = line
		entries = append(entries, entry)
	}
	return entries, rejected, nil
}

func columns(head []string) (map[string]int, error) {
	cols := make(map[string]int, len(head))
	for i, h := range head {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, want := range Header {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("missing column %q", want)
		}
	}
	return cols, nil
}

func parseRow(rec []string, cols map[string]int) (model.PrayerTimeEntry, string) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date := field("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return model.PrayerTimeEntry{}, fmt.Sprintf("invalid date %q", date)
	}
	district, ok := model.LookupDistrict(field("location"))
	if !ok {
		return model.PrayerTimeEntry{}, fmt.Sprintf("unknown district %q", field("location"))
	}
	sehri := prayertime.FormatTimeTo24Hour(field("sehri"))
	if !prayertime.IsClockTime(sehri) {
		return model.PrayerTimeEntry{}, fmt.Sprintf("invalid sehri time %q", field("sehri"))
	}
	iftar := prayertime.FormatTimeTo24Hour(field("iftar"))
	if !prayertime.IsClockTime(iftar) {
		return model.PrayerTimeEntry{}, fmt.Sprintf("invalid iftar time %q", field("iftar"))
	}
	return model.PrayerTimeEntry{Date: date, Sehri: sehri, Iftar: iftar, Location: district.Name}, ""
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
