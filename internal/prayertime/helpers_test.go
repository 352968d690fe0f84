package prayertime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeAladhan serves the two city endpoints the client uses.
type fakeAladhan struct {
	mu       sync.Mutex
	requests []string // "city date" or "city hijri y/m", in arrival order
	arrivals []time.Time

	fajr    string
	maghrib string

	// dayFailures maps an ISO date to how many times it should fail;
	// a negative count fails forever.
	dayFailures map[string]int
	// failCities makes every hijri request for a city fail.
	failCities map[string]bool
	// badEnvelope answers HTTP 200 with a non-OK body.
	badEnvelope bool
}

func newFakeAladhan() *fakeAladhan {
	return &fakeAladhan{
		fajr:        "04:58 (+06)",
		maghrib:     "18:10 (+06)",
		dayFailures: map[string]int{},
		failCities:  map[string]bool{},
	}
}

func (f *fakeAladhan) start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeAladhan) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeAladhan) log() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	copy(out, f.requests)
	return out
}

// arrivedAt returns when the first request matching key reached the server.
func (f *fakeAladhan) arrivedAt(t *testing.T, key string) time.Time {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.requests {
		if r == key {
			return f.arrivals[i]
		}
	}
	t.Fatalf("no request %q in %v", key, f.requests)
	return time.Time{}
}

func (f *fakeAladhan) serve(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch parts[0] {
	case "timingsByCity":
		day, err := time.Parse("02-01-2006", parts[1])
		if err != nil {
			http.Error(w, "bad date", http.StatusBadRequest)
			return
		}
		iso := day.Format("2006-01-02")

		f.mu.Lock()
		f.requests = append(f.requests, city+" "+iso)
		f.arrivals = append(f.arrivals, time.Now())
		remaining, failing := f.dayFailures[iso]
		if failing && remaining > 0 {
			f.dayFailures[iso] = remaining - 1
		}
		bad := f.badEnvelope
		f.mu.Unlock()

		if failing && remaining != 0 {
			http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
			return
		}
		if bad {
			writeJSON(w, map[string]any{"code": 400, "status": "BAD_REQUEST", "data": map[string]any{}})
			return
		}
		writeJSON(w, DayResponse{Code: 200, Status: "OK", Data: f.day(day)})

	case "hijriCalendarByCity":
		year, _ := strconv.Atoi(parts[1])
		month, _ := strconv.Atoi(parts[2])

		f.mu.Lock()
		f.requests = append(f.requests, fmt.Sprintf("%s hijri %d/%d", city, year, month))
		f.arrivals = append(f.arrivals, time.Now())
		fail := f.failCities[city]
		f.mu.Unlock()

		if fail {
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
			return
		}
		// 1 Ramadan 1447 is 2026-02-18; the month has 29 days.
		first := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
		days := make([]DayData, 0, 29)
		for i := 0; i < 29; i++ {
			days = append(days, f.day(first.AddDate(0, 0, i)))
		}
		writeJSON(w, CalendarResponse{Code: 200, Status: "OK", Data: days})

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAladhan) day(d time.Time) DayData {
	return DayData{
		Timings: Timings{Fajr: f.fajr, Maghrib: f.maghrib, Dhuhr: "12:10 (+06)"},
		Date: DateInfo{
			Readable:  d.Format("02 Jan 2006"),
			Gregorian: GregorianDate{Date: d.Format("02-01-2006")},
		},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func fastLimiter() *Limiter {
	return NewLimiter(LimiterConfig{Capacity: 10000, RefillRate: 10000})
}

func newTestClient(baseURL string, limiter *Limiter) *Client {
	upstream := NewAladhan(AladhanConfig{BaseURL: baseURL, Method: 1, School: 1, Timeout: 2 * time.Second})
	return NewClient(upstream, limiter, NewCache(), ClientConfig{
		Retry: RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond},
	})
}
