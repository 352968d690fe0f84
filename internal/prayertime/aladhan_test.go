package prayertime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAladhan_DayTimingsQuery(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		writeJSON(w, DayResponse{Code: 200, Status: "OK", Data: DayData{Timings: Timings{Fajr: "04:58 (+06)", Maghrib: "18:10 (+06)"}}})
	}))
	defer srv.Close()

	a := NewAladhan(AladhanConfig{BaseURL: srv.URL + "/", Method: 1, School: 1})
	data, err := a.DayTimings(context.Background(), "Cox's Bazar", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, "04:58 (+06)", data.Timings.Fajr)

	require.NotNil(t, got)
	assert.Equal(t, "/timingsByCity/01-03-2026", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "Cox's Bazar", q.Get("city"))
	assert.Equal(t, "Bangladesh", q.Get("country"))
	assert.Equal(t, "1", q.Get("method"))
	assert.Equal(t, "1", q.Get("school"))
	assert.Equal(t, "Asia/Dhaka", q.Get("timezonestring"))
}

func TestAladhan_ErrorCategories(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    ErrorType
	}{
		{"rate limited", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}, ErrRateLimit},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}, ErrAPI},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}, ErrAPI},
		{"non-OK envelope", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"code": 400, "status": "BAD_REQUEST", "data": map[string]any{}})
		}, ErrAPI},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			a := NewAladhan(AladhanConfig{BaseURL: srv.URL})
			_, err := a.DayTimings(context.Background(), "Dhaka", "2026-03-01")
			require.Error(t, err)
			assert.Equal(t, tc.want, Categorize(err))

			var upErr *UpstreamError
			assert.True(t, errors.As(err, &upErr))
		})
	}
}

func TestAladhan_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	a := NewAladhan(AladhanConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := a.DayTimings(context.Background(), "Dhaka", "2026-03-01")
	require.Error(t, err)
	assert.Equal(t, ErrTimeout, Categorize(err))
}

func TestAladhan_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a := NewAladhan(AladhanConfig{BaseURL: url})
	_, err := a.HijriCalendar(context.Background(), "Dhaka", 1447, 9)
	require.Error(t, err)
	assert.Equal(t, ErrNetwork, Categorize(err))
}

func TestAladhan_InvalidDate(t *testing.T) {
	a := NewAladhan(AladhanConfig{BaseURL: "http://unused.invalid"})
	_, err := a.DayTimings(context.Background(), "Dhaka", "01-03-2026")
	assert.Equal(t, ErrValidation, Categorize(err))
}

func TestAladhan_HijriCalendar(t *testing.T) {
	fake := newFakeAladhan()
	srv := fake.start(t)

	a := NewAladhan(AladhanConfig{BaseURL: srv.URL})
	days, err := a.HijriCalendar(context.Background(), "Sylhet", 1447, 9)
	require.NoError(t, err)
	assert.Len(t, days, 29)
	assert.Equal(t, "18-02-2026", days[0].Date.Gregorian.Date)
	assert.Equal(t, []string{"Sylhet hijri 1447/9"}, fake.log())
}

func TestParseGregorianDate(t *testing.T) {
	iso, err := ParseGregorianDate("28-02-2026")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", iso)

	_, err = ParseGregorianDate("2026-02-28")
	assert.Error(t, err)
}
