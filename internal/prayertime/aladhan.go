package prayertime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

// DayResponse is the Aladhan single-day timings envelope.
type DayResponse struct {
	Code   int     `json:"code"`
	Status string  `json:"status"`
	Data   DayData `json:"data"`
}

// CalendarResponse is the Aladhan calendar envelope: one DayData per day.
type CalendarResponse struct {
	Code   int       `json:"code"`
	Status string    `json:"status"`
	Data   []DayData `json:"data"`
}

type DayData struct {
	Timings Timings  `json:"timings"`
	Date    DateInfo `json:"date"`
}

// Timings holds raw upstream values, which may carry a timezone suffix such
// as " (+06)".
type Timings struct {
	Fajr    string `json:"Fajr"`
	Sunrise string `json:"Sunrise"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
	Imsak   string `json:"Imsak"`
}

type DateInfo struct {
	Readable  string        `json:"readable"`
	Gregorian GregorianDate `json:"gregorian"`
	Hijri     HijriDate     `json:"hijri"`
}

type GregorianDate struct {
	Date string `json:"date"` // DD-MM-YYYY
}

type HijriDate struct {
	Date  string     `json:"date"`
	Day   string     `json:"day"`
	Month HijriMonth `json:"month"`
	Year  string     `json:"year"`
}

type HijriMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"`
}

// Upstream is the prayer-time source the fetch client talks to.
type Upstream interface {
	DayTimings(ctx context.Context, district, date string) (DayData, error)
	HijriCalendar(ctx context.Context, district string, year, month int) ([]DayData, error)
}

type AladhanConfig struct {
	BaseURL    string
	Method     int
	School     int
	Country    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Aladhan calls the api.aladhan.com city endpoints.
type Aladhan struct {
	client  *http.Client
	baseURL string
	method  int
	school  int
	country string
	timeout time.Duration
}

func NewAladhan(cfg AladhanConfig) *Aladhan {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	country := cfg.Country
	if country == "" {
		country = "Bangladesh"
	}
	return &Aladhan{
		client:  client,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		method:  cfg.Method,
		school:  cfg.School,
		country: country,
		timeout: timeout,
	}
}

func (a *Aladhan) cityQuery(district string) url.Values {
	q := url.Values{}
	q.Set("city", district)
	q.Set("country", a.country)
	q.Set("method", strconv.Itoa(a.method))
	q.Set("school", strconv.Itoa(a.school))
	q.Set("timezonestring", model.DistrictTimezone)
	return q
}

// DayTimings requests one district's timings for an ISO date.
func (a *Aladhan) DayTimings(ctx context.Context, district, date string) (DayData, error) {
	op := fmt.Sprintf("timings %s %s", district, date)
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return DayData{}, validationf("%s: invalid date: %v", op, err)
	}
	endpoint := fmt.Sprintf("%s/timingsByCity/%s?%s", a.baseURL, day.Format("02-01-2006"), a.cityQuery(district).Encode())

	var resp DayResponse
	if err := a.getJSON(ctx, op, endpoint, &resp); err != nil {
		return DayData{}, err
	}
	if err := checkEnvelope(op, resp.Code, resp.Status); err != nil {
		return DayData{}, err
	}
	return resp.Data, nil
}

// HijriCalendar requests every day of one Hijri month for a district. The
// upstream resolves the Gregorian dates.
func (a *Aladhan) HijriCalendar(ctx context.Context, district string, year, month int) ([]DayData, error) {
	op := fmt.Sprintf("hijri calendar %s %d/%d", district, year, month)
	endpoint := fmt.Sprintf("%s/hijriCalendarByCity/%d/%d?%s", a.baseURL, year, month, a.cityQuery(district).Encode())

	var resp CalendarResponse
	if err := a.getJSON(ctx, op, endpoint, &resp); err != nil {
		return nil, err
	}
	if err := checkEnvelope(op, resp.Code, resp.Status); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, &UpstreamError{Type: ErrAPI, Op: op, Err: errors.New("empty calendar")}
	}
	return resp.Data, nil
}

func (a *Aladhan) getJSON(ctx context.Context, op, endpoint string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return validationf("%s: build request: %v", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return &UpstreamError{Type: transportErrorType(err), Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &UpstreamError{Type: ErrRateLimit, Op: op, StatusCode: resp.StatusCode, Err: errors.New("too many requests")}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &UpstreamError{Type: ErrAPI, Op: op, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Type: transportErrorType(err), Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &UpstreamError{Type: ErrAPI, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

func transportErrorType(err error) ErrorType {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrNetwork
}

// checkEnvelope rejects HTTP 200 responses whose body reports a failure.
func checkEnvelope(op string, code int, status string) error {
	if code != http.StatusOK || !strings.EqualFold(status, "OK") {
		return &UpstreamError{Type: ErrAPI, Op: op, StatusCode: code, Err: fmt.Errorf("upstream status %q", status)}
	}
	return nil
}

// ParseGregorianDate turns the upstream "DD-MM-YYYY" into "YYYY-MM-DD".
func ParseGregorianDate(s string) (string, error) {
	t, err := time.Parse("02-01-2006", strings.TrimSpace(s))
	if err != nil {
		return "", validationf("invalid gregorian date %q", s)
	}
	return t.Format("2006-01-02"), nil
}
