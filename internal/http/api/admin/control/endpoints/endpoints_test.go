package endpoints

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/sehri/internal/db"
	"github.com/Nixie-Tech-LLC/sehri/internal/http/api"
	"github.com/Nixie-Tech-LLC/sehri/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/sehri/internal/model"
	"github.com/Nixie-Tech-LLC/sehri/internal/notify"
	"github.com/Nixie-Tech-LLC/sehri/internal/prayertime"
	"github.com/Nixie-Tech-LLC/sehri/internal/storage"
)

const secret = "supersecret"

type fakeJobs struct {
	mu       sync.Mutex
	started  []model.FetchRequest
	progress map[string][]model.FetchProgress // successive answers per job
}

func (f *fakeJobs) Start(req model.FetchRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", prayertime.WithType(prayertime.ErrValidation, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, req)
	return "job-1", nil
}

func (f *fakeJobs) Progress(_ context.Context, jobID string) (model.FetchProgress, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, ok := f.progress[jobID]
	if !ok || len(seq) == 0 {
		return model.FetchProgress{}, false, nil
	}
	p := seq[0]
	if len(seq) > 1 {
		f.progress[jobID] = seq[1:]
	}
	return p, true, nil
}

type recordingNotifier struct {
	events []notify.ScheduleEvent
}

func (n *recordingNotifier) Publish(ev notify.ScheduleEvent) error {
	n.events = append(n.events, ev)
	return nil
}

type fixture struct {
	router   *gin.Engine
	store    *db.MemoryStore
	jobs     *fakeJobs
	limiter  *prayertime.Limiter
	cache    *prayertime.Cache
	notifier *recordingNotifier
	admin    string
	viewer   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		store:    db.NewMemoryStore(),
		jobs:     &fakeJobs{progress: map[string][]model.FetchProgress{}},
		limiter:  prayertime.NewLimiter(prayertime.LimiterConfig{Capacity: 10, RefillRate: 2}),
		cache:    prayertime.NewCache(),
		notifier: &recordingNotifier{},
	}

	adminID, err := f.store.CreateUser("admin@example.com", "x", nil, true)
	require.NoError(t, err)
	viewerID, err := f.store.CreateUser("viewer@example.com", "x", nil, false)
	require.NoError(t, err)
	f.admin, err = middleware.GenerateJWT(adminID, secret)
	require.NoError(t, err)
	f.viewer, err = middleware.GenerateJWT(viewerID, secret)
	require.NoError(t, err)

	fetch := NewFetchController(f.jobs, f.limiter, f.cache)
	fetch.pollInterval = 5 * time.Millisecond

	f.router = gin.New()
	api.MountGroup(f.router, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		AdminOnly: true,
		SecretKey: secret,
		Users:     f.store,
	},
		ScheduleModule(f.store),
		fetch.module(),
		UploadModule(f.store, storage.NewLocalStorage(t.TempDir()), f.notifier),
		HadithModule(f.store),
	)
	return f
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/admin/schedules", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/admin/schedules", f.viewer, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/admin/schedules", f.admin, nil).Code)
}

func TestScheduleCRUD(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/admin/schedules", f.admin, map[string]string{
		"date": "2026-03-01", "location": "dhaka", "sehri": "4:58", "iftar": "18:10 (+06)",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, "Dhaka", created["location"])
	assert.Equal(t, "04:58", created["sehri"])
	id := int(created["id"].(float64))

	w = f.do(http.MethodPost, "/api/admin/schedules", f.admin, map[string]string{
		"date": "2026-03-01", "location": "Dhaka", "sehri": "04:58", "iftar": "18:10",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPost, "/api/admin/schedules", f.admin, map[string]string{
		"date": "2026-03-01", "location": "Atlantis", "sehri": "04:58", "iftar": "18:10",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPut, "/api/admin/schedules/"+itoa(id), f.admin, map[string]string{
		"date": "2026-03-01", "location": "Dhaka", "sehri": "04:57", "iftar": "18:11",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "18:11", decode[map[string]any](t, w)["iftar"])

	w = f.do(http.MethodGet, "/api/admin/schedules?location=Dhaka&from=2026-03-01&to=2026-03-31", f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/api/admin/schedules/"+itoa(id), f.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/admin/schedules/"+itoa(id), f.admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodDelete, "/api/admin/schedules/abc", f.admin, nil).Code)
}

func TestStartFetch(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/admin/fetch", f.admin, model.FetchRequest{
		Mode: model.FetchModeMultiMonth, Year: 2026, Months: []int{3},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	started := decode[map[string]string](t, w)
	assert.Equal(t, "job-1", started["jobId"])
	assert.Equal(t, "/api/admin/fetch/job-1/stream", started["streamUrl"])
	require.Len(t, f.jobs.started, 1)

	w = f.do(http.MethodPost, "/api/admin/fetch", f.admin, model.FetchRequest{Mode: "weekly"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProgress(t *testing.T) {
	f := newFixture(t)
	f.jobs.progress["job-1"] = []model.FetchProgress{{JobID: "job-1", Current: 5, Total: 10, Percentage: 50, Status: model.FetchStatusFetching}}

	w := f.do(http.MethodGet, "/api/admin/fetch/job-1", f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[model.FetchProgress](t, w)
	assert.Equal(t, 50, p.Percentage)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/admin/fetch/unknown", f.admin, nil).Code)
}

func TestStreamProgress(t *testing.T) {
	f := newFixture(t)
	f.jobs.progress["job-1"] = []model.FetchProgress{
		{JobID: "job-1", Current: 0, Total: 6, Status: model.FetchStatusFetching},
		{JobID: "job-1", Current: 0, Total: 6, Status: model.FetchStatusFetching},
		{JobID: "job-1", Current: 3, Total: 6, Percentage: 50, Status: model.FetchStatusFetching},
		{JobID: "job-1", Current: 6, Total: 6, Percentage: 100, Saved: 6, Status: model.FetchStatusCompleted},
	}

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/admin/fetch/job-1/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+f.admin)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	var statuses []model.FetchStatus
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var p model.FetchProgress
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &p))
		statuses = append(statuses, p.Status)
	}
	// the repeated snapshot is not sent twice
	assert.Equal(t, []model.FetchStatus{
		model.FetchStatusFetching,
		model.FetchStatusFetching,
		model.FetchStatusCompleted,
	}, statuses)
}

func TestLimiterEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/admin/fetch/limiter", f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[prayertime.LimiterStats](t, w)
	assert.Equal(t, 10, stats.Capacity)
	assert.Equal(t, 2.0, stats.RefillRate)

	w = f.do(http.MethodPut, "/api/admin/fetch/limiter", f.admin, map[string]any{"capacity": 20, "refillRate": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats = decode[prayertime.LimiterStats](t, w)
	assert.Equal(t, 20, stats.Capacity)
	assert.Equal(t, 5.0, stats.RefillRate)
	assert.LessOrEqual(t, stats.Tokens, 20.0)

	w = f.do(http.MethodPut, "/api/admin/fetch/limiter", f.admin, map[string]any{"capacity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCacheEndpoints(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(prayertime.DayKey("Dhaka", "2026-03-01"), []model.PrayerTimeEntry{{Date: "2026-03-01", Location: "Dhaka"}})

	w := f.do(http.MethodGet, "/api/admin/fetch/cache", f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[prayertime.CacheStats](t, w).Size)

	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/api/admin/fetch/cache", f.admin, nil).Code)
	assert.Equal(t, 0, f.cache.Stats().Size)
}

func TestUploadSchedules(t *testing.T) {
	f := newFixture(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "march.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("date,location,sehri,iftar\n2026-03-01,Dhaka,04:58,18:10\n2026-03-01,Nowhere,04:58,18:10\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+f.admin)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[map[string]any](t, w)
	assert.Equal(t, float64(1), resp["imported"])
	assert.Len(t, resp["rejected"], 1)

	list, err := f.store.ListSchedules(context.Background(), db.ScheduleFilter{Location: "Dhaka"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, "upload", f.notifier.events[0].Source)

	w = f.do(http.MethodGet, "/api/admin/uploads", f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.UploadLog](t, w), 1)
}

func TestExportSchedules(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.UpsertSchedules(context.Background(), []model.PrayerTimeEntry{
		{Date: "2026-03-01", Sehri: "04:58", Iftar: "18:10", Location: "Dhaka"},
	})
	require.NoError(t, err)

	w := f.do(http.MethodPost, "/api/admin/exports?location=Dhaka", f.admin, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[map[string]any](t, w)
	assert.Equal(t, float64(1), resp["rows"])
	assert.Contains(t, resp["url"], "schedules-Dhaka_")
}

func TestHadithEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/admin/hadiths", f.admin, map[string]string{"text": "  ", "source": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/admin/hadiths", f.admin, map[string]string{"text": "Take sehri.", "source": "Bukhari"})
	require.Equal(t, http.StatusCreated, w.Code)
	h := decode[model.Hadith](t, w)

	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/api/admin/hadiths/"+itoa(h.ID), f.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/admin/hadiths/"+itoa(h.ID), f.admin, nil).Code)
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
