package notify

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_BroadcastsToDisplays(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	a := dial(t, srv)
	defer a.Close()
	b := dial(t, srv)
	defer b.Close()
	require.Eventually(t, func() bool { return hub.Len() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish(ScheduleEvent{JobID: "job-1", Saved: 30, Source: "fetch"}))

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		var ev ScheduleEvent
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, EventSchedulesUpdated, ev.Type)
		assert.Equal(t, "job-1", ev.JobID)
		assert.Equal(t, 30, ev.Saved)
		assert.False(t, ev.At.IsZero())
	}
}

func TestHub_ForgetsClosedClients(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.NoError(t, hub.Publish(ScheduleEvent{Saved: 1}))
}

func TestHub_SlowDisplayDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	healthy := dial(t, srv)
	defer healthy.Close()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	// a display whose writer never drains its queue
	stalled := &display{send: make(chan []byte, 1)}
	hub.mu.Lock()
	hub.displays[stalled] = struct{}{}
	hub.mu.Unlock()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, hub.Publish(ScheduleEvent{Saved: i}))
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, hub.Len(), "the stalled display is dropped")

	healthy.SetReadDeadline(time.Now().Add(time.Second))
	for i := 0; i < 3; i++ {
		var ev ScheduleEvent
		require.NoError(t, healthy.ReadJSON(&ev))
		assert.Equal(t, i, ev.Saved)
	}
}

type recorder struct {
	events []ScheduleEvent
	err    error
}

func (r *recorder) Publish(ev ScheduleEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestFanout(t *testing.T) {
	ok := &recorder{}
	broken := &recorder{err: errors.New("broker down")}

	err := Fanout{broken, ok}.Publish(ScheduleEvent{Saved: 2, Source: "upload"})
	assert.ErrorContains(t, err, "broker down")

	require.Len(t, ok.events, 1)
	assert.Equal(t, EventSchedulesUpdated, ok.events[0].Type)
	assert.Equal(t, "upload", ok.events[0].Source)
	assert.Equal(t, ok.events[0], broken.events[0])
}
