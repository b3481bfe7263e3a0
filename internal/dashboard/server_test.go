package dashboard

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/justin4957/logflow-monitor/pkg/models"
)

func sampleReport(total int64) models.StatsReport {
	return models.StatsReport{
		GeneratedAt:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		WindowSeconds: 120,
		WindowGET:     2,
		WindowTotal:   3,
		TotalGET:      total - 1,
		TotalPOST:     1,
		TotalRequests: total,
		Rate:          0.025,
		Threshold:     10,
	}
}

func TestHandleStats_BeforeFirstReport(t *testing.T) {
	s := NewServer("localhost:0")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "waiting")
}

func TestHandleStats_LatestReport(t *testing.T) {
	s := NewServer("localhost:0")
	s.Publish(sampleReport(5))
	s.Publish(sampleReport(9))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.StatsReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, sampleReport(9), got)
}

func TestHandleIndex(t *testing.T) {
	s := NewServer("localhost:0")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "LogFlow Monitor")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublish_NeverBlocks(t *testing.T) {
	s := NewServer("localhost:0")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Publish(sampleReport(int64(i + 1)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a broadcast loop")
	}

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, int64(100), latest.TotalRequests)
}

func TestServe_WebSocketPush(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewServer("localhost:0")
	s.Publish(sampleReport(4))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx, ln) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)

	var got models.StatsReport
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, int64(4), got.TotalRequests, "new clients receive the latest report")

	require.Eventually(t, func() bool { return s.clientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	// The report queued before Serve may be broadcast once more
	s.Publish(sampleReport(7))
	for got.TotalRequests != 7 {
		require.NoError(t, conn.ReadJSON(&got))
	}
	assert.Equal(t, int64(7), got.TotalRequests)

	conn.Close()
	cancel()
	require.NoError(t, <-served)
}
