package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guillermoBallester/schemadvisor/internal/adapter/render"
	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock Analyzer ---

type mockAnalyzer struct {
	report *domain.Report
	err    error
	delay  time.Duration

	mu      sync.Mutex
	lastTh  domain.Thresholds
	running atomic.Int32
	maxSeen atomic.Int32
	calls   atomic.Int32
	ctxErr  chan error
}

func (m *mockAnalyzer) Analyze(ctx context.Context, th domain.Thresholds) (*domain.Report, error) {
	m.calls.Add(1)
	n := m.running.Add(1)
	defer m.running.Add(-1)
	for {
		cur := m.maxSeen.Load()
		if n <= cur || m.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}

	m.mu.Lock()
	m.lastTh = th
	m.mu.Unlock()

	if m.ctxErr != nil {
		<-ctx.Done()
		m.ctxErr <- ctx.Err()
		return nil, ctx.Err()
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.report, m.err
}

// --- helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleReport() *domain.Report {
	return &domain.Report{
		Targets: []domain.Target{{Schema: "public", Table: "orders"}},
		Results: []domain.Result{{
			Title:    "Enum Candidate Analysis",
			Messages: []domain.Message{domain.Warning("Column 'status' in table 'orders' has 3 distinct values.")},
		}},
	}
}

func dial(t *testing.T, analyzer Analyzer) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewHandler(analyzer, domain.DefaultThresholds(), testLogger()))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type received struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readEvent(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev received
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func send(t *testing.T, conn *websocket.Conn, event string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(Inbound{Event: event}))
}

// --- tests ---

func TestHandler_AnalysisComplete(t *testing.T) {
	analyzer := &mockAnalyzer{report: sampleReport()}
	conn := dial(t, analyzer)

	send(t, conn, EventStartAnalysis)
	ev := readEvent(t, conn)
	require.Equal(t, EventAnalysisComplete, ev.Event)

	var views []render.ResultView
	require.NoError(t, json.Unmarshal(ev.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Enum Candidate Analysis", views[0].Title)
	assert.Equal(t, "warning", views[0].Messages[0].Type)

	analyzer.mu.Lock()
	defer analyzer.mu.Unlock()
	assert.Equal(t, domain.DefaultThresholds(), analyzer.lastTh)
}

func TestHandler_FatalFailure(t *testing.T) {
	analyzer := &mockAnalyzer{err: errors.Join(domain.ErrDiscovery, errors.New("connection refused"))}
	conn := dial(t, analyzer)

	send(t, conn, EventStartAnalysis)
	ev := readEvent(t, conn)
	require.Equal(t, EventError, ev.Event)

	var msg string
	require.NoError(t, json.Unmarshal(ev.Data, &msg))
	assert.Contains(t, msg, "table discovery failed")
	assert.Contains(t, msg, "connection refused")
}

func TestHandler_UnknownEventKeepsConnection(t *testing.T) {
	analyzer := &mockAnalyzer{report: sampleReport()}
	conn := dial(t, analyzer)

	send(t, conn, "deleteEverything")
	ev := readEvent(t, conn)
	assert.Equal(t, EventError, ev.Event)
	assert.Contains(t, string(ev.Data), "deleteEverything")

	send(t, conn, EventStartAnalysis)
	assert.Equal(t, EventAnalysisComplete, readEvent(t, conn).Event)
}

func TestHandler_MalformedEvent(t *testing.T) {
	conn := dial(t, &mockAnalyzer{report: sampleReport()})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	ev := readEvent(t, conn)
	assert.Equal(t, EventError, ev.Event)
	assert.Contains(t, string(ev.Data), "malformed event")
}

func TestHandler_RequestsSerializedPerConnection(t *testing.T) {
	analyzer := &mockAnalyzer{report: sampleReport(), delay: 50 * time.Millisecond}
	conn := dial(t, analyzer)

	send(t, conn, EventStartAnalysis)
	send(t, conn, EventStartAnalysis)
	send(t, conn, EventStartAnalysis)

	for range 3 {
		assert.Equal(t, EventAnalysisComplete, readEvent(t, conn).Event)
	}
	assert.EqualValues(t, 3, analyzer.calls.Load())
	assert.EqualValues(t, 1, analyzer.maxSeen.Load())
}

func TestHandler_DisconnectCancelsSession(t *testing.T) {
	analyzer := &mockAnalyzer{ctxErr: make(chan error, 1)}
	conn := dial(t, analyzer)

	send(t, conn, EventStartAnalysis)
	require.Eventually(t, func() bool { return analyzer.calls.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())

	select {
	case err := <-analyzer.ctxErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("session was not cancelled after disconnect")
	}
}
