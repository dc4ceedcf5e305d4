// Package ws serves advisory sessions over a WebSocket. Clients send a
// startAnalysis event and receive either analysisComplete with the merged
// results or error with a description of the fatal failure.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guillermoBallester/schemadvisor/internal/adapter/render"
	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
)

// Event names.
const (
	EventStartAnalysis    = "startAnalysis"
	EventAnalysisComplete = "analysisComplete"
	EventError            = "error"
)

const (
	defaultWriteTimeout = 10 * time.Second
	maxMessageBytes     = 4096
	queueSize           = 4
)

// Analyzer runs advisory sessions.
type Analyzer interface {
	Analyze(ctx context.Context, th domain.Thresholds) (*domain.Report, error)
}

// Inbound is a client event.
type Inbound struct {
	Event string `json:"event"`
}

// Outbound is a server event. Data is the result list for analysisComplete
// and a string for error.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Handler upgrades HTTP requests to WebSocket connections and runs one
// session per startAnalysis event. Events on one connection are handled in
// arrival order, one at a time.
type Handler struct {
	analyzer     Analyzer
	thresholds   domain.Thresholds
	logger       *slog.Logger
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithCheckOrigin replaces the default same-origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Handler) { h.upgrader.CheckOrigin = fn }
}

// WithWriteTimeout bounds each outbound write.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Handler) { h.writeTimeout = d }
}

func NewHandler(analyzer Analyzer, th domain.Thresholds, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		analyzer:     analyzer,
		thresholds:   th,
		logger:       logger,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// request is one decoded inbound frame, or the reason it could not be decoded.
type request struct {
	event string
	err   error
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(maxMessageBytes)

	remote := conn.RemoteAddr().String()
	h.logger.Info("websocket connected", slog.String("client.address", remote))
	defer h.logger.Info("websocket disconnected", slog.String("client.address", remote))

	// A disconnect cancels ctx, which abandons any session in flight.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	requests := make(chan request, queueSize)
	go h.readLoop(ctx, cancel, conn, requests)

	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			if err := h.handle(ctx, conn, req); err != nil {
				h.logger.Debug("websocket write failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}

// readLoop is the connection's only reader.
func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out chan<- request) {
	defer cancel()
	defer close(out)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read ended", slog.String("error", err.Error()))
			}
			return
		}

		var in Inbound
		req := request{}
		if err := json.Unmarshal(data, &in); err != nil {
			req.err = fmt.Errorf("malformed event: %w", err)
		} else {
			req.event = in.Event
		}

		select {
		case out <- req:
		case <-ctx.Done():
			return
		}
	}
}

// handle runs one request and writes its reply. Only write errors are returned.
func (h *Handler) handle(ctx context.Context, conn *websocket.Conn, req request) error {
	if req.err != nil {
		return h.write(conn, Outbound{Event: EventError, Data: req.err.Error()})
	}
	if req.event != EventStartAnalysis {
		return h.write(conn, Outbound{Event: EventError, Data: fmt.Sprintf("unknown event %q", req.event)})
	}

	report, err := h.analyzer.Analyze(ctx, h.thresholds)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return ctx.Err()
		}
		h.logger.Error("analysis failed", slog.String("error", err.Error()))
		return h.write(conn, Outbound{Event: EventError, Data: "analysis failed: " + err.Error()})
	}

	info, warnings, errs := report.Summary()
	h.logger.Info("analysis complete",
		slog.Int("tables", len(report.Targets)),
		slog.Int("info", info),
		slog.Int("warnings", warnings),
		slog.Int("errors", errs),
		slog.Duration("duration", report.Duration),
	)
	return h.write(conn, Outbound{Event: EventAnalysisComplete, Data: render.View(report.Results)})
}

func (h *Handler) write(conn *websocket.Conn, msg Outbound) error {
	if err := conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
