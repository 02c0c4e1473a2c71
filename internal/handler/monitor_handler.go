package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/metrics"
	"github.com/unieval/evaluation-backend/internal/middleware"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/response"
	"github.com/unieval/evaluation-backend/internal/service"
	ws "github.com/unieval/evaluation-backend/internal/websocket"
)

const (
	keepAliveInterval = 30 * time.Second
	snapshotTimeout   = 5 * time.Second
)

// QuestionnaireReader resolves the questionnaire a watcher attaches to.
type QuestionnaireReader interface {
	Get(ctx context.Context, actor service.Actor, id uuid.UUID) (*model.Questionnaire, error)
}

// SubmissionWatcher is the read side of the live submission feed.
type SubmissionWatcher interface {
	SubmissionCount(ctx context.Context, questionnaireID uuid.UUID) (int64, error)
	Watch(ctx context.Context, questionnaireID uuid.UUID) (<-chan *model.SubmissionEvent, error)
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live submission counts to staff, over WebSocket
// or SSE. Events carry question ids and totals, never a respondent.
type MonitorHandler struct {
	questionnaires QuestionnaireReader
	feed           SubmissionWatcher
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(questionnaires QuestionnaireReader, feed SubmissionWatcher, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		questionnaires: questionnaires,
		feed:           feed,
		log:            log.With().Str("component", "monitor_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// attach resolves the questionnaire and subscribes before anything is sent,
// so the snapshot count never lags an event the watcher will miss.
func (h *MonitorHandler) attach(c *gin.Context) (*model.Questionnaire, <-chan *model.SubmissionEvent, ws.SnapshotResponse, bool) {
	var snap ws.SnapshotResponse

	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, nil, snap, false
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return nil, nil, snap, false
	}

	ctx := c.Request.Context()
	q, err := h.questionnaires.Get(ctx, claims.Actor(), id)
	if err != nil {
		fail(c, h.log, err)
		return nil, nil, snap, false
	}

	events, err := h.feed.Watch(ctx, id)
	if err != nil {
		fail(c, h.log, err)
		return nil, nil, snap, false
	}

	countCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()
	total, err := h.feed.SubmissionCount(countCtx, id)
	if err != nil {
		h.log.Warn().Err(err).Str("questionnaire_id", id.String()).Msg("Failed to read submission count")
	}

	snap = ws.SnapshotResponse{
		Event:            ws.EventSnapshot,
		QuestionnaireID:  id,
		Status:           string(q.Status),
		TotalSubmissions: total,
	}
	return q, events, snap, true
}

func submissionPayload(ev *model.SubmissionEvent) ws.SubmissionResponse {
	return ws.SubmissionResponse{
		Event:            ws.EventSubmission,
		QuestionnaireID:  ev.QuestionnaireID,
		QuestionIDs:      ev.QuestionIDs,
		TotalSubmissions: ev.TotalSubmissions,
		At:               ev.At,
	}
}

// Stream godoc
// WS /ws/v1/questionnaires/:id/stream
// Sends a snapshot, then one event per accepted submission.
func (h *MonitorHandler) Stream(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	c.Request = c.Request.WithContext(ctx)

	q, events, snap, ok := h.attach(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.LiveSubscribers.Inc()
	defer metrics.LiveSubscribers.Dec()

	wsLog := h.log.With().Str("questionnaire_id", q.ID.String()).Logger()
	wsLog.Info().Msg("Watcher connected")

	if err := ws.WriteTyped(conn, snap); err != nil {
		return
	}

	// The reader hands actions to this goroutine, which owns every write.
	actions := make(chan ws.Action, 1)
	go func() {
		defer cancel()
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			select {
			case actions <- msg.Action:
			default:
			}
		}
	}()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Watcher disconnected")
			return
		case action := <-actions:
			var err error
			if action == ws.ActionPing {
				err = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			} else {
				err = ws.WriteError(conn, "unknown action")
			}
			if err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				_ = ws.CloseNormal(conn, "feed closed")
				return
			}
			if err := ws.WriteTyped(conn, submissionPayload(ev)); err != nil {
				return
			}
		case <-keepAlive.C:
			if err := ws.WriteTyped(conn, ws.PingResponse{Event: ws.EventPing}); err != nil {
				return
			}
		}
	}
}

// MonitorSSE godoc
// GET /api/v1/questionnaires/:id/monitor
// Same feed as Stream, for clients that prefer EventSource.
func (h *MonitorHandler) MonitorSSE(c *gin.Context) {
	q, events, snap, ok := h.attach(c)
	if !ok {
		return
	}
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	metrics.LiveSubscribers.Inc()
	defer metrics.LiveSubscribers.Dec()

	h.log.Info().Str("questionnaire_id", q.ID.String()).Msg("Watcher attached to SSE monitor")

	c.SSEvent("message", snap)
	c.Writer.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-reqCtx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent("message", submissionPayload(ev))
			c.Writer.Flush()
		case <-keepAlive.C:
			c.SSEvent("message", ws.PingResponse{Event: ws.EventPing})
			c.Writer.Flush()
		}
	}
}
