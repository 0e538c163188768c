package handler

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/middleware"
	ws "github.com/stemsi/qbank-backend/internal/websocket"
)

const (
	logStreamBuffer = 64
	pingPeriod      = 30 * time.Second
)

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

// LogSource publishes appended error log lines.
type LogSource interface {
	Path() string
	Subscribe(buffer int) (<-chan []byte, func())
}

// LogStreamHandler tails the error log over a WebSocket.
type LogStreamHandler struct {
	source   LogSource
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewLogStreamHandler creates a new LogStreamHandler.
func NewLogStreamHandler(source LogSource, log zerolog.Logger, allowedOrigins []string) *LogStreamHandler {
	return &LogStreamHandler{
		source:   source,
		log:      log.With().Str("component", "log_stream").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// StreamLogs godoc
// WS /ws/logs?token=...
// Sends every error log entry written after the connection opens.
func (h *LogStreamHandler) StreamLogs(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	lines, cancel := h.source.Subscribe(logStreamBuffer)
	defer cancel()

	wsLog := h.log.With().Int("user_id", claims.UserID).Logger()
	wsLog.Info().Msg("Log stream connected")

	if err := ws.WriteTyped(conn, ws.ReadyResponse{Event: ws.EventReady, File: filepath.Base(h.source.Path())}); err != nil {
		return
	}

	// Only this goroutine writes to conn; the reader hands actions over.
	actions := make(chan ws.Action, 4)
	closed := make(chan struct{})
	ws.ExtendOnPong(conn)
	go func() {
		defer close(closed)
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

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			wsLog.Debug().Msg("Log stream closed")
			return

		case line, ok := <-lines:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(time.Second))
				return
			}
			if err := ws.WriteEntry(conn, line); err != nil {
				return
			}

		case action := <-actions:
			var err error
			if action == ws.ActionPing {
				err = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			} else {
				err = ws.WriteError(conn, "unknown action: "+string(action))
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}
