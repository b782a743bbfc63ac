package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/neurondb/NeuronFlow/internal/events"
	"github.com/neurondb/NeuronFlow/internal/logging"
	"github.com/neurondb/NeuronFlow/internal/metrics"
	"github.com/neurondb/NeuronFlow/internal/validation"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	wsPongWait   = 2 * wsPingPeriod
)

// StreamHandlers streams node path change events over WebSocket
type StreamHandlers struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
	logger   *logging.Logger
}

// NewStreamHandlers creates stream handlers; checkOrigin may be nil to allow same-origin only
func NewStreamHandlers(hub *events.Hub, checkOrigin func(r *http.Request) bool, logger *logging.Logger) *StreamHandlers {
	return &StreamHandlers{
		hub:      hub,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		logger:   logger,
	}
}

/*
 * NodePathEvents handles GET /node-paths/ws. Optional parentNodeId and
 * schemaId query params restrict the stream to matching paths; deletions
 * carry no path and are always delivered.
 */
func (h *StreamHandlers) NodePathEvents(w http.ResponseWriter, r *http.Request) error {
	filter, err := streamFilter(r)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		/* Upgrade has already written the HTTP error */
		h.logger.Warn("WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	defer conn.Close()

	sub := h.hub.Subscribe(filter)
	defer sub.Cancel()

	metrics.AddActiveConnections("websocket", 1)
	defer metrics.AddActiveConnections("websocket", -1)

	/* Reader: handles pongs and notices the client going away */
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("WebSocket read ended", map[string]interface{}{"error": err.Error()})
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-sub.C:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(wsWriteWait))
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(e); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return nil
			}
		case <-closed:
			return nil
		case <-r.Context().Done():
			return nil
		}
	}
}

func streamFilter(r *http.Request) (func(events.Event) bool, error) {
	q := r.URL.Query()
	var (
		parentID, schemaID   uuid.UUID
		parentErr, schemaErr error
	)
	if v := q.Get("parentNodeId"); v != "" {
		parentID, parentErr = validation.ParseUUID(v, "parentNodeId")
	}
	if v := q.Get("schemaId"); v != "" {
		schemaID, schemaErr = validation.ParseUUID(v, "schemaId")
	}
	if err := joinValidation(parentErr, schemaErr); err != nil {
		return nil, err
	}
	if parentID == uuid.Nil && schemaID == uuid.Nil {
		return nil, nil
	}

	return func(e events.Event) bool {
		if e.NodePath == nil {
			return true
		}
		if parentID != uuid.Nil && e.NodePath.ParentNodeId != parentID {
			return false
		}
		if schemaID != uuid.Nil && e.NodePath.SchemaId != schemaID {
			return false
		}
		return true
	}, nil
}
