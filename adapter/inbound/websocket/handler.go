package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ajkula/GoGRT/domain/model"
	"github.com/ajkula/GoGRT/domain/port/inbound"
	"github.com/gorilla/websocket"
)

// telemetryPushInterval paces the metric snapshots streamed to each client.
const telemetryPushInterval = time.Second

// Handler streams live surface telemetry over WebSocket connections.
type Handler struct {
	surfaces    inbound.SurfaceService
	logger      model.Logger
	upgrader    websocket.Upgrader
	connections map[string][]*websocketConnection
	mu          sync.RWMutex
	rootCtx     context.Context
}

// websocketConnection is one active dashboard client.
type websocketConnection struct {
	conn      *websocket.Conn
	surfaceID string
	done      chan struct{}

	// gorilla/websocket allows a single concurrent writer.
	writeMu sync.Mutex
}

func (c *websocketConnection) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func NewHandler(surfaces inbound.SurfaceService, logger model.Logger, rootCtx context.Context) *Handler {
	return &Handler{
		surfaces: surfaces,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // dashboard is served from arbitrary origins
			},
		},
		connections: make(map[string][]*websocketConnection),
		rootCtx:     rootCtx,
	}
}

// HandleConnection upgrades the request and starts streaming the
// surface's telemetry until the client goes away.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request, surfaceID string) {
	monitor, err := h.surfaces.Monitor(surfaceID)
	if err != nil {
		http.Error(w, "Surface not found", http.StatusNotFound)
		return
	}
	ledger, err := h.surfaces.Ledger(surfaceID)
	if err != nil {
		http.Error(w, "Surface not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "surface", surfaceID, "error", err)
		return
	}

	wsConn := &websocketConnection{
		conn:      conn,
		surfaceID: surfaceID,
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	h.connections[surfaceID] = append(h.connections[surfaceID], wsConn)
	h.mu.Unlock()

	h.logger.Debug("WebSocket client connected", "surface", surfaceID)

	wsConn.writeJSON(map[string]any{
		"type":    "connected",
		"surface": surfaceID,
	})

	go h.streamTelemetry(wsConn, monitor, ledger)
	go h.readLoop(wsConn, monitor)
}

// streamTelemetry pushes a combined snapshot every interval until the
// connection or the server goes down.
func (h *Handler) streamTelemetry(wsConn *websocketConnection, monitor inbound.MonitorService, ledger inbound.LedgerService) {
	ticker := time.NewTicker(telemetryPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.rootCtx.Done():
			return
		case <-wsConn.done:
			return
		case <-ticker.C:
			snapshot := map[string]any{
				"type":        "telemetry",
				"surface":     wsConn.surfaceID,
				"performance": monitor.Metrics(),
				"resources":   ledger.Metrics(),
				"timestamp":   time.Now().UnixMilli(),
			}
			if err := wsConn.writeJSON(snapshot); err != nil {
				return
			}
		}
	}
}

// readLoop consumes client messages and tears the connection down when
// the peer disappears.
func (h *Handler) readLoop(wsConn *websocketConnection, monitor inbound.MonitorService) {
	defer func() {
		close(wsConn.done)
		wsConn.conn.Close()
		h.removeConnection(wsConn)
		h.logger.Debug("WebSocket client disconnected", "surface", wsConn.surfaceID)
	}()

	for {
		messageType, data, err := wsConn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", "surface", wsConn.surfaceID, "error", err)
			}
			return
		}

		h.handleClientMessage(wsConn, monitor, messageType, data)
	}
}

// handleClientMessage answers the small client-side protocol: pings and
// on-demand event journal reads.
func (h *Handler) handleClientMessage(wsConn *websocketConnection, monitor inbound.MonitorService, messageType int, data []byte) {
	if messageType != websocket.TextMessage {
		return
	}

	var message map[string]any
	if err := json.Unmarshal(data, &message); err != nil {
		h.logger.Debug("Ignoring malformed client message", "surface", wsConn.surfaceID, "error", err)
		return
	}

	msgType, ok := message["type"].(string)
	if !ok {
		return
	}

	switch msgType {
	case "ping":
		wsConn.writeJSON(map[string]string{
			"type": "pong",
		})
	case "events":
		limit := 0
		if raw, ok := message["limit"].(float64); ok && raw > 0 {
			limit = int(raw)
		}
		wsConn.writeJSON(map[string]any{
			"type":    "events",
			"surface": wsConn.surfaceID,
			"events":  monitor.Events(limit),
		})
	}
}

func (h *Handler) removeConnection(wsConn *websocketConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.connections[wsConn.surfaceID]
	for i, c := range conns {
		if c == wsConn {
			h.connections[wsConn.surfaceID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[wsConn.surfaceID]) == 0 {
		delete(h.connections, wsConn.surfaceID)
	}
}

// Cleanup closes every client connection with a going-away frame.
func (h *Handler) Cleanup() {
	h.logger.Info("Cleaning up WebSocket handler resources...")

	h.mu.Lock()
	defer h.mu.Unlock()

	for surfaceID, connections := range h.connections {
		for _, wsConn := range connections {
			wsConn.writeMu.Lock()
			wsConn.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Server shutting down"))
			wsConn.writeMu.Unlock()

			wsConn.conn.Close()
		}
		delete(h.connections, surfaceID)
	}

	h.logger.Info("WebSocket handler cleanup complete")
}
