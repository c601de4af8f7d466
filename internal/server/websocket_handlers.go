package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsWriteWait  = 10 * time.Second
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketMessage is the envelope of every message sent to a client.
type WebSocketMessage struct {
	Type    string      `json:"type"` // "hello", "detection", "error"
	Payload interface{} `json:"payload,omitempty"`
}

// DetectionEvent is the payload of a "detection" message.
type DetectionEvent struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Time string `json:"time"`
}

// HelloEvent is the payload of the "hello" message sent on connect.
type HelloEvent struct {
	SubscriberID string `json:"subscriber_id"`
	State        string `json:"state"`
	LastResult   string `json:"last_result,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// detectionWebSocketHandler streams detections to a WebSocket client until
// either side closes.
func (s *Server) detectionWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	id, detections := s.reader.Subscribe()
	defer s.reader.Unsubscribe(id)
	s.logger.Info("WebSocket connection established", "remote_addr", r.RemoteAddr, "subscriber", id)

	status := s.reader.Status()
	if err := s.sendWebSocketMessage(conn, WebSocketMessage{
		Type:    "hello",
		Payload: HelloEvent{SubscriberID: id, State: status.State, LastResult: status.LastResult},
	}); err != nil {
		return
	}

	closed := make(chan struct{})
	go s.readWebSocket(conn, closed)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case text, ok := <-detections:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "reader closed"),
					time.Now().Add(wsWriteWait))
				return
			}
			if err := s.sendWebSocketMessage(conn, detectionMessage(text)); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// readWebSocket drains client frames so control messages are processed and
// closes done when the client goes away.
func (s *Server) readWebSocket(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("WebSocket read error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
	}
}

func detectionMessage(text string) WebSocketMessage {
	return WebSocketMessage{
		Type: "detection",
		Payload: DetectionEvent{
			ID:   uuid.NewString(),
			Text: text,
			Time: time.Now().UTC().Format(time.RFC3339Nano),
		},
	}
}

// sendWebSocketMessage sends a message over WebSocket.
func (s *Server) sendWebSocketMessage(conn WebSocketConnWriter, msg WebSocketMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("Failed to marshal WebSocket message", "error", err)
		return err
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("Failed to send WebSocket message", "error", err)
		return err
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
	return nil
}
