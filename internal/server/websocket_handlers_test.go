package server

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/qrfeed/internal/testutil"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockWebSocketConn records written messages.
type mockWebSocketConn struct {
	sentMessages [][]byte
	err          error
}

func (m *mockWebSocketConn) WriteMessage(_ int, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.sentMessages = append(m.sentMessages, data)
	return nil
}

func TestSendWebSocketMessage(t *testing.T) {
	s := newTestServer(newMockReader(), Config{})
	conn := &mockWebSocketConn{}

	require.NoError(t, s.sendWebSocketMessage(conn, detectionMessage("ABC")))
	require.Len(t, conn.sentMessages, 1)

	var msg struct {
		Type    string         `json:"type"`
		Payload DetectionEvent `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(conn.sentMessages[0], &msg))
	assert.Equal(t, "detection", msg.Type)
	assert.Equal(t, "ABC", msg.Payload.Text)
	assert.Len(t, msg.Payload.ID, 36)
}

func TestSendWebSocketMessage_WriteError(t *testing.T) {
	s := newTestServer(newMockReader(), Config{})
	conn := &mockWebSocketConn{err: errors.New("broken pipe")}
	assert.Error(t, s.sendWebSocketMessage(conn, detectionMessage("ABC")))
}

func dialTestServer(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn, payload interface{}) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	if payload != nil {
		require.NoError(t, json.Unmarshal(msg.Payload, payload))
	}
	return msg.Type
}

func TestDetectionWebSocket_StreamsDetections(t *testing.T) {
	mr := newMockReader()
	s := newTestServer(mr, Config{})
	conn := dialTestServer(t, s)

	var hello HelloEvent
	require.Equal(t, "hello", readMessage(t, conn, &hello))
	assert.Equal(t, "disabled", hello.State)
	assert.NotEmpty(t, hello.SubscriberID)

	mr.detect("first")
	mr.detect("second")

	var ev DetectionEvent
	require.Equal(t, "detection", readMessage(t, conn, &ev))
	assert.Equal(t, "first", ev.Text)
	require.Equal(t, "detection", readMessage(t, conn, &ev))
	assert.Equal(t, "second", ev.Text)
}

func TestDetectionWebSocket_UnsubscribesOnClose(t *testing.T) {
	mr := newMockReader()
	s := newTestServer(mr, Config{})
	conn := dialTestServer(t, s)
	readMessage(t, conn, nil)
	require.Equal(t, 1, mr.subscriberCount())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.NoError(t, testutil.WaitFor(2*time.Second, func() bool { return mr.subscriberCount() == 0 }))
}

func TestDetectionWebSocket_ClosesWhenReaderCloses(t *testing.T) {
	mr := newMockReader()
	s := newTestServer(mr, Config{})
	conn := dialTestServer(t, s)
	var hello HelloEvent
	readMessage(t, conn, &hello)

	mr.Unsubscribe(hello.SubscriberID)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}
