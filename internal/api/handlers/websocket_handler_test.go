package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/api/handlers"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/application/services"
)

type wsEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialWS(t *testing.T, handler *handlers.WebSocketHandler, query string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.HandleConnect(w, withSession(r))
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

// readUntil returns the first message of type msgType for which match holds
func readUntil(t *testing.T, conn *websocket.Conn, msgType string, match func(wsEnvelope) bool) wsEnvelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg wsEnvelope
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgType && (match == nil || match(msg)) {
			return msg
		}
	}
}

func TestWebSocketHandler_InitialSnapshots(t *testing.T) {
	f := newStreamFixture(t)
	handler := handlers.NewWebSocketHandler(f.feed, time.UTC, []string{"*"})

	conn, _, err := dialWS(t, handler, "", nil)
	require.NoError(t, err)

	seen := map[string]bool{}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for len(seen) < 3 {
		var msg wsEnvelope
		require.NoError(t, conn.ReadJSON(&msg))
		seen[msg.Type] = true
	}
	assert.True(t, seen[handlers.TopicPatients])
	assert.True(t, seen[handlers.TopicDepartments])
	assert.True(t, seen[handlers.TopicNotifications])
}

func TestWebSocketHandler_PushesOccupancyChanges(t *testing.T) {
	f := newStreamFixture(t)
	handler := handlers.NewWebSocketHandler(f.feed, time.UTC, []string{"*"})

	conn, _, err := dialWS(t, handler, "?topics=departments,notifications", nil)
	require.NoError(t, err)
	readUntil(t, conn, handlers.TopicDepartments, nil)

	patient, err := f.patients.Register(context.Background(), testSession, services.RegisterPatientInput{Name: "Ada", Age: 30, DepartmentID: "dept-1"})
	require.NoError(t, err)
	require.NoError(t, f.ledger.Admit(context.Background(), testSession, "dept-1", patient.ID))

	// the two feeds reload independently, so their pushes arrive in any order
	var sawBeds9, sawNotification bool
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for !sawBeds9 || !sawNotification {
		var msg wsEnvelope
		require.NoError(t, conn.ReadJSON(&msg))

		var list []map[string]interface{}
		if json.Unmarshal(msg.Data, &list) != nil || len(list) != 1 {
			continue
		}
		switch msg.Type {
		case handlers.TopicDepartments:
			sawBeds9 = sawBeds9 || list[0]["available_beds"] == float64(9)
		case handlers.TopicNotifications:
			sawNotification = sawNotification || list[0]["message"] == "Ada has been admitted to Cardiology"
		}
	}
}

func TestWebSocketHandler_SubscribeLater(t *testing.T) {
	f := newStreamFixture(t)
	handler := handlers.NewWebSocketHandler(f.feed, time.UTC, []string{"*"})

	conn, _, err := dialWS(t, handler, "?topics=notifications", nil)
	require.NoError(t, err)
	readUntil(t, conn, handlers.TopicNotifications, nil)

	require.NoError(t, conn.WriteJSON(handlers.WSClientMessage{Action: "subscribe", Topics: []string{handlers.TopicDepartments}}))
	readUntil(t, conn, handlers.TopicDepartments, nil)

	require.NoError(t, conn.WriteJSON(handlers.WSClientMessage{Action: "subscribe", Topics: []string{"beds"}}))
	msg := readUntil(t, conn, "error", nil)
	assert.Contains(t, msg.Error, "beds")
}

func TestWebSocketHandler_RejectsUnknownTopic(t *testing.T) {
	f := newStreamFixture(t)
	handler := handlers.NewWebSocketHandler(f.feed, time.UTC, []string{"*"})

	_, resp, err := dialWS(t, handler, "?topics=beds", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	f := newStreamFixture(t)
	handler := handlers.NewWebSocketHandler(f.feed, time.UTC, []string{"https://admin.example.com"})

	_, resp, err := dialWS(t, handler, "", http.Header{"Origin": []string{"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := dialWS(t, handler, "", http.Header{"Origin": []string{"https://admin.example.com"}})
	require.NoError(t, err)
	readUntil(t, conn, handlers.TopicDepartments, nil)
}
