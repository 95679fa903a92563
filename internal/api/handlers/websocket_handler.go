package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/application/services"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
)

// Topics a websocket client can subscribe to
const (
	TopicPatients      = "patients"
	TopicDepartments   = "departments"
	TopicNotifications = "notifications"
)

var allTopics = []string{TopicPatients, TopicDepartments, TopicNotifications}

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 4096
	wsSendBuffer     = 32
)

// WSMessage is a message pushed to websocket clients
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// WSClientMessage is a message read from websocket clients
type WSClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// WebSocketHandler multiplexes the patient, department and notification feeds over one connection
type WebSocketHandler struct {
	feed     FeedService
	location *time.Location
	upgrader websocket.Upgrader
	clients  atomic.Int64

	closing   chan struct{}
	closeOnce sync.Once
}

// NewWebSocketHandler creates a new websocket handler.
// Upgrades are accepted only from allowedOrigins; "*" allows any origin.
func NewWebSocketHandler(feed FeedService, location *time.Location, allowedOrigins []string) *WebSocketHandler {
	if location == nil {
		location = time.UTC
	}
	wildcard := slices.Contains(allowedOrigins, "*")

	return &WebSocketHandler{
		feed:     feed,
		location: location,
		closing:  make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || wildcard || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Shutdown closes every open connection with a normal closure
func (h *WebSocketHandler) Shutdown() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// wsClient is one websocket connection and its live feeds
type wsClient struct {
	id      string
	session entities.Session
	filter  services.PatientListFilter
	send    chan []byte
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zerolog.Logger

	mu   sync.Mutex
	subs map[string]*services.Subscription
}

// HandleConnect handles GET /api/ws?topics=patients,departments&status=&search=&date=
func (h *WebSocketHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}
	filter, err := parsePatientFilter(r.URL.Query(), h.location)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	topics := allTopics
	if raw := r.URL.Query().Get("topics"); raw != "" {
		topics = strings.Split(raw, ",")
		if unknown := unknownTopic(topics); unknown != "" {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("unknown topic %q", unknown))
			return
		}
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		observability.LoggerFromContext(r.Context()).Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	client := &wsClient{
		id:      uuid.New().String(),
		session: session,
		filter:  filter,
		send:    make(chan []byte, wsSendBuffer),
		ctx:     ctx,
		cancel:  cancel,
		logger:  observability.HospitalLogger(r.Context(), session.HospitalID),
		subs:    make(map[string]*services.Subscription),
	}

	h.clients.Add(1)
	defer h.clients.Add(-1)
	defer client.closeAll()
	defer cancel()

	h.subscribe(client, topics)

	go h.writePump(client, ws)
	h.readPump(client, ws)
}

// readPump reads client messages until the connection fails or the client goes away
func (h *WebSocketHandler) readPump(client *wsClient, ws *websocket.Conn) {
	defer ws.Close()

	ws.SetReadLimit(wsMaxMessageSize)
	ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				client.logger.Debug().Err(err).Str("client_id", client.id).Msg("Websocket closed unexpectedly")
			}
			return
		}

		var msg WSClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.push(WSMessage{Type: "error", Error: "malformed message"})
			continue
		}
		if unknown := unknownTopic(msg.Topics); unknown != "" {
			client.push(WSMessage{Type: "error", Error: fmt.Sprintf("unknown topic %q", unknown)})
			continue
		}

		switch msg.Action {
		case "subscribe":
			h.subscribe(client, msg.Topics)
		case "unsubscribe":
			client.unsubscribe(msg.Topics)
		default:
			client.push(WSMessage{Type: "error", Error: fmt.Sprintf("unknown action %q", msg.Action)})
		}
	}
}

// writePump sends queued messages and keeps the connection alive with pings
func (h *WebSocketHandler) writePump(client *wsClient, ws *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case <-h.closing:
			client.cancel()
			ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteWait))
			return
		case <-client.ctx.Done():
			ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			return
		case message := <-client.send:
			ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
				client.cancel()
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.cancel()
				return
			}
		}
	}
}

func (h *WebSocketHandler) subscribe(client *wsClient, topics []string) {
	for _, topic := range topics {
		client.mu.Lock()
		_, exists := client.subs[topic]
		client.mu.Unlock()
		if exists {
			continue
		}

		var (
			sub *services.Subscription
			err error
		)
		switch topic {
		case TopicPatients:
			sub, err = h.feed.SubscribePatients(client.ctx, client.session, client.filter, func(list []*entities.PatientView) {
				client.push(WSMessage{Type: TopicPatients, Data: list})
			})
		case TopicDepartments:
			sub, err = h.feed.SubscribeDepartments(client.ctx, client.session, func(list []*entities.Department) {
				client.push(WSMessage{Type: TopicDepartments, Data: list})
			})
		case TopicNotifications:
			sub, err = h.feed.SubscribeNotifications(client.ctx, client.session, func(list []*entities.Notification) {
				client.push(WSMessage{Type: TopicNotifications, Data: list})
			})
		}
		if err != nil {
			client.logger.Warn().Err(err).Str("topic", topic).Msg("Failed to start feed")
			client.push(WSMessage{Type: "error", Error: fmt.Sprintf("failed to subscribe to %s", topic)})
			continue
		}

		client.mu.Lock()
		client.subs[topic] = sub
		client.mu.Unlock()
	}
}

// push queues msg for the write pump. A client that cannot keep up is disconnected.
func (c *wsClient) push(msg WSMessage) {
	msg.Timestamp = time.Now().UTC()
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Warn().Err(err).Str("type", msg.Type).Msg("Failed to marshal websocket message")
		return
	}

	select {
	case c.send <- data:
	case <-c.ctx.Done():
	default:
		c.logger.Warn().Str("client_id", c.id).Msg("Websocket client too slow, disconnecting")
		c.cancel()
	}
}

func (c *wsClient) unsubscribe(topics []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		if sub, ok := c.subs[topic]; ok {
			sub.Close()
			delete(c.subs, topic)
		}
	}
}

func (c *wsClient) closeAll() {
	c.unsubscribe(allTopics)
}

func unknownTopic(topics []string) string {
	for _, topic := range topics {
		if !slices.Contains(allTopics, topic) {
			return topic
		}
	}
	return ""
}

// GetClientCount returns the number of open websocket connections
func (h *WebSocketHandler) GetClientCount() int {
	return int(h.clients.Load())
}
