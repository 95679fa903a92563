package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/application/services"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
)

const defaultHeartbeat = 30 * time.Second

// SSEHandler streams live snapshots of a hospital's patients, departments and notifications
type SSEHandler struct {
	feed      FeedService
	location  *time.Location
	heartbeat time.Duration
	clients   atomic.Int64

	closing   chan struct{}
	closeOnce sync.Once
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(feed FeedService, location *time.Location) *SSEHandler {
	if location == nil {
		location = time.UTC
	}
	return &SSEHandler{
		feed:      feed,
		location:  location,
		heartbeat: defaultHeartbeat,
		closing:   make(chan struct{}),
	}
}

// Shutdown ends every open stream so the server can drain
func (h *SSEHandler) Shutdown() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// WithHeartbeat sets the interval between keep-alive events
func (h *SSEHandler) WithHeartbeat(interval time.Duration) *SSEHandler {
	h.heartbeat = interval
	return h
}

// subscribeFunc starts a feed whose snapshots are handed to push
type subscribeFunc func(ctx context.Context, push func(interface{})) (*services.Subscription, error)

// StreamPatients handles GET /api/stream/patients with the same filters as the patient list
func (h *SSEHandler) StreamPatients(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}
	filter, err := parsePatientFilter(r.URL.Query(), h.location)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.stream(w, r, session, "patients", func(ctx context.Context, push func(interface{})) (*services.Subscription, error) {
		return h.feed.SubscribePatients(ctx, session, filter, func(list []*entities.PatientView) { push(list) })
	})
}

// StreamDepartments handles GET /api/stream/departments
func (h *SSEHandler) StreamDepartments(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}
	h.stream(w, r, session, "departments", func(ctx context.Context, push func(interface{})) (*services.Subscription, error) {
		return h.feed.SubscribeDepartments(ctx, session, func(list []*entities.Department) { push(list) })
	})
}

// StreamNotifications handles GET /api/stream/notifications
func (h *SSEHandler) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}
	h.stream(w, r, session, "notifications", func(ctx context.Context, push func(interface{})) (*services.Subscription, error) {
		return h.feed.SubscribeNotifications(ctx, session, func(list []*entities.Notification) { push(list) })
	})
}

func (h *SSEHandler) stream(w http.ResponseWriter, r *http.Request, session entities.Session, eventType string, subscribe subscribeFunc) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// only the latest snapshot matters to a slow client
	updates := make(chan interface{}, 1)
	push := func(v interface{}) {
		for {
			select {
			case updates <- v:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	}

	sub, err := subscribe(r.Context(), push)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	defer sub.Close()

	h.clients.Add(1)
	defer h.clients.Add(-1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	logger := observability.HospitalLogger(r.Context(), session.HospitalID)
	h.sendEvent(w, "connected", map[string]interface{}{
		"hospital_id": session.HospitalID,
		"stream":      eventType,
		"timestamp":   time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("stream", eventType).Msg("Client disconnected from stream")
			return
		case <-sub.Done():
			return
		case <-h.closing:
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{"timestamp": time.Now().UTC()})
			flusher.Flush()
		case snapshot := <-updates:
			h.sendEvent(w, eventType, snapshot)
			flusher.Flush()
		}
	}
}

// sendEvent sends an SSE event to the client
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.GetLogger().Warn().Err(err).Str("event", eventType).Msg("Failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of open streams
func (h *SSEHandler) GetClientCount() int {
	return int(h.clients.Load())
}
