package routes

import (
	"encoding/json"
	"net/http"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/api/handlers"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/api/middleware"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	auth           middleware.Authenticator
	allowedOrigins []string

	authHandler         *handlers.AuthHandler
	departmentHandler   *handlers.DepartmentHandler
	patientHandler      *handlers.PatientHandler
	notificationHandler *handlers.NotificationHandler
	reportHandler       *handlers.ReportHandler
	sseHandler          *handlers.SSEHandler
	wsHandler           *handlers.WebSocketHandler

	metrics *observability.Metrics
}

// Handlers groups the HTTP handlers mounted by the router.
// A nil stream handler leaves its routes unmounted.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Departments   *handlers.DepartmentHandler
	Patients      *handlers.PatientHandler
	Notifications *handlers.NotificationHandler
	Reports       *handlers.ReportHandler
	SSE           *handlers.SSEHandler
	WebSocket     *handlers.WebSocketHandler
}

// NewRouter creates a new router
func NewRouter(auth middleware.Authenticator, h Handlers, allowedOrigins []string, metrics *observability.Metrics) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		auth:                auth,
		allowedOrigins:      allowedOrigins,
		authHandler:         h.Auth,
		departmentHandler:   h.Departments,
		patientHandler:      h.Patients,
		notificationHandler: h.Notifications,
		reportHandler:       h.Reports,
		sseHandler:          h.SSE,
		wsHandler:           h.WebSocket,
		metrics:             metrics,
	}
}

// protected mounts fn behind the session check
func (r *Router) protected(pattern string, fn http.HandlerFunc) {
	r.mux.Handle(pattern, middleware.RequireSession(r.auth)(fn))
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.health)

	if r.authHandler != nil {
		r.mux.HandleFunc("POST /api/auth/login", r.authHandler.Login)
		r.protected("POST /api/auth/logout", r.authHandler.Logout)
		r.protected("GET /api/session", r.authHandler.Session)
	}

	// Departments and bed counts
	if r.departmentHandler != nil {
		r.protected("GET /api/departments", r.departmentHandler.ListDepartments)
		r.protected("POST /api/departments", r.departmentHandler.CreateDepartment)
		r.protected("GET /api/departments/{id}", r.departmentHandler.GetDepartment)
		r.protected("PATCH /api/departments/{id}", r.departmentHandler.UpdateDepartment)
		r.protected("DELETE /api/departments/{id}", r.departmentHandler.DeleteDepartment)
		r.protected("POST /api/departments/{id}/beds/adjust", r.departmentHandler.AdjustBeds)
		r.protected("PUT /api/departments/{id}/beds/total", r.departmentHandler.ResizeDepartment)
	}

	// Patient registry and admissions
	if r.patientHandler != nil {
		r.protected("GET /api/patients", r.patientHandler.ListPatients)
		r.protected("POST /api/patients", r.patientHandler.RegisterPatient)
		r.protected("GET /api/patients/{id}", r.patientHandler.GetPatient)
		r.protected("POST /api/departments/{id}/patients/{patientId}/admit", r.patientHandler.AdmitPatient)
		r.protected("POST /api/departments/{id}/patients/{patientId}/discharge", r.patientHandler.DischargePatient)
	}

	if r.notificationHandler != nil {
		r.protected("GET /api/notifications", r.notificationHandler.ListNotifications)
		r.protected("DELETE /api/notifications", r.notificationHandler.ClearNotifications)
		r.protected("POST /api/notifications/{id}/read", r.notificationHandler.MarkRead)
		r.protected("DELETE /api/notifications/{id}", r.notificationHandler.DeleteNotification)
	}

	if r.reportHandler != nil {
		r.protected("GET /api/reports/occupancy.xlsx", r.reportHandler.OccupancyWorkbook)
	}

	// Live feeds
	if r.sseHandler != nil {
		r.protected("GET /api/stream/patients", r.sseHandler.StreamPatients)
		r.protected("GET /api/stream/departments", r.sseHandler.StreamDepartments)
		r.protected("GET /api/stream/notifications", r.sseHandler.StreamNotifications)
	}
	if r.wsHandler != nil {
		r.protected("GET /api/ws", r.wsHandler.HandleConnect)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.Compression(handler)
	handler = middleware.NoStore(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)

	// CORS wraps everything so preflights never reach auth
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	status := map[string]interface{}{"status": "ok"}
	if r.sseHandler != nil {
		status["sse_clients"] = r.sseHandler.GetClientCount()
	}
	if r.wsHandler != nil {
		status["websocket_clients"] = r.wsHandler.GetClientCount()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}
