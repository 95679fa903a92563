package handlers

import (
	"net/http"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/application/services"
)

// DepartmentHandler handles department and bed-count HTTP requests
type DepartmentHandler struct {
	departments DepartmentService
	ledger      OccupancyLedger
}

// NewDepartmentHandler creates a new department handler
func NewDepartmentHandler(departments DepartmentService, ledger OccupancyLedger) *DepartmentHandler {
	return &DepartmentHandler{departments: departments, ledger: ledger}
}

// ListDepartments handles GET /api/departments
func (h *DepartmentHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	departments, err := h.departments.List(r.Context(), session)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"departments": departments,
		"count":       len(departments),
	})
}

// GetDepartment handles GET /api/departments/{id}
func (h *DepartmentHandler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	department, err := h.departments.Get(r.Context(), session, r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, department)
}

// CreateDepartment handles POST /api/departments
func (h *DepartmentHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}
	var input services.DepartmentInput
	if !decodeJSON(w, r, &input) {
		return
	}

	department, err := h.departments.Create(r.Context(), session, input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, department)
}

// UpdateDepartment handles PATCH /api/departments/{id}
func (h *DepartmentHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}
	var input services.DepartmentInput
	if !decodeJSON(w, r, &input) {
		return
	}

	department, err := h.departments.UpdateDetails(r.Context(), session, r.PathValue("id"), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, department)
}

// DeleteDepartment handles DELETE /api/departments/{id}
func (h *DepartmentHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}
	if err := h.departments.Delete(r.Context(), session, r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adjustBedsRequest struct {
	Delta *int `json:"delta"`
}

// AdjustBeds handles POST /api/departments/{id}/beds/adjust
func (h *DepartmentHandler) AdjustBeds(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}
	var req adjustBedsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Delta == nil {
		respondWithError(w, http.StatusBadRequest, "delta is required")
		return
	}

	department, err := h.ledger.AdjustAvailableBeds(r.Context(), session, r.PathValue("id"), *req.Delta)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, department)
}

type resizeRequest struct {
	TotalBeds *int `json:"total_beds"`
}

// ResizeDepartment handles PUT /api/departments/{id}/beds/total
func (h *DepartmentHandler) ResizeDepartment(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}
	var req resizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TotalBeds == nil {
		respondWithError(w, http.StatusBadRequest, "total_beds is required")
		return
	}

	department, err := h.ledger.ResizeDepartment(r.Context(), session, r.PathValue("id"), *req.TotalBeds)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, department)
}
