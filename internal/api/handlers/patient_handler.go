package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/application/services"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
)

// PatientHandler handles patient registry and admission HTTP requests
type PatientHandler struct {
	patients PatientService
	ledger   OccupancyLedger
	location *time.Location
}

// NewPatientHandler creates a new patient handler.
// location is the hospital time zone used to read date and time filters.
func NewPatientHandler(patients PatientService, ledger OccupancyLedger, location *time.Location) *PatientHandler {
	if location == nil {
		location = time.UTC
	}
	return &PatientHandler{patients: patients, ledger: ledger, location: location}
}

// ListPatients handles GET /api/patients?status=&search=&date=&time=&all_day=
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}
	filter, err := parsePatientFilter(r.URL.Query(), h.location)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	patients, err := h.patients.List(r.Context(), session, filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

// RegisterPatient handles POST /api/patients
func (h *PatientHandler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}
	var input services.RegisterPatientInput
	if !decodeJSON(w, r, &input) {
		return
	}

	patient, err := h.patients.Register(r.Context(), session, input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, patient)
}

// GetPatient handles GET /api/patients/{id}
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	patient, err := h.patients.Get(r.Context(), session, r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, patient)
}

// AdmitPatient handles POST /api/departments/{id}/patients/{patientId}/admit
func (h *PatientHandler) AdmitPatient(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ledger.Admit)
}

// DischargePatient handles POST /api/departments/{id}/patients/{patientId}/discharge
func (h *PatientHandler) DischargePatient(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ledger.Discharge)
}

type transitionFunc func(ctx context.Context, session entities.Session, departmentID, patientID string) error

func (h *PatientHandler) transition(w http.ResponseWriter, r *http.Request, apply transitionFunc) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}
	departmentID := r.PathValue("id")
	patientID := r.PathValue("patientId")

	if err := apply(r.Context(), session, departmentID, patientID); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	patient, err := h.patients.Get(r.Context(), session, patientID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, patient)
}

// parsePatientFilter reads status, search, date (YYYY-MM-DD), time (HH:MM) and all_day
func parsePatientFilter(query url.Values, loc *time.Location) (services.PatientListFilter, error) {
	var filter services.PatientListFilter

	if raw := query.Get("status"); raw != "" {
		status := entities.PatientStatus(raw)
		if !status.Valid() {
			return filter, fmt.Errorf("unknown status %q", raw)
		}
		filter.Status = &status
	}
	filter.Search = query.Get("search")

	rawDate := query.Get("date")
	if rawDate == "" {
		return filter, nil
	}
	day, err := time.ParseInLocation("2006-01-02", rawDate, loc)
	if err != nil {
		return filter, fmt.Errorf("date must be YYYY-MM-DD")
	}
	date := &services.DateFilter{Day: day, AllDay: true}

	if raw := query.Get("all_day"); raw != "" {
		allDay, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, fmt.Errorf("all_day must be true or false")
		}
		date.AllDay = allDay
	}
	if raw := query.Get("time"); raw != "" {
		clock, err := time.Parse("15:04", raw)
		if err != nil {
			return filter, fmt.Errorf("time must be HH:MM")
		}
		date.Time = &services.ClockTime{Hour: clock.Hour(), Minute: clock.Minute()}
		if query.Get("all_day") == "" {
			date.AllDay = false
		}
	}

	filter.Date = date
	return filter, nil
}
