package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/providers"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/repositories"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

// PatientService handles patient registration and the filtered patient lists
type PatientService struct {
	patients    repositories.PatientRepository
	departments repositories.DepartmentRepository
	bus         providers.EventBus
	location    *time.Location
	now         func() time.Time
}

// NewPatientService creates a new patient service.
// Date filters are evaluated in location; nil means UTC.
func NewPatientService(patients repositories.PatientRepository, departments repositories.DepartmentRepository, bus providers.EventBus, location *time.Location) *PatientService {
	if location == nil {
		location = time.UTC
	}
	return &PatientService{
		patients:    patients,
		departments: departments,
		bus:         bus,
		location:    location,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RegisterPatientInput holds the fields staff enter for a new patient
type RegisterPatientInput struct {
	Name          string     `json:"name"`
	Age           int        `json:"age"`
	DepartmentID  string     `json:"department_id,omitempty"`
	AppointmentAt *time.Time `json:"appointment_at,omitempty"`
	ReportURL     *string    `json:"report_url,omitempty"`
}

// Register creates an Upcoming patient
func (s *PatientService) Register(ctx context.Context, session entities.Session, input RegisterPatientInput) (*entities.Patient, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("patient name is required")
	}
	if input.Age < 0 || input.Age > 150 {
		return nil, apperrors.NewValidationError("patient age must be between 0 and 150")
	}
	if input.DepartmentID != "" {
		if _, err := s.departments.GetByID(ctx, session.HospitalID, input.DepartmentID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	appointment := now
	if input.AppointmentAt != nil {
		appointment = input.AppointmentAt.UTC()
	}

	patient := &entities.Patient{
		ID:            uuid.NewString(),
		HospitalID:    session.HospitalID,
		Name:          name,
		Age:           input.Age,
		DepartmentID:  input.DepartmentID,
		Status:        entities.PatientStatusUpcoming,
		AppointmentAt: &appointment,
		ReportURL:     input.ReportURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, err
	}

	observability.HospitalLogger(ctx, session.HospitalID).Info().
		Str("patient_id", patient.ID).
		Str("department_id", patient.DepartmentID).
		Msg("Patient registered")

	if s.bus != nil {
		event := entities.NewHospitalEvent(session.HospitalID, entities.HospitalEventTypePatientUpdate,
			map[string]interface{}{"patient_id": patient.ID, "created": true})
		if err := s.bus.Publish(ctx, providers.GetPatientsChannel(session.HospitalID), event); err != nil {
			observability.HospitalLogger(ctx, session.HospitalID).Warn().Err(err).Msg("Failed to publish patient event")
		}
	}
	return patient, nil
}

// Get returns one patient with its department name
func (s *PatientService) Get(ctx context.Context, session entities.Session, id string) (*entities.PatientView, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	patient, err := s.patients.GetByID(ctx, session.HospitalID, id)
	if err != nil {
		return nil, err
	}

	view := &entities.PatientView{Patient: patient}
	if patient.DepartmentID != "" {
		department, err := s.departments.GetByID(ctx, session.HospitalID, patient.DepartmentID)
		switch {
		case err == nil:
			view.DepartmentName = department.Name
		case !apperrors.IsNotFound(err):
			return nil, err
		}
	}
	return view, nil
}

// List returns the hospital's patients matching filter, newest first
func (s *PatientService) List(ctx context.Context, session entities.Session, filter PatientListFilter) ([]*entities.PatientView, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	patients, err := s.patients.ListByHospital(ctx, session.HospitalID, repositories.PatientFilter{Status: filter.Status})
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	departments, err := s.departments.ListByHospital(ctx, session.HospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	names := make(map[string]string, len(departments))
	for _, d := range departments {
		names[d.ID] = d.Name
	}
	return FilterPatients(patients, names, filter, s.location), nil
}

// ClockTime is an hour and minute of the day
type ClockTime struct {
	Hour   int
	Minute int
}

// DateFilter matches patients whose relevant timestamp falls on Day.
// Unless AllDay is set, a non-nil Time also requires the same hour and minute.
type DateFilter struct {
	Day    time.Time
	AllDay bool
	Time   *ClockTime
}

// PatientListFilter narrows a patient list
type PatientListFilter struct {
	Status *entities.PatientStatus
	Search string
	Date   *DateFilter
}

// FilterPatients projects patients through filter without touching storage.
// departmentNames resolves department ids for search and display; loc is the
// hospital time zone the date filter is evaluated in.
func FilterPatients(patients []*entities.Patient, departmentNames map[string]string, filter PatientListFilter, loc *time.Location) []*entities.PatientView {
	if loc == nil {
		loc = time.UTC
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	out := make([]*entities.PatientView, 0, len(patients))
	for _, p := range patients {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}

		departmentName := departmentNames[p.DepartmentID]
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(departmentName), search) {
			continue
		}

		if filter.Date != nil && !filter.Date.matches(p.RelevantTime(), loc) {
			continue
		}

		out = append(out, &entities.PatientView{Patient: p, DepartmentName: departmentName})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].RelevantTime(), out[j].RelevantTime()
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
	return out
}

func (f *DateFilter) matches(at *time.Time, loc *time.Location) bool {
	if at == nil {
		return false
	}
	local := at.In(loc)
	day := f.Day.In(loc)

	if local.Year() != day.Year() || local.YearDay() != day.YearDay() {
		return false
	}
	if f.AllDay || f.Time == nil {
		return true
	}
	return local.Hour() == f.Time.Hour && local.Minute() == f.Time.Minute
}
