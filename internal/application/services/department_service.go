package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/providers"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/repositories"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

// DepartmentService handles department listing and administration.
// Bed counts are changed only through the OccupancyLedger.
type DepartmentService struct {
	repo   repositories.DepartmentRepository
	ledger *OccupancyLedger
	bus    providers.EventBus
	now    func() time.Time
}

// NewDepartmentService creates a new department service
func NewDepartmentService(repo repositories.DepartmentRepository, ledger *OccupancyLedger, bus providers.EventBus) *DepartmentService {
	return &DepartmentService{
		repo:   repo,
		ledger: ledger,
		bus:    bus,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// DepartmentInput holds the editable department fields
type DepartmentInput struct {
	Name            string `json:"name"`
	MainDoctor      string `json:"main_doctor"`
	AssistantDoctor string `json:"assistant_doctor"`
	TotalBeds       int    `json:"total_beds"`
}

func (in DepartmentInput) normalized() DepartmentInput {
	in.Name = strings.TrimSpace(in.Name)
	in.MainDoctor = strings.TrimSpace(in.MainDoctor)
	in.AssistantDoctor = strings.TrimSpace(in.AssistantDoctor)
	return in
}

func (in DepartmentInput) validateDetails() error {
	switch {
	case in.Name == "":
		return apperrors.NewValidationError("department name is required")
	case in.MainDoctor == "":
		return apperrors.NewValidationError("main doctor is required")
	case in.AssistantDoctor == "":
		return apperrors.NewValidationError("assistant doctor is required")
	}
	return nil
}

// List returns the hospital's departments, seeding the default layout on first use
func (s *DepartmentService) List(ctx context.Context, session entities.Session) ([]*entities.Department, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	return s.EnsureDefaults(ctx, session.HospitalID)
}

// EnsureDefaults creates the default departments for a hospital that has none.
// Seeded ids are derived from the hospital and department name, so a second
// concurrent seeder collides instead of duplicating.
func (s *DepartmentService) EnsureDefaults(ctx context.Context, hospitalID string) ([]*entities.Department, error) {
	departments, err := s.repo.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	if len(departments) > 0 {
		return departments, nil
	}

	logger := observability.HospitalLogger(ctx, hospitalID)
	now := s.now()
	for _, d := range entities.DefaultDepartments {
		department := &entities.Department{
			ID:              DefaultDepartmentID(hospitalID, d.Name),
			HospitalID:      hospitalID,
			Name:            d.Name,
			MainDoctor:      d.MainDoctor,
			AssistantDoctor: d.AssistantDoctor,
			TotalBeds:       d.TotalBeds,
			AvailableBeds:   d.AvailableBeds,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.Create(ctx, department); err != nil {
			logger.Warn().Err(err).Str("department", d.Name).Msg("Default department not created, re-reading")
			return s.repo.ListByHospital(ctx, hospitalID)
		}
	}
	logger.Info().Int("count", len(entities.DefaultDepartments)).Msg("Seeded default departments")

	return s.repo.ListByHospital(ctx, hospitalID)
}

// DefaultDepartmentID returns the stable id of a seeded department
func DefaultDepartmentID(hospitalID, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(hospitalID+"/"+strings.ToLower(name))).String()
}

// Get returns one department
func (s *DepartmentService) Get(ctx context.Context, session entities.Session, id string) (*entities.Department, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, session.HospitalID, id)
}

// Create adds a department with every bed available
func (s *DepartmentService) Create(ctx context.Context, session entities.Session, input DepartmentInput) (*entities.Department, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	input = input.normalized()
	if err := input.validateDetails(); err != nil {
		return nil, err
	}
	if input.TotalBeds < 1 {
		return nil, apperrors.NewValidationError("a department needs at least one bed")
	}

	now := s.now()
	department := &entities.Department{
		ID:              uuid.NewString(),
		HospitalID:      session.HospitalID,
		Name:            input.Name,
		MainDoctor:      input.MainDoctor,
		AssistantDoctor: input.AssistantDoctor,
		TotalBeds:       input.TotalBeds,
		AvailableBeds:   input.TotalBeds,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, department); err != nil {
		return nil, err
	}

	s.announce(ctx, session.HospitalID, map[string]interface{}{"department_id": department.ID, "created": true}, false)
	return department, nil
}

// UpdateDetails changes the name and doctors of a department; bed counts are untouched
func (s *DepartmentService) UpdateDetails(ctx context.Context, session entities.Session, id string, input DepartmentInput) (*entities.Department, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	input = input.normalized()
	if err := input.validateDetails(); err != nil {
		return nil, err
	}

	department, err := s.repo.GetByID(ctx, session.HospitalID, id)
	if err != nil {
		return nil, err
	}
	renamed := department.Name != input.Name

	department.Name = input.Name
	department.MainDoctor = input.MainDoctor
	department.AssistantDoctor = input.AssistantDoctor
	department.UpdatedAt = s.now()
	if err := s.repo.UpdateDetails(ctx, department); err != nil {
		return nil, err
	}

	// patient lists show the department name
	s.announce(ctx, session.HospitalID, map[string]interface{}{"department_id": id, "name": department.Name}, renamed)
	return department, nil
}

// Delete removes a department without occupied beds
func (s *DepartmentService) Delete(ctx context.Context, session entities.Session, id string) error {
	return s.ledger.RemoveDepartment(ctx, session, id)
}

func (s *DepartmentService) announce(ctx context.Context, hospitalID string, fields map[string]interface{}, patientsToo bool) {
	if s.bus == nil {
		return
	}
	channels := []string{providers.GetDepartmentsChannel(hospitalID)}
	if patientsToo {
		channels = append(channels, providers.GetPatientsChannel(hospitalID))
	}
	for _, channel := range channels {
		eventType := entities.HospitalEventTypeDepartmentUpdate
		if channel == providers.GetPatientsChannel(hospitalID) {
			eventType = entities.HospitalEventTypePatientUpdate
		}
		if err := s.bus.Publish(ctx, channel, entities.NewHospitalEvent(hospitalID, eventType, fields)); err != nil {
			observability.HospitalLogger(ctx, hospitalID).Warn().Err(err).Str("channel", channel).Msg("Failed to publish department event")
		}
	}
}
