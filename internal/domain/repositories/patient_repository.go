package repositories

import (
	"context"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
)

// PatientRepository defines the interface for patient data operations.
// Status and lifecycle timestamps are written only through OccupancyTx.
type PatientRepository interface {
	// Create creates a new patient
	Create(ctx context.Context, patient *entities.Patient) error

	// GetByID retrieves a patient of a hospital by ID
	GetByID(ctx context.Context, hospitalID, id string) (*entities.Patient, error)

	// ListByHospital retrieves the patients of a hospital
	ListByHospital(ctx context.Context, hospitalID string, filter PatientFilter) ([]*entities.Patient, error)
}

// PatientFilter narrows ListByHospital at the storage level
type PatientFilter struct {
	Status *entities.PatientStatus
}
