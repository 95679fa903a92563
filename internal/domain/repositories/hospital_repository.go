package repositories

import (
	"context"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
)

// HospitalRepository defines the interface for hospital account operations
type HospitalRepository interface {
	// Create creates a new hospital
	Create(ctx context.Context, hospital *entities.Hospital) error

	// GetByID retrieves a hospital by ID
	GetByID(ctx context.Context, id string) (*entities.Hospital, error)
}
