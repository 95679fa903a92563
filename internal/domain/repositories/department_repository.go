package repositories

import (
	"context"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
)

// DepartmentRepository defines the interface for department data operations.
// Bed counts are written only through OccupancyTx.
type DepartmentRepository interface {
	// Create creates a new department
	Create(ctx context.Context, department *entities.Department) error

	// GetByID retrieves a department of a hospital by ID
	GetByID(ctx context.Context, hospitalID, id string) (*entities.Department, error)

	// ListByHospital retrieves all departments of a hospital ordered by name
	ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Department, error)

	// UpdateDetails updates name and doctors of a department
	UpdateDetails(ctx context.Context, department *entities.Department) error
}
