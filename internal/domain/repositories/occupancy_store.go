package repositories

import (
	"context"
	"time"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
)

// OccupancyStore runs bed and patient lifecycle changes atomically.
// If fn returns an error nothing it wrote is kept.
type OccupancyStore interface {
	RunInTx(ctx context.Context, fn func(tx OccupancyTx) error) error
}

// OccupancyTx is the write surface of a single occupancy transaction.
// Reads lock the returned rows until the transaction ends.
type OccupancyTx interface {
	// GetDepartment reads and locks a department
	GetDepartment(ctx context.Context, hospitalID, departmentID string) (*entities.Department, error)

	// GetPatient reads and locks a patient
	GetPatient(ctx context.Context, hospitalID, patientID string) (*entities.Patient, error)

	// SetAvailableBeds writes available only if the stored value still equals expected.
	// A mismatch returns a CONFLICT error with code CONCURRENT_BED_UPDATE.
	SetAvailableBeds(ctx context.Context, hospitalID, departmentID string, expected, available int) error

	// SetCapacity writes total and available together, conditional on the stored total
	SetCapacity(ctx context.Context, hospitalID, departmentID string, expectedTotal, total, available int) error

	// SetPatientStatus moves a patient from one status to the next, conditional on from.
	// departmentID binds the patient to the department it was admitted to.
	SetPatientStatus(ctx context.Context, hospitalID, patientID string, from, to entities.PatientStatus, departmentID string, at time.Time) error

	// CountAdmitted counts patients currently Admitted to a department
	CountAdmitted(ctx context.Context, hospitalID, departmentID string) (int, error)

	// DeleteDepartment removes a department; patients referencing it lose the link
	DeleteDepartment(ctx context.Context, hospitalID, departmentID string) error
}
