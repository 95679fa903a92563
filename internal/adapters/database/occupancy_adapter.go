package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/repositories"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/clients/postgres"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

// OccupancyAdapter implements the OccupancyStore interface on PostgreSQL transactions.
// Rows read inside a transaction are locked with SELECT ... FOR UPDATE and every
// write is conditional on the value that was read.
type OccupancyAdapter struct {
	client  *postgres.Client
	dialect goqu.DialectWrapper
}

// NewOccupancyAdapter creates a new occupancy adapter
func NewOccupancyAdapter(client *postgres.Client) repositories.OccupancyStore {
	return &OccupancyAdapter{
		client:  client,
		dialect: goqu.Dialect("postgres"),
	}
}

// RunInTx runs fn in a single transaction
func (a *OccupancyAdapter) RunInTx(ctx context.Context, fn func(tx repositories.OccupancyTx) error) error {
	return a.client.WithTx(ctx, func(tx *sql.Tx) error {
		return fn(&occupancyTx{tx: tx, dialect: a.dialect})
	})
}

type occupancyTx struct {
	tx      *sql.Tx
	dialect goqu.DialectWrapper
}

func (t *occupancyTx) GetDepartment(ctx context.Context, hospitalID, departmentID string) (*entities.Department, error) {
	query, args, err := t.dialect.From(departmentsTable).
		Select(departmentColumns...).
		Where(goqu.Ex{"id": departmentID, "hospital_id": hospitalID}).
		ForUpdate(exp.Wait).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return scanDepartment(t.tx.QueryRowContext(ctx, query, args...), departmentID)
}

func (t *occupancyTx) GetPatient(ctx context.Context, hospitalID, patientID string) (*entities.Patient, error) {
	query, args, err := t.dialect.From(patientsTable).
		Select(patientColumns...).
		Where(goqu.Ex{"id": patientID, "hospital_id": hospitalID}).
		ForUpdate(exp.Wait).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return scanPatient(t.tx.QueryRowContext(ctx, query, args...), patientID)
}

func (t *occupancyTx) SetAvailableBeds(ctx context.Context, hospitalID, departmentID string, expected, available int) error {
	query, args, err := t.dialect.Update(departmentsTable).
		Set(goqu.Record{
			"available_beds": available,
			"updated_at":     time.Now().UTC(),
		}).
		Where(goqu.Ex{
			"id":             departmentID,
			"hospital_id":    hospitalID,
			"available_beds": expected,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update available beds", err)
	}
	return requireOneRow(result, bedConflict())
}

func (t *occupancyTx) SetCapacity(ctx context.Context, hospitalID, departmentID string, expectedTotal, total, available int) error {
	query, args, err := t.dialect.Update(departmentsTable).
		Set(goqu.Record{
			"total_beds":     total,
			"available_beds": available,
			"updated_at":     time.Now().UTC(),
		}).
		Where(goqu.Ex{
			"id":          departmentID,
			"hospital_id": hospitalID,
			"total_beds":  expectedTotal,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update department capacity", err)
	}
	return requireOneRow(result, bedConflict())
}

func (t *occupancyTx) SetPatientStatus(ctx context.Context, hospitalID, patientID string, from, to entities.PatientStatus, departmentID string, at time.Time) error {
	record := goqu.Record{
		"status":        string(to),
		"department_id": nullString(departmentID),
		"updated_at":    at,
	}
	switch to {
	case entities.PatientStatusAdmitted:
		record["admission_at"] = at
	case entities.PatientStatusDischarged:
		record["discharge_at"] = at
	}

	query, args, err := t.dialect.Update(patientsTable).
		Set(record).
		Where(goqu.Ex{
			"id":          patientID,
			"hospital_id": hospitalID,
			"status":      string(from),
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update patient status", err)
	}
	return requireOneRow(result, apperrors.NewConflictError("patient status changed concurrently").
		WithCode(apperrors.CodeConcurrentStatusTransition))
}

func (t *occupancyTx) CountAdmitted(ctx context.Context, hospitalID, departmentID string) (int, error) {
	query, args, err := t.dialect.From(patientsTable).
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{
			"hospital_id":   hospitalID,
			"department_id": departmentID,
			"status":        string(entities.PatientStatusAdmitted),
		}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count admitted patients", err)
	}
	return count, nil
}

// DeleteDepartment relies on the ON DELETE SET NULL foreign key on patients.department_id
func (t *occupancyTx) DeleteDepartment(ctx context.Context, hospitalID, departmentID string) error {
	query, args, err := t.dialect.Delete(departmentsTable).
		Where(goqu.Ex{"id": departmentID, "hospital_id": hospitalID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete department", err)
	}
	return requireOneRow(result, departmentNotFound(departmentID))
}

func bedConflict() *apperrors.AppError {
	return apperrors.NewConflictError("department beds changed concurrently").
		WithCode(apperrors.CodeConcurrentBedUpdate)
}
