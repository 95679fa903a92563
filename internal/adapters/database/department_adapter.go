package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/repositories"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/clients/postgres"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

const departmentsTable = "departments"

var departmentColumns = []interface{}{
	"id", "hospital_id", "name", "main_doctor", "assistant_doctor",
	"total_beds", "available_beds", "created_at", "updated_at",
}

// DepartmentAdapter implements the DepartmentRepository interface
type DepartmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDepartmentAdapter creates a new department adapter
func NewDepartmentAdapter(client *postgres.Client) repositories.DepartmentRepository {
	return &DepartmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new department
func (a *DepartmentAdapter) Create(ctx context.Context, department *entities.Department) error {
	record := goqu.Record{
		"id":               department.ID,
		"hospital_id":      department.HospitalID,
		"name":             department.Name,
		"main_doctor":      department.MainDoctor,
		"assistant_doctor": department.AssistantDoctor,
		"total_beds":       department.TotalBeds,
		"available_beds":   department.AvailableBeds,
		"created_at":       department.CreatedAt,
		"updated_at":       department.UpdatedAt,
	}

	query, args, err := a.db.Insert(departmentsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create department", err)
	}
	return nil
}

// GetByID retrieves a department of a hospital by ID
func (a *DepartmentAdapter) GetByID(ctx context.Context, hospitalID, id string) (*entities.Department, error) {
	query, args, err := a.db.Select(departmentColumns...).
		From(departmentsTable).
		Where(goqu.Ex{"id": id, "hospital_id": hospitalID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return scanDepartment(a.client.DB().QueryRowContext(ctx, query, args...), id)
}

// ListByHospital retrieves all departments of a hospital ordered by name
func (a *DepartmentAdapter) ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Department, error) {
	query, args, err := a.db.Select(departmentColumns...).
		From(departmentsTable).
		Where(goqu.Ex{"hospital_id": hospitalID}).
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list departments", err)
	}
	defer rows.Close()

	departments := make([]*entities.Department, 0)
	for rows.Next() {
		department, err := scanDepartment(rows, "")
		if err != nil {
			return nil, err
		}
		departments = append(departments, department)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate departments", err)
	}

	return departments, nil
}

// UpdateDetails updates name and doctors of a department
func (a *DepartmentAdapter) UpdateDetails(ctx context.Context, department *entities.Department) error {
	query, args, err := a.db.Update(departmentsTable).
		Set(goqu.Record{
			"name":             department.Name,
			"main_doctor":      department.MainDoctor,
			"assistant_doctor": department.AssistantDoctor,
			"updated_at":       department.UpdatedAt,
		}).
		Where(goqu.Ex{"id": department.ID, "hospital_id": department.HospitalID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update department", err)
	}
	return requireOneRow(result, departmentNotFound(department.ID))
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDepartment(row rowScanner, id string) (*entities.Department, error) {
	department := &entities.Department{}
	err := row.Scan(
		&department.ID,
		&department.HospitalID,
		&department.Name,
		&department.MainDoctor,
		&department.AssistantDoctor,
		&department.TotalBeds,
		&department.AvailableBeds,
		&department.CreatedAt,
		&department.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, departmentNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan department", err)
	}
	return department, nil
}

func departmentNotFound(id string) *apperrors.AppError {
	return apperrors.NewNotFoundError(fmt.Sprintf("department with id %s not found", id)).
		WithCode(apperrors.CodeDepartmentNotFound)
}

func requireOneRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to read affected rows", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
