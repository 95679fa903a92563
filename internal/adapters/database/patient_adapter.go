package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/repositories"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/clients/postgres"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

const patientsTable = "patients"

var patientColumns = []interface{}{
	"id", "hospital_id", "name", "age", "department_id", "status",
	"appointment_at", "admission_at", "discharge_at", "report_url",
	"created_at", "updated_at",
}

// PatientAdapter implements the PatientRepository interface
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new patient
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	record := goqu.Record{
		"id":             patient.ID,
		"hospital_id":    patient.HospitalID,
		"name":           patient.Name,
		"age":            patient.Age,
		"department_id":  nullString(patient.DepartmentID),
		"status":         string(patient.Status),
		"appointment_at": nullTime(patient.AppointmentAt),
		"admission_at":   nullTime(patient.AdmissionAt),
		"discharge_at":   nullTime(patient.DischargeAt),
		"report_url":     nullStringPtr(patient.ReportURL),
		"created_at":     patient.CreatedAt,
		"updated_at":     patient.UpdatedAt,
	}

	query, args, err := a.db.Insert(patientsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create patient", err)
	}
	return nil
}

// GetByID retrieves a patient of a hospital by ID
func (a *PatientAdapter) GetByID(ctx context.Context, hospitalID, id string) (*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).
		From(patientsTable).
		Where(goqu.Ex{"id": id, "hospital_id": hospitalID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return scanPatient(a.client.DB().QueryRowContext(ctx, query, args...), id)
}

// ListByHospital retrieves the patients of a hospital, newest registrations first
func (a *PatientAdapter) ListByHospital(ctx context.Context, hospitalID string, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	where := goqu.Ex{"hospital_id": hospitalID}
	if filter.Status != nil {
		where["status"] = string(*filter.Status)
	}

	query, args, err := a.db.Select(patientColumns...).
		From(patientsTable).
		Where(where).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list patients", err)
	}
	defer rows.Close()

	patients := make([]*entities.Patient, 0)
	for rows.Next() {
		patient, err := scanPatient(rows, "")
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate patients", err)
	}

	return patients, nil
}

func scanPatient(row rowScanner, id string) (*entities.Patient, error) {
	patient := &entities.Patient{}
	var status string
	var departmentID, reportURL sql.NullString
	var appointmentAt, admissionAt, dischargeAt sql.NullTime

	err := row.Scan(
		&patient.ID,
		&patient.HospitalID,
		&patient.Name,
		&patient.Age,
		&departmentID,
		&status,
		&appointmentAt,
		&admissionAt,
		&dischargeAt,
		&reportURL,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, patientNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan patient", err)
	}

	patient.Status = entities.PatientStatus(status)
	patient.DepartmentID = departmentID.String
	patient.AppointmentAt = timePtr(appointmentAt)
	patient.AdmissionAt = timePtr(admissionAt)
	patient.DischargeAt = timePtr(dischargeAt)
	if reportURL.Valid {
		value := reportURL.String
		patient.ReportURL = &value
	}

	return patient, nil
}

func patientNotFound(id string) *apperrors.AppError {
	return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id)).
		WithCode(apperrors.CodePatientNotFound)
}
