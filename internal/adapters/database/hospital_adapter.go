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

// HospitalAdapter implements the HospitalRepository interface
type HospitalAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewHospitalAdapter creates a new hospital adapter
func NewHospitalAdapter(client *postgres.Client) repositories.HospitalRepository {
	return &HospitalAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new hospital account
func (a *HospitalAdapter) Create(ctx context.Context, hospital *entities.Hospital) error {
	query, args, err := a.db.Insert("hospitals").Rows(goqu.Record{
		"id":            hospital.ID,
		"name":          hospital.Name,
		"logo_url":      nullStringPtr(hospital.LogoURL),
		"password_hash": hospital.PasswordHash,
		"created_at":    hospital.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create hospital", err)
	}
	return nil
}

// GetByID retrieves a hospital by ID
func (a *HospitalAdapter) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	query, args, err := a.db.Select("id", "name", "logo_url", "password_hash", "created_at").
		From("hospitals").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	hospital := &entities.Hospital{}
	var logoURL sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&hospital.ID,
		&hospital.Name,
		&logoURL,
		&hospital.PasswordHash,
		&hospital.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("hospital with id %s not found", id)).
			WithCode(apperrors.CodeHospitalNotFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get hospital", err)
	}

	if logoURL.Valid {
		value := logoURL.String
		hospital.LogoURL = &value
	}
	return hospital, nil
}
