package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/repositories"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/clients/postgres"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

const notificationsTable = "notifications"

// NotificationAdapter implements the NotificationRepository interface
type NotificationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewNotificationAdapter creates a new notification adapter
func NewNotificationAdapter(client *postgres.Client) repositories.NotificationRepository {
	return &NotificationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create stores a notification
func (a *NotificationAdapter) Create(ctx context.Context, notification *entities.Notification) error {
	query, args, err := a.db.Insert(notificationsTable).Rows(goqu.Record{
		"id":          notification.ID,
		"hospital_id": notification.HospitalID,
		"title":       notification.Title,
		"message":     notification.Message,
		"timestamp":   notification.Timestamp,
		"read":        notification.Read,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create notification", err)
	}
	return nil
}

// ListByHospital returns notifications newest first
func (a *NotificationAdapter) ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Notification, error) {
	query, args, err := a.db.Select("id", "hospital_id", "title", "message", "timestamp", "read").
		From(notificationsTable).
		Where(goqu.Ex{"hospital_id": hospitalID}).
		Order(goqu.I("timestamp").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list notifications", err)
	}
	defer rows.Close()

	notifications := make([]*entities.Notification, 0)
	for rows.Next() {
		n := &entities.Notification{}
		if err := rows.Scan(&n.ID, &n.HospitalID, &n.Title, &n.Message, &n.Timestamp, &n.Read); err != nil {
			return nil, apperrors.NewInternalError("failed to scan notification", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate notifications", err)
	}

	return notifications, nil
}

// MarkRead flags a notification as read
func (a *NotificationAdapter) MarkRead(ctx context.Context, hospitalID, id string) error {
	query, args, err := a.db.Update(notificationsTable).
		Set(goqu.Record{"read": true}).
		Where(goqu.Ex{"id": id, "hospital_id": hospitalID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to mark notification read", err)
	}
	return requireOneRow(result, notificationNotFound(id))
}

// Delete removes one notification
func (a *NotificationAdapter) Delete(ctx context.Context, hospitalID, id string) error {
	query, args, err := a.db.Delete(notificationsTable).
		Where(goqu.Ex{"id": id, "hospital_id": hospitalID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete notification", err)
	}
	return requireOneRow(result, notificationNotFound(id))
}

// DeleteAll removes every notification of a hospital
func (a *NotificationAdapter) DeleteAll(ctx context.Context, hospitalID string) (int64, error) {
	query, args, err := a.db.Delete(notificationsTable).
		Where(goqu.Ex{"hospital_id": hospitalID}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to clear notifications", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to read affected rows", err)
	}
	return removed, nil
}

func notificationNotFound(id string) *apperrors.AppError {
	return apperrors.NewNotFoundError(fmt.Sprintf("notification with id %s not found", id)).
		WithCode(apperrors.CodeNotificationNotFound)
}
