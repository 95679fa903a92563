package repositories

import (
	"context"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
)

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, notification *entities.Notification) error

	// ListByHospital returns notifications newest first
	ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Notification, error)

	MarkRead(ctx context.Context, hospitalID, id string) error

	Delete(ctx context.Context, hospitalID, id string) error

	// DeleteAll removes every notification of a hospital and returns how many were removed
	DeleteAll(ctx context.Context, hospitalID string) (int64, error)
}
