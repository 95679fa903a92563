package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/providers"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/repositories"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

// NotificationService stores hospital notifications and announces changes on the event bus
type NotificationService struct {
	repo repositories.NotificationRepository
	bus  providers.EventBus
	now  func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo repositories.NotificationRepository, bus providers.EventBus) *NotificationService {
	return &NotificationService{
		repo: repo,
		bus:  bus,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

var _ providers.NotificationEmitter = (*NotificationService)(nil)

// Emit records an unread notification for the hospital
func (s *NotificationService) Emit(ctx context.Context, hospitalID, title, message string) error {
	if strings.TrimSpace(title) == "" {
		return apperrors.NewValidationError("notification title is required")
	}

	notification := &entities.Notification{
		ID:         uuid.NewString(),
		HospitalID: hospitalID,
		Title:      title,
		Message:    message,
		Timestamp:  s.now(),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	s.announce(ctx, hospitalID, map[string]interface{}{"notification_id": notification.ID, "created": true})
	return nil
}

// List returns the hospital's notifications, newest first
func (s *NotificationService) List(ctx context.Context, session entities.Session) ([]*entities.Notification, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	return s.repo.ListByHospital(ctx, session.HospitalID)
}

// MarkRead marks one notification as read
func (s *NotificationService) MarkRead(ctx context.Context, session entities.Session, id string) error {
	if err := requireSession(session); err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, session.HospitalID, id); err != nil {
		return err
	}
	s.announce(ctx, session.HospitalID, map[string]interface{}{"notification_id": id, "read": true})
	return nil
}

// Delete removes one notification
func (s *NotificationService) Delete(ctx context.Context, session entities.Session, id string) error {
	if err := requireSession(session); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, session.HospitalID, id); err != nil {
		return err
	}
	s.announce(ctx, session.HospitalID, map[string]interface{}{"notification_id": id, "deleted": true})
	return nil
}

// Clear removes every notification of the hospital and returns how many were removed
func (s *NotificationService) Clear(ctx context.Context, session entities.Session) (int64, error) {
	if err := requireSession(session); err != nil {
		return 0, err
	}
	removed, err := s.repo.DeleteAll(ctx, session.HospitalID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.announce(ctx, session.HospitalID, map[string]interface{}{"cleared": removed})
	}
	return removed, nil
}

func (s *NotificationService) announce(ctx context.Context, hospitalID string, fields map[string]interface{}) {
	if s.bus == nil {
		return
	}
	event := entities.NewHospitalEvent(hospitalID, entities.HospitalEventTypeNotificationUpdate, fields)
	if err := s.bus.Publish(ctx, providers.GetNotificationsChannel(hospitalID), event); err != nil {
		observability.HospitalLogger(ctx, hospitalID).Warn().Err(err).Msg("Failed to publish notification event")
	}
}
