package providers

import (
	"context"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.HospitalEvent) error

	// Subscribe subscribes to events on a channel until ctx is cancelled
	Subscribe(ctx context.Context, channel string) (<-chan *entities.HospitalEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel prefixes
const (
	// EventChannelHospitalPrefix is the prefix for hospital-scoped channels
	EventChannelHospitalPrefix = "hospital:"

	eventChannelPatientsSuffix      = ":patients"
	eventChannelDepartmentsSuffix   = ":departments"
	eventChannelNotificationsSuffix = ":notifications"
)

// GetPatientsChannel returns the channel carrying patient changes of a hospital
func GetPatientsChannel(hospitalID string) string {
	return EventChannelHospitalPrefix + hospitalID + eventChannelPatientsSuffix
}

// GetDepartmentsChannel returns the channel carrying bed and department changes of a hospital
func GetDepartmentsChannel(hospitalID string) string {
	return EventChannelHospitalPrefix + hospitalID + eventChannelDepartmentsSuffix
}

// GetNotificationsChannel returns the channel carrying notification changes of a hospital
func GetNotificationsChannel(hospitalID string) string {
	return EventChannelHospitalPrefix + hospitalID + eventChannelNotificationsSuffix
}
