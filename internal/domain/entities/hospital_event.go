package entities

import (
	"time"

	"github.com/google/uuid"
)

// HospitalEventType represents the type of hospital change event
type HospitalEventType string

const (
	HospitalEventTypePatientUpdate      HospitalEventType = "patient_update"
	HospitalEventTypeDepartmentUpdate   HospitalEventType = "department_update"
	HospitalEventTypeNotificationUpdate HospitalEventType = "notification_update"
)

// HospitalEvent represents a real-time change inside one hospital
type HospitalEvent struct {
	ID            string                 `json:"id"`
	HospitalID    string                 `json:"hospital_id"`
	EventType     HospitalEventType      `json:"event_type"`
	Timestamp     time.Time              `json:"timestamp"`
	ChangedFields map[string]interface{} `json:"changed_fields"`
}

// NewHospitalEvent creates a new hospital event
func NewHospitalEvent(hospitalID string, eventType HospitalEventType, changedFields map[string]interface{}) *HospitalEvent {
	return &HospitalEvent{
		ID:            uuid.NewString(),
		HospitalID:    hospitalID,
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		ChangedFields: changedFields,
	}
}
