package entities

import "time"

// Notification is a human-readable event shown to hospital staff
type Notification struct {
	ID         string    `json:"id" db:"id"`
	HospitalID string    `json:"hospital_id" db:"hospital_id"`
	Title      string    `json:"title" db:"title"`
	Message    string    `json:"message" db:"message"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
	Read       bool      `json:"read" db:"read"`
}

// Notification titles emitted by the occupancy ledger
const (
	NotificationTitleAdmitted   = "Patient Admitted"
	NotificationTitleDischarged = "Patient Discharged"
)
