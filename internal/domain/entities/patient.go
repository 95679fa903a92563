package entities

import (
	"time"
)

// PatientStatus represents where a patient is in the admission lifecycle
type PatientStatus string

const (
	PatientStatusUpcoming   PatientStatus = "Upcoming"
	PatientStatusAdmitted   PatientStatus = "Admitted"
	PatientStatusDischarged PatientStatus = "Discharged"
)

// Valid reports whether s is a known lifecycle state
func (s PatientStatus) Valid() bool {
	switch s {
	case PatientStatusUpcoming, PatientStatusAdmitted, PatientStatusDischarged:
		return true
	}
	return false
}

// Next returns the single state that may follow s
func (s PatientStatus) Next() (PatientStatus, bool) {
	switch s {
	case PatientStatusUpcoming:
		return PatientStatusAdmitted, true
	case PatientStatusAdmitted:
		return PatientStatusDischarged, true
	}
	return "", false
}

// CanTransitionTo reports whether moving from s to next is a one-step forward move
func (s PatientStatus) CanTransitionTo(next PatientStatus) bool {
	n, ok := s.Next()
	return ok && n == next
}

// Patient represents a patient registered with a hospital
type Patient struct {
	ID            string        `json:"id" db:"id"`
	HospitalID    string        `json:"hospital_id" db:"hospital_id"`
	Name          string        `json:"name" db:"name"`
	Age           int           `json:"age" db:"age"`
	DepartmentID  string        `json:"department_id" db:"department_id"`
	Status        PatientStatus `json:"status" db:"status"`
	AppointmentAt *time.Time    `json:"appointment_at,omitempty" db:"appointment_at"`
	AdmissionAt   *time.Time    `json:"admission_at,omitempty" db:"admission_at"`
	DischargeAt   *time.Time    `json:"discharge_at,omitempty" db:"discharge_at"`
	ReportURL     *string       `json:"report_url,omitempty" db:"report_url"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// RelevantTime returns the timestamp that describes the patient's current state:
// appointment for Upcoming, admission for Admitted, discharge for Discharged
func (p *Patient) RelevantTime() *time.Time {
	switch p.Status {
	case PatientStatusUpcoming:
		return p.AppointmentAt
	case PatientStatusAdmitted:
		return p.AdmissionAt
	case PatientStatusDischarged:
		return p.DischargeAt
	}
	return nil
}

// PatientView is a patient together with its resolved department name
type PatientView struct {
	*Patient
	DepartmentName string `json:"department_name"`
}
