package entities

import "time"

// Hospital is the tenant every department, patient and notification belongs to
type Hospital struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	LogoURL      *string   `json:"logo_url,omitempty" db:"logo_url"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Session identifies the hospital operator behind a request.
// It is passed explicitly to every core operation.
type Session struct {
	HospitalID   string    `json:"hospital_id"`
	HospitalName string    `json:"hospital_name"`
	LogoURL      string    `json:"logo_url,omitempty"`
	TokenID      string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the session names a hospital
func (s Session) Valid() bool {
	return s.HospitalID != ""
}
