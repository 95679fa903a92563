package entities

import (
	"encoding/json"
	"time"
)

// DepartmentStatus is the occupancy label shown on the dashboard
type DepartmentStatus string

const (
	DepartmentStatusActive DepartmentStatus = "Active"
	DepartmentStatusFull   DepartmentStatus = "Full"
)

// Department represents a ward/department within a hospital and its bed capacity
type Department struct {
	ID              string    `json:"id" db:"id"`
	HospitalID      string    `json:"hospital_id" db:"hospital_id"`
	Name            string    `json:"name" db:"name"`
	MainDoctor      string    `json:"main_doctor" db:"main_doctor"`
	AssistantDoctor string    `json:"assistant_doctor" db:"assistant_doctor"`
	TotalBeds       int       `json:"total_beds" db:"total_beds"`
	AvailableBeds   int       `json:"available_beds" db:"available_beds"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// StatusFor derives the department status from a live bed count
func StatusFor(availableBeds int) DepartmentStatus {
	if availableBeds == 0 {
		return DepartmentStatusFull
	}
	return DepartmentStatusActive
}

// Status returns Full when no bed is free, Active otherwise
func (d *Department) Status() DepartmentStatus {
	return StatusFor(d.AvailableBeds)
}

// OccupiedBeds returns the number of beds in use
func (d *Department) OccupiedBeds() int {
	return d.TotalBeds - d.AvailableBeds
}

// Utilization returns occupied beds as a percentage of total beds, in [0, 100]
func (d *Department) Utilization() float64 {
	if d.TotalBeds <= 0 {
		return 0
	}
	u := float64(d.OccupiedBeds()) / float64(d.TotalBeds) * 100
	if u < 0 {
		return 0
	}
	if u > 100 {
		return 100
	}
	return u
}

// ClampBeds bounds an available bed count to [0, total]
func ClampBeds(available, total int) int {
	if available < 0 {
		return 0
	}
	if available > total {
		return total
	}
	return available
}

// departmentJSON is the wire form; derived fields are filled at encode time
type departmentJSON struct {
	ID              string           `json:"id"`
	HospitalID      string           `json:"hospital_id"`
	Name            string           `json:"name"`
	MainDoctor      string           `json:"main_doctor"`
	AssistantDoctor string           `json:"assistant_doctor"`
	TotalBeds       int              `json:"total_beds"`
	AvailableBeds   int              `json:"available_beds"`
	OccupiedBeds    int              `json:"occupied_beds"`
	Status          DepartmentStatus `json:"status"`
	Utilization     float64          `json:"utilization"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// MarshalJSON includes the derived status, occupancy and utilization
func (d Department) MarshalJSON() ([]byte, error) {
	return json.Marshal(departmentJSON{
		ID:              d.ID,
		HospitalID:      d.HospitalID,
		Name:            d.Name,
		MainDoctor:      d.MainDoctor,
		AssistantDoctor: d.AssistantDoctor,
		TotalBeds:       d.TotalBeds,
		AvailableBeds:   d.AvailableBeds,
		OccupiedBeds:    d.OccupiedBeds(),
		Status:          d.Status(),
		Utilization:     d.Utilization(),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	})
}

// UnmarshalJSON reads the stored fields and ignores any derived ones
func (d *Department) UnmarshalJSON(data []byte) error {
	var raw departmentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = Department{
		ID:              raw.ID,
		HospitalID:      raw.HospitalID,
		Name:            raw.Name,
		MainDoctor:      raw.MainDoctor,
		AssistantDoctor: raw.AssistantDoctor,
		TotalBeds:       raw.TotalBeds,
		AvailableBeds:   raw.AvailableBeds,
		CreatedAt:       raw.CreatedAt,
		UpdatedAt:       raw.UpdatedAt,
	}
	return nil
}

// DefaultDepartment describes a department seeded for a new hospital
type DefaultDepartment struct {
	Name            string
	MainDoctor      string
	AssistantDoctor string
	AvailableBeds   int
	TotalBeds       int
}

// DefaultDepartments is the layout a hospital starts with when it has none
var DefaultDepartments = []DefaultDepartment{
	{Name: "Cardiology", MainDoctor: "Dr. John Smith", AssistantDoctor: "Dr. Sarah Johnson", AvailableBeds: 10, TotalBeds: 15},
	{Name: "Pathology", MainDoctor: "Dr. Michael Brown", AssistantDoctor: "Dr. Emily Davis", AvailableBeds: 15, TotalBeds: 20},
	{Name: "Radiology", MainDoctor: "Dr. Robert Wilson", AssistantDoctor: "Dr. Lisa Anderson", AvailableBeds: 8, TotalBeds: 12},
	{Name: "Neurology", MainDoctor: "Dr. James Miller", AssistantDoctor: "Dr. Emma White", AvailableBeds: 12, TotalBeds: 18},
	{Name: "Orthopedics", MainDoctor: "Dr. William Taylor", AssistantDoctor: "Dr. Olivia Martin", AvailableBeds: 20, TotalBeds: 25},
	{Name: "Pediatrics", MainDoctor: "Dr. David Clark", AssistantDoctor: "Dr. Sophie Turner", AvailableBeds: 15, TotalBeds: 20},
}
