package entities

import (
	"encoding/json"
	"testing"
)

func TestDepartment_Status(t *testing.T) {
	cases := []struct {
		available int
		want      DepartmentStatus
	}{
		{0, DepartmentStatusFull},
		{1, DepartmentStatusActive},
		{15, DepartmentStatusActive},
	}
	for _, tc := range cases {
		d := &Department{TotalBeds: 15, AvailableBeds: tc.available}
		if got := d.Status(); got != tc.want {
			t.Errorf("available=%d: expected %s, got %s", tc.available, tc.want, got)
		}
	}
}

func TestDepartment_StatusFullWithZeroTotal(t *testing.T) {
	d := &Department{}
	if d.Status() != DepartmentStatusFull {
		t.Errorf("expected Full for an empty department, got %s", d.Status())
	}
	if d.Utilization() != 0 {
		t.Errorf("expected 0 utilization, got %v", d.Utilization())
	}
}

func TestDepartment_Utilization(t *testing.T) {
	d := &Department{TotalBeds: 20, AvailableBeds: 15}
	if d.OccupiedBeds() != 5 {
		t.Errorf("expected 5 occupied, got %d", d.OccupiedBeds())
	}
	if d.Utilization() != 25 {
		t.Errorf("expected 25%%, got %v", d.Utilization())
	}
}

func TestClampBeds(t *testing.T) {
	if got := ClampBeds(-3, 10); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := ClampBeds(12, 10); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	if got := ClampBeds(4, 10); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
}

func TestDepartment_MarshalJSONIncludesDerivedFields(t *testing.T) {
	d := Department{ID: "d1", Name: "Radiology", TotalBeds: 12, AvailableBeds: 0}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["status"] != "Full" {
		t.Errorf("expected status Full, got %v", out["status"])
	}
	if out["occupied_beds"] != float64(12) {
		t.Errorf("expected 12 occupied beds, got %v", out["occupied_beds"])
	}

	var back Department
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("decode department: %v", err)
	}
	if back.TotalBeds != 12 || back.AvailableBeds != 0 || back.Name != "Radiology" {
		t.Errorf("unexpected department after decode: %+v", back)
	}
}

func TestDefaultDepartments_WithinCapacity(t *testing.T) {
	if len(DefaultDepartments) != 6 {
		t.Fatalf("expected 6 default departments, got %d", len(DefaultDepartments))
	}
	for _, d := range DefaultDepartments {
		if d.AvailableBeds < 0 || d.AvailableBeds > d.TotalBeds {
			t.Errorf("%s: available %d outside [0, %d]", d.Name, d.AvailableBeds, d.TotalBeds)
		}
	}
}
