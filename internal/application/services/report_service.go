package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
)

const (
	departmentsSheet = "Departments"
	patientsSheet    = "Patients"
	reportTimeLayout = "2006-01-02 15:04"
)

var (
	departmentHeaders = []interface{}{"Department", "Main Doctor", "Assistant Doctor", "Total Beds", "Available Beds", "Occupied Beds", "Utilization %", "Status"}
	patientHeaders    = []interface{}{"Patient", "Age", "Department", "Status", "Appointment", "Admission", "Discharge"}
)

// ReportService exports the hospital's occupancy as a spreadsheet
type ReportService struct {
	departments *DepartmentService
	patients    *PatientService
	location    *time.Location
}

// NewReportService creates a new report service
func NewReportService(departments *DepartmentService, patients *PatientService, location *time.Location) *ReportService {
	if location == nil {
		location = time.UTC
	}
	return &ReportService{departments: departments, patients: patients, location: location}
}

// OccupancyWorkbook returns an xlsx workbook with one sheet of departments and one of patients
func (s *ReportService) OccupancyWorkbook(ctx context.Context, session entities.Session) ([]byte, error) {
	departments, err := s.departments.List(ctx, session)
	if err != nil {
		return nil, err
	}
	patients, err := s.patients.List(ctx, session, PatientListFilter{})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", departmentsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(patientsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	rows := make([][]interface{}, 0, len(departments))
	for _, d := range departments {
		rows = append(rows, []interface{}{
			d.Name, d.MainDoctor, d.AssistantDoctor,
			d.TotalBeds, d.AvailableBeds, d.OccupiedBeds(), d.Utilization(), string(d.Status()),
		})
	}
	if err := writeSheet(f, departmentsSheet, departmentHeaders, rows, headerStyle); err != nil {
		return nil, err
	}

	rows = make([][]interface{}, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, []interface{}{
			p.Name, p.Age, p.DepartmentName, string(p.Status),
			s.formatTime(p.AppointmentAt), s.formatTime(p.AdmissionAt), s.formatTime(p.DischargeAt),
		})
	}
	if err := writeSheet(f, patientsSheet, patientHeaders, rows, headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []interface{}, rows [][]interface{}, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (s *ReportService) formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(s.location).Format(reportTimeLayout)
}
