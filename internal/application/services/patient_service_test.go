package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/adapters/memory"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/application/services"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

func at(value string) *time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return &t
}

func statusPtr(s entities.PatientStatus) *entities.PatientStatus {
	return &s
}

func ids(views []*entities.PatientView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func samplePatients() []*entities.Patient {
	return []*entities.Patient{
		{ID: "anna", Name: "Anna Lee", DepartmentID: "cardio", Status: entities.PatientStatusUpcoming, AppointmentAt: at("2024-03-10T09:30:00Z")},
		{ID: "bob", Name: "Bob Stone", DepartmentID: "neuro", Status: entities.PatientStatusAdmitted, AdmissionAt: at("2024-03-10T14:00:00Z")},
		{ID: "cara", Name: "Cara Diaz", DepartmentID: "cardio", Status: entities.PatientStatusDischarged, DischargeAt: at("2024-03-11T08:15:00Z")},
		{ID: "dan", Name: "Dan Okafor", DepartmentID: "neuro", Status: entities.PatientStatusAdmitted},
	}
}

var sampleDepartmentNames = map[string]string{"cardio": "Cardiology", "neuro": "Neurology"}

func TestFilterPatients(t *testing.T) {
	tests := []struct {
		name   string
		filter services.PatientListFilter
		want   []string
	}{
		{
			name:   "no filter orders newest first with missing times last",
			filter: services.PatientListFilter{},
			want:   []string{"cara", "bob", "anna", "dan"},
		},
		{
			name:   "status",
			filter: services.PatientListFilter{Status: statusPtr(entities.PatientStatusAdmitted)},
			want:   []string{"bob", "dan"},
		},
		{
			name:   "search by patient name ignores case",
			filter: services.PatientListFilter{Search: "ANNA"},
			want:   []string{"anna"},
		},
		{
			name:   "search by department name",
			filter: services.PatientListFilter{Search: "neuro"},
			want:   []string{"bob", "dan"},
		},
		{
			name: "date all day",
			filter: services.PatientListFilter{Date: &services.DateFilter{
				Day:    *at("2024-03-10T00:00:00Z"),
				AllDay: true,
			}},
			want: []string{"bob", "anna"},
		},
		{
			name: "date with time",
			filter: services.PatientListFilter{Date: &services.DateFilter{
				Day:  *at("2024-03-10T00:00:00Z"),
				Time: &services.ClockTime{Hour: 9, Minute: 30},
			}},
			want: []string{"anna"},
		},
		{
			name: "date and status combined",
			filter: services.PatientListFilter{
				Status: statusPtr(entities.PatientStatusAdmitted),
				Date:   &services.DateFilter{Day: *at("2024-03-10T00:00:00Z"), AllDay: true},
			},
			want: []string{"bob"},
		},
		{
			name: "missing timestamp never matches a date",
			filter: services.PatientListFilter{
				Search: "dan",
				Date:   &services.DateFilter{Day: *at("2024-03-10T00:00:00Z"), AllDay: true},
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.FilterPatients(samplePatients(), sampleDepartmentNames, tt.filter, time.UTC)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterPatients_UsesHospitalTimeZone(t *testing.T) {
	lagos := time.FixedZone("WAT", 60*60)

	// 23:30 UTC on the 10th is 00:30 on the 11th in Lagos
	patients := []*entities.Patient{
		{ID: "late", Name: "Late Arrival", Status: entities.PatientStatusUpcoming, AppointmentAt: at("2024-03-10T23:30:00Z")},
	}
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, lagos)

	got := services.FilterPatients(patients, nil, services.PatientListFilter{
		Date: &services.DateFilter{Day: day, Time: &services.ClockTime{Hour: 0, Minute: 30}},
	}, lagos)
	assert.Equal(t, []string{"late"}, ids(got))

	got = services.FilterPatients(patients, nil, services.PatientListFilter{
		Date: &services.DateFilter{Day: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), AllDay: true},
	}, time.UTC)
	assert.Empty(t, got)
}

func TestFilterPatients_ResolvesDepartmentNames(t *testing.T) {
	got := services.FilterPatients(samplePatients(), sampleDepartmentNames, services.PatientListFilter{Search: "anna"}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Cardiology", got[0].DepartmentName)
}

func TestPatientService_Register(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Departments().Create(ctx, &entities.Department{
		ID: "cardio", HospitalID: testSession.HospitalID, Name: "Cardiology", TotalBeds: 5, AvailableBeds: 5,
	}))
	svc := services.NewPatientService(store.Patients(), store.Departments(), nil, time.UTC)

	patient, err := svc.Register(ctx, testSession, services.RegisterPatientInput{Name: "  Ada Obi ", Age: 34, DepartmentID: "cardio"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", patient.Name)
	assert.Equal(t, entities.PatientStatusUpcoming, patient.Status)
	assert.NotNil(t, patient.AppointmentAt)
	assert.Nil(t, patient.AdmissionAt)

	view, err := svc.Get(ctx, testSession, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", view.DepartmentName)

	_, err = svc.Register(ctx, testSession, services.RegisterPatientInput{Name: "Ghost", Age: 20, DepartmentID: "missing"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDepartmentNotFound))

	_, err = svc.Register(ctx, testSession, services.RegisterPatientInput{Name: " ", Age: 20})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = svc.Register(ctx, testSession, services.RegisterPatientInput{Name: "Old", Age: 200})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestPatientService_ListScopesToHospital(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := services.NewPatientService(store.Patients(), store.Departments(), nil, time.UTC)

	_, err := svc.Register(ctx, testSession, services.RegisterPatientInput{Name: "Mine", Age: 30})
	require.NoError(t, err)
	_, err = svc.Register(ctx, entities.Session{HospitalID: "hosp-2"}, services.RegisterPatientInput{Name: "Theirs", Age: 30})
	require.NoError(t, err)

	list, err := svc.List(ctx, testSession, services.PatientListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mine", list[0].Name)
}
