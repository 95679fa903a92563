package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/repositories"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Departments().Create(ctx, &entities.Department{
		ID: "cardio", HospitalID: "h1", Name: "Cardiology", TotalBeds: 15, AvailableBeds: 10,
	}))
	require.NoError(t, s.Patients().Create(ctx, &entities.Patient{
		ID: "p1", HospitalID: "h1", Name: "Asha", DepartmentID: "cardio", Status: entities.PatientStatusUpcoming,
	}))
	return s
}

func TestStore_RunInTxCommitsOnSuccess(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	err := s.RunInTx(ctx, func(tx repositories.OccupancyTx) error {
		if err := tx.SetAvailableBeds(ctx, "h1", "cardio", 10, 9); err != nil {
			return err
		}
		return tx.SetPatientStatus(ctx, "h1", "p1", entities.PatientStatusUpcoming, entities.PatientStatusAdmitted, "cardio", at)
	})
	require.NoError(t, err)

	d, err := s.Departments().GetByID(ctx, "h1", "cardio")
	require.NoError(t, err)
	assert.Equal(t, 9, d.AvailableBeds)

	p, err := s.Patients().GetByID(ctx, "h1", "p1")
	require.NoError(t, err)
	assert.Equal(t, entities.PatientStatusAdmitted, p.Status)
	require.NotNil(t, p.AdmissionAt)
	assert.True(t, at.Equal(*p.AdmissionAt))
}

func TestStore_RunInTxDiscardsOnError(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunInTx(ctx, func(tx repositories.OccupancyTx) error {
		require.NoError(t, tx.SetAvailableBeds(ctx, "h1", "cardio", 10, 9))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	d, err := s.Departments().GetByID(ctx, "h1", "cardio")
	require.NoError(t, err)
	assert.Equal(t, 10, d.AvailableBeds)
}

func TestStore_SetAvailableBedsConflict(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	err := s.RunInTx(ctx, func(tx repositories.OccupancyTx) error {
		return tx.SetAvailableBeds(ctx, "h1", "cardio", 7, 6)
	})
	assert.True(t, apperrors.IsConflict(err))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConcurrentBedUpdate))
}

func TestStore_SetPatientStatusConflict(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	err := s.RunInTx(ctx, func(tx repositories.OccupancyTx) error {
		return tx.SetPatientStatus(ctx, "h1", "p1", entities.PatientStatusAdmitted, entities.PatientStatusDischarged, "cardio", time.Now())
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConcurrentStatusTransition))
}

func TestStore_HospitalScoping(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	_, err := s.Departments().GetByID(ctx, "h2", "cardio")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDepartmentNotFound))

	_, err = s.Patients().GetByID(ctx, "h2", "p1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodePatientNotFound))
}

func TestStore_DeleteDepartmentUnlinksPatients(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	err := s.RunInTx(ctx, func(tx repositories.OccupancyTx) error {
		return tx.DeleteDepartment(ctx, "h1", "cardio")
	})
	require.NoError(t, err)

	_, err = s.Departments().GetByID(ctx, "h1", "cardio")
	assert.True(t, apperrors.IsNotFound(err))

	p, err := s.Patients().GetByID(ctx, "h1", "p1")
	require.NoError(t, err)
	assert.Empty(t, p.DepartmentID)
}

func TestStore_CountAdmittedSeesStagedTransitions(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	err := s.RunInTx(ctx, func(tx repositories.OccupancyTx) error {
		count, err := tx.CountAdmitted(ctx, "h1", "cardio")
		require.NoError(t, err)
		assert.Zero(t, count)

		require.NoError(t, tx.SetPatientStatus(ctx, "h1", "p1", entities.PatientStatusUpcoming, entities.PatientStatusAdmitted, "cardio", time.Now()))
		count, err = tx.CountAdmitted(ctx, "h1", "cardio")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		count, err = tx.CountAdmitted(ctx, "h2", "cardio")
		require.NoError(t, err)
		assert.Zero(t, count)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_Notifications(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.Notifications()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &entities.Notification{ID: "n1", HospitalID: "h1", Title: "a", Timestamp: base}))
	require.NoError(t, repo.Create(ctx, &entities.Notification{ID: "n2", HospitalID: "h1", Title: "b", Timestamp: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &entities.Notification{ID: "n3", HospitalID: "h2", Title: "c", Timestamp: base}))

	list, err := repo.ListByHospital(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)

	require.NoError(t, repo.MarkRead(ctx, "h1", "n1"))
	assert.True(t, apperrors.IsNotFound(repo.MarkRead(ctx, "h1", "n3")))

	removed, err := repo.DeleteAll(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	list, err = repo.ListByHospital(ctx, "h2")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
