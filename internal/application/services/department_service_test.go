package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/adapters/memory"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/application/services"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

func newDepartmentService(store *memory.Store) *services.DepartmentService {
	ledger := services.NewOccupancyLedger(store, nil, nil)
	return services.NewDepartmentService(store.Departments(), ledger, nil)
}

func TestDepartmentService_ListSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newDepartmentService(store)

	departments, err := svc.List(ctx, testSession)
	require.NoError(t, err)
	require.Len(t, departments, len(entities.DefaultDepartments))

	byName := make(map[string]*entities.Department)
	for _, d := range departments {
		byName[d.Name] = d
	}
	cardiology := byName["Cardiology"]
	require.NotNil(t, cardiology)
	assert.Equal(t, 15, cardiology.TotalBeds)
	assert.Equal(t, 10, cardiology.AvailableBeds)
	assert.Equal(t, "Dr. John Smith", cardiology.MainDoctor)
	assert.Equal(t, services.DefaultDepartmentID(testSession.HospitalID, "Cardiology"), cardiology.ID)

	again, err := svc.List(ctx, testSession)
	require.NoError(t, err)
	assert.Len(t, again, len(entities.DefaultDepartments))
}

func TestDepartmentService_ConcurrentSeedingDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newDepartmentService(store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.List(ctx, testSession)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	departments, err := store.Departments().ListByHospital(ctx, testSession.HospitalID)
	require.NoError(t, err)
	assert.Len(t, departments, len(entities.DefaultDepartments))
}

func TestDepartmentService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newDepartmentService(store)

	created, err := svc.Create(ctx, testSession, services.DepartmentInput{
		Name: "Oncology", MainDoctor: "Dr. Ngozi Eze", AssistantDoctor: "Dr. Tunde Bello", TotalBeds: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, created.AvailableBeds)
	assert.Equal(t, entities.DepartmentStatusActive, created.Status())

	updated, err := svc.UpdateDetails(ctx, testSession, created.ID, services.DepartmentInput{
		Name: "Clinical Oncology", MainDoctor: "Dr. Ngozi Eze", AssistantDoctor: "Dr. Amaka Obi", TotalBeds: 99,
	})
	require.NoError(t, err)
	assert.Equal(t, "Clinical Oncology", updated.Name)
	assert.Equal(t, 12, updated.TotalBeds)

	stored, err := svc.Get(ctx, testSession, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Amaka Obi", stored.AssistantDoctor)
	assert.Equal(t, 12, stored.TotalBeds)
}

func TestDepartmentService_CreateValidation(t *testing.T) {
	svc := newDepartmentService(memory.NewStore())

	inputs := []services.DepartmentInput{
		{Name: "", MainDoctor: "a", AssistantDoctor: "b", TotalBeds: 3},
		{Name: "ENT", MainDoctor: " ", AssistantDoctor: "b", TotalBeds: 3},
		{Name: "ENT", MainDoctor: "a", AssistantDoctor: "", TotalBeds: 3},
		{Name: "ENT", MainDoctor: "a", AssistantDoctor: "b", TotalBeds: 0},
	}
	for _, in := range inputs {
		_, err := svc.Create(context.Background(), testSession, in)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "input %+v", in)
	}
}

func TestDepartmentService_DeleteRejectsOccupied(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newDepartmentService(store)

	created, err := svc.Create(ctx, testSession, services.DepartmentInput{
		Name: "ENT", MainDoctor: "Dr. A", AssistantDoctor: "Dr. B", TotalBeds: 2,
	})
	require.NoError(t, err)

	ledger := services.NewOccupancyLedger(store, nil, nil)
	_, err = ledger.AdjustAvailableBeds(ctx, testSession, created.ID, -1)
	require.NoError(t, err)

	err = svc.Delete(ctx, testSession, created.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDepartmentOccupied))

	_, err = ledger.AdjustAvailableBeds(ctx, testSession, created.ID, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, testSession, created.ID))

	_, err = svc.Get(ctx, testSession, created.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
