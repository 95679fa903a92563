package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/adapters/events"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/adapters/memory"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/application/services"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

type feedFixture struct {
	store         *memory.Store
	ledger        *services.OccupancyLedger
	patients      *services.PatientService
	notifications *services.NotificationService
	feed          *services.FeedService
}

func newFeedFixture(t *testing.T) *feedFixture {
	t.Helper()
	store := memory.NewStore()
	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { bus.Close() })

	notifications := services.NewNotificationService(store.Notifications(), bus)
	ledger := services.NewOccupancyLedger(store, notifications, bus)
	patients := services.NewPatientService(store.Patients(), store.Departments(), bus, time.UTC)
	departments := services.NewDepartmentService(store.Departments(), ledger, bus)

	return &feedFixture{
		store:         store,
		ledger:        ledger,
		patients:      patients,
		notifications: notifications,
		feed:          services.NewFeedService(bus, patients, departments, notifications),
	}
}

func nextSnapshot[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		var zero T
		return zero
	}
}

func TestFeedService_PatientsSnapshotThenUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFeedFixture(t)

	snapshots := make(chan []*entities.PatientView, 16)
	upcoming := entities.PatientStatusUpcoming
	sub, err := f.feed.SubscribePatients(ctx, testSession, services.PatientListFilter{Status: &upcoming}, func(list []*entities.PatientView) {
		snapshots <- list
	})
	require.NoError(t, err)
	defer sub.Close()

	assert.Empty(t, nextSnapshot(t, snapshots))

	_, err = f.patients.Register(ctx, testSession, services.RegisterPatientInput{Name: "Ada", Age: 30})
	require.NoError(t, err)

	var list []*entities.PatientView
	require.Eventually(t, func() bool {
		select {
		case list = <-snapshots:
		default:
		}
		return len(list) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Ada", list[0].Name)
}

func TestFeedService_NotificationsFollowAdmissions(t *testing.T) {
	ctx := context.Background()
	f := newFeedFixture(t)
	require.NoError(t, f.store.Departments().Create(ctx, &entities.Department{
		ID: "d1", HospitalID: testSession.HospitalID, Name: "Cardiology", TotalBeds: 2, AvailableBeds: 2,
	}))
	patient, err := f.patients.Register(ctx, testSession, services.RegisterPatientInput{Name: "Ada", Age: 30, DepartmentID: "d1"})
	require.NoError(t, err)

	snapshots := make(chan []*entities.Notification, 16)
	sub, err := f.feed.SubscribeNotifications(ctx, testSession, func(list []*entities.Notification) {
		snapshots <- list
	})
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, nextSnapshot(t, snapshots))

	require.NoError(t, f.ledger.Admit(ctx, testSession, "d1", patient.ID))

	var list []*entities.Notification
	require.Eventually(t, func() bool {
		select {
		case list = <-snapshots:
		default:
		}
		return len(list) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, entities.NotificationTitleAdmitted, list[0].Title)
}

func TestFeedService_CloseStopsDelivery(t *testing.T) {
	ctx := context.Background()
	f := newFeedFixture(t)

	snapshots := make(chan []*entities.Department, 16)
	sub, err := f.feed.SubscribeDepartments(ctx, testSession, func(list []*entities.Department) {
		snapshots <- list
	})
	require.NoError(t, err)
	assert.Len(t, nextSnapshot(t, snapshots), len(entities.DefaultDepartments))

	sub.Close()
	sub.Close()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop")
	}

	_, err = f.ledger.AdjustAvailableBeds(ctx, testSession, services.DefaultDepartmentID(testSession.HospitalID, "Cardiology"), -1)
	require.NoError(t, err)

	select {
	case <-snapshots:
		t.Fatal("snapshot delivered after Close")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFeedService_RequiresSession(t *testing.T) {
	f := newFeedFixture(t)
	_, err := f.feed.SubscribeNotifications(context.Background(), entities.Session{}, func([]*entities.Notification) {})
	assert.True(t, apperrors.IsUnauthorized(err))
}
