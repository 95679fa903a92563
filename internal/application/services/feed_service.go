package services

import (
	"context"
	"sync"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/providers"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
)

// Subscription is a live feed started by FeedService.
// Once Done is closed the callback is not invoked again.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Close stops delivery and releases the bus subscription.
// It is safe to call more than once and from inside the callback.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// Done is closed once the feed has stopped
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// FeedService turns hospital events into snapshot callbacks
type FeedService struct {
	bus           providers.EventBus
	patients      *PatientService
	departments   *DepartmentService
	notifications *NotificationService
}

// NewFeedService creates a new feed service
func NewFeedService(bus providers.EventBus, patients *PatientService, departments *DepartmentService, notifications *NotificationService) *FeedService {
	return &FeedService{
		bus:           bus,
		patients:      patients,
		departments:   departments,
		notifications: notifications,
	}
}

// SubscribePatients delivers the filtered patient list now and after every patient change
func (f *FeedService) SubscribePatients(ctx context.Context, session entities.Session, filter PatientListFilter, callback func([]*entities.PatientView)) (*Subscription, error) {
	return subscribe(ctx, f.bus, session, providers.GetPatientsChannel(session.HospitalID),
		func(ctx context.Context) ([]*entities.PatientView, error) {
			return f.patients.List(ctx, session, filter)
		}, callback)
}

// SubscribeDepartments delivers the department list now and after every occupancy change
func (f *FeedService) SubscribeDepartments(ctx context.Context, session entities.Session, callback func([]*entities.Department)) (*Subscription, error) {
	return subscribe(ctx, f.bus, session, providers.GetDepartmentsChannel(session.HospitalID),
		func(ctx context.Context) ([]*entities.Department, error) {
			return f.departments.List(ctx, session)
		}, callback)
}

// SubscribeNotifications delivers the notification list now and after every change
func (f *FeedService) SubscribeNotifications(ctx context.Context, session entities.Session, callback func([]*entities.Notification)) (*Subscription, error) {
	return subscribe(ctx, f.bus, session, providers.GetNotificationsChannel(session.HospitalID),
		func(ctx context.Context) ([]*entities.Notification, error) {
			return f.notifications.List(ctx, session)
		}, callback)
}

// subscribe listens on channel before loading the first snapshot so no change
// between the two is lost. Bursts of events collapse into one reload.
func subscribe[T any](ctx context.Context, bus providers.EventBus, session entities.Session, channel string, load func(context.Context) (T, error), callback func(T)) (*Subscription, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	events, err := bus.Subscribe(subCtx, channel)
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	logger := observability.HospitalLogger(ctx, session.HospitalID)

	deliver := func() {
		snapshot, err := load(subCtx)
		if err != nil {
			if subCtx.Err() == nil {
				logger.Warn().Err(err).Str("channel", channel).Msg("Failed to load feed snapshot")
			}
			return
		}
		if subCtx.Err() != nil {
			return
		}
		callback(snapshot)
	}

	go func() {
		defer close(sub.done)
		defer sub.Close()

		deliver()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
			}

		drain:
			for {
				select {
				case _, ok := <-events:
					if !ok {
						return
					}
				default:
					break drain
				}
			}
			deliver()
		}
	}()

	return sub, nil
}
