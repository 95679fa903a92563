package handlers_test

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/api/middleware"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/application/services"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
)

var testSession = entities.Session{HospitalID: "hosp-1", HospitalName: "General Hospital"}

// withSession stands in for the auth middleware
func withSession(r *http.Request) *http.Request {
	return r.WithContext(middleware.WithSession(r.Context(), testSession))
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Admit(ctx context.Context, session entities.Session, departmentID, patientID string) error {
	args := m.Called(ctx, session, departmentID, patientID)
	return args.Error(0)
}

func (m *MockLedger) Discharge(ctx context.Context, session entities.Session, departmentID, patientID string) error {
	args := m.Called(ctx, session, departmentID, patientID)
	return args.Error(0)
}

func (m *MockLedger) AdjustAvailableBeds(ctx context.Context, session entities.Session, departmentID string, delta int) (*entities.Department, error) {
	args := m.Called(ctx, session, departmentID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Department), args.Error(1)
}

func (m *MockLedger) ResizeDepartment(ctx context.Context, session entities.Session, departmentID string, totalBeds int) (*entities.Department, error) {
	args := m.Called(ctx, session, departmentID, totalBeds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Department), args.Error(1)
}

type MockDepartmentService struct {
	mock.Mock
}

func (m *MockDepartmentService) List(ctx context.Context, session entities.Session) ([]*entities.Department, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Department), args.Error(1)
}

func (m *MockDepartmentService) Get(ctx context.Context, session entities.Session, id string) (*entities.Department, error) {
	args := m.Called(ctx, session, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Department), args.Error(1)
}

func (m *MockDepartmentService) Create(ctx context.Context, session entities.Session, input services.DepartmentInput) (*entities.Department, error) {
	args := m.Called(ctx, session, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Department), args.Error(1)
}

func (m *MockDepartmentService) UpdateDetails(ctx context.Context, session entities.Session, id string, input services.DepartmentInput) (*entities.Department, error) {
	args := m.Called(ctx, session, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Department), args.Error(1)
}

func (m *MockDepartmentService) Delete(ctx context.Context, session entities.Session, id string) error {
	args := m.Called(ctx, session, id)
	return args.Error(0)
}

type MockPatientService struct {
	mock.Mock
}

func (m *MockPatientService) Register(ctx context.Context, session entities.Session, input services.RegisterPatientInput) (*entities.Patient, error) {
	args := m.Called(ctx, session, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Patient), args.Error(1)
}

func (m *MockPatientService) Get(ctx context.Context, session entities.Session, id string) (*entities.PatientView, error) {
	args := m.Called(ctx, session, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PatientView), args.Error(1)
}

func (m *MockPatientService) List(ctx context.Context, session entities.Session, filter services.PatientListFilter) ([]*entities.PatientView, error) {
	args := m.Called(ctx, session, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PatientView), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, session entities.Session) ([]*entities.Notification, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, session entities.Session, id string) error {
	return m.Called(ctx, session, id).Error(0)
}

func (m *MockNotificationService) Delete(ctx context.Context, session entities.Session, id string) error {
	return m.Called(ctx, session, id).Error(0)
}

func (m *MockNotificationService) Clear(ctx context.Context, session entities.Session) (int64, error) {
	args := m.Called(ctx, session)
	return args.Get(0).(int64), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, hospitalID, password string) (*services.LoginResult, error) {
	args := m.Called(ctx, hospitalID, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LoginResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, session entities.Session) error {
	return m.Called(ctx, session).Error(0)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) OccupancyWorkbook(ctx context.Context, session entities.Session) ([]byte, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
