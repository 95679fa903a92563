package handlers

import (
	"context"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/application/services"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
)

// OccupancyLedger is the ledger surface the HTTP layer calls
type OccupancyLedger interface {
	Admit(ctx context.Context, session entities.Session, departmentID, patientID string) error
	Discharge(ctx context.Context, session entities.Session, departmentID, patientID string) error
	AdjustAvailableBeds(ctx context.Context, session entities.Session, departmentID string, delta int) (*entities.Department, error)
	ResizeDepartment(ctx context.Context, session entities.Session, departmentID string, totalBeds int) (*entities.Department, error)
}

// DepartmentService manages department records
type DepartmentService interface {
	List(ctx context.Context, session entities.Session) ([]*entities.Department, error)
	Get(ctx context.Context, session entities.Session, id string) (*entities.Department, error)
	Create(ctx context.Context, session entities.Session, input services.DepartmentInput) (*entities.Department, error)
	UpdateDetails(ctx context.Context, session entities.Session, id string, input services.DepartmentInput) (*entities.Department, error)
	Delete(ctx context.Context, session entities.Session, id string) error
}

// PatientService manages patient records
type PatientService interface {
	Register(ctx context.Context, session entities.Session, input services.RegisterPatientInput) (*entities.Patient, error)
	Get(ctx context.Context, session entities.Session, id string) (*entities.PatientView, error)
	List(ctx context.Context, session entities.Session, filter services.PatientListFilter) ([]*entities.PatientView, error)
}

// NotificationService manages the hospital notification list
type NotificationService interface {
	List(ctx context.Context, session entities.Session) ([]*entities.Notification, error)
	MarkRead(ctx context.Context, session entities.Session, id string) error
	Delete(ctx context.Context, session entities.Session, id string) error
	Clear(ctx context.Context, session entities.Session) (int64, error)
}

// AuthService issues and revokes session tokens
type AuthService interface {
	Login(ctx context.Context, hospitalID, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, session entities.Session) error
}

// FeedService starts live snapshot feeds
type FeedService interface {
	SubscribePatients(ctx context.Context, session entities.Session, filter services.PatientListFilter, callback func([]*entities.PatientView)) (*services.Subscription, error)
	SubscribeDepartments(ctx context.Context, session entities.Session, callback func([]*entities.Department)) (*services.Subscription, error)
	SubscribeNotifications(ctx context.Context, session entities.Session, callback func([]*entities.Notification)) (*services.Subscription, error)
}

// ReportService renders exports
type ReportService interface {
	OccupancyWorkbook(ctx context.Context, session entities.Session) ([]byte, error)
}
