package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/providers"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/repositories"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/retry"
)

// DepartmentCache is invalidated after every committed bed change
type DepartmentCache interface {
	Invalidate(ctx context.Context, hospitalID string, departmentIDs ...string)
}

// OccupancyLedger owns department bed counts and the patient admission lifecycle.
// Every change runs as one transaction under a per-department lock; conflicting
// concurrent writers from other processes are retried a bounded number of times.
type OccupancyLedger struct {
	store    repositories.OccupancyStore
	notifier providers.NotificationEmitter
	bus      providers.EventBus
	cache    DepartmentCache
	metrics  *observability.Metrics
	locks    *departmentLocks
	retryCfg retry.Config
	now      func() time.Time
}

// LedgerOption configures an OccupancyLedger
type LedgerOption func(*OccupancyLedger)

// WithDepartmentCache sets the cache invalidated after commits
func WithDepartmentCache(cache DepartmentCache) LedgerOption {
	return func(l *OccupancyLedger) { l.cache = cache }
}

// WithLedgerMetrics sets the metrics the ledger reports to
func WithLedgerMetrics(metrics *observability.Metrics) LedgerOption {
	return func(l *OccupancyLedger) { l.metrics = metrics }
}

// WithConflictRetries bounds how often a conflicting transaction is retried
func WithConflictRetries(attempts int) LedgerOption {
	return func(l *OccupancyLedger) { l.retryCfg = retry.ConflictConfig(attempts) }
}

// WithLedgerClock overrides the time source used for admission and discharge stamps
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *OccupancyLedger) { l.now = now }
}

// NewOccupancyLedger creates a new occupancy ledger.
// notifier and bus may be nil.
func NewOccupancyLedger(store repositories.OccupancyStore, notifier providers.NotificationEmitter, bus providers.EventBus, opts ...LedgerOption) *OccupancyLedger {
	l := &OccupancyLedger{
		store:    store,
		notifier: notifier,
		bus:      bus,
		locks:    newDepartmentLocks(),
		retryCfg: retry.ConflictConfig(5),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Status derives the occupancy status of a department
func (l *OccupancyLedger) Status(department *entities.Department) entities.DepartmentStatus {
	return department.Status()
}

// Admit takes one bed in the department and moves the patient from Upcoming to Admitted.
// A patient registered without a department is bound to this one.
func (l *OccupancyLedger) Admit(ctx context.Context, session entities.Session, departmentID, patientID string) error {
	ctx, span := observability.StartSpan(ctx, "OccupancyLedger.Admit")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("hospital.id", session.HospitalID),
		attribute.String("department.id", departmentID),
		attribute.String("patient.id", patientID),
	)

	if err := requireSession(session); err != nil {
		return err
	}

	unlock := l.locks.lock(session.HospitalID, departmentID)
	defer unlock()

	var department *entities.Department
	var patient *entities.Patient
	err := l.runWithRetry(ctx, func(tx repositories.OccupancyTx) error {
		var err error
		if department, err = tx.GetDepartment(ctx, session.HospitalID, departmentID); err != nil {
			return err
		}
		if patient, err = tx.GetPatient(ctx, session.HospitalID, patientID); err != nil {
			return err
		}

		if patient.Status != entities.PatientStatusUpcoming {
			return apperrors.NewInvalidTransitionError(apperrors.CodePatientNotInUpcomingState,
				fmt.Sprintf("patient %s is %s, only Upcoming patients can be admitted", patient.ID, patient.Status))
		}
		if patient.DepartmentID != "" && patient.DepartmentID != departmentID {
			return departmentMismatch(patient, departmentID)
		}
		if department.AvailableBeds <= 0 {
			return apperrors.NewCapacityError(fmt.Sprintf("no beds available in %s", department.Name))
		}

		if err := tx.SetAvailableBeds(ctx, session.HospitalID, departmentID, department.AvailableBeds, department.AvailableBeds-1); err != nil {
			return err
		}
		department.AvailableBeds--

		return tx.SetPatientStatus(ctx, session.HospitalID, patientID,
			entities.PatientStatusUpcoming, entities.PatientStatusAdmitted, departmentID, l.now())
	})
	if err != nil {
		l.reject(ctx, "admit", err)
		observability.RecordError(span, err)
		return err
	}

	observability.RecordAdmission(ctx, l.metrics, session.HospitalID, departmentID)
	observability.HospitalLogger(ctx, session.HospitalID).Info().
		Str("department_id", departmentID).
		Str("patient_id", patientID).
		Int("available_beds", department.AvailableBeds).
		Msg("Patient admitted")

	l.afterCommit(ctx, session.HospitalID, department, patient.ID,
		entities.NotificationTitleAdmitted,
		fmt.Sprintf("%s has been admitted to %s", patient.Name, department.Name))
	return nil
}

// Discharge releases the patient's bed and moves the patient from Admitted to Discharged.
// The bed count never rises above the department total.
func (l *OccupancyLedger) Discharge(ctx context.Context, session entities.Session, departmentID, patientID string) error {
	ctx, span := observability.StartSpan(ctx, "OccupancyLedger.Discharge")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("hospital.id", session.HospitalID),
		attribute.String("department.id", departmentID),
		attribute.String("patient.id", patientID),
	)

	if err := requireSession(session); err != nil {
		return err
	}

	unlock := l.locks.lock(session.HospitalID, departmentID)
	defer unlock()

	var department *entities.Department
	var patient *entities.Patient
	err := l.runWithRetry(ctx, func(tx repositories.OccupancyTx) error {
		var err error
		if department, err = tx.GetDepartment(ctx, session.HospitalID, departmentID); err != nil {
			return err
		}
		if patient, err = tx.GetPatient(ctx, session.HospitalID, patientID); err != nil {
			return err
		}

		if patient.Status != entities.PatientStatusAdmitted {
			return apperrors.NewInvalidTransitionError(apperrors.CodePatientNotInAdmittedState,
				fmt.Sprintf("patient %s is %s, only Admitted patients can be discharged", patient.ID, patient.Status))
		}
		if patient.DepartmentID != departmentID {
			return departmentMismatch(patient, departmentID)
		}

		released := entities.ClampBeds(department.AvailableBeds+1, department.TotalBeds)
		if released != department.AvailableBeds {
			if err := tx.SetAvailableBeds(ctx, session.HospitalID, departmentID, department.AvailableBeds, released); err != nil {
				return err
			}
			department.AvailableBeds = released
		}

		return tx.SetPatientStatus(ctx, session.HospitalID, patientID,
			entities.PatientStatusAdmitted, entities.PatientStatusDischarged, departmentID, l.now())
	})
	if err != nil {
		l.reject(ctx, "discharge", err)
		observability.RecordError(span, err)
		return err
	}

	observability.RecordDischarge(ctx, l.metrics, session.HospitalID, departmentID)
	observability.HospitalLogger(ctx, session.HospitalID).Info().
		Str("department_id", departmentID).
		Str("patient_id", patientID).
		Int("available_beds", department.AvailableBeds).
		Msg("Patient discharged")

	l.afterCommit(ctx, session.HospitalID, department, patient.ID,
		entities.NotificationTitleDischarged,
		fmt.Sprintf("%s has been discharged from %s", patient.Name, department.Name))
	return nil
}

// AdjustAvailableBeds applies a manual correction, clamped to [0, totalBeds].
// Clamping is silent; the returned department carries the stored value.
func (l *OccupancyLedger) AdjustAvailableBeds(ctx context.Context, session entities.Session, departmentID string, delta int) (*entities.Department, error) {
	ctx, span := observability.StartSpan(ctx, "OccupancyLedger.AdjustAvailableBeds")
	defer span.End()

	if err := requireSession(session); err != nil {
		return nil, err
	}

	unlock := l.locks.lock(session.HospitalID, departmentID)
	defer unlock()

	var department *entities.Department
	var clamped bool
	err := l.runWithRetry(ctx, func(tx repositories.OccupancyTx) error {
		var err error
		if department, err = tx.GetDepartment(ctx, session.HospitalID, departmentID); err != nil {
			return err
		}

		target := department.AvailableBeds + delta
		next := entities.ClampBeds(target, department.TotalBeds)
		clamped = next != target
		if next == department.AvailableBeds {
			return nil
		}
		if err := tx.SetAvailableBeds(ctx, session.HospitalID, departmentID, department.AvailableBeds, next); err != nil {
			return err
		}
		department.AvailableBeds = next
		return nil
	})
	if err != nil {
		l.reject(ctx, "adjust", err)
		observability.RecordError(span, err)
		return nil, err
	}

	observability.RecordBedAdjustment(ctx, l.metrics, session.HospitalID, clamped)
	observability.HospitalLogger(ctx, session.HospitalID).Info().
		Str("department_id", departmentID).
		Int("delta", delta).
		Bool("clamped", clamped).
		Int("available_beds", department.AvailableBeds).
		Msg("Available beds adjusted")

	l.afterCommit(ctx, session.HospitalID, department, "", "", "")
	return department, nil
}

// ResizeDepartment changes totalBeds while keeping the number of occupied beds.
// If the new total is below the occupied count, no bed is left available.
func (l *OccupancyLedger) ResizeDepartment(ctx context.Context, session entities.Session, departmentID string, totalBeds int) (*entities.Department, error) {
	ctx, span := observability.StartSpan(ctx, "OccupancyLedger.ResizeDepartment")
	defer span.End()

	if err := requireSession(session); err != nil {
		return nil, err
	}
	if totalBeds < 0 {
		return nil, apperrors.NewValidationError("total beds must not be negative")
	}

	unlock := l.locks.lock(session.HospitalID, departmentID)
	defer unlock()

	var department *entities.Department
	err := l.runWithRetry(ctx, func(tx repositories.OccupancyTx) error {
		var err error
		if department, err = tx.GetDepartment(ctx, session.HospitalID, departmentID); err != nil {
			return err
		}

		available := entities.ClampBeds(totalBeds-department.OccupiedBeds(), totalBeds)
		if err := tx.SetCapacity(ctx, session.HospitalID, departmentID, department.TotalBeds, totalBeds, available); err != nil {
			return err
		}
		department.TotalBeds = totalBeds
		department.AvailableBeds = available
		return nil
	})
	if err != nil {
		l.reject(ctx, "resize", err)
		observability.RecordError(span, err)
		return nil, err
	}

	observability.HospitalLogger(ctx, session.HospitalID).Info().
		Str("department_id", departmentID).
		Int("total_beds", department.TotalBeds).
		Int("available_beds", department.AvailableBeds).
		Msg("Department resized")

	l.afterCommit(ctx, session.HospitalID, department, "", "", "")
	return department, nil
}

// RemoveDepartment deletes a department that has no occupied bed and no admitted patient.
// Patients linked to it keep their record but lose the department link.
func (l *OccupancyLedger) RemoveDepartment(ctx context.Context, session entities.Session, departmentID string) error {
	ctx, span := observability.StartSpan(ctx, "OccupancyLedger.RemoveDepartment")
	defer span.End()

	if err := requireSession(session); err != nil {
		return err
	}

	unlock := l.locks.lock(session.HospitalID, departmentID)
	defer unlock()

	err := l.runWithRetry(ctx, func(tx repositories.OccupancyTx) error {
		department, err := tx.GetDepartment(ctx, session.HospitalID, departmentID)
		if err != nil {
			return err
		}
		if occupied := department.OccupiedBeds(); occupied > 0 {
			return apperrors.NewConflictError(fmt.Sprintf("%s still has %d occupied beds", department.Name, occupied)).
				WithCode(apperrors.CodeDepartmentOccupied)
		}
		// bed counts can be adjusted by hand, so check the patients too
		admitted, err := tx.CountAdmitted(ctx, session.HospitalID, departmentID)
		if err != nil {
			return err
		}
		if admitted > 0 {
			return apperrors.NewConflictError(fmt.Sprintf("%s still has %d admitted patients", department.Name, admitted)).
				WithCode(apperrors.CodeDepartmentOccupied)
		}
		return tx.DeleteDepartment(ctx, session.HospitalID, departmentID)
	})
	if err != nil {
		l.reject(ctx, "remove_department", err)
		observability.RecordError(span, err)
		return err
	}

	observability.HospitalLogger(ctx, session.HospitalID).Info().
		Str("department_id", departmentID).
		Msg("Department removed")

	ctx = context.WithoutCancel(ctx)
	if l.cache != nil {
		l.cache.Invalidate(ctx, session.HospitalID, departmentID)
	}
	l.publish(ctx, providers.GetDepartmentsChannel(session.HospitalID), entities.NewHospitalEvent(session.HospitalID,
		entities.HospitalEventTypeDepartmentUpdate, map[string]interface{}{"department_id": departmentID, "deleted": true}))
	l.publish(ctx, providers.GetPatientsChannel(session.HospitalID), entities.NewHospitalEvent(session.HospitalID,
		entities.HospitalEventTypePatientUpdate, map[string]interface{}{"department_id": departmentID}))
	return nil
}

// runWithRetry runs fn in a transaction, retrying only optimistic write conflicts
func (l *OccupancyLedger) runWithRetry(ctx context.Context, fn func(tx repositories.OccupancyTx) error) error {
	return retry.Do(ctx, l.retryCfg, func() error {
		start := time.Now()
		err := l.store.RunInTx(ctx, fn)
		observability.RecordDBMetric(ctx, l.metrics, "occupancy_tx", time.Since(start))
		if err == nil {
			return nil
		}
		if apperrors.HasCode(err, apperrors.CodeConcurrentBedUpdate) || apperrors.HasCode(err, apperrors.CodeConcurrentStatusTransition) {
			return err
		}
		return retry.Permanent(err)
	})
}

func (l *OccupancyLedger) reject(ctx context.Context, operation string, err error) {
	code := string(apperrors.ErrorTypeInternal)
	if appErr, ok := apperrors.As(err); ok {
		code = appErr.Code
		if code == "" {
			code = string(appErr.Type)
		}
	}
	observability.RecordLedgerRejection(ctx, l.metrics, operation, code)
	observability.LoggerFromContext(ctx).Debug().Err(err).Str("operation", operation).Msg("Ledger operation rejected")
}

// afterCommit runs the best-effort side effects of a committed change.
// None of them can undo the change or fail the caller.
func (l *OccupancyLedger) afterCommit(ctx context.Context, hospitalID string, department *entities.Department, patientID, title, message string) {
	ctx = context.WithoutCancel(ctx)

	if l.cache != nil {
		l.cache.Invalidate(ctx, hospitalID, department.ID)
	}

	l.publish(ctx, providers.GetDepartmentsChannel(hospitalID), entities.NewHospitalEvent(hospitalID,
		entities.HospitalEventTypeDepartmentUpdate, map[string]interface{}{
			"department_id":  department.ID,
			"available_beds": department.AvailableBeds,
			"total_beds":     department.TotalBeds,
			"status":         department.Status(),
		}))

	if patientID == "" {
		return
	}

	l.publish(ctx, providers.GetPatientsChannel(hospitalID), entities.NewHospitalEvent(hospitalID,
		entities.HospitalEventTypePatientUpdate, map[string]interface{}{
			"patient_id":    patientID,
			"department_id": department.ID,
		}))

	if l.notifier != nil {
		if err := l.notifier.Emit(ctx, hospitalID, title, message); err != nil {
			observability.HospitalLogger(ctx, hospitalID).Warn().Err(err).
				Str("title", title).
				Str("patient_id", patientID).
				Msg("Failed to emit notification")
		}
	}
}

func (l *OccupancyLedger) publish(ctx context.Context, channel string, event *entities.HospitalEvent) {
	if l.bus == nil {
		return
	}
	if err := l.bus.Publish(ctx, channel, event); err != nil {
		observability.HospitalLogger(ctx, event.HospitalID).Warn().Err(err).
			Str("channel", channel).
			Msg("Failed to publish hospital event")
	}
}

func departmentMismatch(patient *entities.Patient, departmentID string) error {
	return apperrors.NewValidationError(
		fmt.Sprintf("patient %s belongs to department %s, not %s", patient.ID, patient.DepartmentID, departmentID)).
		WithCode(apperrors.CodePatientDepartmentMismatch)
}

func requireSession(session entities.Session) error {
	if !session.Valid() {
		return apperrors.NewUnauthorizedError("a hospital session is required")
	}
	return nil
}
