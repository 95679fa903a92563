package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/repositories"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

// Store keeps hospitals, departments, patients and notifications in process memory.
// It backs STORE_DRIVER=memory and the service tests.
type Store struct {
	mu            sync.RWMutex
	hospitals     map[string]*entities.Hospital
	departments   map[string]*entities.Department
	patients      map[string]*entities.Patient
	notifications map[string]*entities.Notification
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		hospitals:     make(map[string]*entities.Hospital),
		departments:   make(map[string]*entities.Department),
		patients:      make(map[string]*entities.Patient),
		notifications: make(map[string]*entities.Notification),
	}
}

// Departments returns the store as a DepartmentRepository
func (s *Store) Departments() repositories.DepartmentRepository { return departmentRepo{s} }

// Patients returns the store as a PatientRepository
func (s *Store) Patients() repositories.PatientRepository { return patientRepo{s} }

// Notifications returns the store as a NotificationRepository
func (s *Store) Notifications() repositories.NotificationRepository { return notificationRepo{s} }

// Hospitals returns the store as a HospitalRepository
func (s *Store) Hospitals() repositories.HospitalRepository { return hospitalRepo{s} }

func copyDepartment(d *entities.Department) *entities.Department {
	cp := *d
	return &cp
}

func copyPatient(p *entities.Patient) *entities.Patient {
	cp := *p
	return &cp
}

func departmentNotFound(id string) error {
	return apperrors.NewNotFoundError("department not found: " + id).WithCode(apperrors.CodeDepartmentNotFound)
}

func patientNotFound(id string) error {
	return apperrors.NewNotFoundError("patient not found: " + id).WithCode(apperrors.CodePatientNotFound)
}

type departmentRepo struct{ s *Store }

func (r departmentRepo) Create(ctx context.Context, department *entities.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.departments[department.ID]; exists {
		return apperrors.NewConflictError("department already exists: " + department.ID)
	}
	r.s.departments[department.ID] = copyDepartment(department)
	return nil
}

func (r departmentRepo) GetByID(ctx context.Context, hospitalID, id string) (*entities.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.departments[id]
	if !ok || d.HospitalID != hospitalID {
		return nil, departmentNotFound(id)
	}
	return copyDepartment(d), nil
}

func (r departmentRepo) ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entities.Department, 0)
	for _, d := range r.s.departments {
		if d.HospitalID == hospitalID {
			out = append(out, copyDepartment(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r departmentRepo) UpdateDetails(ctx context.Context, department *entities.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.departments[department.ID]
	if !ok || d.HospitalID != department.HospitalID {
		return departmentNotFound(department.ID)
	}
	d.Name = department.Name
	d.MainDoctor = department.MainDoctor
	d.AssistantDoctor = department.AssistantDoctor
	d.UpdatedAt = department.UpdatedAt
	return nil
}

type patientRepo struct{ s *Store }

func (r patientRepo) Create(ctx context.Context, patient *entities.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.patients[patient.ID]; exists {
		return apperrors.NewConflictError("patient already exists: " + patient.ID)
	}
	r.s.patients[patient.ID] = copyPatient(patient)
	return nil
}

func (r patientRepo) GetByID(ctx context.Context, hospitalID, id string) (*entities.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.patients[id]
	if !ok || p.HospitalID != hospitalID {
		return nil, patientNotFound(id)
	}
	return copyPatient(p), nil
}

func (r patientRepo) ListByHospital(ctx context.Context, hospitalID string, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entities.Patient, 0)
	for _, p := range r.s.patients {
		if p.HospitalID != hospitalID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		out = append(out, copyPatient(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(ctx context.Context, notification *entities.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *notification
	r.s.notifications[notification.ID] = &cp
	return nil
}

func (r notificationRepo) ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entities.Notification, 0)
	for _, n := range r.s.notifications {
		if n.HospitalID == hospitalID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r notificationRepo) lookup(hospitalID, id string) (*entities.Notification, error) {
	n, ok := r.s.notifications[id]
	if !ok || n.HospitalID != hospitalID {
		return nil, apperrors.NewNotFoundError("notification not found: " + id).WithCode(apperrors.CodeNotificationNotFound)
	}
	return n, nil
}

func (r notificationRepo) MarkRead(ctx context.Context, hospitalID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, err := r.lookup(hospitalID, id)
	if err != nil {
		return err
	}
	n.Read = true
	return nil
}

func (r notificationRepo) Delete(ctx context.Context, hospitalID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, err := r.lookup(hospitalID, id); err != nil {
		return err
	}
	delete(r.s.notifications, id)
	return nil
}

func (r notificationRepo) DeleteAll(ctx context.Context, hospitalID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var removed int64
	for id, n := range r.s.notifications {
		if n.HospitalID == hospitalID {
			delete(r.s.notifications, id)
			removed++
		}
	}
	return removed, nil
}

type hospitalRepo struct{ s *Store }

func (r hospitalRepo) Create(ctx context.Context, hospital *entities.Hospital) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.hospitals[hospital.ID]; exists {
		return apperrors.NewConflictError("hospital already exists: " + hospital.ID)
	}
	cp := *hospital
	r.s.hospitals[hospital.ID] = &cp
	return nil
}

func (r hospitalRepo) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	h, ok := r.s.hospitals[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("hospital not found: " + id).WithCode(apperrors.CodeHospitalNotFound)
	}
	cp := *h
	return &cp, nil
}

// RunInTx runs fn against staged copies and applies them only when fn succeeds.
// Transactions are serialized by the store lock.
func (s *Store) RunInTx(ctx context.Context, fn func(tx repositories.OccupancyTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		store:       s,
		departments: make(map[string]*entities.Department),
		patients:    make(map[string]*entities.Patient),
		deleted:     make(map[string]struct{}),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memoryTx struct {
	store       *Store
	departments map[string]*entities.Department
	patients    map[string]*entities.Patient
	deleted     map[string]struct{}
}

func (t *memoryTx) department(hospitalID, id string) (*entities.Department, error) {
	if _, gone := t.deleted[id]; gone {
		return nil, departmentNotFound(id)
	}
	if d, ok := t.departments[id]; ok {
		return d, nil
	}
	d, ok := t.store.departments[id]
	if !ok || d.HospitalID != hospitalID {
		return nil, departmentNotFound(id)
	}
	staged := copyDepartment(d)
	t.departments[id] = staged
	return staged, nil
}

func (t *memoryTx) patient(hospitalID, id string) (*entities.Patient, error) {
	if p, ok := t.patients[id]; ok {
		return p, nil
	}
	p, ok := t.store.patients[id]
	if !ok || p.HospitalID != hospitalID {
		return nil, patientNotFound(id)
	}
	staged := copyPatient(p)
	t.patients[id] = staged
	return staged, nil
}

func (t *memoryTx) GetDepartment(ctx context.Context, hospitalID, departmentID string) (*entities.Department, error) {
	d, err := t.department(hospitalID, departmentID)
	if err != nil {
		return nil, err
	}
	return copyDepartment(d), nil
}

func (t *memoryTx) GetPatient(ctx context.Context, hospitalID, patientID string) (*entities.Patient, error) {
	p, err := t.patient(hospitalID, patientID)
	if err != nil {
		return nil, err
	}
	return copyPatient(p), nil
}

func (t *memoryTx) SetAvailableBeds(ctx context.Context, hospitalID, departmentID string, expected, available int) error {
	d, err := t.department(hospitalID, departmentID)
	if err != nil {
		return err
	}
	if d.AvailableBeds != expected {
		return apperrors.NewConflictError("available beds changed concurrently").WithCode(apperrors.CodeConcurrentBedUpdate)
	}
	if available < 0 || available > d.TotalBeds {
		return apperrors.NewValidationError("available beds out of range")
	}
	d.AvailableBeds = available
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *memoryTx) SetCapacity(ctx context.Context, hospitalID, departmentID string, expectedTotal, total, available int) error {
	d, err := t.department(hospitalID, departmentID)
	if err != nil {
		return err
	}
	if d.TotalBeds != expectedTotal {
		return apperrors.NewConflictError("total beds changed concurrently").WithCode(apperrors.CodeConcurrentBedUpdate)
	}
	if total < 0 || available < 0 || available > total {
		return apperrors.NewValidationError("bed counts out of range")
	}
	d.TotalBeds = total
	d.AvailableBeds = available
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *memoryTx) SetPatientStatus(ctx context.Context, hospitalID, patientID string, from, to entities.PatientStatus, departmentID string, at time.Time) error {
	p, err := t.patient(hospitalID, patientID)
	if err != nil {
		return err
	}
	if p.Status != from {
		return apperrors.NewConflictError("patient status changed concurrently").WithCode(apperrors.CodeConcurrentStatusTransition)
	}
	p.Status = to
	p.DepartmentID = departmentID
	stamp := at
	switch to {
	case entities.PatientStatusAdmitted:
		p.AdmissionAt = &stamp
	case entities.PatientStatusDischarged:
		p.DischargeAt = &stamp
	}
	p.UpdatedAt = at
	return nil
}

func (t *memoryTx) CountAdmitted(ctx context.Context, hospitalID, departmentID string) (int, error) {
	count := 0
	for id, p := range t.store.patients {
		if staged, ok := t.patients[id]; ok {
			p = staged
		}
		if p.HospitalID == hospitalID && p.DepartmentID == departmentID && p.Status == entities.PatientStatusAdmitted {
			count++
		}
	}
	return count, nil
}

func (t *memoryTx) DeleteDepartment(ctx context.Context, hospitalID, departmentID string) error {
	if _, err := t.department(hospitalID, departmentID); err != nil {
		return err
	}
	delete(t.departments, departmentID)
	t.deleted[departmentID] = struct{}{}
	return nil
}

func (t *memoryTx) commit() {
	for id, d := range t.departments {
		t.store.departments[id] = d
	}
	for id := range t.deleted {
		delete(t.store.departments, id)
		for _, p := range t.store.patients {
			if p.DepartmentID == id {
				p.DepartmentID = ""
			}
		}
	}
	for id, p := range t.patients {
		if _, gone := t.deleted[p.DepartmentID]; gone {
			p.DepartmentID = ""
		}
		t.store.patients[id] = p
	}
}
