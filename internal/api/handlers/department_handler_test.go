package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/api/handlers"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/application/services"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

func TestDepartmentHandler_ListDepartments(t *testing.T) {
	departments := new(MockDepartmentService)
	handler := handlers.NewDepartmentHandler(departments, new(MockLedger))
	departments.On("List", mock.Anything, testSession).Return([]*entities.Department{
		{ID: "dept-1", Name: "Cardiology", TotalBeds: 15, AvailableBeds: 10},
		{ID: "dept-2", Name: "Radiology", TotalBeds: 12, AvailableBeds: 0},
	}, nil)

	w := httptest.NewRecorder()
	handler.ListDepartments(w, withSession(httptest.NewRequest(http.MethodGet, "/api/departments", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Departments []map[string]interface{} `json:"departments"`
		Count       int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "Active", body.Departments[0]["status"])
	assert.EqualValues(t, 5, body.Departments[0]["occupied_beds"])
	assert.Equal(t, "Full", body.Departments[1]["status"])
}

func TestDepartmentHandler_CreateDepartment(t *testing.T) {
	departments := new(MockDepartmentService)
	handler := handlers.NewDepartmentHandler(departments, new(MockLedger))
	input := services.DepartmentInput{Name: "Oncology", MainDoctor: "Dr. Ade", AssistantDoctor: "Dr. Bisi", TotalBeds: 8}
	departments.On("Create", mock.Anything, testSession, input).
		Return(&entities.Department{ID: "dept-9", Name: "Oncology", TotalBeds: 8, AvailableBeds: 8}, nil)

	body := `{"name":"Oncology","main_doctor":"Dr. Ade","assistant_doctor":"Dr. Bisi","total_beds":8}`
	w := httptest.NewRecorder()
	handler.CreateDepartment(w, withSession(httptest.NewRequest(http.MethodPost, "/api/departments", strings.NewReader(body))))

	assert.Equal(t, http.StatusCreated, w.Code)
	departments.AssertExpectations(t)
}

func TestDepartmentHandler_DeleteDepartment(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		departments := new(MockDepartmentService)
		handler := handlers.NewDepartmentHandler(departments, new(MockLedger))
		departments.On("Delete", mock.Anything, testSession, "dept-1").Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/departments/dept-1", nil)
		req.SetPathValue("id", "dept-1")
		w := httptest.NewRecorder()
		handler.DeleteDepartment(w, withSession(req))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("occupied", func(t *testing.T) {
		departments := new(MockDepartmentService)
		handler := handlers.NewDepartmentHandler(departments, new(MockLedger))
		departments.On("Delete", mock.Anything, testSession, "dept-1").
			Return(apperrors.NewConflictError("department has occupied beds").WithCode(apperrors.CodeDepartmentOccupied))

		req := httptest.NewRequest(http.MethodDelete, "/api/departments/dept-1", nil)
		req.SetPathValue("id", "dept-1")
		w := httptest.NewRecorder()
		handler.DeleteDepartment(w, withSession(req))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, apperrors.CodeDepartmentOccupied, decodeError(t, w).Code)
	})
}

func TestDepartmentHandler_AdjustBeds(t *testing.T) {
	t.Run("applies the delta", func(t *testing.T) {
		ledger := new(MockLedger)
		handler := handlers.NewDepartmentHandler(new(MockDepartmentService), ledger)
		ledger.On("AdjustAvailableBeds", mock.Anything, testSession, "dept-1", -3).
			Return(&entities.Department{ID: "dept-1", TotalBeds: 15, AvailableBeds: 7}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/departments/dept-1/beds/adjust", strings.NewReader(`{"delta":-3}`))
		req.SetPathValue("id", "dept-1")
		w := httptest.NewRecorder()
		handler.AdjustBeds(w, withSession(req))

		require.Equal(t, http.StatusOK, w.Code)
		var dept map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dept))
		assert.EqualValues(t, 7, dept["available_beds"])
	})

	t.Run("delta is required", func(t *testing.T) {
		ledger := new(MockLedger)
		handler := handlers.NewDepartmentHandler(new(MockDepartmentService), ledger)

		req := httptest.NewRequest(http.MethodPost, "/api/departments/dept-1/beds/adjust", strings.NewReader(`{}`))
		req.SetPathValue("id", "dept-1")
		w := httptest.NewRecorder()
		handler.AdjustBeds(w, withSession(req))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		ledger.AssertNotCalled(t, "AdjustAvailableBeds", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDepartmentHandler_ResizeDepartment(t *testing.T) {
	ledger := new(MockLedger)
	handler := handlers.NewDepartmentHandler(new(MockDepartmentService), ledger)
	ledger.On("ResizeDepartment", mock.Anything, testSession, "dept-1", -1).
		Return(nil, apperrors.NewValidationError("total beds must not be negative"))

	req := httptest.NewRequest(http.MethodPut, "/api/departments/dept-1/beds/total", strings.NewReader(`{"total_beds":-1}`))
	req.SetPathValue("id", "dept-1")
	w := httptest.NewRecorder()
	handler.ResizeDepartment(w, withSession(req))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	ledger.AssertExpectations(t)
}
