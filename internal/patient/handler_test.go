package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/MediTrack-HMS/visit-queue-service/internal/apperror"
	"github.com/MediTrack-HMS/visit-queue-service/internal/pagination"
)

// mockService implements ServiceInterface with overridable functions
type mockService struct {
	recordVisitFunc      func(ctx context.Context, req VisitRequest) (*Patient, error)
	getByNationalIDFunc  func(ctx context.Context, nationalID string) (*Patient, error)
	getByPatientIDFunc   func(ctx context.Context, patientID int) (*Patient, error)
	listAllFunc          func(ctx context.Context, orderBy OrderBy) ([]Patient, error)
	listPagedFunc        func(ctx context.Context, orderBy OrderBy, params pagination.Params) ([]Patient, pagination.Meta, error)
	listByDateRangeFunc  func(ctx context.Context, start, end time.Time) ([]Patient, error)
	listCreatedTodayFunc func(ctx context.Context) ([]Patient, error)
	statsFunc            func(ctx context.Context) (*StatsResponse, error)
	deleteFunc           func(ctx context.Context, nationalID string) error
}

func (m *mockService) RecordVisit(ctx context.Context, req VisitRequest) (*Patient, error) {
	if m.recordVisitFunc != nil {
		return m.recordVisitFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) GetByNationalID(ctx context.Context, nationalID string) (*Patient, error) {
	if m.getByNationalIDFunc != nil {
		return m.getByNationalIDFunc(ctx, nationalID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) GetByPatientID(ctx context.Context, patientID int) (*Patient, error) {
	if m.getByPatientIDFunc != nil {
		return m.getByPatientIDFunc(ctx, patientID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) ListAll(ctx context.Context, orderBy OrderBy) ([]Patient, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx, orderBy)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) ListPaged(ctx context.Context, orderBy OrderBy, params pagination.Params) ([]Patient, pagination.Meta, error) {
	if m.listPagedFunc != nil {
		return m.listPagedFunc(ctx, orderBy, params)
	}
	return nil, pagination.Meta{}, errors.New("not implemented")
}

func (m *mockService) ListByDateRange(ctx context.Context, start, end time.Time) ([]Patient, error) {
	if m.listByDateRangeFunc != nil {
		return m.listByDateRangeFunc(ctx, start, end)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) ListCreatedToday(ctx context.Context) ([]Patient, error) {
	if m.listCreatedTodayFunc != nil {
		return m.listCreatedTodayFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) Stats(ctx context.Context) (*StatsResponse, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) Delete(ctx context.Context, nationalID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, nationalID)
	}
	return errors.New("not implemented")
}

func newTestRouter(service ServiceInterface) *mux.Router {
	handler := NewHandler(service, "test")
	r := mux.NewRouter()
	r.HandleFunc("/api/addVisit", handler.AddVisit).Methods("POST")
	r.HandleFunc("/api/patient/id/{id}", handler.GetByPatientID).Methods("GET")
	r.HandleFunc("/api/patient/{nationalId}", handler.GetByNationalID).Methods("GET")
	r.HandleFunc("/api/patient/{nationalId}", handler.Delete).Methods("DELETE")
	r.HandleFunc("/api/allPatients", handler.ListAll).Methods("GET")
	r.HandleFunc("/api/patients/sort/by-visits", handler.ListByVisitCount).Methods("GET")
	r.HandleFunc("/api/patients/today", handler.ListToday).Methods("GET")
	r.HandleFunc("/api/patients/date-range", handler.ListByDateRange).Methods("GET")
	r.HandleFunc("/api/stats", handler.Stats).Methods("GET")
	return r
}

// TestAddVisit_Success tests the happy path for visit recording
func TestAddVisit_Success(t *testing.T) {
	service := &mockService{
		recordVisitFunc: func(ctx context.Context, req VisitRequest) (*Patient, error) {
			return &Patient{
				PatientID:         1,
				NationalID:        req.NationalID,
				Name:              req.Name,
				DepartmentHistory: []string{req.Department},
				VisitCount:        1,
			}, nil
		},
	}
	router := newTestRouter(service)

	body, _ := json.Marshal(validVisit())
	req := httptest.NewRequest("POST", "/api/addVisit", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp VisitSuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success || resp.Patient == nil || resp.Patient.VisitCount != 1 {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

// TestAddVisit_InvalidJSON tests rejection of malformed payloads
func TestAddVisit_InvalidJSON(t *testing.T) {
	router := newTestRouter(&mockService{})

	req := httptest.NewRequest("POST", "/api/addVisit", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

// TestAddVisit_ValidationError tests status mapping for validation failures
func TestAddVisit_ValidationError(t *testing.T) {
	service := &mockService{
		recordVisitFunc: func(ctx context.Context, req VisitRequest) (*Patient, error) {
			return nil, apperror.Validation("national ID must be exactly 12 digits")
		},
	}
	router := newTestRouter(service)

	body, _ := json.Marshal(VisitRequest{NationalID: "12345"})
	req := httptest.NewRequest("POST", "/api/addVisit", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != string(apperror.KindValidation) {
		t.Errorf("Expected validation_error, got %v", resp["error"])
	}
}

// TestGetByNationalID_NotFound tests 404 mapping
func TestGetByNationalID_NotFound(t *testing.T) {
	service := &mockService{
		getByNationalIDFunc: func(ctx context.Context, nationalID string) (*Patient, error) {
			return nil, apperror.NotFound("patient not found")
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest("GET", "/api/patient/123456789012", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

// TestGetByPatientID_NonNumeric tests rejection of non-integer IDs
func TestGetByPatientID_NonNumeric(t *testing.T) {
	router := newTestRouter(&mockService{})

	req := httptest.NewRequest("GET", "/api/patient/id/abc", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

// TestListAll_PassesSortAndPagination tests query parameter plumbing
func TestListAll_PassesSortAndPagination(t *testing.T) {
	service := &mockService{
		listPagedFunc: func(ctx context.Context, orderBy OrderBy, params pagination.Params) ([]Patient, pagination.Meta, error) {
			if orderBy != OrderByVisitCount {
				t.Errorf("Expected visit_count order, got %s", orderBy)
			}
			if params.Page != 2 || params.Limit != 5 {
				t.Errorf("Expected page 2 limit 5, got %+v", params)
			}
			return []Patient{}, pagination.BuildMeta(params, 0), nil
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest("GET", "/api/allPatients?sort=visit_count&page=2&limit=5", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp PatientListResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Patients == nil {
		t.Error("Expected empty array, not null")
	}
}

// TestListByDateRange_BadDates tests date validation
func TestListByDateRange_BadDates(t *testing.T) {
	router := newTestRouter(&mockService{})

	req := httptest.NewRequest("GET", "/api/patients/date-range?start=March&end=2026-03-10", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

// TestListByDateRange_Success tests date plumbing
func TestListByDateRange_Success(t *testing.T) {
	service := &mockService{
		listByDateRangeFunc: func(ctx context.Context, start, end time.Time) ([]Patient, error) {
			if start.Format("2006-01-02") != "2026-03-01" || end.Format("2006-01-02") != "2026-03-10" {
				t.Errorf("Unexpected range: %v - %v", start, end)
			}
			return []Patient{{PatientID: 1}}, nil
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest("GET", "/api/patients/date-range?start=2026-03-01&end=2026-03-10", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

// TestStats_Success tests the stats endpoint
func TestStats_Success(t *testing.T) {
	service := &mockService{
		statsFunc: func(ctx context.Context) (*StatsResponse, error) {
			return &StatsResponse{TotalPatients: 10, PatientsToday: 3}, nil
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Success bool          `json:"success"`
		Data    StatsResponse `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Data.TotalPatients != 10 || resp.Data.PatientsToday != 3 {
		t.Errorf("Unexpected stats: %+v", resp.Data)
	}
}

// TestDelete_Success tests patient deletion
func TestDelete_Success(t *testing.T) {
	service := &mockService{
		deleteFunc: func(ctx context.Context, nationalID string) error { return nil },
	}
	router := newTestRouter(service)

	req := httptest.NewRequest("DELETE", "/api/patient/123456789012", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}
