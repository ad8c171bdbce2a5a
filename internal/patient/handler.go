package patient

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/MediTrack-HMS/visit-queue-service/internal/apperror"
	"github.com/MediTrack-HMS/visit-queue-service/internal/pagination"
)

type Handler struct {
	service        ServiceInterface
	includeDetails bool
}

// NewHandler creates the patient HTTP handler. Error causes are echoed to
// clients only outside production.
func NewHandler(service ServiceInterface, environment string) *Handler {
	return &Handler{
		service:        service,
		includeDetails: environment != "production",
	}
}

type VisitSuccessResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Patient *Patient `json:"data,omitempty"`
}

type PatientListResponse struct {
	Success  bool             `json:"success"`
	Count    int              `json:"count"`
	Patients []Patient        `json:"data"`
	Meta     *pagination.Meta `json:"meta,omitempty"`
}

// AddVisit handles POST /api/addVisit.
func (h *Handler) AddVisit(w http.ResponseWriter, r *http.Request) {
	var req VisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, string(apperror.KindValidation), "Invalid JSON payload: "+err.Error())
		return
	}

	p, err := h.service.RecordVisit(r.Context(), req)
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, VisitSuccessResponse{
		Success: true,
		Message: "Visit recorded",
		Patient: p,
	})
}

// GetByNationalID handles GET /api/patient/{nationalId}.
func (h *Handler) GetByNationalID(w http.ResponseWriter, r *http.Request) {
	nationalID := mux.Vars(r)["nationalId"]

	p, err := h.service.GetByNationalID(r.Context(), nationalID)
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, VisitSuccessResponse{Success: true, Message: "Patient found", Patient: p})
}

// GetByPatientID handles GET /api/patient/id/{id}.
func (h *Handler) GetByPatientID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, string(apperror.KindValidation), "Patient ID must be an integer")
		return
	}

	p, err := h.service.GetByPatientID(r.Context(), id)
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, VisitSuccessResponse{Success: true, Message: "Patient found", Patient: p})
}

// ListAll handles GET /api/allPatients. Supports ?sort=national_id|visit_count
// and page/limit pagination.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	orderBy := OrderByNationalID
	if sort := r.URL.Query().Get("sort"); sort != "" {
		orderBy = OrderBy(sort)
	}

	params := pagination.ParseParams(r)
	patients, meta, err := h.service.ListPaged(r.Context(), orderBy, params)
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, PatientListResponse{
		Success:  true,
		Count:    len(patients),
		Patients: emptyIfNil(patients),
		Meta:     &meta,
	})
}

// ListByVisitCount handles GET /api/patients/sort/by-visits.
func (h *Handler) ListByVisitCount(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.ListAll(r.Context(), OrderByVisitCount)
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, PatientListResponse{Success: true, Count: len(patients), Patients: emptyIfNil(patients)})
}

// ListToday handles GET /api/patients/today.
func (h *Handler) ListToday(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.ListCreatedToday(r.Context())
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, PatientListResponse{Success: true, Count: len(patients), Patients: emptyIfNil(patients)})
}

// ListByDateRange handles GET /api/patients/date-range?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) ListByDateRange(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start"))
	if err != nil {
		respondError(w, http.StatusBadRequest, string(apperror.KindValidation), "start must be a YYYY-MM-DD date")
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end"))
	if err != nil {
		respondError(w, http.StatusBadRequest, string(apperror.KindValidation), "end must be a YYYY-MM-DD date")
		return
	}

	patients, err := h.service.ListByDateRange(r.Context(), start, end)
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, PatientListResponse{Success: true, Count: len(patients), Patients: emptyIfNil(patients)})
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    stats,
	})
}

// Delete handles DELETE /api/patient/{nationalId}. Administrative only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	nationalID := mux.Vars(r)["nationalId"]

	if err := h.service.Delete(r.Context(), nationalID); err != nil {
		h.respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, VisitSuccessResponse{Success: true, Message: "Patient deleted"})
}

func (h *Handler) respondAppError(w http.ResponseWriter, err error) {
	respondError(w,
		apperror.HTTPStatus(err),
		string(apperror.KindOf(err)),
		apperror.ClientMessage(err, h.includeDetails),
	)
}

func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   errorType,
		"message": message,
	})
}

func emptyIfNil(patients []Patient) []Patient {
	if patients == nil {
		return []Patient{}
	}
	return patients
}
