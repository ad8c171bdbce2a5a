package queue

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/MediTrack-HMS/visit-queue-service/internal/apperror"
)

type Handler struct {
	service        ServiceInterface
	includeDetails bool
}

func NewHandler(service ServiceInterface, environment string) *Handler {
	return &Handler{
		service:        service,
		includeDetails: environment != "production",
	}
}

type TicketSuccessResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Ticket  *Ticket `json:"data,omitempty"`
}

type TicketListResponse struct {
	Success    bool     `json:"success"`
	Department string   `json:"department,omitempty"`
	Count      int      `json:"count"`
	Tickets    []Ticket `json:"data"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// Admit handles POST /api/queue/add.
func (h *Handler) Admit(w http.ResponseWriter, r *http.Request) {
	var req AdmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, string(apperror.KindValidation), "Invalid JSON payload: "+err.Error())
		return
	}

	ticket, err := h.service.Admit(r.Context(), req)
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, TicketSuccessResponse{
		Success: true,
		Message: "Patient added to queue",
		Ticket:  ticket,
	})
}

// ListActive handles GET /api/queue/active. Polling fallback for displays
// that cannot hold a WebSocket open.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.service.ListActive(r.Context())
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, TicketListResponse{Success: true, Count: len(tickets), Tickets: emptyIfNil(tickets)})
}

// ListByDepartment handles GET /api/queue/department/{department}.
func (h *Handler) ListByDepartment(w http.ResponseWriter, r *http.Request) {
	department := mux.Vars(r)["department"]

	tickets, err := h.service.ListByDepartment(r.Context(), department)
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, TicketListResponse{
		Success:    true,
		Department: department,
		Count:      len(tickets),
		Tickets:    emptyIfNil(tickets),
	})
}

// SetStatus handles PUT /api/queue/status/{id}. Administrative override; the
// guarded transitions are CallNext and Complete.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	queueID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, string(apperror.KindValidation), "Queue ID must be an integer")
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, string(apperror.KindValidation), "Invalid JSON payload: "+err.Error())
		return
	}

	ticket, err := h.service.SetStatus(r.Context(), queueID, Status(req.Status))
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, TicketSuccessResponse{
		Success: true,
		Message: "Queue status updated",
		Ticket:  ticket,
	})
}

// CallNext handles POST /api/queue/call-next/{department}.
func (h *Handler) CallNext(w http.ResponseWriter, r *http.Request) {
	department := mux.Vars(r)["department"]

	ticket, err := h.service.CallNext(r.Context(), department)
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	if ticket == nil {
		respondError(w, http.StatusNotFound, "none_waiting", "No patients waiting in queue")
		return
	}

	respondJSON(w, http.StatusOK, TicketSuccessResponse{
		Success: true,
		Message: "Next patient called",
		Ticket:  ticket,
	})
}

// Complete handles POST /api/queue/complete/{id}.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	queueID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, string(apperror.KindValidation), "Queue ID must be an integer")
		return
	}

	ticket, err := h.service.Complete(r.Context(), queueID)
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, TicketSuccessResponse{
		Success: true,
		Message: "Patient marked as done",
		Ticket:  ticket,
	})
}

// Purge handles POST /api/queue/purge: manual trigger for the retention
// sweep normally run by the cleanup job.
func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.PurgeStale(r.Context())
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Stale queue entries cleared",
		"purged":  count,
	})
}

func (h *Handler) respondAppError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrDepartmentBusy) {
		respondError(w, http.StatusConflict, "department_busy", err.Error())
		return
	}
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

func emptyIfNil(tickets []Ticket) []Ticket {
	if tickets == nil {
		return []Ticket{}
	}
	return tickets
}
