package ingest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/MediTrack-HMS/visit-queue-service/internal/apperror"
	"github.com/MediTrack-HMS/visit-queue-service/internal/patient"
	"github.com/MediTrack-HMS/visit-queue-service/internal/telemetry"
)

// maxUploadBytes bounds uploaded visit files (10 MB).
const maxUploadBytes = 10 << 20

// Handler serves the bulk ingestion endpoints: file upload and bulk JSON.
type Handler struct {
	patients       patient.ServiceInterface
	metrics        *telemetry.Metrics
	includeDetails bool
}

func NewHandler(patients patient.ServiceInterface, metrics *telemetry.Metrics, environment string) *Handler {
	return &Handler{
		patients:       patients,
		metrics:        metrics,
		includeDetails: environment != "production",
	}
}

type UploadSummary struct {
	TotalLines     int `json:"total_lines"`
	ValidRecords   int `json:"valid_records"`
	InvalidRecords int `json:"invalid_records"`
	Processed      int `json:"processed"`
	Failed         int `json:"failed"`
}

type UploadResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Summary UploadSummary `json:"summary"`
	Errors  []LineError   `json:"errors,omitempty"`
}

// UploadFile handles POST /api/uploadFile: a multipart CSV or TXT file of
// visit rows. Structurally invalid lines go into the error report, valid
// lines are fed through RecordVisit one at a time; a bad row never aborts
// the batch.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, string(apperror.KindValidation), "Invalid multipart upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, string(apperror.KindValidation), "Missing file field")
		return
	}
	defer file.Close()

	result, err := Parse(header.Filename, file)
	if err != nil {
		respondError(w, apperror.HTTPStatus(err), string(apperror.KindOf(err)), apperror.ClientMessage(err, h.includeDetails))
		return
	}

	processed, failures := h.ingestRows(r.Context(), result.Rows)
	allErrors := append(result.Errors, failures...)

	respondJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "File processed",
		Summary: UploadSummary{
			TotalLines:     result.TotalLines,
			ValidRecords:   result.ValidRecords(),
			InvalidRecords: len(result.Errors),
			Processed:      processed,
			Failed:         len(failures),
		},
		Errors: allErrors,
	})
}

// AddBulkVisits handles POST /api/addBulkVisits: a JSON array of visits,
// processed row by row with partial success.
func (h *Handler) AddBulkVisits(w http.ResponseWriter, r *http.Request) {
	var reqs []patient.VisitRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		respondError(w, http.StatusBadRequest, string(apperror.KindValidation), "Invalid JSON payload: "+err.Error())
		return
	}
	if len(reqs) == 0 {
		respondError(w, http.StatusBadRequest, string(apperror.KindValidation), "No visit records provided")
		return
	}

	processed, failures := h.ingestRows(r.Context(), reqs)

	respondJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "Bulk visits processed",
		Summary: UploadSummary{
			TotalLines:   len(reqs),
			ValidRecords: len(reqs) - len(failures),
			Processed:    processed,
			Failed:       len(failures),
		},
		Errors: failures,
	})
}

// ingestRows records each visit, collecting per-row failures instead of
// aborting. Row numbers in the report are 1-based over the input slice.
func (h *Handler) ingestRows(ctx context.Context, rows []patient.VisitRequest) (int, []LineError) {
	processed := 0
	var failures []LineError

	for i, row := range rows {
		if _, err := h.patients.RecordVisit(ctx, row); err != nil {
			log.Warn().Err(err).Str("national_id", row.NationalID).Msg("bulk visit row failed")
			failures = append(failures, LineError{
				Line:       i + 1,
				NationalID: row.NationalID,
				Errors:     []string{apperror.ClientMessage(err, h.includeDetails)},
			})
			continue
		}
		processed++
	}
	if h.metrics != nil {
		h.metrics.RecordIngestRows(ctx, processed, len(failures))
	}
	return processed, failures
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
