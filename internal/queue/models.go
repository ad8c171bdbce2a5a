package queue

import (
	"errors"
	"strings"
	"time"

	"github.com/MediTrack-HMS/visit-queue-service/internal/apperror"
)

// Status is a queue ticket's lifecycle state. The normal path is strictly
// forward: WAITING -> IN_PROGRESS -> DONE.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Valid reports whether s is a known status token.
func (s Status) Valid() bool {
	return s == StatusWaiting || s == StatusInProgress || s == StatusDone
}

func invalidStatusError(s Status) error {
	return apperror.Validationf("invalid status %q, must be WAITING, IN_PROGRESS, or DONE", string(s))
}

// StaleAfter is how long DONE tickets are retained before the sweep removes
// them.
const StaleAfter = 24 * time.Hour

// ErrDepartmentBusy is returned by CallNext while a ticket in the department
// is still IN_PROGRESS; the current patient must be completed first.
var ErrDepartmentBusy = errors.New("a patient is already in progress for this department")

// Ticket is one queue admission event. Patient fields are a denormalized
// snapshot taken at admission time.
type Ticket struct {
	QueueID     int       `json:"queue_id"`
	PatientID   int       `json:"patient_id"`
	NationalID  string    `json:"national_id"`
	PatientName string    `json:"patient_name"`
	Department  string    `json:"department"`
	Status      Status    `json:"status"`
	QueueNumber int       `json:"queue_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AdmitRequest is the payload for admitting a patient to a department queue.
type AdmitRequest struct {
	PatientID   int    `json:"patient_id"`
	NationalID  string `json:"national_id"`
	PatientName string `json:"patient_name"`
	Department  string `json:"department"`
}

// Normalize trims string fields in place.
func (r *AdmitRequest) Normalize() {
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.PatientName = strings.TrimSpace(r.PatientName)
	r.Department = strings.TrimSpace(r.Department)
}

// Validate checks required fields. Department membership is deliberately not
// checked: the catalog is advisory and new departments may appear at any time.
func (r AdmitRequest) Validate() error {
	if r.PatientID <= 0 {
		return apperror.Validation("patient_id is required")
	}
	if r.NationalID == "" {
		return apperror.Validation("national_id is required")
	}
	if r.PatientName == "" {
		return apperror.Validation("patient_name is required")
	}
	if r.Department == "" {
		return apperror.Validation("department is required")
	}
	return nil
}
