package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Event routing keys as constants
const (
	// Patient events
	EventPatientCreated       = "patient.created"
	EventPatientVisitRecorded = "patient.visit_recorded"
	EventPatientDeleted       = "patient.deleted"

	// Queue events
	EventTicketCreated      = "queue.ticket_created"
	EventQueueStatusChanged = "queue.status_changed"
)

const serviceName = "visit-queue-service"

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
}

// NewBaseEvent stamps a fresh event envelope.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		ServiceName: serviceName,
	}
}

// PatientVisitEvent covers patient.created and patient.visit_recorded.
type PatientVisitEvent struct {
	BaseEvent
	Data PatientVisitData `json:"data"`
}

type PatientVisitData struct {
	PatientID     int    `json:"patient_id"`
	NationalID    string `json:"national_id"`
	Name          string `json:"name"`
	Department    string `json:"department"`
	VisitCount    int    `json:"visit_count"`
	NewDepartment bool   `json:"new_department"`
}

// PatientDeletedEvent represents an administrative patient deletion.
type PatientDeletedEvent struct {
	BaseEvent
	Data PatientDeletedData `json:"data"`
}

type PatientDeletedData struct {
	NationalID string    `json:"national_id"`
	DeletedAt  time.Time `json:"deleted_at"`
}

// TicketEvent covers queue.ticket_created and queue.status_changed.
type TicketEvent struct {
	BaseEvent
	Data TicketData `json:"data"`
}

type TicketData struct {
	QueueID     int    `json:"queue_id"`
	PatientID   int    `json:"patient_id"`
	NationalID  string `json:"national_id"`
	PatientName string `json:"patient_name"`
	Department  string `json:"department"`
	Status      string `json:"status"`
	QueueNumber int    `json:"queue_number"`
}
