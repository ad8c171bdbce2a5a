package patient

import (
	"context"
	"time"

	"github.com/MediTrack-HMS/visit-queue-service/internal/pagination"
)

// ServiceInterface defines the contract for patient business logic operations
type ServiceInterface interface {
	RecordVisit(ctx context.Context, req VisitRequest) (*Patient, error)
	GetByNationalID(ctx context.Context, nationalID string) (*Patient, error)
	GetByPatientID(ctx context.Context, patientID int) (*Patient, error)
	ListAll(ctx context.Context, orderBy OrderBy) ([]Patient, error)
	ListPaged(ctx context.Context, orderBy OrderBy, params pagination.Params) ([]Patient, pagination.Meta, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]Patient, error)
	ListCreatedToday(ctx context.Context) ([]Patient, error)
	Stats(ctx context.Context) (*StatsResponse, error)
	Delete(ctx context.Context, nationalID string) error
}

// StatsResponse is the payload for the stats endpoint.
type StatsResponse struct {
	TotalPatients int `json:"total_patients"`
	PatientsToday int `json:"patients_today"`
}
