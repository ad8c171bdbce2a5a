package patient

import (
	"context"
	"time"
)

// RepositoryInterface defines the contract for patient data access
type RepositoryInterface interface {
	RecordVisit(ctx context.Context, req VisitRequest) (*Patient, VisitOutcome, error)
	AppendDepartment(ctx context.Context, nationalID, department string) (*Patient, error)
	FindByNationalID(ctx context.Context, nationalID string) (*Patient, error)
	FindByPatientID(ctx context.Context, patientID int) (*Patient, error)
	ListAll(ctx context.Context, orderBy OrderBy) ([]Patient, error)
	ListPaged(ctx context.Context, orderBy OrderBy, limit, offset int) ([]Patient, int, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]Patient, error)
	ListCreatedToday(ctx context.Context) ([]Patient, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, nationalID string) error
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
