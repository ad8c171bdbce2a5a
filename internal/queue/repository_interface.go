package queue

import (
	"context"
	"time"
)

// RepositoryInterface defines the contract for queue ticket data access
type RepositoryInterface interface {
	Admit(ctx context.Context, req AdmitRequest) (*Ticket, error)
	GetByID(ctx context.Context, queueID int) (*Ticket, error)
	ListActive(ctx context.Context) ([]Ticket, error)
	ListByDepartment(ctx context.Context, department string) ([]Ticket, error)
	SetStatus(ctx context.Context, queueID int, status Status) (*Ticket, error)
	CallNext(ctx context.Context, department string) (*Ticket, error)
	DeleteStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
