package queue

import "context"

// ServiceInterface defines the contract for queue engine operations
type ServiceInterface interface {
	Admit(ctx context.Context, req AdmitRequest) (*Ticket, error)
	ListActive(ctx context.Context) ([]Ticket, error)
	ListByDepartment(ctx context.Context, department string) ([]Ticket, error)
	Get(ctx context.Context, queueID int) (*Ticket, error)
	SetStatus(ctx context.Context, queueID int, status Status) (*Ticket, error)
	CallNext(ctx context.Context, department string) (*Ticket, error)
	Complete(ctx context.Context, queueID int) (*Ticket, error)
	PurgeStale(ctx context.Context) (int, error)
}
