package queue

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/MediTrack-HMS/visit-queue-service/internal/messaging"
	"github.com/MediTrack-HMS/visit-queue-service/internal/telemetry"
)

// Notifier receives the fresh active-queue snapshot after every mutation
// that changes the active queue's composition. Implementations must not
// block: emission is fire-and-forget from the engine's perspective.
type Notifier interface {
	QueueChanged(ctx context.Context, tickets []Ticket)
}

// Service is the queue engine: ticket numbering, state transitions,
// next-to-serve selection, and retention sweeping.
type Service struct {
	repo      RepositoryInterface
	publisher messaging.PublisherInterface
	metrics   *telemetry.Metrics
	notifiers []Notifier
}

func NewService(repo RepositoryInterface, publisher messaging.PublisherInterface, metrics *telemetry.Metrics, notifiers ...Notifier) *Service {
	return &Service{repo: repo, publisher: publisher, metrics: metrics, notifiers: notifiers}
}

// Admit adds a patient to a department queue with the next number in the
// department's active session.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*Ticket, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ticket, err := s.repo.Admit(ctx, req)
	if err != nil {
		return nil, err
	}

	s.publishTicket(ctx, messaging.EventTicketCreated, ticket)
	if s.metrics != nil {
		s.metrics.RecordTicketAdmitted(ctx, ticket.Department)
	}
	s.emitSnapshot(ctx)
	return ticket, nil
}

func (s *Service) ListActive(ctx context.Context) ([]Ticket, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) ListByDepartment(ctx context.Context, department string) ([]Ticket, error) {
	return s.repo.ListByDepartment(ctx, department)
}

func (s *Service) Get(ctx context.Context, queueID int) (*Ticket, error) {
	return s.repo.GetByID(ctx, queueID)
}

// SetStatus sets a ticket to an arbitrary valid status. This is a deliberately
// permissive administrative override: it does not enforce the forward-only
// state machine or the one-IN_PROGRESS-per-department invariant — CallNext
// and Complete are the guarded paths that do.
func (s *Service) SetStatus(ctx context.Context, queueID int, status Status) (*Ticket, error) {
	if !status.Valid() {
		return nil, invalidStatusError(status)
	}

	ticket, err := s.repo.SetStatus(ctx, queueID, status)
	if err != nil {
		return nil, err
	}

	s.publishTicket(ctx, messaging.EventQueueStatusChanged, ticket)
	s.emitSnapshot(ctx)
	return ticket, nil
}

// CallNext promotes the smallest-numbered WAITING ticket in the department.
// Returns (nil, nil) when nothing is waiting and ErrDepartmentBusy while the
// previous patient has not been completed.
func (s *Service) CallNext(ctx context.Context, department string) (*Ticket, error) {
	ticket, err := s.repo.CallNext(ctx, department)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, nil
	}

	s.publishTicket(ctx, messaging.EventQueueStatusChanged, ticket)
	if s.metrics != nil {
		s.metrics.RecordTicketCalled(ctx, ticket.Department)
	}
	s.emitSnapshot(ctx)
	return ticket, nil
}

// Complete marks a ticket DONE.
func (s *Service) Complete(ctx context.Context, queueID int) (*Ticket, error) {
	return s.SetStatus(ctx, queueID, StatusDone)
}

// PurgeStale removes DONE tickets older than the retention window. The
// active queue is untouched, so no snapshot is emitted.
func (s *Service) PurgeStale(ctx context.Context) (int, error) {
	count, err := s.repo.DeleteStale(ctx, StaleAfter)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Info().Int("purged", count).Msg("removed stale queue tickets")
	}
	return count, nil
}

// emitSnapshot pushes the current active queue to every notifier. A snapshot
// failure is logged and swallowed: display convergence must never fail a
// queue mutation.
func (s *Service) emitSnapshot(ctx context.Context) {
	if len(s.notifiers) == 0 {
		return
	}

	tickets, err := s.repo.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load active queue for broadcast")
		return
	}
	for _, n := range s.notifiers {
		n.QueueChanged(ctx, tickets)
	}
}

func (s *Service) publishTicket(ctx context.Context, eventType string, t *Ticket) {
	if s.publisher == nil {
		return
	}
	event := messaging.TicketEvent{
		BaseEvent: messaging.NewBaseEvent(eventType),
		Data: messaging.TicketData{
			QueueID:     t.QueueID,
			PatientID:   t.PatientID,
			NationalID:  t.NationalID,
			PatientName: t.PatientName,
			Department:  t.Department,
			Status:      string(t.Status),
			QueueNumber: t.QueueNumber,
		},
	}
	if err := s.publisher.Publish(ctx, eventType, event); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("failed to publish queue event")
	}
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
