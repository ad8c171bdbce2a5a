package patient

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MediTrack-HMS/visit-queue-service/internal/apperror"
	"github.com/MediTrack-HMS/visit-queue-service/internal/messaging"
	"github.com/MediTrack-HMS/visit-queue-service/internal/pagination"
	"github.com/MediTrack-HMS/visit-queue-service/internal/telemetry"
)

// Service implements the patient resolver: validation, normalization,
// find-or-create dedup, and visit accrual.
type Service struct {
	repo      RepositoryInterface
	publisher messaging.PublisherInterface
	metrics   *telemetry.Metrics
}

func NewService(repo RepositoryInterface, publisher messaging.PublisherInterface, metrics *telemetry.Metrics) *Service {
	return &Service{repo: repo, publisher: publisher, metrics: metrics}
}

// RecordVisit resolves the patient for the visit's national ID, creating the
// record on first contact and merging the department into history otherwise.
// A repeat visit to an already-recorded department is an idempotent no-op.
func (s *Service) RecordVisit(ctx context.Context, req VisitRequest) (*Patient, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, outcome, err := s.repo.RecordVisit(ctx, req)
	if err != nil {
		return nil, err
	}

	eventType := messaging.EventPatientVisitRecorded
	if outcome.Created {
		eventType = messaging.EventPatientCreated
	}
	s.publishVisit(ctx, eventType, p, req.Department, outcome.NewDepartment)
	if s.metrics != nil {
		s.metrics.RecordVisit(ctx, outcome.Created)
	}

	return p, nil
}

func (s *Service) publishVisit(ctx context.Context, eventType string, p *Patient, department string, newDepartment bool) {
	if s.publisher == nil {
		return
	}
	event := messaging.PatientVisitEvent{
		BaseEvent: messaging.NewBaseEvent(eventType),
		Data: messaging.PatientVisitData{
			PatientID:     p.PatientID,
			NationalID:    p.NationalID,
			Name:          p.Name,
			Department:    department,
			VisitCount:    p.VisitCount,
			NewDepartment: newDepartment,
		},
	}
	// Fire-and-forget: broker trouble never fails a visit.
	if err := s.publisher.Publish(ctx, eventType, event); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("failed to publish patient event")
	}
}

func (s *Service) GetByNationalID(ctx context.Context, nationalID string) (*Patient, error) {
	normalized := NormalizeNationalID(nationalID)
	if !IsValidNationalID(normalized) {
		return nil, apperror.Validation("national ID must be exactly 12 digits")
	}
	return s.repo.FindByNationalID(ctx, normalized)
}

func (s *Service) GetByPatientID(ctx context.Context, patientID int) (*Patient, error) {
	if patientID <= 0 {
		return nil, apperror.Validation("patient ID must be a positive integer")
	}
	return s.repo.FindByPatientID(ctx, patientID)
}

func (s *Service) ListAll(ctx context.Context, orderBy OrderBy) ([]Patient, error) {
	if orderBy != OrderByNationalID && orderBy != OrderByVisitCount {
		return nil, apperror.Validationf("unknown sort order %q", orderBy)
	}
	return s.repo.ListAll(ctx, orderBy)
}

func (s *Service) ListPaged(ctx context.Context, orderBy OrderBy, params pagination.Params) ([]Patient, pagination.Meta, error) {
	if orderBy != OrderByNationalID && orderBy != OrderByVisitCount {
		return nil, pagination.Meta{}, apperror.Validationf("unknown sort order %q", orderBy)
	}
	patients, total, err := s.repo.ListPaged(ctx, orderBy, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return patients, pagination.BuildMeta(params, total), nil
}

func (s *Service) ListByDateRange(ctx context.Context, start, end time.Time) ([]Patient, error) {
	if end.Before(start) {
		return nil, apperror.Validation("end date must not be before start date")
	}
	return s.repo.ListByDateRange(ctx, start, end)
}

func (s *Service) ListCreatedToday(ctx context.Context) ([]Patient, error) {
	return s.repo.ListCreatedToday(ctx)
}

func (s *Service) Stats(ctx context.Context) (*StatsResponse, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	today, err := s.repo.ListCreatedToday(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsResponse{TotalPatients: total, PatientsToday: len(today)}, nil
}

// Delete removes a patient permanently. Administrative escape hatch;
// patients are never deleted in normal operation.
func (s *Service) Delete(ctx context.Context, nationalID string) error {
	normalized := NormalizeNationalID(nationalID)
	if !IsValidNationalID(normalized) {
		return apperror.Validation("national ID must be exactly 12 digits")
	}
	if err := s.repo.Delete(ctx, normalized); err != nil {
		return err
	}

	if s.publisher != nil {
		event := messaging.PatientDeletedEvent{
			BaseEvent: messaging.NewBaseEvent(messaging.EventPatientDeleted),
			Data: messaging.PatientDeletedData{
				NationalID: normalized,
				DeletedAt:  time.Now().UTC(),
			},
		}
		if err := s.publisher.Publish(ctx, messaging.EventPatientDeleted, event); err != nil {
			log.Warn().Err(err).Msg("failed to publish patient deleted event")
		}
	}
	return nil
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
