package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MediTrack-HMS/visit-queue-service/internal/apperror"
	"github.com/MediTrack-HMS/visit-queue-service/internal/messaging"
	"github.com/MediTrack-HMS/visit-queue-service/internal/testutil"
)

// mockRepository implements RepositoryInterface with overridable functions
type mockRepository struct {
	admitFunc            func(ctx context.Context, req AdmitRequest) (*Ticket, error)
	getByIDFunc          func(ctx context.Context, queueID int) (*Ticket, error)
	listActiveFunc       func(ctx context.Context) ([]Ticket, error)
	listByDepartmentFunc func(ctx context.Context, department string) ([]Ticket, error)
	setStatusFunc        func(ctx context.Context, queueID int, status Status) (*Ticket, error)
	callNextFunc         func(ctx context.Context, department string) (*Ticket, error)
	deleteStaleFunc      func(ctx context.Context, olderThan time.Duration) (int, error)
}

func (m *mockRepository) Admit(ctx context.Context, req AdmitRequest) (*Ticket, error) {
	if m.admitFunc != nil {
		return m.admitFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) GetByID(ctx context.Context, queueID int) (*Ticket, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, queueID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) ListActive(ctx context.Context) ([]Ticket, error) {
	if m.listActiveFunc != nil {
		return m.listActiveFunc(ctx)
	}
	return []Ticket{}, nil
}

func (m *mockRepository) ListByDepartment(ctx context.Context, department string) ([]Ticket, error) {
	if m.listByDepartmentFunc != nil {
		return m.listByDepartmentFunc(ctx, department)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) SetStatus(ctx context.Context, queueID int, status Status) (*Ticket, error) {
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, queueID, status)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) CallNext(ctx context.Context, department string) (*Ticket, error) {
	if m.callNextFunc != nil {
		return m.callNextFunc(ctx, department)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) DeleteStale(ctx context.Context, olderThan time.Duration) (int, error) {
	if m.deleteStaleFunc != nil {
		return m.deleteStaleFunc(ctx, olderThan)
	}
	return 0, errors.New("not implemented")
}

// mockNotifier records every snapshot it receives
type mockNotifier struct {
	snapshots [][]Ticket
}

func (m *mockNotifier) QueueChanged(ctx context.Context, tickets []Ticket) {
	m.snapshots = append(m.snapshots, tickets)
}

func validAdmit() AdmitRequest {
	return AdmitRequest{
		PatientID:   1,
		NationalID:  "123456789012",
		PatientName: "Anna Svensson",
		Department:  "Cardiology",
	}
}

// TestAdmit_Success tests admission with event and snapshot emission
func TestAdmit_Success(t *testing.T) {
	mockRepo := &mockRepository{
		admitFunc: func(ctx context.Context, req AdmitRequest) (*Ticket, error) {
			return &Ticket{
				QueueID:     1,
				PatientID:   req.PatientID,
				NationalID:  req.NationalID,
				PatientName: req.PatientName,
				Department:  req.Department,
				Status:      StatusWaiting,
				QueueNumber: 1,
			}, nil
		},
		listActiveFunc: func(ctx context.Context) ([]Ticket, error) {
			return []Ticket{{QueueID: 1, QueueNumber: 1, Status: StatusWaiting}}, nil
		},
	}
	publisher := testutil.NewMockPublisher()
	notifier := &mockNotifier{}
	service := NewService(mockRepo, publisher, nil, notifier)

	ticket, err := service.Admit(context.Background(), validAdmit())

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if ticket.QueueNumber != 1 || ticket.Status != StatusWaiting {
		t.Errorf("Unexpected ticket: %+v", ticket)
	}
	publisher.AssertEventCount(t, messaging.EventTicketCreated, 1)
	if len(notifier.snapshots) != 1 {
		t.Errorf("Expected 1 snapshot, got %d", len(notifier.snapshots))
	}
}

// TestAdmit_MissingFields tests validation of the admit payload
func TestAdmit_MissingFields(t *testing.T) {
	service := NewService(&mockRepository{}, nil, nil)

	req := validAdmit()
	req.Department = ""

	ticket, err := service.Admit(context.Background(), req)

	if ticket != nil {
		t.Error("Expected nil ticket")
	}
	if !apperror.Is(err, apperror.KindValidation) {
		t.Errorf("Expected validation error, got: %v", err)
	}
}

// TestSetStatus_InvalidToken tests rejection of unknown status strings
func TestSetStatus_InvalidToken(t *testing.T) {
	service := NewService(&mockRepository{}, nil, nil)

	if _, err := service.SetStatus(context.Background(), 1, Status("RUNNING")); !apperror.Is(err, apperror.KindValidation) {
		t.Errorf("Expected validation error, got: %v", err)
	}
}

// TestSetStatus_EmitsSnapshot tests that status changes reach the displays
func TestSetStatus_EmitsSnapshot(t *testing.T) {
	mockRepo := &mockRepository{
		setStatusFunc: func(ctx context.Context, queueID int, status Status) (*Ticket, error) {
			return &Ticket{QueueID: queueID, Status: status, Department: "Cardiology"}, nil
		},
	}
	publisher := testutil.NewMockPublisher()
	notifier := &mockNotifier{}
	service := NewService(mockRepo, publisher, nil, notifier)

	if _, err := service.SetStatus(context.Background(), 1, StatusDone); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	publisher.AssertEventPublished(t, messaging.EventQueueStatusChanged)
	if len(notifier.snapshots) != 1 {
		t.Errorf("Expected 1 snapshot, got %d", len(notifier.snapshots))
	}
}

// TestCallNext_Success tests promotion of the lowest waiting number
func TestCallNext_Success(t *testing.T) {
	mockRepo := &mockRepository{
		callNextFunc: func(ctx context.Context, department string) (*Ticket, error) {
			return &Ticket{QueueID: 3, Department: department, Status: StatusInProgress, QueueNumber: 2}, nil
		},
	}
	publisher := testutil.NewMockPublisher()
	service := NewService(mockRepo, publisher, nil)

	ticket, err := service.CallNext(context.Background(), "Cardiology")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if ticket.Status != StatusInProgress {
		t.Errorf("Expected IN_PROGRESS, got %s", ticket.Status)
	}
	publisher.AssertEventPublished(t, messaging.EventQueueStatusChanged)
}

// TestCallNext_NoneWaiting tests the empty-queue result
func TestCallNext_NoneWaiting(t *testing.T) {
	mockRepo := &mockRepository{
		callNextFunc: func(ctx context.Context, department string) (*Ticket, error) {
			return nil, nil
		},
	}
	publisher := testutil.NewMockPublisher()
	notifier := &mockNotifier{}
	service := NewService(mockRepo, publisher, nil, notifier)

	ticket, err := service.CallNext(context.Background(), "Cardiology")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if ticket != nil {
		t.Errorf("Expected nil ticket, got %+v", ticket)
	}
	if publisher.GetEventCountByKey(messaging.EventQueueStatusChanged) != 0 {
		t.Error("Expected no event when nothing was called")
	}
	if len(notifier.snapshots) != 0 {
		t.Error("Expected no snapshot when the queue did not change")
	}
}

// TestCallNext_DepartmentBusy tests refusal while a patient is in progress
func TestCallNext_DepartmentBusy(t *testing.T) {
	mockRepo := &mockRepository{
		callNextFunc: func(ctx context.Context, department string) (*Ticket, error) {
			return nil, ErrDepartmentBusy
		},
	}
	service := NewService(mockRepo, nil, nil)

	_, err := service.CallNext(context.Background(), "Cardiology")

	if !errors.Is(err, ErrDepartmentBusy) {
		t.Errorf("Expected ErrDepartmentBusy, got: %v", err)
	}
}

// TestComplete_MarksDone tests the completion shortcut
func TestComplete_MarksDone(t *testing.T) {
	var gotStatus Status
	mockRepo := &mockRepository{
		setStatusFunc: func(ctx context.Context, queueID int, status Status) (*Ticket, error) {
			gotStatus = status
			return &Ticket{QueueID: queueID, Status: status}, nil
		},
	}
	service := NewService(mockRepo, nil, nil)

	if _, err := service.Complete(context.Background(), 7); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if gotStatus != StatusDone {
		t.Errorf("Expected DONE, got %s", gotStatus)
	}
}

// TestPurgeStale_UsesRetentionWindow tests the retention sweep
func TestPurgeStale_UsesRetentionWindow(t *testing.T) {
	var gotWindow time.Duration
	mockRepo := &mockRepository{
		deleteStaleFunc: func(ctx context.Context, olderThan time.Duration) (int, error) {
			gotWindow = olderThan
			return 3, nil
		},
	}
	notifier := &mockNotifier{}
	service := NewService(mockRepo, nil, nil, notifier)

	count, err := service.PurgeStale(context.Background())

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 purged, got %d", count)
	}
	if gotWindow != StaleAfter {
		t.Errorf("Expected %v retention window, got %v", StaleAfter, gotWindow)
	}
	if len(notifier.snapshots) != 0 {
		t.Error("Expected no snapshot: purging DONE tickets does not change the active queue")
	}
}

// TestEmitSnapshot_RepositoryFailureIsSwallowed tests that broadcast trouble never fails a mutation
func TestEmitSnapshot_RepositoryFailureIsSwallowed(t *testing.T) {
	mockRepo := &mockRepository{
		admitFunc: func(ctx context.Context, req AdmitRequest) (*Ticket, error) {
			return &Ticket{QueueID: 1, Department: req.Department, Status: StatusWaiting, QueueNumber: 1}, nil
		},
		listActiveFunc: func(ctx context.Context) ([]Ticket, error) {
			return nil, errors.New("connection reset")
		},
	}
	notifier := &mockNotifier{}
	service := NewService(mockRepo, nil, nil, notifier)

	if _, err := service.Admit(context.Background(), validAdmit()); err != nil {
		t.Errorf("Expected snapshot failure to be swallowed, got: %v", err)
	}
	if len(notifier.snapshots) != 0 {
		t.Error("Expected no snapshot delivered after load failure")
	}
}
