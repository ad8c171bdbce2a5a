package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MediTrack-HMS/visit-queue-service/internal/apperror"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const ticketColumns = `queue_id, patient_id, national_id, patient_name, department, status, queue_number, created_at, updated_at`

// lockDepartment takes the transaction-scoped advisory lock that serializes
// all numbering and call-next decisions for one department.
func lockDepartment(ctx context.Context, tx *sql.Tx, department string) error {
	_, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended('queue:' || $1, 0))`,
		department,
	)
	if err != nil {
		return apperror.Store("failed to acquire department lock", err)
	}
	return nil
}

// Admit inserts a WAITING ticket with the next queue number for the
// department's active session: max over WAITING/IN_PROGRESS tickets plus one,
// starting back at 1 once the active queue has fully drained. The department
// lock guarantees no duplicate number within a session.
func (r *Repository) Admit(ctx context.Context, req AdmitRequest) (*Ticket, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.Store("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := lockDepartment(ctx, tx, req.Department); err != nil {
		return nil, err
	}

	var nextNumber int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(queue_number), 0) + 1
		FROM hospital.queue_tickets
		WHERE department = $1 AND status IN ('WAITING', 'IN_PROGRESS')`,
		req.Department,
	).Scan(&nextNumber)
	if err != nil {
		return nil, apperror.Store("failed to compute next queue number", err)
	}

	ticket, err := scanTicket(tx.QueryRowContext(ctx, `
		INSERT INTO hospital.queue_tickets
			(patient_id, national_id, patient_name, department, status, queue_number)
		VALUES ($1, $2, $3, $4, 'WAITING', $5)
		RETURNING `+ticketColumns,
		req.PatientID, req.NationalID, req.PatientName, req.Department, nextNumber,
	))
	if err != nil {
		return nil, apperror.FromStore("failed to insert queue ticket", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.Store("failed to commit admission", err)
	}
	return ticket, nil
}

func (r *Repository) GetByID(ctx context.Context, queueID int) (*Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM hospital.queue_tickets WHERE queue_id = $1`,
		queueID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("queue ticket not found")
	}
	if err != nil {
		return nil, apperror.Store("failed to query queue ticket", err)
	}
	return t, nil
}

// ListActive returns all WAITING and IN_PROGRESS tickets ordered by
// (department, queue_number).
func (r *Repository) ListActive(ctx context.Context) ([]Ticket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ticketColumns+`
		FROM hospital.queue_tickets
		WHERE status IN ('WAITING', 'IN_PROGRESS')
		ORDER BY department, queue_number`)
	if err != nil {
		return nil, apperror.Store("failed to query active queue", err)
	}
	defer rows.Close()

	return collectTickets(rows)
}

// ListByDepartment returns the active tickets for one department ordered by
// queue number.
func (r *Repository) ListByDepartment(ctx context.Context, department string) ([]Ticket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ticketColumns+`
		FROM hospital.queue_tickets
		WHERE department = $1 AND status IN ('WAITING', 'IN_PROGRESS')
		ORDER BY queue_number`,
		department)
	if err != nil {
		return nil, apperror.Store("failed to query department queue", err)
	}
	defer rows.Close()

	return collectTickets(rows)
}

// SetStatus updates a ticket's status and refreshes updated_at. No state
// machine check here: this is the storage primitive behind both the guarded
// transitions and the administrative override.
func (r *Repository) SetStatus(ctx context.Context, queueID int, status Status) (*Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx, `
		UPDATE hospital.queue_tickets
		SET status = $1, updated_at = now()
		WHERE queue_id = $2
		RETURNING `+ticketColumns,
		string(status), queueID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("queue ticket not found")
	}
	if err != nil {
		return nil, apperror.Store("failed to update queue status", err)
	}
	return t, nil
}

// CallNext promotes the smallest-numbered WAITING ticket in the department to
// IN_PROGRESS. Returns (nil, nil) when nothing is waiting, and
// ErrDepartmentBusy while another ticket is still IN_PROGRESS — the
// department lock makes the busy-check-then-promote sequence atomic.
func (r *Repository) CallNext(ctx context.Context, department string) (*Ticket, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.Store("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := lockDepartment(ctx, tx, department); err != nil {
		return nil, err
	}

	var busy bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM hospital.queue_tickets
			WHERE department = $1 AND status = 'IN_PROGRESS'
		)`, department,
	).Scan(&busy)
	if err != nil {
		return nil, apperror.Store("failed to check department state", err)
	}
	if busy {
		return nil, ErrDepartmentBusy
	}

	var queueID int
	err = tx.QueryRowContext(ctx, `
		SELECT queue_id FROM hospital.queue_tickets
		WHERE department = $1 AND status = 'WAITING'
		ORDER BY queue_number
		LIMIT 1`, department,
	).Scan(&queueID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // nothing waiting; not an error
	}
	if err != nil {
		return nil, apperror.Store("failed to select next waiting ticket", err)
	}

	ticket, err := scanTicket(tx.QueryRowContext(ctx, `
		UPDATE hospital.queue_tickets
		SET status = 'IN_PROGRESS', updated_at = now()
		WHERE queue_id = $1
		RETURNING `+ticketColumns,
		queueID,
	))
	if err != nil {
		return nil, apperror.Store("failed to promote ticket", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.Store("failed to commit call-next", err)
	}
	return ticket, nil
}

// DeleteStale removes DONE tickets whose updated_at is older than the cutoff.
// Idempotent; safe on any schedule.
func (r *Repository) DeleteStale(ctx context.Context, olderThan time.Duration) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM hospital.queue_tickets
		WHERE status = 'DONE' AND updated_at < now() - $1::interval`,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())),
	)
	if err != nil {
		return 0, apperror.Store("failed to delete stale tickets", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, apperror.Store("failed to read purge result", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTicket(row rowScanner) (*Ticket, error) {
	var (
		t      Ticket
		status string
	)
	err := row.Scan(
		&t.QueueID,
		&t.PatientID,
		&t.NationalID,
		&t.PatientName,
		&t.Department,
		&status,
		&t.QueueNumber,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = Status(status)
	return &t, nil
}

func collectTickets(rows *sql.Rows) ([]Ticket, error) {
	var tickets []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, apperror.Store("failed to scan queue ticket", err)
		}
		tickets = append(tickets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Store("error iterating queue tickets", err)
	}
	return tickets, nil
}
