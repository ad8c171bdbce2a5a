package patient

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

const patientColumns = `patient_id, national_id, name, age, gender, address, phone, department_history, visit_count, created_at`

// RecordVisit finds or creates the patient for req.NationalID and merges the
// visit into their history. The whole sequence runs in one transaction under
// a per-national-ID advisory lock, so concurrent visits for the same person
// serialize: exactly one caller creates the row, and no history append or
// visit_count increment is lost. Returns the post-mutation record and what
// the call actually did.
func (r *Repository) RecordVisit(ctx context.Context, req VisitRequest) (*Patient, VisitOutcome, error) {
	var outcome VisitOutcome

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, outcome, apperror.Store("failed to begin transaction", err)
	}
	defer tx.Rollback()

	// Transaction-scoped lock keyed on the national ID. Released on commit
	// or rollback.
	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended('patient:' || $1, 0))`,
		req.NationalID,
	); err != nil {
		return nil, outcome, apperror.Store("failed to acquire patient lock", err)
	}

	existing, err := scanPatient(tx.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM hospital.patients WHERE national_id = $1`,
		req.NationalID,
	))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, outcome, apperror.Store("failed to look up patient", err)
	}

	var result *Patient

	if existing == nil {
		result, err = r.insertPatient(ctx, tx, req)
		if err != nil {
			return nil, outcome, err
		}
		outcome = VisitOutcome{Created: true, NewDepartment: true}
	} else {
		var appended bool
		result, appended, err = r.mergeVisit(ctx, tx, existing, req.Department)
		if err != nil {
			return nil, outcome, err
		}
		outcome = VisitOutcome{NewDepartment: appended}
	}

	if err := tx.Commit(); err != nil {
		return nil, outcome, apperror.Store("failed to commit visit", err)
	}
	return result, outcome, nil
}

func (r *Repository) insertPatient(ctx context.Context, tx *sql.Tx, req VisitRequest) (*Patient, error) {
	row := tx.QueryRowContext(ctx, `
		INSERT INTO hospital.patients
			(national_id, name, age, gender, address, phone, department_history, visit_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		RETURNING `+patientColumns,
		req.NationalID,
		req.Name,
		nullableInt(req.Age),
		nullableString(req.Gender),
		nullableString(req.Address),
		nullableString(req.Phone),
		JoinHistory([]string{req.Department}),
	)

	p, err := scanPatient(row)
	if err != nil {
		return nil, apperror.FromStore("failed to insert patient", err)
	}
	return p, nil
}

func (r *Repository) mergeVisit(ctx context.Context, tx *sql.Tx, existing *Patient, department string) (*Patient, bool, error) {
	merged, appended := MergeVisit(existing.DepartmentHistory, department)
	if !appended {
		// Idempotent no-op visit: same department again.
		return existing, false, nil
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE hospital.patients
		SET department_history = $1, visit_count = visit_count + 1
		WHERE national_id = $2
		RETURNING `+patientColumns,
		JoinHistory(merged),
		existing.NationalID,
	)

	p, err := scanPatient(row)
	if err != nil {
		return nil, false, apperror.Store("failed to update department history", err)
	}
	return p, true, nil
}

// AppendDepartment merges a department visit for an existing patient without
// the find-or-create step. Direct department updates only; RecordVisit is the
// normal path.
func (r *Repository) AppendDepartment(ctx context.Context, nationalID, department string) (*Patient, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.Store("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended('patient:' || $1, 0))`,
		nationalID,
	); err != nil {
		return nil, apperror.Store("failed to acquire patient lock", err)
	}

	existing, err := scanPatient(tx.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM hospital.patients WHERE national_id = $1`,
		nationalID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("patient not found")
	}
	if err != nil {
		return nil, apperror.Store("failed to look up patient", err)
	}

	result, _, err := r.mergeVisit(ctx, tx, existing, department)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.Store("failed to commit department update", err)
	}
	return result, nil
}

func (r *Repository) FindByNationalID(ctx context.Context, nationalID string) (*Patient, error) {
	p, err := scanPatient(r.db.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM hospital.patients WHERE national_id = $1`,
		nationalID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("patient not found")
	}
	if err != nil {
		return nil, apperror.Store("failed to query patient", err)
	}
	return p, nil
}

func (r *Repository) FindByPatientID(ctx context.Context, patientID int) (*Patient, error) {
	p, err := scanPatient(r.db.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM hospital.patients WHERE patient_id = $1`,
		patientID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("patient not found")
	}
	if err != nil {
		return nil, apperror.Store("failed to query patient", err)
	}
	return p, nil
}

// ListAll returns every patient. Ties in visit_count break by national_id
// ascending.
func (r *Repository) ListAll(ctx context.Context, orderBy OrderBy) ([]Patient, error) {
	order := `national_id ASC`
	if orderBy == OrderByVisitCount {
		order = `visit_count DESC, national_id ASC`
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+patientColumns+` FROM hospital.patients ORDER BY `+order)
	if err != nil {
		return nil, apperror.Store("failed to query patients", err)
	}
	defer rows.Close()

	return collectPatients(rows)
}

// ListPaged returns one page of patients plus the total row count.
func (r *Repository) ListPaged(ctx context.Context, orderBy OrderBy, limit, offset int) ([]Patient, int, error) {
	order := `national_id ASC`
	if orderBy == OrderByVisitCount {
		order = `visit_count DESC, national_id ASC`
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hospital.patients`).Scan(&total); err != nil {
		return nil, 0, apperror.Store("failed to count patients", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+patientColumns+` FROM hospital.patients ORDER BY `+order+` LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, apperror.Store("failed to query patients", err)
	}
	defer rows.Close()

	patients, err := collectPatients(rows)
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

// ListByDateRange returns patients created between start and end, inclusive
// on the date component.
func (r *Repository) ListByDateRange(ctx context.Context, start, end time.Time) ([]Patient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+patientColumns+`
		FROM hospital.patients
		WHERE created_at::date BETWEEN $1::date AND $2::date
		ORDER BY created_at DESC`,
		start, end)
	if err != nil {
		return nil, apperror.Store("failed to query patients by date range", err)
	}
	defer rows.Close()

	return collectPatients(rows)
}

// ListCreatedToday returns patients whose created_at falls on the current date.
func (r *Repository) ListCreatedToday(ctx context.Context) ([]Patient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+patientColumns+`
		FROM hospital.patients
		WHERE created_at::date = CURRENT_DATE
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, apperror.Store("failed to query today's patients", err)
	}
	defer rows.Close()

	return collectPatients(rows)
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hospital.patients`).Scan(&total); err != nil {
		return 0, apperror.Store("failed to count patients", err)
	}
	return total, nil
}

// Delete removes a patient by national ID. Administrative escape hatch only.
func (r *Repository) Delete(ctx context.Context, nationalID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM hospital.patients WHERE national_id = $1`, nationalID)
	if err != nil {
		return apperror.Store("failed to delete patient", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperror.Store("failed to read delete result", err)
	}
	if affected == 0 {
		return apperror.NotFound("patient not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*Patient, error) {
	var (
		p       Patient
		age     sql.NullInt64
		gender  sql.NullString
		address sql.NullString
		phone   sql.NullString
		history string
	)

	err := row.Scan(
		&p.PatientID,
		&p.NationalID,
		&p.Name,
		&age,
		&gender,
		&address,
		&phone,
		&history,
		&p.VisitCount,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if age.Valid {
		a := int(age.Int64)
		p.Age = &a
	}
	if gender.Valid {
		p.Gender = gender.String
	}
	if address.Valid {
		p.Address = address.String
	}
	if phone.Valid {
		p.Phone = phone.String
	}
	p.DepartmentHistory = SplitHistory(history)

	return &p, nil
}

func collectPatients(rows *sql.Rows) ([]Patient, error) {
	var patients []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, apperror.Store("failed to scan patient", err)
		}
		patients = append(patients, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Store(fmt.Sprintf("error iterating %d patients", len(patients)), err)
	}
	return patients, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
