package scheduling

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medinotes/notes-api/internal/platform/db"
	"github.com/medinotes/notes-api/pkg/apperr"
)

const (
	msgAppointmentNotFound = "Appointment not found"
	msgParticipantNotFound = "Patient or doctor not found"
)

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const apptCols = `id, patient_id, doctor_id, appointment_date, duration_minutes, status,
	reason, notes, created_at, updated_at`

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, appointment_date, duration_minutes, status, reason, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.AppointmentDate, a.DurationMinutes, a.Status, a.Reason, a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return apperr.NotFound(msgParticipantNotFound)
	}
	if err != nil {
		return fmt.Errorf("appointment create: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound(msgAppointmentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("appointment get by id: %w", err)
	}
	return a, nil
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE appointments SET
			patient_id = $2, doctor_id = $3, appointment_date = $4, duration_minutes = $5,
			status = $6, reason = $7, notes = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.AppointmentDate, a.DurationMinutes, a.Status, a.Reason, a.Notes,
	).Scan(&a.UpdatedAt)
	switch {
	case db.IsNoRows(err):
		return apperr.NotFound(msgAppointmentNotFound)
	case db.IsForeignKeyViolation(err):
		return apperr.NotFound(msgParticipantNotFound)
	case err != nil:
		return fmt.Errorf("appointment update: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointment delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(msgAppointmentNotFound)
	}
	return nil
}

func (r *appointmentRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		conds = append(conds, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		conds = append(conds, fmt.Sprintf("doctor_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("appointment count: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+apptCols+` FROM appointments`+where+
			fmt.Sprintf(` ORDER BY appointment_date, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("appointment list: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentDate, &a.DurationMinutes, &a.Status,
		&a.Reason, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
