package identity

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

// Client-facing messages shared by the repositories and the service.
const (
	msgUserNotFound     = "User not found"
	msgPatientNotFound  = "Patient not found"
	msgEmailRegistered  = "Email already registered"
	msgPatientDuplicate = "Patient with this medical record number or patient id already exists"
)

// -- User Repository --

type userRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

const userCols = `id, email, hashed_password, full_name, role, is_active, created_at, updated_at`

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (id, email, hashed_password, full_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		u.ID, u.Email, u.HashedPassword, u.FullName, u.Role, u.IsActive,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict(msgEmailRegistered)
	}
	if err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userCols+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *userRepoPG) getOne(ctx context.Context, sql string, arg interface{}) (*User, error) {
	var u User
	err := db.Conn(ctx, r.pool).QueryRow(ctx, sql, arg).Scan(
		&u.ID, &u.Email, &u.HashedPassword, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("user get: %w", err)
	}
	return &u, nil
}

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, patient_id, medical_record_number, first_name, last_name,
	to_char(date_of_birth, 'YYYY-MM-DD'), gender, phone, email, address,
	allergies, medical_history, emergency_contact, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patients (
			id, patient_id, medical_record_number, first_name, last_name,
			date_of_birth, gender, phone, email, address,
			allergies, medical_history, emergency_contact
		) VALUES ($1,$2,$3,$4,$5,$6::date,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		p.ID, p.PatientID, p.MedicalRecordNumber, p.FirstName, p.LastName,
		p.DateOfBirth, p.Gender, p.Phone, p.Email, p.Address,
		p.Allergies, p.MedicalHistory, p.EmergencyContact,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict(msgPatientDuplicate)
	}
	if err != nil {
		return fmt.Errorf("patient create: %w", err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound(msgPatientNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("patient get by id: %w", err)
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patients SET
			patient_id = $2, medical_record_number = $3, first_name = $4, last_name = $5,
			date_of_birth = $6::date, gender = $7, phone = $8, email = $9, address = $10,
			allergies = $11, medical_history = $12, emergency_contact = $13,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.PatientID, p.MedicalRecordNumber, p.FirstName, p.LastName,
		p.DateOfBirth, p.Gender, p.Phone, p.Email, p.Address,
		p.Allergies, p.MedicalHistory, p.EmergencyContact,
	).Scan(&p.UpdatedAt)
	switch {
	case db.IsNoRows(err):
		return apperr.NotFound(msgPatientNotFound)
	case db.IsUniqueViolation(err):
		return apperr.Conflict(msgPatientDuplicate)
	case err != nil:
		return fmt.Errorf("patient update: %w", err)
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("patient delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(msgPatientNotFound)
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	where, args := patientSearchClause(search)

	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("patient count: %w", err)
	}

	n := len(args)
	args = append(args, limit, offset)
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+patientCols+` FROM patients`+where+
			fmt.Sprintf(` ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`, n+1, n+2),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("patient list: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

func patientSearchClause(search string) (string, []interface{}) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", nil
	}
	return ` WHERE first_name ILIKE $1 OR last_name ILIKE $1
		OR (first_name || ' ' || last_name) ILIKE $1
		OR patient_id ILIKE $1 OR medical_record_number ILIKE $1`,
		[]interface{}{"%" + escapeLike(search) + "%"}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.PatientID, &p.MedicalRecordNumber, &p.FirstName, &p.LastName,
		&p.DateOfBirth, &p.Gender, &p.Phone, &p.Email, &p.Address,
		&p.Allergies, &p.MedicalHistory, &p.EmergencyContact, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
