package notes

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
	msgNoteNotFound    = "Note not found"
	msgPatientNotFound = "Patient not found"
)

type noteRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &noteRepoPG{pool: pool}
}

const noteCols = `n.id, n.patient_id, n.author_id, n.title, n.content, n.note_type,
	n.summary, n.risk_level, n.recommendations, n.key_findings, n.ai_processed_at,
	n.created_at, n.updated_at`

func (r *noteRepoPG) Create(ctx context.Context, n *Note) error {
	n.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO notes (id, patient_id, author_id, title, content, note_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		n.ID, n.PatientID, n.AuthorID, n.Title, n.Content, n.NoteType,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return apperr.NotFound(msgPatientNotFound)
	}
	if err != nil {
		return fmt.Errorf("note create: %w", err)
	}
	return nil
}

func (r *noteRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Note, error) {
	n, err := scanNote(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+noteCols+` FROM notes n WHERE n.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound(msgNoteNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("note get by id: %w", err)
	}
	return n, nil
}

func (r *noteRepoPG) Update(ctx context.Context, n *Note) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE notes SET title = $2, content = $3, note_type = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		n.ID, n.Title, n.Content, n.NoteType,
	).Scan(&n.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound(msgNoteNotFound)
	}
	if err != nil {
		return fmt.Errorf("note update: %w", err)
	}
	return nil
}

func (r *noteRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("note delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(msgNoteNotFound)
	}
	return nil
}

func (r *noteRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*ListedNote, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.NoteType != "" {
		args = append(args, f.NoteType)
		conds = append(conds, fmt.Sprintf("n.note_type = $%d", len(args)))
	}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		conds = append(conds, fmt.Sprintf("n.patient_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM notes n`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("note count: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+noteCols+`, u.full_name, p.first_name || ' ' || p.last_name
		FROM notes n
		JOIN users u ON u.id = n.author_id
		JOIN patients p ON p.id = n.patient_id`+where+
		fmt.Sprintf(` ORDER BY n.created_at DESC, n.id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("note list: %w", err)
	}
	defer rows.Close()

	var out []*ListedNote
	for rows.Next() {
		var ln ListedNote
		n := &ln.Note
		if err := rows.Scan(
			&n.ID, &n.PatientID, &n.AuthorID, &n.Title, &n.Content, &n.NoteType,
			&n.Summary, &n.RiskLevel, &n.Recommendations, &n.KeyFindings, &n.AIProcessedAt,
			&n.CreatedAt, &n.UpdatedAt,
			&ln.AuthorName, &ln.PatientName,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, &ln)
	}
	return out, total, rows.Err()
}

func (r *noteRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Note, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+noteCols+` FROM notes n WHERE n.patient_id = $1 ORDER BY n.created_at DESC, n.id LIMIT $2`,
		patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("note list by patient: %w", err)
	}
	defer rows.Close()

	var out []*Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *noteRepoPG) SaveAIResult(ctx context.Context, id uuid.UUID, res AIResult) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE notes SET summary = $2, risk_level = $3, recommendations = $4,
			key_findings = $5, ai_processed_at = $6, updated_at = NOW()
		WHERE id = $1`,
		id, res.Summary, string(res.RiskLevel), res.Recommendations, res.KeyFindings, res.ProcessedAt)
	if err != nil {
		return fmt.Errorf("note save ai result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(msgNoteNotFound)
	}
	return nil
}

func scanNote(row pgx.Row) (*Note, error) {
	var n Note
	err := row.Scan(
		&n.ID, &n.PatientID, &n.AuthorID, &n.Title, &n.Content, &n.NoteType,
		&n.Summary, &n.RiskLevel, &n.Recommendations, &n.KeyFindings, &n.AIProcessedAt,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
