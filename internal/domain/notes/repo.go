package notes

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, n *Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)
	Update(ctx context.Context, n *Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*ListedNote, int, error)
	// ListByPatient returns up to limit notes for a patient, newest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Note, error)
	SaveAIResult(ctx context.Context, id uuid.UUID, r AIResult) error
}
