package scheduling

import (
	"context"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List orders by appointment_date ascending.
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
}
