package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medinotes/notes-api/internal/platform/auth"
	"github.com/medinotes/notes-api/pkg/apperr"
)

type Service struct {
	appointments AppointmentRepository
}

func NewService(appt AppointmentRepository) *Service {
	return &Service{appointments: appt}
}

var validAppointmentStatuses = map[string]bool{
	StatusScheduled: true, StatusConfirmed: true, StatusCompleted: true,
	StatusCancelled: true, StatusNoShow: true,
}

func ValidStatus(s string) bool { return validAppointmentStatuses[s] }

// CreateAppointment books an appointment. A doctor booking without a
// doctor_id books for themselves.
func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if a.DoctorID == uuid.Nil && auth.RoleFromContext(ctx) == auth.RoleDoctor {
		if id, err := uuid.Parse(auth.UserIDFromContext(ctx)); err == nil {
			a.DoctorID = id
		}
	}
	if a.DoctorID == uuid.Nil {
		return apperr.Validation("doctor_id is required")
	}
	if a.AppointmentDate.IsZero() {
		return apperr.Validation("appointment_date is required")
	}
	if a.DurationMinutes == 0 {
		a.DurationMinutes = DefaultDurationMinutes
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if err := validate(a); err != nil {
		return err
	}
	return s.appointments.Create(ctx, a)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// UpdateAppointment applies a partial update and returns the stored row.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, u *AppointmentUpdate) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Apply(a)
	if err := validate(a); err != nil {
		return nil, err
	}
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.appointments.Delete(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, invalidStatus(f.Status)
	}
	return s.appointments.List(ctx, f, limit, offset)
}

func validate(a *Appointment) error {
	if !ValidStatus(a.Status) {
		return invalidStatus(a.Status)
	}
	if a.DurationMinutes <= 0 {
		return apperr.Validation("duration_minutes must be positive")
	}
	return nil
}

func invalidStatus(s string) error {
	return apperr.BadRequest(fmt.Sprintf("Invalid appointment status: %s", s))
}
