package scheduling

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// DefaultDurationMinutes applies when a booking gives no duration.
const DefaultDurationMinutes = 30

// Appointment maps to the appointments table.
type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctor_id"`
	AppointmentDate time.Time `db:"appointment_date" json:"appointment_date"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Status          string    `db:"status" json:"status"`
	Reason          *string   `db:"reason" json:"reason"`
	Notes           *string   `db:"notes" json:"notes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// EndsAt is the scheduled end of the appointment.
func (a *Appointment) EndsAt() time.Time {
	return a.AppointmentDate.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// AppointmentUpdate is a partial update; nil fields are left unchanged.
type AppointmentUpdate struct {
	PatientID       *uuid.UUID `json:"patient_id"`
	DoctorID        *uuid.UUID `json:"doctor_id"`
	AppointmentDate *time.Time `json:"appointment_date"`
	DurationMinutes *int       `json:"duration_minutes"`
	Status          *string    `json:"status"`
	Reason          *string    `json:"reason"`
	Notes           *string    `json:"notes"`
}

// Apply copies the set fields of u onto a.
func (u *AppointmentUpdate) Apply(a *Appointment) {
	if u.PatientID != nil {
		a.PatientID = *u.PatientID
	}
	if u.DoctorID != nil {
		a.DoctorID = *u.DoctorID
	}
	if u.AppointmentDate != nil {
		a.AppointmentDate = *u.AppointmentDate
	}
	if u.DurationMinutes != nil {
		a.DurationMinutes = *u.DurationMinutes
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
	if u.Reason != nil {
		a.Reason = u.Reason
	}
	if u.Notes != nil {
		a.Notes = u.Notes
	}
}

// Filter narrows an appointment listing.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
}
