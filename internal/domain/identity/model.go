package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of date_of_birth.
const DateLayout = "2006-01-02"

// User maps to the users table.
type User struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	FullName       string    `db:"full_name" json:"full_name"`
	Role           string    `db:"role" json:"role"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Patient maps to the patients table. DateOfBirth is kept as YYYY-MM-DD.
type Patient struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	PatientID           string    `db:"patient_id" json:"patient_id"`
	MedicalRecordNumber string    `db:"medical_record_number" json:"medical_record_number"`
	FirstName           string    `db:"first_name" json:"first_name"`
	LastName            string    `db:"last_name" json:"last_name"`
	DateOfBirth         *string   `db:"date_of_birth" json:"date_of_birth"`
	Gender              *string   `db:"gender" json:"gender"`
	Phone               *string   `db:"phone" json:"phone"`
	Email               *string   `db:"email" json:"email"`
	Address             *string   `db:"address" json:"address"`
	Allergies           *string   `db:"allergies" json:"allergies"`
	MedicalHistory      *string   `db:"medical_history" json:"medical_history"`
	EmergencyContact    *string   `db:"emergency_contact" json:"emergency_contact"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// FullName is the display name used on notes and overviews.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PatientUpdate is a partial update; nil fields are left unchanged.
type PatientUpdate struct {
	PatientID           *string `json:"patient_id"`
	MedicalRecordNumber *string `json:"medical_record_number"`
	FirstName           *string `json:"first_name"`
	LastName            *string `json:"last_name"`
	DateOfBirth         *string `json:"date_of_birth"`
	Gender              *string `json:"gender"`
	Phone               *string `json:"phone"`
	Email               *string `json:"email"`
	Address             *string `json:"address"`
	Allergies           *string `json:"allergies"`
	MedicalHistory      *string `json:"medical_history"`
	EmergencyContact    *string `json:"emergency_contact"`
}

// Apply copies the set fields of u onto p.
func (u *PatientUpdate) Apply(p *Patient) {
	setString(&p.PatientID, u.PatientID)
	setString(&p.MedicalRecordNumber, u.MedicalRecordNumber)
	setString(&p.FirstName, u.FirstName)
	setString(&p.LastName, u.LastName)
	setOptional(&p.DateOfBirth, u.DateOfBirth)
	setOptional(&p.Gender, u.Gender)
	setOptional(&p.Phone, u.Phone)
	setOptional(&p.Email, u.Email)
	setOptional(&p.Address, u.Address)
	setOptional(&p.Allergies, u.Allergies)
	setOptional(&p.MedicalHistory, u.MedicalHistory)
	setOptional(&p.EmergencyContact, u.EmergencyContact)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setOptional(dst **string, v *string) {
	if v != nil {
		s := *v
		*dst = &s
	}
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Token is the login response.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
