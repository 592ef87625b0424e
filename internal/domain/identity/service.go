package identity

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medinotes/notes-api/internal/platform/auth"
	"github.com/medinotes/notes-api/pkg/apperr"
)

const (
	msgBadCredentials = "Incorrect email or password"
	msgInactiveUser   = "Inactive user"
)

// Revoker invalidates an issued access token before it expires.
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

type Service struct {
	users    UserRepository
	patients PatientRepository
	tokens   *auth.TokenIssuer
	revoker  Revoker
}

func NewService(users UserRepository, patients PatientRepository, tokens *auth.TokenIssuer, revoker Revoker) *Service {
	return &Service{users: users, patients: patients, tokens: tokens, revoker: revoker}
}

// -- Users --

// Register creates an active user. Role defaults to nurse.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		return nil, apperr.Validation("email, password and full_name are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("email is not a valid address")
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = auth.RoleNurse
	}
	if !auth.ValidRole(role) {
		return nil, apperr.Validation(fmt.Sprintf("role must be one of %s, %s, %s", auth.RoleAdmin, auth.RoleDoctor, auth.RoleNurse))
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict(msgEmailRegistered)
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Email:          email,
		HashedPassword: hash,
		FullName:       strings.TrimSpace(req.FullName),
		Role:           role,
		IsActive:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Token, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, apperr.Validation("email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if apperr.IsNotFound(err) {
		return nil, apperr.Unauthorized(msgBadCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.HashedPassword, req.Password) {
		return nil, apperr.Unauthorized(msgBadCredentials)
	}
	if !u.IsActive {
		return nil, apperr.BadRequest(msgInactiveUser)
	}

	signed, exp, err := s.tokens.Issue(u.ID.String(), u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: signed, TokenType: auth.TokenType, ExpiresAt: exp}, nil
}

// CurrentUser loads the authenticated caller. A deleted or deactivated
// account is reported as unauthorized.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return nil, apperr.Unauthorized("Could not validate credentials")
	}
	u, err := s.users.GetByID(ctx, id)
	if apperr.IsNotFound(err) {
		return nil, apperr.Unauthorized("Could not validate credentials")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.BadRequest(msgInactiveUser)
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// Logout revokes the token carried by ctx until it would have expired.
func (s *Service) Logout(ctx context.Context) error {
	jti, exp := auth.TokenFromContext(ctx)
	if jti == "" || s.revoker == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, jti, exp)
}

// -- Patients --

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.MedicalRecordNumber = strings.TrimSpace(p.MedicalRecordNumber)
	p.PatientID = strings.TrimSpace(p.PatientID)
	if p.FirstName == "" || p.LastName == "" {
		return apperr.Validation("first_name and last_name are required")
	}
	if p.MedicalRecordNumber == "" {
		return apperr.Validation("medical_record_number is required")
	}
	if p.PatientID == "" {
		p.PatientID = p.MedicalRecordNumber
	}
	if err := normalizeDate(&p.DateOfBirth); err != nil {
		return err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// UpdatePatient applies a partial update and returns the stored patient.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, u *PatientUpdate) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Apply(p)
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return nil, apperr.Validation("first_name and last_name are required")
	}
	if strings.TrimSpace(p.MedicalRecordNumber) == "" || strings.TrimSpace(p.PatientID) == "" {
		return nil, apperr.Validation("medical_record_number and patient_id cannot be empty")
	}
	if err := normalizeDate(&p.DateOfBirth); err != nil {
		return nil, err
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, search, limit, offset)
}

// normalizeDate clears an empty date and rejects anything but YYYY-MM-DD.
func normalizeDate(v **string) error {
	if *v == nil {
		return nil
	}
	if strings.TrimSpace(**v) == "" {
		*v = nil
		return nil
	}
	if _, err := time.Parse(DateLayout, **v); err != nil {
		return apperr.Validation("date_of_birth must be formatted as YYYY-MM-DD")
	}
	return nil
}
