package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medinotes/notes-api/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	return h, e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}

func TestHandler_Register(t *testing.T) {
	h, e := newTestHandler()

	body := `{"email":"newuser@test.com","password":"password123","full_name":"New User","role":"doctor"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var out map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out["email"] != "newuser@test.com" || out["role"] != "doctor" {
		t.Errorf("unexpected body %v", out)
	}
	if _, ok := out["hashed_password"]; ok {
		t.Error("hashed_password must not be serialized")
	}
}

func TestHandler_Register_Duplicate(t *testing.T) {
	h, e := newTestHandler()
	mustRegister(t, h.svc, "test@example.com", "doctor")

	body := `{"email":"test@example.com","password":"password123","full_name":"Dup","role":"doctor"}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), httptest.NewRecorder())

	err := h.Register(c)
	if httpCode(t, err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
	if he := err.(*echo.HTTPError); he.Message != "Email already registered" {
		t.Errorf("unexpected message %v", he.Message)
	}
}

func TestHandler_Register_MissingFields(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"email":"test@example.com"}`), httptest.NewRecorder())

	if code := httpCode(t, h.Register(c)); code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", code)
	}
}

func TestHandler_Login(t *testing.T) {
	h, e := newTestHandler()
	mustRegister(t, h.svc, "test@example.com", "doctor")

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"test@example.com","password":"password123"}`), rec)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var tok Token
	json.Unmarshal(rec.Body.Bytes(), &tok)
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Errorf("unexpected token response %+v", tok)
	}
}

func TestHandler_Login_Incorrect(t *testing.T) {
	h, e := newTestHandler()
	mustRegister(t, h.svc, "test@example.com", "doctor")

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"test@example.com","password":"wrong"}`), rec)
	err := h.Login(c)
	if httpCode(t, err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if !strings.Contains(strings.ToLower(err.(*echo.HTTPError).Message.(string)), "incorrect") {
		t.Errorf("unexpected message %v", err)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Error("expected WWW-Authenticate header")
	}
}

func TestHandler_Login_MissingPassword(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"test@example.com"}`), httptest.NewRecorder())

	if code := httpCode(t, h.Login(c)); code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", code)
	}
}

func TestHandler_Me(t *testing.T) {
	h, e := newTestHandler()
	u := mustRegister(t, h.svc, "me@example.com", "nurse")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), u.ID.String(), u.Email, u.Role))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Me(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got User
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.ID != u.ID {
		t.Errorf("expected %s, got %s", u.ID, got.ID)
	}
}

func TestHandler_Logout(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(context.WithValue(req.Context(), auth.TokenIDKey, "jti-logout"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if _, ok := h.svc.revoker.(*mockRevoker).revoked["jti-logout"]; !ok {
		t.Error("expected token to be revoked")
	}
}

func TestHandler_CreatePatient(t *testing.T) {
	h, e := newTestHandler()

	body := `{"first_name":"Jane","last_name":"Smith","date_of_birth":"1985-05-15","patient_id":"MRN-TEST-1","medical_record_number":"MRN-TEST-1","allergies":"Penicillin"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/patients", body), rec)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.FirstName != "Jane" || p.MedicalRecordNumber != "MRN-TEST-1" {
		t.Errorf("unexpected patient %+v", p)
	}
	if p.ID == uuid.Nil {
		t.Error("expected id in response")
	}
	if p.DateOfBirth == nil || *p.DateOfBirth != "1985-05-15" {
		t.Errorf("expected date_of_birth round trip, got %v", p.DateOfBirth)
	}
}

func TestHandler_CreatePatient_BadRequest(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, "/patients", `{"last_name":"Doe"}`), httptest.NewRecorder())

	if code := httpCode(t, h.CreatePatient(c)); code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", code)
	}
}

func TestHandler_GetPatient(t *testing.T) {
	h, e := newTestHandler()
	p := &Patient{FirstName: "John", LastName: "Doe", MedicalRecordNumber: "MRN-TEST-001"}
	h.svc.CreatePatient(context.Background(), p)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.GetPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, e := newTestHandler()

	for _, id := range []string{uuid.New().String(), "99999"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(id)

		err := h.GetPatient(c)
		if httpCode(t, err) != http.StatusNotFound {
			t.Errorf("expected 404 for %s, got %v", id, err)
		}
		if msg := err.(*echo.HTTPError).Message; msg != "Patient not found" {
			t.Errorf("unexpected message %v", msg)
		}
	}
}

func TestHandler_ListPatients(t *testing.T) {
	h, e := newTestHandler()
	h.svc.CreatePatient(context.Background(), &Patient{FirstName: "John", LastName: "Doe", MedicalRecordNumber: "M-1"})
	h.svc.CreatePatient(context.Background(), &Patient{FirstName: "Jane", LastName: "Roe", MedicalRecordNumber: "M-2"})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/patients?search=doe", nil), rec)

	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out []Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("expected JSON array: %v", err)
	}
	if len(out) != 1 || out[0].LastName != "Doe" {
		t.Errorf("unexpected list %+v", out)
	}
	if rec.Header().Get("X-Total-Count") != "1" {
		t.Errorf("expected total count 1, got %q", rec.Header().Get("X-Total-Count"))
	}
}

func TestHandler_ListPatients_Empty(t *testing.T) {
	h, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/patients", nil), rec)

	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

func TestHandler_UpdatePatient(t *testing.T) {
	h, e := newTestHandler()
	p := &Patient{FirstName: "John", LastName: "Doe", MedicalRecordNumber: "M-5"}
	h.svc.CreatePatient(context.Background(), p)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/", `{"last_name":"Updated","allergies":"Updated allergies"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Patient
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.LastName != "Updated" || got.FirstName != "John" {
		t.Errorf("unexpected patient %+v", got)
	}
	if got.Allergies == nil || *got.Allergies != "Updated allergies" {
		t.Errorf("expected allergies updated, got %v", got.Allergies)
	}
}

func TestHandler_DeletePatient(t *testing.T) {
	h, e := newTestHandler()
	p := &Patient{FirstName: "John", LastName: "Doe", MedicalRecordNumber: "M-6"}
	h.svc.CreatePatient(context.Background(), p)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRegisterRoutes_DeleteRequiresDoctor(t *testing.T) {
	h, e := newTestHandler()
	p := &Patient{FirstName: "John", LastName: "Doe", MedicalRecordNumber: "M-7"}
	h.svc.CreatePatient(context.Background(), p)

	withRole := func(role string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				ctx := auth.WithIdentity(c.Request().Context(), uuid.NewString(), "x@example.com", role)
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			}
		}
	}

	nurseAPI := echo.New()
	nurseAPI.Use(withRole(auth.RoleNurse))
	h.RegisterRoutes(nurseAPI.Group(""))
	rec := httptest.NewRecorder()
	nurseAPI.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/patients/"+p.ID.String(), nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for nurse delete, got %d", rec.Code)
	}

	e.Use(withRole(auth.RoleDoctor))
	h.RegisterRoutes(e.Group(""))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/patients/"+p.ID.String(), nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for doctor delete, got %d", rec.Code)
	}
}
