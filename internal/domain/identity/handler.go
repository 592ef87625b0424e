package identity

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medinotes/notes-api/internal/platform/auth"
	"github.com/medinotes/notes-api/pkg/apperr"
	"github.com/medinotes/notes-api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Register and login are public; see auth.IsPublicPath.
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.GET("/auth/me", h.Me)
	api.POST("/auth/logout", h.Logout)

	// Clinical staff may read and edit patient demographics.
	staff := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse)
	api.GET("/patients", h.ListPatients, staff)
	api.GET("/patients/:id", h.GetPatient, staff)
	api.POST("/patients", h.CreatePatient, staff)
	api.PUT("/patients/:id", h.UpdatePatient, staff)

	// Deletion is limited to doctors (and admins).
	api.DELETE("/patients/:id", h.DeletePatient, auth.RequireRole(auth.RoleDoctor))
}

// -- Auth Handlers --

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	u, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	tok, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		if apperr.Status(err) == http.StatusUnauthorized {
			c.Response().Header().Set("WWW-Authenticate", "Bearer")
		}
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, tok)
}

func (h *Handler) Me(c echo.Context) error {
	u, err := h.svc.CurrentUser(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Patient Handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, msgPatientNotFound)
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.ListPatients(c.Request().Context(), c.QueryParam("search"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if patients == nil {
		patients = []*Patient{}
	}
	pagination.SetTotal(c, pg, total)
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, msgPatientNotFound)
	}
	var u PatientUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), id, &u)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, msgPatientNotFound)
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Patient deleted successfully"})
}
