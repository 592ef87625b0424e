package scheduling

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
	staff := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse)
	api.GET("/appointments", h.ListAppointments, staff)
	api.GET("/appointments/:id", h.GetAppointment, staff)
	api.POST("/appointments", h.CreateAppointment, staff)
	api.PUT("/appointments/:id", h.UpdateAppointment, staff)
	api.DELETE("/appointments/:id", h.DeleteAppointment, auth.RequireRole(auth.RoleDoctor))
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	if err := h.svc.CreateAppointment(c.Request().Context(), &a); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, msgAppointmentNotFound)
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{Status: c.QueryParam("status")}
	for param, dst := range map[string]**uuid.UUID{"patient_id": &f.PatientID, "doctor_id": &f.DoctorID} {
		raw := c.QueryParam(param)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid "+param)
		}
		*dst = &id
	}

	appts, total, err := h.svc.ListAppointments(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	pagination.SetTotal(c, pg, total)
	return c.JSON(http.StatusOK, appts)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, msgAppointmentNotFound)
	}
	var u AppointmentUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	a, err := h.svc.UpdateAppointment(c.Request().Context(), id, &u)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, msgAppointmentNotFound)
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Appointment deleted successfully"})
}
