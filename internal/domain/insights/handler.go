package insights

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medinotes/notes-api/internal/platform/auth"
	"github.com/medinotes/notes-api/pkg/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse)
	api.POST("/ai/tasks/summarize", h.Summarize, staff)
	api.POST("/ai/tasks/risk-assessment", h.RiskAssessment, staff)
	api.POST("/ai/treatment-recommendations", h.TreatmentRecommendations, auth.RequireRole(auth.RoleDoctor))
	api.GET("/notes/:id/nurse-recommendations", h.NurseRecommendations, staff)
	api.GET("/patients/:id/overview", h.Overview, staff)
	api.GET("/patients/:id/report", h.Report, staff)
}

func (h *Handler) Summarize(c echo.Context) error {
	var req SummarizeRequest
	if err := c.Bind(&req); err != nil || req.NoteID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "note_id is required")
	}
	res, err := h.svc.SummarizeNote(c.Request().Context(), req.NoteID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) RiskAssessment(c echo.Context) error {
	var req RiskRequest
	if err := c.Bind(&req); err != nil || req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "patient_id is required")
	}
	res, err := h.svc.AssessPatientRisk(c.Request().Context(), req.PatientID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) TreatmentRecommendations(c echo.Context) error {
	var req TreatmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	plan, err := h.svc.TreatmentRecommendations(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *Handler) NurseRecommendations(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Note not found")
	}
	out, err := h.svc.NurseRecommendations(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Overview(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	}
	out, err := h.svc.Overview(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Report(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	}
	out, err := h.svc.Report(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}
