package notes

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medinotes/notes-api/pkg/apperr"
	"github.com/medinotes/notes-api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the notes API. Every authenticated role may read and
// write notes; edits are further limited to the author in the service.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/notes", h.CreateNote)
	api.GET("/notes", h.ListNotes)
	api.GET("/notes/:id", h.GetNote)
	api.PUT("/notes/:id", h.UpdateNote)
	api.DELETE("/notes/:id", h.DeleteNote)
	api.GET("/notes/:id/summary", h.GetSummary)
}

func (h *Handler) CreateNote(c echo.Context) error {
	var n Note
	if err := c.Bind(&n); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), &n); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) ListNotes(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{NoteType: c.QueryParam("note_type")}
	if raw := c.QueryParam("patient_id"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid patient_id")
		}
		f.PatientID = &pid
	}

	notes, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	pagination.SetTotal(c, pg, total)
	return c.JSON(http.StatusOK, notes)
}

func (h *Handler) GetNote(c echo.Context) error {
	id, err := parseNoteID(c)
	if err != nil {
		return err
	}
	n, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) UpdateNote(c echo.Context) error {
	id, err := parseNoteID(c)
	if err != nil {
		return err
	}
	var u NoteUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	n, err := h.svc.Update(c.Request().Context(), id, &u)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) DeleteNote(c echo.Context) error {
	id, err := parseNoteID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

func (h *Handler) GetSummary(c echo.Context) error {
	id, err := parseNoteID(c)
	if err != nil {
		return err
	}
	view, err := h.svc.Summary(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, view)
}

// parseNoteID treats a malformed id like an unknown one.
func parseNoteID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusNotFound, msgNoteNotFound)
	}
	return id, nil
}
