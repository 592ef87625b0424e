package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medinotes/notes-api/internal/platform/auth"
)

// AuditEntry records one access to patient data.
type AuditEntry struct {
	UserID       string
	UserRoles    []string
	ResourceType string
	ResourceID   string
	PatientID    string
	Action       string // read, create, update, delete
	IPAddress    string
	UserAgent    string
	Path         string
	Method       string
	Timestamp    time.Time
	RequestID    string
	StatusCode   int
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	RecordAccess(ctx context.Context, entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(ctx context.Context, entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(ctx context.Context, entry AuditEntry) error {
	return f(ctx, entry)
}

// auditedResources are the top-level routes that expose PHI.
var auditedResources = map[string]bool{
	"patients":     true,
	"notes":        true,
	"appointments": true,
	"ai":           true,
}

// Audit logs every request that touches PHI as a phi_access event and hands
// it to the optional recorder.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	var recorder AuditRecorder
	if len(recorders) > 0 {
		recorder = recorders[0]
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			resource, resourceID := splitResource(req.URL.Path)
			if !auditedResources[resource] {
				return next(c)
			}

			err := next(c)

			ctx := req.Context()
			entry := AuditEntry{
				Timestamp:    time.Now().UTC(),
				Path:         req.URL.Path,
				Method:       req.Method,
				IPAddress:    c.RealIP(),
				UserAgent:    req.UserAgent(),
				StatusCode:   responseStatus(c, err),
				UserID:       auth.UserIDFromContext(ctx),
				UserRoles:    auth.RolesFromContext(ctx),
				Action:       httpMethodToAction(req.Method),
				ResourceType: resource,
				ResourceID:   resourceID,
				PatientID:    extractPatientID(c, resource, resourceID),
			}
			entry.RequestID, _ = c.Get("request_id").(string)

			if recorder != nil {
				if recErr := recorder.RecordAccess(ctx, entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "hipaa_audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("resource_type", entry.ResourceType).
				Str("resource_id", entry.ResourceID).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("phi_access")

			return err
		}
	}
}

// responseStatus is the status the client will see. When the handler
// returned an error the response has not been written yet.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// splitResource returns the first two path segments:
// /notes/<id>/summary -> ("notes", "<id>").
func splitResource(path string) (string, string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	resource := segments[0]
	if len(segments) > 1 && isUUIDLike(segments[1]) {
		return resource, segments[1]
	}
	return resource, ""
}

func extractPatientID(c echo.Context, resource, resourceID string) string {
	if resource == "patients" && resourceID != "" {
		return resourceID
	}
	return c.QueryParam("patient_id")
}

func isUUIDLike(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
