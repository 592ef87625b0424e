package middleware

import (
	"context"

	"github.com/medinotes/notes-api/internal/platform/db"
)

// PGAuditRecorder writes audit entries to the audit_log table.
type PGAuditRecorder struct {
	q db.Querier
}

func NewPGAuditRecorder(q db.Querier) *PGAuditRecorder {
	return &PGAuditRecorder{q: q}
}

func (r *PGAuditRecorder) RecordAccess(ctx context.Context, e AuditEntry) error {
	var userID, patientID, resourceID interface{}
	if e.UserID != "" {
		userID = e.UserID
	}
	if isUUIDLike(e.PatientID) {
		patientID = e.PatientID
	}
	if e.ResourceID != "" {
		resourceID = e.ResourceID
	}
	_, err := r.q.Exec(context.WithoutCancel(ctx), `
		INSERT INTO audit_log (occurred_at, request_id, user_id, action, resource_type, resource_id,
			patient_id, method, path, status, remote_ip, user_agent)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		e.Timestamp, e.RequestID, userID, e.Action, e.ResourceType, resourceID,
		patientID, e.Method, e.Path, e.StatusCode, e.IPAddress, e.UserAgent,
	)
	return err
}
