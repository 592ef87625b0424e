package notes

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/medinotes/notes-api/internal/platform/ai"
	"github.com/medinotes/notes-api/internal/platform/auth"
	"github.com/medinotes/notes-api/internal/platform/summarize"
	"github.com/medinotes/notes-api/pkg/apperr"
)

const msgEditForbidden = "Not enough permissions to edit this note"

type Service struct {
	repo Repository
	ai   *ai.Service
}

func NewService(repo Repository, aiSvc *ai.Service) *Service {
	return &Service{repo: repo, ai: aiSvc}
}

// Create stores a note authored by the caller.
func (s *Service) Create(ctx context.Context, n *Note) error {
	author, err := callerID(ctx)
	if err != nil {
		return err
	}
	n.AuthorID = author
	n.Summary, n.RiskLevel, n.Recommendations, n.KeyFindings, n.AIProcessedAt = nil, nil, nil, nil, nil
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return apperr.Validation("title is required")
	}
	if n.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if n.NoteType == "" {
		n.NoteType = TypeGeneral
	}
	if !ValidType(n.NoteType) {
		return apperr.Validation("invalid note_type: " + n.NoteType)
	}
	return s.repo.Create(ctx, n)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Note, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns one page of notes with display fallbacks applied.
func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]NoteSummary, int, error) {
	if f.NoteType != "" && !ValidType(f.NoteType) {
		return nil, 0, apperr.Validation("invalid note_type: " + f.NoteType)
	}
	listed, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]NoteSummary, 0, len(listed))
	for _, ln := range listed {
		out = append(out, Display(ln))
	}
	return out, total, nil
}

// Update applies a partial update. Only the author or an admin may edit.
func (s *Service) Update(ctx context.Context, id uuid.UUID, u *NoteUpdate) (*Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, n); err != nil {
		return nil, err
	}
	if u.Title != nil {
		n.Title = strings.TrimSpace(*u.Title)
		if n.Title == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
	}
	if u.Content != nil {
		n.Content = *u.Content
	}
	if u.NoteType != nil {
		if !ValidType(*u.NoteType) {
			return nil, apperr.Validation("invalid note_type: " + *u.NoteType)
		}
		n.NoteType = *u.NoteType
	}
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Delete removes a note. Only the author or an admin may delete.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(ctx, n); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Summary summarizes a note on demand without persisting the result.
func (s *Service) Summary(ctx context.Context, id uuid.UUID) (*SummaryView, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := s.ai.SummarizeNote(ctx, ai.NoteInput{Content: n.Content, NoteType: n.NoteType})
	return &SummaryView{NoteID: n.ID, StructuredSummary: res.Structured()}, nil
}

// Display converts a stored note into a listing row. Missing content,
// summary, risk and recommendations are filled from the deterministic
// summarizer so a listing never shows blanks.
func Display(ln *ListedNote) NoteSummary {
	content := ln.Content
	if content == "" {
		content = PlaceholderContent
	}
	det := summarize.Summarize(content, ln.NoteType)

	out := NoteSummary{
		ID:              ln.ID,
		PatientID:       ln.PatientID,
		Title:           ln.Title,
		NoteType:        ln.NoteType,
		Content:         content,
		Summary:         det.Summary,
		RiskLevel:       det.RiskLevel,
		Recommendations: det.Recommendations,
		CreatedAt:       ln.CreatedAt,
		AuthorName:      ln.AuthorName,
		PatientName:     ln.PatientName,
	}
	if ln.Summary != nil && *ln.Summary != "" {
		out.Summary = *ln.Summary
	}
	if risk, ok := summarize.NormalizeRiskPtr(ln.RiskLevel); ok {
		out.RiskLevel = risk
	}
	if ln.Recommendations != nil && *ln.Recommendations != "" {
		out.Recommendations = *ln.Recommendations
	}
	return out
}

func callerID(ctx context.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, apperr.Unauthorized("Could not validate credentials")
	}
	return id, nil
}

func authorize(ctx context.Context, n *Note) error {
	if auth.IsAdmin(ctx) {
		return nil
	}
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}
	if caller != n.AuthorID {
		return apperr.Forbidden(msgEditForbidden)
	}
	return nil
}
