package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/medinotes/notes-api/internal/domain/identity"
	"github.com/medinotes/notes-api/internal/domain/notes"
	"github.com/medinotes/notes-api/internal/platform/ai"
	"github.com/medinotes/notes-api/internal/platform/summarize"
	"github.com/medinotes/notes-api/pkg/apperr"
)

const (
	historyNotes  = 3
	riskNotes     = 20
	overviewNotes = 8
	reportNotes   = 10

	// DefaultConcurrency bounds in-flight summarizations per report.
	DefaultConcurrency = 4
)

// NoteStore is the subset of the notes repository the tasks use.
type NoteStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*notes.Note, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*notes.Note, error)
	SaveAIResult(ctx context.Context, id uuid.UUID, r notes.AIResult) error
}

type PatientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

type Service struct {
	notes       NoteStore
	patients    PatientStore
	ai          *ai.Service
	concurrency int
	now         func() time.Time
}

func NewService(noteStore NoteStore, patients PatientStore, aiSvc *ai.Service) *Service {
	return &Service{
		notes:       noteStore,
		patients:    patients,
		ai:          aiSvc,
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
}

// SummarizeNote summarizes a stored note with the patient's earlier notes as
// context and persists the result on the note.
func (s *Service) SummarizeNote(ctx context.Context, noteID uuid.UUID) (*SummarizeResult, error) {
	n, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if _, err := s.patients.GetByID(ctx, n.PatientID); err != nil {
		return nil, err
	}
	recent, err := s.notes.ListByPatient(ctx, n.PatientID, historyNotes+1)
	if err != nil {
		return nil, err
	}

	res := s.ai.SummarizeNote(ctx, ai.NoteInput{
		Content:  n.Content,
		NoteType: n.NoteType,
		History:  history(recent, n.ID, historyNotes),
	})

	err = s.notes.SaveAIResult(ctx, n.ID, notes.AIResult{
		Summary:         string(res.Summary),
		RiskLevel:       res.RiskLevel,
		Recommendations: string(res.Recommendations),
		KeyFindings:     string(res.KeyFindings),
		ProcessedAt:     s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("persist summary: %w", err)
	}

	return &SummarizeResult{
		Status:    StatusSuccess,
		NoteID:    n.ID,
		Summary:   string(res.Summary),
		RiskLevel: res.RiskLevel,
	}, nil
}

// AssessPatientRisk scores a patient from their recent notes.
func (s *Service) AssessPatientRisk(ctx context.Context, patientID uuid.UUID) (*RiskResult, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	recent, err := s.notes.ListByPatient(ctx, patientID, riskNotes)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, apperr.NotFound("No notes found for patient")
	}

	ra := s.ai.AssessRisk(ctx, riskInput(recent))
	return &RiskResult{
		Status:          StatusSuccess,
		PatientID:       patientID,
		RiskLevel:       ra.RiskLevel,
		RiskFactors:     nonNil(ra.RiskFactors),
		Recommendations: nonNil(ra.Recommendations),
	}, nil
}

// Overview writes a short narrative over the patient's latest notes.
func (s *Service) Overview(ctx context.Context, patientID uuid.UUID) (*Overview, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	recent, err := s.notes.ListByPatient(ctx, patientID, overviewNotes)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(recent))
	for _, n := range recent {
		texts = append(texts, n.Content)
	}
	return &Overview{
		PatientID:   p.ID,
		PatientName: p.FullName(),
		NoteCount:   len(recent),
		Overview:    s.ai.PatientOverview(ctx, p.FullName(), texts),
		AIGenerated: s.ai.Enabled() && len(recent) > 0,
	}, nil
}

// Report summarizes the patient's latest notes concurrently and adds a
// patient-level risk assessment. Nothing is persisted.
func (s *Service) Report(ctx context.Context, patientID uuid.UUID) (*Report, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	recent, err := s.notes.ListByPatient(ctx, patientID, reportNotes)
	if err != nil {
		return nil, err
	}

	digests := make([]NoteDigest, len(recent))
	var risk ai.RiskAssessment

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	if len(recent) > 0 {
		g.Go(func() error {
			risk = s.ai.AssessRisk(gctx, riskInput(recent))
			return nil
		})
	}
	for i, n := range recent {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := s.ai.SummarizeNote(gctx, ai.NoteInput{Content: n.Content, NoteType: n.NoteType})
			digests[i] = NoteDigest{
				NoteID:          n.ID,
				Title:           n.Title,
				NoteType:        n.NoteType,
				CreatedAt:       n.CreatedAt,
				Summary:         string(res.Summary),
				KeyFindings:     string(res.KeyFindings),
				RiskLevel:       res.RiskLevel,
				Recommendations: string(res.Recommendations),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	highest := risk.RiskLevel
	for _, d := range digests {
		if riskRank(d.RiskLevel) > riskRank(highest) {
			highest = d.RiskLevel
		}
	}
	return &Report{
		PatientID:   p.ID,
		PatientName: p.FullName(),
		GeneratedAt: s.now().UTC(),
		HighestRisk: highest,
		Notes:       digests,
		Risk:        risk,
	}, nil
}

// TreatmentRecommendations drafts a plan for a diagnosis.
func (s *Service) TreatmentRecommendations(ctx context.Context, req TreatmentRequest) (ai.TreatmentPlan, error) {
	if strings.TrimSpace(req.Diagnosis) == "" {
		return ai.TreatmentPlan{}, apperr.Validation("diagnosis is required")
	}
	return s.ai.TreatmentRecommendations(ctx, ai.TreatmentInput{
		Diagnosis:         req.Diagnosis,
		PatientContext:    req.PatientContext,
		Contraindications: req.Contraindications,
	}), nil
}

// NurseRecommendations derives nursing actions from a stored note.
func (s *Service) NurseRecommendations(ctx context.Context, noteID uuid.UUID) (*ai.NurseRecommendations, error) {
	n, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	out := s.ai.NurseRecommendations(ctx, n.Content)
	return &out, nil
}

// history returns up to limit notes other than skip, oldest first. recent
// is newest first.
func history(recent []*notes.Note, skip uuid.UUID, limit int) []string {
	var out []string
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].ID == skip || recent[i].Content == "" {
			continue
		}
		out = append(out, recent[i].Content)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// riskInput aggregates the notes, oldest first, into one assessment input.
func riskInput(recent []*notes.Note) ai.RiskInput {
	parts := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		if c := strings.TrimSpace(recent[i].Content); c != "" {
			parts = append(parts, c)
		}
	}
	return ai.RiskInput{Content: strings.Join(parts, "\n\n")}
}

func riskRank(r summarize.RiskLevel) int {
	switch r {
	case summarize.RiskHigh:
		return 3
	case summarize.RiskMedium:
		return 2
	case summarize.RiskLow:
		return 1
	}
	return 0
}

func nonNil(l ai.TextList) []string {
	if l == nil {
		return []string{}
	}
	return l
}
