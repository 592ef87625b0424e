package ai

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/medinotes/notes-api/internal/platform/summarize"
	"github.com/medinotes/notes-api/internal/platform/telemetry"
)

// Recorder receives per-call counters. *telemetry.Registry implements it.
type Recorder interface {
	IncAICall(provider, op, outcome string)
	IncFallback(op string)
}

type nopRecorder struct{}

func (nopRecorder) IncAICall(string, string, string) {}
func (nopRecorder) IncFallback(string)               {}

// Service runs a primary backend and falls back to the deterministic one
// whenever the primary fails. Its methods never return errors.
type Service struct {
	primary  Summarizer
	fallback *Deterministic
	logger   zerolog.Logger
	timeout  time.Duration
	metrics  Recorder
}

type Option func(*Service)

// WithTimeout bounds each primary backend call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// NewService wraps primary. A nil primary means deterministic only.
func NewService(primary Summarizer, logger zerolog.Logger, opts ...Option) *Service {
	det := NewDeterministic()
	if primary == nil {
		primary = det
	}
	s := &Service{
		primary:  primary,
		fallback: det,
		logger:   logger,
		metrics:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider is the primary backend's name.
func (s *Service) Provider() string { return s.primary.Name() }

// Enabled reports whether a network backend is configured.
func (s *Service) Enabled() bool {
	_, det := s.primary.(*Deterministic)
	return !det
}

// call runs fn against the primary backend inside a span and a timeout.
func (s *Service) call(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	attrs = append(attrs, attribute.String("ai.provider", s.primary.Name()))
	ctx, span := telemetry.StartSpan(ctx, "ai."+op, attrs...)
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := fn(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.IncAICall(s.primary.Name(), op, outcome)
	return err
}

func (s *Service) fellBack(op string, err error) {
	s.metrics.IncFallback(op)
	if errors.Is(err, ErrUnsupported) {
		return
	}
	s.logger.Warn().Err(err).
		Str("provider", s.primary.Name()).
		Str("operation", op).
		Msg("ai backend failed, using deterministic fallback")
}

// SummarizeNote summarizes one note. When the backend produced no
// recommendations they are filled in, together with the risk level, from
// the deterministic summarizer.
func (s *Service) SummarizeNote(ctx context.Context, in NoteInput) NoteSummary {
	var out *NoteSummary
	if s.Enabled() {
		err := s.call(ctx, "summarize_note", []attribute.KeyValue{attribute.String("note.type", noteTypeOrDefault(in.NoteType))},
			func(ctx context.Context) error {
				var err error
				out, err = s.primary.SummarizeNote(ctx, in)
				return err
			})
		if err != nil {
			s.fellBack("summarize_note", err)
			out = nil
		}
	}
	if out == nil {
		out, _ = s.fallback.SummarizeNote(ctx, in)
		return *out
	}

	if out.Recommendations == "" {
		det := summarize.Summarize(in.Content, in.NoteType)
		out.Recommendations = Text(det.Recommendations)
		out.RiskLevel = det.RiskLevel
	}
	if !out.RiskLevel.Valid() {
		out.RiskLevel = summarize.Summarize(in.Content, in.NoteType).RiskLevel
	}
	if out.KeyFindings == "" {
		out.KeyFindings = summarize.KeyFindingsPlaceholder
	}
	if out.Assessment == "" {
		out.Assessment = summarize.AssessmentPlaceholder
	}
	return *out
}

// AssessRisk scores the patient's risk from note text.
func (s *Service) AssessRisk(ctx context.Context, in RiskInput) RiskAssessment {
	if s.Enabled() {
		var out *RiskAssessment
		err := s.call(ctx, "assess_risk", nil, func(ctx context.Context) error {
			var err error
			out, err = s.primary.AssessRisk(ctx, in)
			return err
		})
		if err == nil && out != nil {
			return *out
		}
		s.fellBack("assess_risk", err)
	}
	return keywordRisk(in.Content)
}

// TreatmentRecommendations drafts a treatment plan for a diagnosis.
func (s *Service) TreatmentRecommendations(ctx context.Context, in TreatmentInput) TreatmentPlan {
	if adv, ok := s.primary.(TreatmentAdvisor); ok && s.Enabled() {
		var out *TreatmentPlan
		err := s.call(ctx, "recommend_treatment", nil, func(ctx context.Context) error {
			var err error
			out, err = adv.RecommendTreatment(ctx, in)
			return err
		})
		if err == nil && out != nil {
			return *out
		}
		s.fellBack("recommend_treatment", err)
	}
	return fallbackTreatment()
}

// NurseRecommendations returns nursing actions derived from the note.
func (s *Service) NurseRecommendations(_ context.Context, content string) NurseRecommendations {
	st := summarize.Summarize(content, "nurse_note")
	return NurseRecommendations{
		NursingActions: st.Recommendations,
		AIGenerated:    s.Enabled(),
	}
}

// PatientOverview writes a short overview from the patient's recent notes.
func (s *Service) PatientOverview(ctx context.Context, patientName string, notes []string) string {
	if len(notes) == 0 {
		return noEncountersOverview
	}
	if w, ok := s.primary.(OverviewWriter); ok && s.Enabled() {
		var text string
		err := s.call(ctx, "patient_overview", []attribute.KeyValue{attribute.Int("notes.count", len(notes))},
			func(ctx context.Context) error {
				var err error
				text, err = w.PatientOverview(ctx, patientName, notes)
				return err
			})
		if err == nil && text != "" {
			return text
		}
		if err == nil {
			err = ErrUnusable
		}
		s.fellBack("patient_overview", err)
	}
	return overviewFallback(patientName, notes)
}
