package notes

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medinotes/notes-api/internal/platform/ai"
	"github.com/medinotes/notes-api/internal/platform/auth"
	"github.com/medinotes/notes-api/internal/platform/summarize"
	"github.com/medinotes/notes-api/pkg/apperr"
)

// -- Mock Repository --

type mockNoteRepo struct {
	notes        map[uuid.UUID]*Note
	authorNames  map[uuid.UUID]string
	patientNames map[uuid.UUID]string
	clock        time.Time
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{
		notes:        make(map[uuid.UUID]*Note),
		authorNames:  make(map[uuid.UUID]string),
		patientNames: make(map[uuid.UUID]string),
		clock:        time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *mockNoteRepo) Create(_ context.Context, n *Note) error {
	if _, ok := m.patientNames[n.PatientID]; !ok {
		return apperr.NotFound(msgPatientNotFound)
	}
	n.ID = uuid.New()
	m.clock = m.clock.Add(time.Minute)
	n.CreatedAt = m.clock
	n.UpdatedAt = m.clock
	cp := *n
	m.notes[n.ID] = &cp
	return nil
}

func (m *mockNoteRepo) GetByID(_ context.Context, id uuid.UUID) (*Note, error) {
	n, ok := m.notes[id]
	if !ok {
		return nil, apperr.NotFound(msgNoteNotFound)
	}
	cp := *n
	return &cp, nil
}

func (m *mockNoteRepo) Update(_ context.Context, n *Note) error {
	if _, ok := m.notes[n.ID]; !ok {
		return apperr.NotFound(msgNoteNotFound)
	}
	cp := *n
	m.notes[n.ID] = &cp
	return nil
}

func (m *mockNoteRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.notes[id]; !ok {
		return apperr.NotFound(msgNoteNotFound)
	}
	delete(m.notes, id)
	return nil
}

func (m *mockNoteRepo) sorted() []*Note {
	var all []*Note
	for _, n := range m.notes {
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all
}

func (m *mockNoteRepo) List(_ context.Context, f Filter, limit, offset int) ([]*ListedNote, int, error) {
	var matched []*ListedNote
	for _, n := range m.sorted() {
		if f.NoteType != "" && n.NoteType != f.NoteType {
			continue
		}
		if f.PatientID != nil && n.PatientID != *f.PatientID {
			continue
		}
		matched = append(matched, &ListedNote{
			Note:        *n,
			AuthorName:  m.authorNames[n.AuthorID],
			PatientName: m.patientNames[n.PatientID],
		})
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *mockNoteRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit int) ([]*Note, error) {
	var out []*Note
	for _, n := range m.sorted() {
		if n.PatientID == patientID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNoteRepo) SaveAIResult(_ context.Context, id uuid.UUID, r AIResult) error {
	n, ok := m.notes[id]
	if !ok {
		return apperr.NotFound(msgNoteNotFound)
	}
	risk := string(r.RiskLevel)
	n.Summary, n.RiskLevel, n.Recommendations, n.KeyFindings = &r.Summary, &risk, &r.Recommendations, &r.KeyFindings
	n.AIProcessedAt = &r.ProcessedAt
	return nil
}

// -- Fake model backend --

type fakeSummarizer struct{}

func (fakeSummarizer) Name() string { return "fake" }

func (fakeSummarizer) SummarizeNote(context.Context, ai.NoteInput) (*ai.NoteSummary, error) {
	return &ai.NoteSummary{
		Summary:         "model summary",
		KeyFindings:     "model findings",
		Assessment:      "model assessment",
		Recommendations: "model recommendations",
		RiskLevel:       summarize.RiskHigh,
		AIGenerated:     true,
	}, nil
}

func (fakeSummarizer) AssessRisk(context.Context, ai.RiskInput) (*ai.RiskAssessment, error) {
	return nil, errors.New("not implemented")
}

type fixture struct {
	svc     *Service
	repo    *mockNoteRepo
	author  uuid.UUID
	other   uuid.UUID
	patient uuid.UUID
}

func newFixture(primary ai.Summarizer) *fixture {
	repo := newMockNoteRepo()
	f := &fixture{
		svc:     NewService(repo, ai.NewService(primary, zerolog.Nop())),
		repo:    repo,
		author:  uuid.New(),
		other:   uuid.New(),
		patient: uuid.New(),
	}
	repo.authorNames[f.author] = "Dr. Author"
	repo.authorNames[f.other] = "Nurse Other"
	repo.patientNames[f.patient] = "John Doe"
	return f
}

func newTestService() *Service { return newFixture(nil).svc }

func asUser(id uuid.UUID, role string) context.Context {
	return auth.WithIdentity(context.Background(), id.String(), "user@example.com", role)
}

func (f *fixture) createNote(t *testing.T, title, content, noteType string) *Note {
	t.Helper()
	n := &Note{PatientID: f.patient, Title: title, Content: content, NoteType: noteType}
	if err := f.svc.Create(asUser(f.author, auth.RoleDoctor), n); err != nil {
		t.Fatalf("create note: %v", err)
	}
	return n
}

func TestCreate_SetsAuthor(t *testing.T) {
	f := newFixture(nil)
	n := f.createNote(t, "Test Note", "This is a test clinical note", TypeDoctorNote)

	if n.AuthorID != f.author {
		t.Errorf("expected author %s, got %s", f.author, n.AuthorID)
	}
	if n.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
}

func TestCreate_DefaultsType(t *testing.T) {
	f := newFixture(nil)
	n := f.createNote(t, "Untyped", "content", "")
	if n.NoteType != TypeGeneral {
		t.Errorf("expected general, got %s", n.NoteType)
	}
}

func TestCreate_IgnoresClientAIFields(t *testing.T) {
	f := newFixture(nil)
	forged := "forged"
	n := &Note{PatientID: f.patient, Title: "T", Summary: &forged}
	if err := f.svc.Create(asUser(f.author, auth.RoleDoctor), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Summary != nil {
		t.Error("expected client supplied summary to be dropped")
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(nil)
	ctx := asUser(f.author, auth.RoleDoctor)
	tests := []struct {
		name string
		n    *Note
	}{
		{"missing title", &Note{PatientID: f.patient}},
		{"missing patient", &Note{Title: "T"}},
		{"bad type", &Note{PatientID: f.patient, Title: "T", NoteType: "memo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.svc.Create(ctx, tt.n); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreate_UnknownPatient(t *testing.T) {
	f := newFixture(nil)
	err := f.svc.Create(asUser(f.author, auth.RoleDoctor), &Note{PatientID: uuid.New(), Title: "T"})
	if !apperr.IsNotFound(err) || err.Error() != "Patient not found" {
		t.Errorf("expected Patient not found, got %v", err)
	}
}

func TestCreate_RequiresIdentity(t *testing.T) {
	f := newFixture(nil)
	err := f.svc.Create(context.Background(), &Note{PatientID: f.patient, Title: "T"})
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestList_AppliesFallbacks(t *testing.T) {
	f := newFixture(nil)
	f.createNote(t, "Empty", "", TypeNurseNote)

	rows, total, err := f.svc.List(context.Background(), Filter{}, 100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d/%d", len(rows), total)
	}
	row := rows[0]
	if row.Content != PlaceholderContent {
		t.Errorf("expected placeholder content, got %q", row.Content)
	}
	want := summarize.Summarize(PlaceholderContent, TypeNurseNote)
	if row.Summary != want.Summary || row.RiskLevel != want.RiskLevel || row.Recommendations != want.Recommendations {
		t.Errorf("expected deterministic fallbacks %+v, got %+v", want, row)
	}
	if row.AuthorName != "Dr. Author" || row.PatientName != "John Doe" {
		t.Errorf("unexpected names %q / %q", row.AuthorName, row.PatientName)
	}
}

func TestList_KeepsPersistedValues(t *testing.T) {
	f := newFixture(nil)
	n := f.createNote(t, "Processed", "Patient stable.", TypeDoctorNote)
	f.repo.SaveAIResult(context.Background(), n.ID, AIResult{
		Summary:         "stored summary",
		RiskLevel:       "High Risk",
		Recommendations: "stored recs",
	})

	rows, _, _ := f.svc.List(context.Background(), Filter{}, 100, 0)
	if rows[0].Summary != "stored summary" || rows[0].Recommendations != "stored recs" {
		t.Errorf("expected persisted values, got %+v", rows[0])
	}
	if rows[0].RiskLevel != summarize.RiskHigh {
		t.Errorf("expected persisted risk normalized to high, got %s", rows[0].RiskLevel)
	}
}

func TestList_UnrecognizedRiskFallsBack(t *testing.T) {
	f := newFixture(nil)
	n := f.createNote(t, "Odd", "Routine visit.", TypeDoctorNote)
	junk := "unknown"
	f.repo.notes[n.ID].RiskLevel = &junk

	rows, _, _ := f.svc.List(context.Background(), Filter{}, 100, 0)
	want := summarize.Summarize("Routine visit.", TypeDoctorNote).RiskLevel
	if rows[0].RiskLevel != want {
		t.Errorf("expected fallback risk %s, got %s", want, rows[0].RiskLevel)
	}
}

func TestList_Filters(t *testing.T) {
	f := newFixture(nil)
	f.createNote(t, "A", "a", TypeDoctorNote)
	f.createNote(t, "B", "b", TypeNurseNote)

	rows, total, err := f.svc.List(context.Background(), Filter{NoteType: TypeNurseNote}, 100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || rows[0].Title != "B" {
		t.Errorf("expected only nurse note, got %+v", rows)
	}

	other := uuid.New()
	rows, total, _ = f.svc.List(context.Background(), Filter{PatientID: &other}, 100, 0)
	if total != 0 || len(rows) != 0 {
		t.Errorf("expected no notes for other patient, got %d", total)
	}

	if _, _, err := f.svc.List(context.Background(), Filter{NoteType: "memo"}, 100, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for bad note_type, got %v", err)
	}
}

func TestUpdate_ByAuthor(t *testing.T) {
	f := newFixture(nil)
	n := f.createNote(t, "Original Title", "Original content", TypeDoctorNote)

	title, content := "Updated Title", "Updated content"
	got, err := f.svc.Update(asUser(f.author, auth.RoleDoctor), n.ID, &NoteUpdate{Title: &title, Content: &content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != title || got.Content != content || got.NoteType != TypeDoctorNote {
		t.Errorf("unexpected note %+v", got)
	}
}

func TestUpdate_PermissionRules(t *testing.T) {
	f := newFixture(nil)
	n := f.createNote(t, "Title", "content", TypeDoctorNote)
	title := "Hijacked"

	_, err := f.svc.Update(asUser(f.other, auth.RoleNurse), n.ID, &NoteUpdate{Title: &title})
	if !errors.Is(err, apperr.ErrForbidden) || err.Error() != "Not enough permissions to edit this note" {
		t.Errorf("expected forbidden, got %v", err)
	}

	if _, err := f.svc.Update(asUser(uuid.New(), auth.RoleAdmin), n.ID, &NoteUpdate{Title: &title}); err != nil {
		t.Errorf("expected admin to edit, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(nil)
	_, err := f.svc.Update(asUser(f.author, auth.RoleDoctor), uuid.New(), &NoteUpdate{})
	if !apperr.IsNotFound(err) || err.Error() != "Note not found" {
		t.Errorf("expected Note not found, got %v", err)
	}
}

func TestUpdate_Validation(t *testing.T) {
	f := newFixture(nil)
	n := f.createNote(t, "Title", "content", TypeDoctorNote)
	blank, bad := " ", "memo"

	if _, err := f.svc.Update(asUser(f.author, auth.RoleDoctor), n.ID, &NoteUpdate{Title: &blank}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for blank title, got %v", err)
	}
	if _, err := f.svc.Update(asUser(f.author, auth.RoleDoctor), n.ID, &NoteUpdate{NoteType: &bad}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for bad type, got %v", err)
	}
}

func TestDelete_PermissionRules(t *testing.T) {
	f := newFixture(nil)
	n := f.createNote(t, "Title", "content", TypeDoctorNote)

	if err := f.svc.Delete(asUser(f.other, auth.RoleDoctor), n.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if err := f.svc.Delete(asUser(f.author, auth.RoleDoctor), n.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), n.ID); !apperr.IsNotFound(err) {
		t.Error("expected note to be deleted")
	}
}

func TestSummary_Deterministic(t *testing.T) {
	f := newFixture(nil)
	content := "Chief Complaint: chest pain. Assessment: possible angina. Plan: ECG."
	n := f.createNote(t, "Visit", content, TypeDoctorNote)

	view, err := f.svc.Summary(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := summarize.Summarize(content, TypeDoctorNote)
	if view.NoteID != n.ID {
		t.Errorf("expected note id %s, got %s", n.ID, view.NoteID)
	}
	if view.Summary != want.Summary || view.RiskLevel != want.RiskLevel {
		t.Errorf("expected deterministic summary %+v, got %+v", want, view.StructuredSummary)
	}
	if view.AIGenerated {
		t.Error("deterministic summary must not claim to be AI generated")
	}
}

func TestSummary_UsesModelBackend(t *testing.T) {
	f := newFixture(fakeSummarizer{})
	n := f.createNote(t, "Visit", "Patient doing well.", TypeDoctorNote)

	view, err := f.svc.Summary(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Summary != "model summary" || view.RiskLevel != summarize.RiskHigh || !view.AIGenerated {
		t.Errorf("expected model output, got %+v", view.StructuredSummary)
	}
}

func TestSummary_NotFound(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Summary(context.Background(), uuid.New()); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}
