package doselogs

import (
	"context"
	"errors"
	"testing"
	"time"

	"med-adherence/internal/domain/medications"
	"med-adherence/internal/domain/refill"
	"med-adherence/internal/ports/vision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMedRepo struct {
	meds map[string]medications.Medication
}

func (f *fakeMedRepo) Create(_ context.Context, m medications.Medication) error {
	f.meds[m.ID] = m
	return nil
}

func (f *fakeMedRepo) Update(_ context.Context, m medications.Medication) error {
	f.meds[m.ID] = m
	return nil
}

func (f *fakeMedRepo) GetByID(_ context.Context, id string) (medications.Medication, error) {
	m, ok := f.meds[id]
	if !ok {
		return medications.Medication{}, errors.New("not found")
	}
	return m, nil
}

func (f *fakeMedRepo) ListByUser(_ context.Context, userID string) ([]medications.Medication, error) {
	var out []medications.Medication
	for _, m := range f.meds {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMedRepo) Delete(_ context.Context, id string) error {
	delete(f.meds, id)
	return nil
}

func (f *fakeMedRepo) ListUserIDs(_ context.Context) ([]string, error) {
	return nil, nil
}

type fakeDoseRepo struct {
	logs []DoseLog
}

func (f *fakeDoseRepo) Create(_ context.Context, d DoseLog) error {
	f.logs = append(f.logs, d)
	return nil
}

func (f *fakeDoseRepo) ListByUser(_ context.Context, userID string, date *time.Time) ([]DoseLog, error) {
	var out []DoseLog
	for _, d := range f.logs {
		if d.UserID != userID {
			continue
		}
		if date != nil {
			dy, dm, dd := d.TakenAt.Date()
			fy, fm, fd := date.Date()
			if dy != fy || dm != fm || dd != fd {
				continue
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDoseRepo) ListByMedication(_ context.Context, medicationID string) ([]DoseLog, error) {
	var out []DoseLog
	for _, d := range f.logs {
		if d.MedicationID == medicationID {
			out = append(out, d)
		}
	}
	return out, nil
}

// fakeAnalyzer devuelve respuestas fijas, o un error si err != nil.
type fakeAnalyzer struct {
	check vision.PillCheck
	err   error
}

func (f *fakeAnalyzer) VerifyPill(_ context.Context, _, _, _ string) (vision.PillCheck, error) {
	return f.check, f.err
}

func (f *fakeAnalyzer) ReadLabel(_ context.Context, _ string) (vision.Label, error) {
	return vision.Label{}, f.err
}

type fakeInvalidator struct {
	calls []string
}

func (f *fakeInvalidator) InvalidateUser(userID string) {
	f.calls = append(f.calls, userID)
}

func newTestService(t *testing.T, analyzer vision.Analyzer) (*Service, *fakeDoseRepo, string) {
	svc, repo, medID := newTestServiceWithCache(t, analyzer, nil)
	return svc, repo, medID
}

func newTestServiceWithCache(t *testing.T, analyzer vision.Analyzer, cache CacheInvalidator) (*Service, *fakeDoseRepo, string) {
	t.Helper()

	medRepo := &fakeMedRepo{meds: make(map[string]medications.Medication)}
	medSvc := medications.NewService(medRepo, refill.New(nil), nil)

	med, err := medSvc.Create(context.Background(), "user-1", medications.CreateInput{
		Name:     "Metformin",
		Dosage:   "500mg",
		Schedule: "twice daily",
	})
	require.NoError(t, err)

	repo := &fakeDoseRepo{}
	svc := NewService(repo, medSvc, analyzer, cache)
	return svc, repo, med.ID
}

func TestLogWithoutPhotoIsUnverified(t *testing.T) {
	svc, repo, medID := newTestService(t, nil)

	d, err := svc.Log(context.Background(), "user-1", medID, LogInput{Slot: "morning"})
	require.NoError(t, err)

	assert.Equal(t, VerificationUnverified, d.Verification.Status)
	assert.False(t, d.TakenAt.IsZero(), "taken_at vacío debe defaultear a ahora")
	assert.Len(t, repo.logs, 1)
}

func TestLogInvalidatesScheduleCache(t *testing.T) {
	inv := &fakeInvalidator{}
	svc, _, medID := newTestServiceWithCache(t, nil, inv)

	// Registrar una toma también invalida el esquema cacheado del dueño:
	// mismo contrato que los writes de medicaciones.
	_, err := svc.Log(context.Background(), "user-1", medID, LogInput{Slot: "morning"})
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, inv.calls)

	// Una toma rechazada no invalida nada.
	_, err = svc.Log(context.Background(), "user-1", medID, LogInput{Slot: "midnight"})
	require.Error(t, err)
	assert.Len(t, inv.calls, 1)
}

func TestLogRejectsUnknownSlot(t *testing.T) {
	svc, _, medID := newTestService(t, nil)

	_, err := svc.Log(context.Background(), "user-1", medID, LogInput{Slot: "midnight"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogRejectsForeignMedication(t *testing.T) {
	svc, _, medID := newTestService(t, nil)

	_, err := svc.Log(context.Background(), "user-2", medID, LogInput{Slot: "morning"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogPhotoMatchIsVerified(t *testing.T) {
	analyzer := &fakeAnalyzer{check: vision.PillCheck{Match: true, Confidence: 0.93, Note: "white oval tablet"}}
	svc, _, medID := newTestService(t, analyzer)

	d, err := svc.Log(context.Background(), "user-1", medID, LogInput{
		Slot:     "morning",
		PhotoRef: "https://example.com/pill.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, VerificationVerified, d.Verification.Status)
	assert.InDelta(t, 0.93, d.Verification.Confidence, 0.001)
}

func TestLogPhotoMismatch(t *testing.T) {
	analyzer := &fakeAnalyzer{check: vision.PillCheck{Match: false, Confidence: 0.81, Note: "capsule, expected tablet"}}
	svc, _, medID := newTestService(t, analyzer)

	d, err := svc.Log(context.Background(), "user-1", medID, LogInput{
		Slot:     "evening",
		PhotoRef: "https://example.com/pill.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, VerificationMismatch, d.Verification.Status)
}

func TestLogVisionErrorDegradesToUnverified(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("upstream down")}
	svc, repo, medID := newTestService(t, analyzer)

	// El modelo caído no puede frenar el registro de la toma.
	d, err := svc.Log(context.Background(), "user-1", medID, LogInput{
		Slot:     "morning",
		PhotoRef: "https://example.com/pill.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, VerificationUnverified, d.Verification.Status)
	assert.Equal(t, "verification unavailable", d.Verification.Note)
	assert.Len(t, repo.logs, 1)
}

func TestListByUserFiltersByDate(t *testing.T) {
	svc, _, medID := newTestService(t, nil)

	yesterday := time.Now().AddDate(0, 0, -1)
	_, err := svc.Log(context.Background(), "user-1", medID, LogInput{Slot: "morning", TakenAt: yesterday})
	require.NoError(t, err)
	_, err = svc.Log(context.Background(), "user-1", medID, LogInput{Slot: "evening"})
	require.NoError(t, err)

	all, err := svc.ListByUser(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only, err := svc.ListByUser(context.Background(), "user-1", &yesterday)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "morning", string(only[0].Slot))
}
