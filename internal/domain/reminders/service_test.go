package reminders

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"med-adherence/internal/domain/medications"
	"med-adherence/internal/domain/refill"
	"med-adherence/internal/domain/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMedRepo struct {
	meds map[string]medications.Medication
}

func newFakeMedRepo() *fakeMedRepo {
	return &fakeMedRepo{meds: make(map[string]medications.Medication)}
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
	seen := map[string]bool{}
	var out []string
	for _, m := range f.meds {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			out = append(out, m.UserID)
		}
	}
	return out, nil
}

type fakeReminderRepo struct {
	byKey     map[string]Reminder
	deleteErr error
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{byKey: make(map[string]Reminder)}
}

func key(rem Reminder) string {
	return rem.UserID + "|" + rem.MedicationID + "|" + rem.Date.Format("2006-01-02") + "|" + string(rem.Type)
}

func (f *fakeReminderRepo) Upsert(_ context.Context, rem Reminder) (Reminder, error) {
	k := key(rem)
	if existing, ok := f.byKey[k]; ok {
		existing.Message = rem.Message
		existing.Priority = rem.Priority
		existing.UpdatedAt = rem.UpdatedAt
		f.byKey[k] = existing
		return existing, nil
	}
	f.byKey[k] = rem
	return rem, nil
}

func (f *fakeReminderRepo) ListByUser(_ context.Context, userID string, from time.Time) ([]Reminder, error) {
	var out []Reminder
	for _, rem := range f.byKey {
		if rem.UserID == userID && !rem.Date.Before(from) {
			out = append(out, rem)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeReminderRepo) GetByID(_ context.Context, id string) (Reminder, error) {
	for _, rem := range f.byKey {
		if rem.ID == id {
			return rem, nil
		}
	}
	return Reminder{}, errors.New("not found")
}

func (f *fakeReminderRepo) SetStatus(_ context.Context, id string, status Status) error {
	for k, rem := range f.byKey {
		if rem.ID == id {
			rem.Status = status
			f.byKey[k] = rem
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeReminderRepo) DeleteByMedication(_ context.Context, medicationID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for k, rem := range f.byKey {
		if rem.MedicationID == medicationID {
			delete(f.byKey, k)
		}
	}
	return nil
}

// newTestService arma el servicio con repos falsos y un medicamento cuyo
// resurtido cae dentro de 10 días: quedan los hitos de 7, 3 y 1 día (el de 14
// ya pasó) y ningún low_supply.
func newTestService(t *testing.T) (*Service, *fakeReminderRepo, string) {
	t.Helper()

	medRepo := newFakeMedRepo()
	remRepo := newFakeReminderRepo()
	calc := refill.New(schedule.Engine{})
	medSvc := medications.NewService(medRepo, calc, nil)

	filled := time.Now()
	ds := 10
	med, err := medSvc.Create(context.Background(), "user-1", medications.CreateInput{
		Name:       "Lisinopril",
		Dosage:     "10mg",
		Schedule:   "once daily",
		DateFilled: &filled,
		DaysSupply: &ds,
	})
	require.NoError(t, err)

	svc := NewService(remRepo, medSvc, calc)
	return svc, remRepo, med.ID
}

func TestSyncForMedicationIsIdempotent(t *testing.T) {
	svc, repo, medID := newTestService(t)

	first, err := svc.SyncForMedication(context.Background(), "user-1", medID)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Len(t, repo.byKey, 3)

	second, err := svc.SyncForMedication(context.Background(), "user-1", medID)
	require.NoError(t, err)
	require.Len(t, second, 3)
	// Segunda pasada: mismas filas, mismos IDs.
	assert.Len(t, repo.byKey, 3)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestSyncForMedicationUnknownMedication(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SyncForMedication(context.Background(), "user-1", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDismissSurvivesResync(t *testing.T) {
	svc, _, medID := newTestService(t)

	items, err := svc.SyncForMedication(context.Background(), "user-1", medID)
	require.NoError(t, err)
	require.NotEmpty(t, items)

	require.NoError(t, svc.Dismiss(context.Background(), "user-1", items[0].ID))

	upcoming, err := svc.ListUpcoming(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, upcoming, len(items)-1)
	for _, rem := range upcoming {
		assert.NotEqual(t, items[0].ID, rem.ID)
		assert.Equal(t, StatusPending, rem.Status)
	}
}

func TestListUpcomingPrunesOrphansAndSurfacesRepoError(t *testing.T) {
	medRepo := newFakeMedRepo()
	remRepo := newFakeReminderRepo()
	calc := refill.New(schedule.Engine{})
	medSvc := medications.NewService(medRepo, calc, nil)

	filled := time.Now()
	ds := 10
	med, err := medSvc.Create(context.Background(), "user-1", medications.CreateInput{
		Name:       "Lisinopril",
		Dosage:     "10mg",
		Schedule:   "once daily",
		DateFilled: &filled,
		DaysSupply: &ds,
	})
	require.NoError(t, err)

	svc := NewService(remRepo, medSvc, calc)
	_, err = svc.SyncForMedication(context.Background(), "user-1", med.ID)
	require.NoError(t, err)

	// Borrar la medicación deja sus recordatorios huérfanos.
	require.NoError(t, medSvc.Delete(context.Background(), "user-1", med.ID))

	// Si la poda falla, el error sube en vez de perderse.
	remRepo.deleteErr = errors.New("db down")
	_, err = svc.ListUpcoming(context.Background(), "user-1")
	require.Error(t, err)

	// Con el repo sano, la poda limpia y el listado queda vacío.
	remRepo.deleteErr = nil
	upcoming, err := svc.ListUpcoming(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, upcoming)
	assert.Empty(t, remRepo.byKey)
}

func TestDismissWrongUser(t *testing.T) {
	svc, _, medID := newTestService(t)

	items, err := svc.SyncForMedication(context.Background(), "user-1", medID)
	require.NoError(t, err)
	require.NotEmpty(t, items)

	assert.ErrorIs(t, svc.Dismiss(context.Background(), "intruder", items[0].ID), ErrNotFound)
}

func TestExportICS(t *testing.T) {
	svc, _, _ := newTestService(t)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportICS(context.Background(), &buf, "user-1"))

	ics := buf.String()
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "BEGIN:VEVENT")
	assert.Contains(t, ics, "Lisinopril")
	assert.Equal(t, 3, strings.Count(ics, "BEGIN:VEVENT"))
}

func TestExportICSEmptyCalendar(t *testing.T) {
	svc, _, _ := newTestService(t)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportICS(context.Background(), &buf, "user-without-meds"))

	ics := buf.String()
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.NotContains(t, ics, "VEVENT")
}
