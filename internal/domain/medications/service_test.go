package medications

import (
	"context"
	"errors"
	"testing"
	"time"

	"med-adherence/internal/domain/refill"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byID map[string]Medication
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]Medication)}
}

func (f *fakeRepo) Create(_ context.Context, m Medication) error {
	f.byID[m.ID] = m
	return nil
}

func (f *fakeRepo) Update(_ context.Context, m Medication) error {
	if _, ok := f.byID[m.ID]; !ok {
		return errors.New("not found")
	}
	f.byID[m.ID] = m
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (Medication, error) {
	m, ok := f.byID[id]
	if !ok {
		return Medication{}, errors.New("not found")
	}
	return m, nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID string) ([]Medication, error) {
	var out []Medication
	for _, m := range f.byID {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) ListUserIDs(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, m := range f.byID {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			out = append(out, m.UserID)
		}
	}
	return out, nil
}

type fakeInvalidator struct {
	calls []string
}

func (f *fakeInvalidator) InvalidateUser(userID string) {
	f.calls = append(f.calls, userID)
}

func newTestService() (*Service, *fakeRepo, *fakeInvalidator) {
	repo := newFakeRepo()
	inv := &fakeInvalidator{}
	// Calculadora sin parser: alcanza para las validaciones que usa el service.
	svc := NewService(repo, refill.New(nil), inv)
	return svc, repo, inv
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestCreateValidatesRequiredFields(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"empty name", CreateInput{Name: "  ", Dosage: "10mg", Schedule: "once daily"}},
		{"empty dosage", CreateInput{Name: "Aspirin", Dosage: "", Schedule: "once daily"}},
		{"empty schedule", CreateInput{Name: "Aspirin", Dosage: "10mg", Schedule: ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "user-1", tc.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateRejectsBadSpecificTime(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name:            "Aspirin",
		Dosage:          "100mg",
		Schedule:        "once daily",
		UseSpecificTime: true,
		SpecificTime:    strPtr("25:99"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Flag prendido sin hora tampoco vale.
	_, err = svc.Create(context.Background(), "user-1", CreateInput{
		Name:            "Aspirin",
		Dosage:          "100mg",
		Schedule:        "once daily",
		UseSpecificTime: true,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateInvalidatesCache(t *testing.T) {
	svc, _, inv := newTestService()

	_, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name: "Aspirin", Dosage: "100mg", Schedule: "once daily",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, inv.calls)
}

func TestGetForUserHidesOtherUsers(t *testing.T) {
	svc, _, _ := newTestService()

	m, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name: "Aspirin", Dosage: "100mg", Schedule: "once daily",
	})
	require.NoError(t, err)

	// Medicación ajena se reporta como not found, no como forbidden.
	_, err = svc.GetForUser(context.Background(), "user-2", m.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.GetForUser(context.Background(), "user-1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
}

func TestUpdateSpecificTimeNullClearsFlag(t *testing.T) {
	svc, _, _ := newTestService()

	m, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name:            "Aspirin",
		Dosage:          "100mg",
		Schedule:        "once daily",
		UseSpecificTime: true,
		SpecificTime:    strPtr("08:30"),
	})
	require.NoError(t, err)

	// specific_time: null limpia la hora y apaga el flag de paso.
	updated, err := svc.Update(context.Background(), "user-1", m.ID, UpdateInput{
		SpecificTime: PatchString{Present: true, Value: nil},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.SpecificTime)
	assert.False(t, updated.UseSpecificTime)
}

func TestUpdateOmittedFieldsUntouched(t *testing.T) {
	svc, _, _ := newTestService()

	m, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name: "Aspirin", Dosage: "100mg", Schedule: "twice daily",
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), "user-1", m.ID, UpdateInput{
		Dosage: strPtr("200mg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", updated.Name)
	assert.Equal(t, "200mg", updated.Dosage)
	assert.Equal(t, "twice daily", updated.Schedule)
}

func TestCreateRefillChainsAndKeepsAnchor(t *testing.T) {
	svc, repo, _ := newTestService()

	filled := time.Now().AddDate(0, 0, -40)
	m, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name:             "Aspirin",
		Dosage:           "100mg",
		Schedule:         "every other day",
		DateFilled:       &filled,
		Quantity:         intPtr(30),
		DaysSupply:       intPtr(30),
		RefillsRemaining: intPtr(2),
	})
	require.NoError(t, err)

	newFill := time.Now()
	ref, err := svc.CreateRefill(context.Background(), "user-1", m.ID, RefillInput{
		DateFilled: newFill,
		Quantity:   intPtr(30),
		DaysSupply: intPtr(30),
	})
	require.NoError(t, err)

	// Nueva entrada, encadenada, con el mismo régimen.
	assert.NotEqual(t, m.ID, ref.ID)
	require.NotNil(t, ref.RefillOfID)
	assert.Equal(t, m.ID, *ref.RefillOfID)
	assert.Equal(t, "every other day", ref.Schedule)

	// El CreatedAt original se conserva: es el ancla de fase del patrón
	// cíclico, el resurtido no reinicia la alternancia.
	assert.Equal(t, m.CreatedAt, ref.CreatedAt)

	// La entrega anterior consumió un refill autorizado.
	prior, err := repo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	require.NotNil(t, prior.RefillsRemaining)
	assert.Equal(t, 1, *prior.RefillsRemaining)
}

func TestCreateRefillRejectsFutureDate(t *testing.T) {
	svc, _, _ := newTestService()

	m, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name: "Aspirin", Dosage: "100mg", Schedule: "once daily",
	})
	require.NoError(t, err)

	_, err = svc.CreateRefill(context.Background(), "user-1", m.ID, RefillInput{
		DateFilled: time.Now().AddDate(0, 0, 5),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteInvalidatesCache(t *testing.T) {
	svc, repo, inv := newTestService()

	m, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name: "Aspirin", Dosage: "100mg", Schedule: "once daily",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "user-1", m.ID))
	assert.Empty(t, repo.byID)
	assert.Equal(t, []string{"user-1", "user-1"}, inv.calls)
}
