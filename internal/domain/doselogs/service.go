package doselogs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"med-adherence/internal/domain/medications"
	"med-adherence/internal/domain/schedule"
	"med-adherence/internal/ports/vision"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// CacheInvalidator: registrar una toma también invalida el esquema cacheado
// del usuario (contrato de invalidación en cada write).
type CacheInvalidator interface {
	InvalidateUser(userID string)
}

type Service struct {
	repo     Repository
	meds     *medications.Service
	analyzer vision.Analyzer  // puede ser nil
	cache    CacheInvalidator // puede ser nil
	now      func() time.Time
}

func NewService(repo Repository, meds *medications.Service, analyzer vision.Analyzer, cache CacheInvalidator) *Service {
	return &Service{
		repo:     repo,
		meds:     meds,
		analyzer: analyzer,
		cache:    cache,
		now:      time.Now,
	}
}

type LogInput struct {
	Slot     string
	TakenAt  time.Time // zero = ahora
	PhotoRef string
}

var validSlots = map[schedule.TimeSlot]bool{
	schedule.SlotMorning:   true,
	schedule.SlotAfternoon: true,
	schedule.SlotEvening:   true,
	schedule.SlotNight:     true,
}

// Log registra una toma. Si viene foto y el modelo de visión está cableado,
// intenta verificarla; visión caída o no configurada degrada a unverified,
// nunca bloquea el registro.
func (s *Service) Log(ctx context.Context, userID, medicationID string, in LogInput) (DoseLog, error) {
	med, err := s.meds.GetForUser(ctx, userID, medicationID)
	if err != nil {
		return DoseLog{}, ErrNotFound
	}

	slot := schedule.TimeSlot(strings.ToLower(strings.TrimSpace(in.Slot)))
	if !validSlots[slot] {
		return DoseLog{}, fmt.Errorf("%w: unknown time slot %q", ErrInvalidInput, in.Slot)
	}

	now := s.now()
	takenAt := in.TakenAt
	if takenAt.IsZero() {
		takenAt = now
	}

	d := DoseLog{
		ID:           uuid.NewString(),
		UserID:       userID,
		MedicationID: med.ID,
		Slot:         slot,
		TakenAt:      takenAt,
		PhotoRef:     strings.TrimSpace(in.PhotoRef),
		Verification: Verification{Status: VerificationUnverified},
		RecordedAt:   now,
	}

	if d.PhotoRef != "" && s.analyzer != nil {
		d.Verification = s.verifyPhoto(ctx, d.PhotoRef, med)
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return DoseLog{}, err
	}

	if s.cache != nil {
		s.cache.InvalidateUser(userID)
	}
	return d, nil
}

func (s *Service) verifyPhoto(ctx context.Context, photoRef string, med medications.Medication) Verification {
	check, err := s.analyzer.VerifyPill(ctx, photoRef, med.Name, med.Dosage)
	if err != nil {
		// Best effort: el modelo caído no puede frenar el registro de la toma.
		return Verification{
			Status: VerificationUnverified,
			Note:   "verification unavailable",
		}
	}

	status := VerificationMismatch
	if check.Match {
		status = VerificationVerified
	}
	return Verification{
		Status:     status,
		Confidence: check.Confidence,
		Note:       check.Note,
	}
}

func (s *Service) ListByUser(ctx context.Context, userID string, date *time.Time) ([]DoseLog, error) {
	return s.repo.ListByUser(ctx, userID, date)
}

func (s *Service) ListByMedication(ctx context.Context, userID, medicationID string) ([]DoseLog, error) {
	if _, err := s.meds.GetForUser(ctx, userID, medicationID); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.ListByMedication(ctx, medicationID)
}
