package medications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"med-adherence/internal/domain/refill"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// CacheInvalidator invalida el cache de esquemas de un usuario. Todo write de
// medicaciones tiene que invalidarlo: es el único contrato que el cache le
// pide a sus callers.
type CacheInvalidator interface {
	InvalidateUser(userID string)
}

type Service struct {
	repo  Repository
	calc  *refill.Calculator
	cache CacheInvalidator // puede ser nil
	now   func() time.Time
}

func NewService(repo Repository, calc *refill.Calculator, cache CacheInvalidator) *Service {
	return &Service{
		repo:  repo,
		calc:  calc,
		cache: cache,
		now:   time.Now,
	}
}

type CreateInput struct {
	Name     string
	Dosage   string
	Schedule string

	UseSpecificTime bool
	SpecificTime    *string

	DateFilled       *time.Time
	Quantity         *int
	DaysSupply       *int
	RefillsRemaining *int
	RefillExpiryDate *time.Time
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Medication, error) {
	if strings.TrimSpace(userID) == "" {
		return Medication{}, ErrInvalidInput
	}

	if v := s.calc.ValidateMedicationData(in.Name, in.Dosage, in.Schedule); !v.IsValid {
		return Medication{}, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(v.Errors, "; "))
	}
	if v := s.calc.ValidateRefillData(in.DateFilled, in.Quantity, in.DaysSupply, in.RefillsRemaining); !v.IsValid {
		return Medication{}, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(v.Errors, "; "))
	}
	if err := validateSpecificTime(in.UseSpecificTime, in.SpecificTime); err != nil {
		return Medication{}, err
	}

	now := s.now()
	m := Medication{
		ID:               uuid.NewString(),
		UserID:           userID,
		Name:             strings.TrimSpace(in.Name),
		Dosage:           strings.TrimSpace(in.Dosage),
		Schedule:         strings.TrimSpace(in.Schedule),
		UseSpecificTime:  in.UseSpecificTime,
		SpecificTime:     in.SpecificTime,
		DateFilled:       in.DateFilled,
		Quantity:         in.Quantity,
		DaysSupply:       in.DaysSupply,
		RefillsRemaining: in.RefillsRemaining,
		RefillExpiryDate: in.RefillExpiryDate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Medication{}, err
	}

	s.invalidate(userID)
	return m, nil
}

// GetForUser trae una medicación chequeando pertenencia. Medicación ajena se
// reporta como not found para no filtrar existencia.
func (s *Service) GetForUser(ctx context.Context, userID, id string) (Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medication{}, ErrInvalidInput
	}

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Medication{}, ErrNotFound
	}
	if m.UserID != userID {
		return Medication{}, ErrNotFound
	}
	return m, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Medication, error) {
	return s.repo.ListByUser(ctx, userID)
}

// PatchString distingue "campo no enviado" de "campo enviado en null"
// (null = limpiar el valor).
type PatchString struct {
	Present bool
	Value   *string
}

type UpdateInput struct {
	Name     *string
	Dosage   *string
	Schedule *string

	UseSpecificTime *bool
	SpecificTime    PatchString

	DateFilled       *time.Time
	Quantity         *int
	DaysSupply       *int
	RefillsRemaining *int
	RefillExpiryDate *time.Time
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (Medication, error) {
	m, err := s.GetForUser(ctx, userID, id)
	if err != nil {
		return Medication{}, err
	}

	if in.Name != nil {
		m.Name = strings.TrimSpace(*in.Name)
	}
	if in.Dosage != nil {
		m.Dosage = strings.TrimSpace(*in.Dosage)
	}
	if in.Schedule != nil {
		m.Schedule = strings.TrimSpace(*in.Schedule)
	}
	if in.UseSpecificTime != nil {
		m.UseSpecificTime = *in.UseSpecificTime
	}
	if in.SpecificTime.Present {
		m.SpecificTime = in.SpecificTime.Value
		if in.SpecificTime.Value == nil {
			m.UseSpecificTime = false
		}
	}
	if in.DateFilled != nil {
		m.DateFilled = in.DateFilled
	}
	if in.Quantity != nil {
		m.Quantity = in.Quantity
	}
	if in.DaysSupply != nil {
		m.DaysSupply = in.DaysSupply
	}
	if in.RefillsRemaining != nil {
		m.RefillsRemaining = in.RefillsRemaining
	}
	if in.RefillExpiryDate != nil {
		m.RefillExpiryDate = in.RefillExpiryDate
	}

	if v := s.calc.ValidateMedicationData(m.Name, m.Dosage, m.Schedule); !v.IsValid {
		return Medication{}, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(v.Errors, "; "))
	}
	if v := s.calc.ValidateRefillData(m.DateFilled, m.Quantity, m.DaysSupply, m.RefillsRemaining); !v.IsValid {
		return Medication{}, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(v.Errors, "; "))
	}
	if err := validateSpecificTime(m.UseSpecificTime, m.SpecificTime); err != nil {
		return Medication{}, err
	}

	m.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, m); err != nil {
		return Medication{}, err
	}

	s.invalidate(userID)
	return m, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.GetForUser(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

type RefillInput struct {
	DateFilled       time.Time
	Quantity         *int
	DaysSupply       *int
	RefillsRemaining *int
	RefillExpiryDate *time.Time
}

// CreateRefill registra una nueva entrega de la misma medicación, encadenada a
// la anterior vía RefillOfID. La entrada nueva hereda nombre/dosis/esquema y
// conserva el CreatedAt original: es el ancla de fase de los patrones cíclicos
// y el refill continúa el mismo régimen, no arranca uno nuevo.
func (s *Service) CreateRefill(ctx context.Context, userID, medID string, in RefillInput) (Medication, error) {
	prior, err := s.GetForUser(ctx, userID, medID)
	if err != nil {
		return Medication{}, err
	}

	df := in.DateFilled
	if v := s.calc.ValidateRefillData(&df, in.Quantity, in.DaysSupply, in.RefillsRemaining); !v.IsValid {
		return Medication{}, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(v.Errors, "; "))
	}

	m := Medication{
		ID:               uuid.NewString(),
		UserID:           userID,
		Name:             prior.Name,
		Dosage:           prior.Dosage,
		Schedule:         prior.Schedule,
		UseSpecificTime:  prior.UseSpecificTime,
		SpecificTime:     prior.SpecificTime,
		RefillOfID:       &prior.ID,
		DateFilled:       &df,
		Quantity:         in.Quantity,
		DaysSupply:       in.DaysSupply,
		RefillsRemaining: in.RefillsRemaining,
		RefillExpiryDate: in.RefillExpiryDate,
		CreatedAt:        prior.CreatedAt,
		UpdatedAt:        s.now(),
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Medication{}, err
	}

	// La entrega anterior consume un refill autorizado, si quedaba alguno.
	if prior.RefillsRemaining != nil && *prior.RefillsRemaining > 0 {
		left := *prior.RefillsRemaining - 1
		prior.RefillsRemaining = &left
		prior.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, prior); err != nil {
			return Medication{}, err
		}
	}

	s.invalidate(userID)
	return m, nil
}

func (s *Service) invalidate(userID string) {
	if s.cache != nil {
		s.cache.InvalidateUser(userID)
	}
}

func validateSpecificTime(use bool, v *string) error {
	if !use {
		return nil
	}
	if v == nil {
		return fmt.Errorf("%w: specific time required when use_specific_time is set", ErrInvalidInput)
	}
	if _, err := time.Parse("15:04", *v); err != nil {
		return fmt.Errorf("%w: specific time must be HH:MM", ErrInvalidInput)
	}
	return nil
}

// RefillInfo proyecta la medicación a la vista que consume el calculador.
func (m Medication) RefillInfo() refill.MedicationInfo {
	return refill.MedicationInfo{
		Name:             m.Name,
		Schedule:         m.Schedule,
		CreatedAt:        m.CreatedAt,
		DateFilled:       m.DateFilled,
		Quantity:         m.Quantity,
		DaysSupply:       m.DaysSupply,
		RefillsRemaining: m.RefillsRemaining,
		RefillExpiryDate: m.RefillExpiryDate,
	}
}
