package reminders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"med-adherence/internal/domain/medications"
	"med-adherence/internal/domain/refill"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type Service struct {
	repo Repository
	meds *medications.Service
	calc *refill.Calculator
	now  func() time.Time
}

func NewService(repo Repository, meds *medications.Service, calc *refill.Calculator) *Service {
	return &Service{
		repo: repo,
		meds: meds,
		calc: calc,
		now:  time.Now,
	}
}

// SyncForMedication recalcula los recordatorios de un medicamento y los
// persiste vía upsert. Idempotente: correr dos veces el mismo día deja
// exactamente las mismas filas.
func (s *Service) SyncForMedication(ctx context.Context, userID, medicationID string) ([]Reminder, error) {
	med, err := s.meds.GetForUser(ctx, userID, medicationID)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.syncMedication(ctx, med)
}

// SyncAllForUser sincroniza todos los medicamentos del usuario. Lo usa el
// job nocturno y el listado bajo demanda.
func (s *Service) SyncAllForUser(ctx context.Context, userID string) error {
	meds, err := s.meds.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, med := range meds {
		if _, err := s.syncMedication(ctx, med); err != nil {
			return fmt.Errorf("sync medication %s: %w", med.ID, err)
		}
	}
	return nil
}

func (s *Service) syncMedication(ctx context.Context, med medications.Medication) ([]Reminder, error) {
	generated := s.calc.GenerateReminders(med.RefillInfo())
	now := s.now()

	out := make([]Reminder, 0, len(generated))
	for _, g := range generated {
		rem, err := s.repo.Upsert(ctx, Reminder{
			ID:           uuid.NewString(),
			UserID:       med.UserID,
			MedicationID: med.ID,
			Date:         g.Date,
			Type:         g.Type,
			Message:      g.Message,
			Priority:     g.Priority,
			Status:       StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, nil
}

// ListUpcoming sincroniza y devuelve los recordatorios pendientes desde hoy.
// Los recordatorios huérfanos (su medicación fue borrada o reemplazada por un
// resurtido) se podan acá, en el único punto de lectura.
func (s *Service) ListUpcoming(ctx context.Context, userID string) ([]Reminder, error) {
	if err := s.SyncAllForUser(ctx, userID); err != nil {
		return nil, err
	}

	meds, err := s.meds.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	alive := make(map[string]bool, len(meds))
	for _, med := range meds {
		alive[med.ID] = true
	}

	today := truncateToDate(s.now())
	all, err := s.repo.ListByUser(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	out := make([]Reminder, 0, len(all))
	for _, rem := range all {
		if !alive[rem.MedicationID] {
			if err := s.repo.DeleteByMedication(ctx, rem.MedicationID); err != nil {
				return nil, fmt.Errorf("prune reminders for medication %s: %w", rem.MedicationID, err)
			}
			continue
		}
		if rem.Status == StatusPending {
			out = append(out, rem)
		}
	}
	return out, nil
}

// Dismiss marca un recordatorio como descartado. El descarte sobrevive a las
// resincronizaciones posteriores (el upsert no pisa el status).
func (s *Service) Dismiss(ctx context.Context, userID, reminderID string) error {
	rem, err := s.repo.GetByID(ctx, reminderID)
	if err != nil || rem.UserID != userID {
		return ErrNotFound
	}
	return s.repo.SetStatus(ctx, reminderID, StatusDismissed)
}

// ExportICS escribe un VCALENDAR con un VEVENT de día completo por cada
// recordatorio pendiente del usuario.
func (s *Service) ExportICS(ctx context.Context, w io.Writer, userID string) error {
	items, err := s.ListUpcoming(ctx, userID)
	if err != nil {
		return err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//med-adherence//refill reminders//EN")
	cal.Props.SetText("X-WR-CALNAME", "Medication refills")

	stamp := s.now().UTC()
	for _, rem := range items {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, fmt.Sprintf("%s@med-adherence", rem.ID))
		event.Props.SetText(ical.PropSummary, rem.Message)
		event.Props.SetText(ical.PropDescription, fmt.Sprintf("Priority: %s", rem.Priority))

		dtStamp := ical.NewProp(ical.PropDateTimeStamp)
		dtStamp.SetDateTime(stamp)
		event.Props.Set(dtStamp)

		// VALUE=DATE: evento de día completo, sin hora ni zona horaria.
		dtStart := ical.NewProp(ical.PropDateTimeStart)
		dtStart.SetDate(rem.Date)
		event.Props.Set(dtStart)

		cal.Children = append(cal.Children, event.Component)
	}

	if len(cal.Children) == 0 {
		// Un VCALENDAR sin componentes es inválido para varios clientes;
		// devolvemos el esqueleto mínimo a mano.
		_, err := fmt.Fprint(w, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//med-adherence//refill reminders//EN\r\nEND:VCALENDAR\r\n")
		return err
	}

	return ical.NewEncoder(w).Encode(cal)
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
