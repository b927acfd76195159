package schedule

import (
	"context"
	"time"

	"med-adherence/internal/domain/medications"
)

// Entry es una toma renderizable dentro de una franja.
type Entry struct {
	MedicationID string
	Name         string
	Dosage       string
	Time         string // "8:00 AM", "2:30 PM"
}

// DaySchedule es el esquema de un día para un usuario: tres franjas de display
// (morning/afternoon/evening). Es un valor efímero, se recalcula por request o
// lo memoiza el cache externo; nunca se persiste.
type DaySchedule struct {
	Date  string // YYYY-MM-DD
	Slots map[TimeSlot][]Entry
}

// MedicationSource provee las medicaciones del usuario (solo lectura).
type MedicationSource interface {
	ListByUser(ctx context.Context, userID string) ([]medications.Medication, error)
}

// Cache memoiza DaySchedule por (user, fecha). El core no cachea por sí mismo;
// el contrato de invalidación en cada write lo honran los módulos de escritura.
type Cache interface {
	Get(userID string, date time.Time) (DaySchedule, bool)
	Put(userID string, date time.Time, day DaySchedule)
}

type Service struct {
	meds  MedicationSource
	cache Cache // puede ser nil
	now   func() time.Time
}

func NewService(meds MedicationSource, cache Cache) *Service {
	return &Service{
		meds:  meds,
		cache: cache,
		now:   time.Now,
	}
}

// displaySlots: franjas que se muestran. Las tomas de night (esquemas 4x) se
// pliegan en evening conservando su hora de display.
var displaySlots = []TimeSlot{SlotMorning, SlotAfternoon, SlotEvening}

// ForDate arma el esquema del día para un usuario.
func (s *Service) ForDate(ctx context.Context, userID string, date time.Time) (DaySchedule, error) {
	if s.cache != nil {
		if day, ok := s.cache.Get(userID, date); ok {
			return day, nil
		}
	}

	meds, err := s.meds.ListByUser(ctx, userID)
	if err != nil {
		return DaySchedule{}, err
	}

	day := newDaySchedule(date)

	for _, med := range meds {
		days := DaysSinceStart(med.CreatedAt, date)
		if days < 0 {
			// La medicación todavía no empezó a esa fecha.
			continue
		}
		if !ShouldTakeOnDate(med.Schedule, days, date, med.CreatedAt) {
			continue
		}

		for _, slot := range DetermineTimeSlots(med.Schedule) {
			entry := Entry{
				MedicationID: med.ID,
				Name:         med.Name,
				Dosage:       DosageForSlot(med, slot, days),
				Time:         slot.DisplayTime(),
			}
			display := slot
			if display == SlotNight {
				display = SlotEvening
			}
			day.Slots[display] = append(day.Slots[display], entry)
		}
	}

	ApplyTimeSpecificOverrides(&day, meds)

	if s.cache != nil {
		s.cache.Put(userID, date, day)
	}
	return day, nil
}

func newDaySchedule(date time.Time) DaySchedule {
	slots := make(map[TimeSlot][]Entry, len(displaySlots))
	for _, s := range displaySlots {
		slots[s] = []Entry{}
	}
	return DaySchedule{
		Date:  date.Format("2006-01-02"),
		Slots: slots,
	}
}

// ApplyTimeSpecificOverrides reubica las medicaciones con hora puntual: se
// sacan de las franjas donde las dejó el matching por patrón y se insertan en
// exactamente una franja elegida por hora de reloj. El override siempre gana.
// Medicaciones sin el flag pasan sin tocarse.
func ApplyTimeSpecificOverrides(day *DaySchedule, meds []medications.Medication) {
	for _, med := range meds {
		if !med.UseSpecificTime || med.SpecificTime == nil {
			continue
		}

		removed := removeMedication(day, med.ID)
		if removed == nil {
			// No estaba en el día (p.ej. patrón cíclico sin toma hoy):
			// el override reubica, no agrega tomas nuevas.
			continue
		}

		t, err := time.Parse("15:04", *med.SpecificTime)
		if err != nil {
			// Hora malformada: devolvemos la entrada a su franja original.
			day.Slots[removed.slot] = append(day.Slots[removed.slot], removed.entry)
			continue
		}

		slot := SlotForHour(t.Hour())
		entry := removed.entry
		entry.Time = t.Format("3:04 PM")
		day.Slots[slot] = append(day.Slots[slot], entry)
	}
}

type removedEntry struct {
	slot  TimeSlot
	entry Entry
}

// removeMedication saca todas las entradas de una medicación y devuelve la
// primera (para re-insertarla una sola vez).
func removeMedication(day *DaySchedule, medID string) *removedEntry {
	var first *removedEntry
	for _, slot := range displaySlots {
		kept := day.Slots[slot][:0]
		for _, e := range day.Slots[slot] {
			if e.MedicationID != medID {
				kept = append(kept, e)
				continue
			}
			if first == nil {
				first = &removedEntry{slot: slot, entry: e}
			}
		}
		day.Slots[slot] = kept
	}
	return first
}
