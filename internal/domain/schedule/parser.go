package schedule

import (
	"strings"
	"time"
)

// Tablas de frases reconocidas. Son datos constantes a nivel de paquete:
// el parser es determinístico por diseño (matching por substring, sin NLP),
// así la categorización es reproducible entre llamadas y las fechas de
// recordatorio no "bailan".
var (
	comboPhrases = []string{
		"morning and evening",
		"morning and night",
		"morning & evening",
		"am and pm",
	}

	threeTimesPhrases = []string{
		"three times",
		"3 times",
		"3x",
		"thrice",
		"tid",
		"every 8 hours",
		"every 8 hrs",
	}

	fourTimesPhrases = []string{
		"four times",
		"4 times",
		"4x",
		"qid",
		"every 6 hours",
		"every 6 hrs",
	}

	twiceDailyPhrases = []string{
		"twice",
		"two times",
		"2 times",
		"2x",
		"bid",
		"every 12 hours",
		"every 12 hrs",
	}

	onceDailyPhrases = []string{
		"once daily",
		"once a day",
		"once per day",
		"one time a day",
		"every day",
		"daily",
		"qd",
	}

	// Grupos de keywords por franja para el escaneo independiente (paso 6).
	morningKeywords   = []string{"morning", "breakfast", "wake", "am"}
	afternoonKeywords = []string{"afternoon", "noon", "midday", "lunch"}
	eveningKeywords   = []string{"evening", "night", "dinner", "bedtime", "bed", "pm"}
)

// Familias cíclicas (no diarias). El match también es por substring.
var (
	everyOtherDayPhrases = []string{
		"every other day",
		"every second day",
		"every 2 days",
		"every two days",
		"alternate days",
		"alternating days",
	}

	everyThreeDaysPhrases = []string{
		"every 3 days",
		"every three days",
		"every third day",
	}

	weeklyPhrases = []string{
		"once a week",
		"once weekly",
		"every week",
		"weekly",
	}

	monthlyPhrases = []string{
		"once a month",
		"once monthly",
		"every month",
		"monthly",
	}

	alternatingDosePhrases = []string{
		"alternate between",
		"alternating between",
	}
)

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// DetermineTimeSlots mapea el texto libre del esquema a las franjas que ocupa.
// Las reglas se evalúan en orden y gana la primera que matchea: los patrones
// multi-franja van antes que los de franja única porque "twice daily" no puede
// terminar clasificado por un substring de morning/evening más abajo.
// Nunca falla: texto vacío o irreconocible degrada al default de último recurso.
func DetermineTimeSlots(text string) []TimeSlot {
	t := normalize(text)
	if t == "" {
		// Default de último recurso (ver nota sobre la asimetría más abajo).
		return []TimeSlot{SlotAfternoon}
	}

	// 1. Combinaciones explícitas mañana+noche.
	if containsAny(t, comboPhrases) {
		return []TimeSlot{SlotMorning, SlotEvening}
	}

	// 2. Tres tomas diarias.
	if containsAny(t, threeTimesPhrases) {
		return []TimeSlot{SlotMorning, SlotAfternoon, SlotEvening}
	}

	// 3. Cuatro tomas diarias.
	if containsAny(t, fourTimesPhrases) {
		return []TimeSlot{SlotMorning, SlotAfternoon, SlotEvening, SlotNight}
	}

	// 4. Dos tomas diarias.
	if containsAny(t, twiceDailyPhrases) {
		return []TimeSlot{SlotMorning, SlotEvening}
	}

	// 5. Una toma diaria: el mismo texto puede traer preferencia horaria embebida
	// ("once daily at bedtime"). Si no trae, el default de una-vez-al-día es mañana.
	if containsAny(t, onceDailyPhrases) {
		if containsAny(t, eveningKeywords) {
			return []TimeSlot{SlotEvening}
		}
		if containsAny(t, afternoonKeywords) {
			return []TimeSlot{SlotAfternoon}
		}
		return []TimeSlot{SlotMorning}
	}

	// 6. Escaneo independiente por grupos de keywords: devuelve cada franja
	// cuyo grupo matcheó (puede ser más de una).
	var slots []TimeSlot
	if containsAny(t, morningKeywords) {
		slots = append(slots, SlotMorning)
	}
	if containsAny(t, afternoonKeywords) {
		slots = append(slots, SlotAfternoon)
	}
	if containsAny(t, eveningKeywords) {
		slots = append(slots, SlotEvening)
	}
	if len(slots) > 0 {
		return slots
	}

	// 7. Patrones cíclicos sin keyword horaria: default mañana.
	if IsCyclical(t) {
		return []TimeSlot{SlotMorning}
	}

	// 8. Dosis alternante sin más contexto: default tarde.
	if containsAny(t, alternatingDosePhrases) {
		return []TimeSlot{SlotAfternoon}
	}

	// 9. Nada matcheó. El fallback histórico es tarde, mientras que el default
	// de una-vez-al-día (paso 5) es mañana. La asimetría viene del sistema
	// original y se conserva por compatibilidad de comportamiento.
	return []TimeSlot{SlotAfternoon}
}

// IsCyclical indica si el texto pertenece a alguna familia no-diaria.
func IsCyclical(text string) bool {
	t := normalize(text)
	return containsAny(t, everyOtherDayPhrases) ||
		containsAny(t, everyThreeDaysPhrases) ||
		containsAny(t, weeklyPhrases) ||
		containsAny(t, monthlyPhrases)
}

// ShouldTakeOnDate decide si un esquema cíclico tiene toma en la fecha objetivo.
// Cualquier esquema que no matchee una familia cíclica es siempre "sí".
func ShouldTakeOnDate(scheduleText string, daysSinceStart int, target, createdAt time.Time) bool {
	t := normalize(scheduleText)

	switch {
	case containsAny(t, everyOtherDayPhrases):
		return daysSinceStart%2 == 0
	case containsAny(t, everyThreeDaysPhrases):
		return daysSinceStart%3 == 0
	case containsAny(t, weeklyPhrases):
		return target.Weekday() == createdAt.Weekday()
	case containsAny(t, monthlyPhrases):
		return target.Day() == createdAt.Day()
	default:
		return true
	}
}

// DaysSinceStart calcula días calendario completos entre la fecha de alta de la
// medicación y la fecha objetivo. Compara solo fechas (se descarta la hora, dos
// timestamps del mismo día dan 0). Puede ser negativo si target es anterior;
// es responsabilidad del caller saltear esas fechas.
func DaysSinceStart(createdAt, target time.Time) int {
	a := truncateToDate(createdAt)
	b := truncateToDate(target)
	return int(b.Sub(a).Hours() / 24)
}

// DaysSinceStartStrings acepta fechas como string (date-only o timestamp
// completo). Input no parseable degrada a 0, nunca falla: el texto viene de
// fuentes libres/OCR y no puede tumbar el armado del resto del esquema.
func DaysSinceStartStrings(createdAt, target string) int {
	a, ok := ParseDate(createdAt)
	if !ok {
		return 0
	}
	b, ok := ParseDate(target)
	if !ok {
		return 0
	}
	return DaysSinceStart(a, b)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate intenta los formatos de fecha aceptados (date-only y timestamp).
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
