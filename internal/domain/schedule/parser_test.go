package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"med-adherence/internal/domain/medications"
)

func TestDetermineTimeSlots_FrequencyFamilies(t *testing.T) {
	cases := []struct {
		text string
		want []TimeSlot
	}{
		{"twice daily", []TimeSlot{SlotMorning, SlotEvening}},
		{"  TWICE DAILY  ", []TimeSlot{SlotMorning, SlotEvening}},
		{"take 1 tablet bid", []TimeSlot{SlotMorning, SlotEvening}},
		{"every 12 hours", []TimeSlot{SlotMorning, SlotEvening}},
		{"three times daily", []TimeSlot{SlotMorning, SlotAfternoon, SlotEvening}},
		{"TID with food", []TimeSlot{SlotMorning, SlotAfternoon, SlotEvening}},
		{"every 8 hours", []TimeSlot{SlotMorning, SlotAfternoon, SlotEvening}},
		{"four times daily", []TimeSlot{SlotMorning, SlotAfternoon, SlotEvening, SlotNight}},
		{"qid", []TimeSlot{SlotMorning, SlotAfternoon, SlotEvening, SlotNight}},
		{"every 6 hours", []TimeSlot{SlotMorning, SlotAfternoon, SlotEvening, SlotNight}},
		{"morning and evening", []TimeSlot{SlotMorning, SlotEvening}},
		{"1 tablet am and pm", []TimeSlot{SlotMorning, SlotEvening}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, DetermineTimeSlots(tc.text), "text=%q", tc.text)
	}
}

func TestDetermineTimeSlots_OnceDaily(t *testing.T) {
	cases := []struct {
		text string
		want []TimeSlot
	}{
		// Sin preferencia horaria embebida: default mañana.
		{"once daily", []TimeSlot{SlotMorning}},
		{"once a day with food", []TimeSlot{SlotMorning}},
		{"once daily at bedtime", []TimeSlot{SlotEvening}},
		{"daily in the evening", []TimeSlot{SlotEvening}},
		{"once a day at noon", []TimeSlot{SlotAfternoon}},
		{"daily with lunch", []TimeSlot{SlotAfternoon}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, DetermineTimeSlots(tc.text), "text=%q", tc.text)
	}
}

func TestDetermineTimeSlots_KeywordScan(t *testing.T) {
	cases := []struct {
		text string
		want []TimeSlot
	}{
		{"take with breakfast", []TimeSlot{SlotMorning}},
		{"with lunch", []TimeSlot{SlotAfternoon}},
		{"take at dinner", []TimeSlot{SlotEvening}},
		{"at bedtime", []TimeSlot{SlotEvening}},
		// Varios grupos matchean: devuelve todas las franjas.
		{"with breakfast and dinner", []TimeSlot{SlotMorning, SlotEvening}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, DetermineTimeSlots(tc.text), "text=%q", tc.text)
	}
}

func TestDetermineTimeSlots_Fallbacks(t *testing.T) {
	// Cíclico sin keyword horaria: mañana.
	assert.Equal(t, []TimeSlot{SlotMorning}, DetermineTimeSlots("every other day"))
	assert.Equal(t, []TimeSlot{SlotMorning}, DetermineTimeSlots("once a week"))

	// Dosis alternante sin más contexto: tarde.
	assert.Equal(t, []TimeSlot{SlotAfternoon}, DetermineTimeSlots("alternate between 1 tablet and 2 tablets"))

	// Nada matcheó: tarde. (Asimetría heredada: el default de una-vez-al-día
	// es mañana, el de último recurso es tarde.)
	assert.Equal(t, []TimeSlot{SlotAfternoon}, DetermineTimeSlots("as needed"))
	assert.Equal(t, []TimeSlot{SlotAfternoon}, DetermineTimeSlots(""))
	assert.Equal(t, []TimeSlot{SlotAfternoon}, DetermineTimeSlots("   "))
}

func TestShouldTakeOnDate_EveryOtherDay(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for days, want := range map[int]bool{0: true, 1: false, 2: true, 3: false} {
		target := created.AddDate(0, 0, days)
		got := ShouldTakeOnDate("every other day", days, target, created)
		assert.Equal(t, want, got, "daysSinceStart=%d", days)
	}
}

func TestShouldTakeOnDate_EveryThreeDays(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for days := 0; days < 9; days++ {
		target := created.AddDate(0, 0, days)
		got := ShouldTakeOnDate("every 3 days", days, target, created)
		assert.Equal(t, days%3 == 0, got, "daysSinceStart=%d", days)
	}
}

func TestShouldTakeOnDate_WeeklyAndMonthly(t *testing.T) {
	created := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) // lunes, día 15

	sameWeekday := time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)
	otherDay := time.Date(2024, 1, 23, 0, 0, 0, 0, time.UTC)
	assert.True(t, ShouldTakeOnDate("once a week", 7, sameWeekday, created))
	assert.False(t, ShouldTakeOnDate("weekly", 8, otherDay, created))

	sameDayOfMonth := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	assert.True(t, ShouldTakeOnDate("once a month", 31, sameDayOfMonth, created))
	assert.False(t, ShouldTakeOnDate("monthly", 32, sameDayOfMonth.AddDate(0, 0, 1), created))
}

func TestShouldTakeOnDate_NonCyclicalAlwaysTrue(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for days := 0; days < 5; days++ {
		assert.True(t, ShouldTakeOnDate("twice daily", days, created.AddDate(0, 0, days), created))
	}
}

func TestDaysSinceStart(t *testing.T) {
	assert.Equal(t, 14, DaysSinceStartStrings("2024-01-01", "2024-01-15"))
	assert.Equal(t, 0, DaysSinceStartStrings("2024-01-01", "2024-01-01"))
	assert.Equal(t, -5, DaysSinceStartStrings("2024-01-10", "2024-01-05"))

	// Año bisiesto: 28 feb → 1 mar son 2 días en 2024.
	assert.Equal(t, 2, DaysSinceStartStrings("2024-02-28", "2024-03-01"))
	// Cruce de año.
	assert.Equal(t, 1, DaysSinceStartStrings("2023-12-31", "2024-01-01"))

	// Timestamps del mismo día calendario dan 0 sin importar la hora.
	assert.Equal(t, 0, DaysSinceStartStrings("2024-01-01T08:30:00Z", "2024-01-01T23:59:00Z"))

	// Input no parseable degrada a 0, nunca explota.
	assert.Equal(t, 0, DaysSinceStartStrings("not-a-date", "2024-01-15"))
	assert.Equal(t, 0, DaysSinceStartStrings("2024-01-01", ""))
}

func TestDosageForSlot_Tacrolimus(t *testing.T) {
	med := medications.Medication{
		Name:     "Tacrolimus",
		Dosage:   "1mg",
		Schedule: "twice daily",
	}

	// Protocolo de dosis asimétrica: ignora el string de dosis crudo.
	assert.Equal(t, "1 capsule", DosageForSlot(med, SlotMorning, 0))
	assert.Equal(t, "2 capsules", DosageForSlot(med, SlotEvening, 0))

	med.Name = "TACROLIMUS 1MG"
	assert.Equal(t, "1 capsule", DosageForSlot(med, SlotMorning, 3))
}

func TestDosageForSlot_Alternating(t *testing.T) {
	med := medications.Medication{
		Name:     "Warfarin",
		Dosage:   "varies",
		Schedule: "alternate between 1 tablet and 2 tablets daily",
	}

	// Día par: primer valor. Día impar: segundo.
	assert.Equal(t, "1 tablet", DosageForSlot(med, SlotMorning, 0))
	assert.Equal(t, "2 tablets", DosageForSlot(med, SlotMorning, 1))
	assert.Equal(t, "1 tablet", DosageForSlot(med, SlotMorning, 2))

	// Cláusula que no parsea: se marca para revisión humana.
	med.Schedule = "alternate between high and low dose"
	assert.Equal(t, "varies (alternating)", DosageForSlot(med, SlotMorning, 0))
}

func TestDosageForSlot_Default(t *testing.T) {
	med := medications.Medication{
		Name:     "Lisinopril",
		Dosage:   "10mg",
		Schedule: "once daily",
	}
	assert.Equal(t, "10mg", DosageForSlot(med, SlotMorning, 0))
}
