package schedule

// TimeSlot representa las franjas del día donde se agrupan las tomas.
// @Enum morning, afternoon, evening, night
type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
	SlotEvening   TimeSlot = "evening"

	// SlotNight solo aparece en esquemas de 4 tomas diarias.
	SlotNight TimeSlot = "night"
)

// slotDisplayTimes: hora "por defecto" que se muestra para cada franja
// cuando la medicación no trae hora específica.
var slotDisplayTimes = map[TimeSlot]string{
	SlotMorning:   "8:00 AM",
	SlotAfternoon: "1:00 PM",
	SlotEvening:   "6:00 PM",
	SlotNight:     "9:00 PM",
}

// slotHourRanges define el rango horario canónico de cada franja ([from, to)).
// Se usa para chequeos de elegibilidad fuera del core (ventanas de toma).
var slotHourRanges = map[TimeSlot][2]int{
	SlotMorning:   {5, 12},
	SlotAfternoon: {12, 17},
	SlotEvening:   {17, 21},
	SlotNight:     {21, 24},
}

// DisplayTime devuelve la hora por defecto de la franja ("8:00 AM", etc).
func (s TimeSlot) DisplayTime() string {
	if t, ok := slotDisplayTimes[s]; ok {
		return t
	}
	return slotDisplayTimes[SlotMorning]
}

// HourRange devuelve el rango horario canónico [from, to) de la franja.
func (s TimeSlot) HourRange() (int, int) {
	r, ok := slotHourRanges[s]
	if !ok {
		r = slotHourRanges[SlotMorning]
	}
	return r[0], r[1]
}

// SlotForHour ubica una hora de reloj en una franja.
// Regla de overrides con hora específica: [5,12) mañana, [12,17) tarde, resto noche.
func SlotForHour(hour int) TimeSlot {
	switch {
	case hour >= 5 && hour < 12:
		return SlotMorning
	case hour >= 12 && hour < 17:
		return SlotAfternoon
	default:
		return SlotEvening
	}
}
