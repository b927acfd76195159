package schedule

import "time"

// Engine expone las funciones del parser detrás de un tipo concreto, para los
// componentes que reciben el parser como dependencia opcional (el calculador
// de refills). Las tablas son de paquete, así que no hay estado que configurar.
type Engine struct{}

func (Engine) FrequencyPerDay(text string) (int, bool) {
	return FrequencyPerDay(text)
}

func (Engine) ShouldTakeOnDate(text string, daysSinceStart int, target, createdAt time.Time) bool {
	return ShouldTakeOnDate(text, daysSinceStart, target, createdAt)
}

// FrequencyPerDay devuelve la cantidad exacta de tomas diarias para las frases
// de frecuencia inambiguas (bid/tid/qid y equivalentes). Para todo lo demás
// responde false y el caller debe simular día a día.
func FrequencyPerDay(text string) (int, bool) {
	t := normalize(text)
	switch {
	case containsAny(t, fourTimesPhrases):
		return 4, true
	case containsAny(t, threeTimesPhrases):
		return 3, true
	case containsAny(t, twiceDailyPhrases):
		return 2, true
	}
	return 0, false
}
