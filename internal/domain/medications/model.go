package medications

import "time"

// Medication representa una medicación registrada por un usuario.
//
// Schedule es texto libre en lenguaje natural ("twice daily", "every other day");
// el parser de internal/domain/schedule lo interpreta. CreatedAt ancla el cálculo
// de fase para patrones cíclicos, no es solo metadata.
type Medication struct {
	ID     string
	UserID string

	Name     string
	Dosage   string // texto libre: "10mg", "2 tablets"
	Schedule string // texto libre, nunca vacío; lo irreconocible degrada a defaults

	// Override de hora puntual: si UseSpecificTime y SpecificTime vienen,
	// la medicación se ubica por hora de reloj y no por patrón.
	UseSpecificTime bool
	SpecificTime    *string // "HH:MM" formato 24h

	// RefillOfID enlaza con la entrega anterior de la cadena de refills.
	RefillOfID *string

	// Datos de farmacia (todos opcionales, solo los usa el calculador de refills).
	DateFilled       *time.Time
	Quantity         *int // unidades dispensadas
	DaysSupply       *int // estimación propia de la farmacia
	RefillsRemaining *int
	RefillExpiryDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
