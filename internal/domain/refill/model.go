package refill

import "time"

// Method identifica cómo se calculó una fecha de refill. Los callers deben
// ramificar sobre este tag: nunca asumir que el camino enhanced funcionó.
type Method string

const (
	// MethodScheduleEnhanced: tasa de consumo derivada del patrón real de tomas.
	MethodScheduleEnhanced Method = "schedule_enhanced"
	// MethodBasic: no hay parser de esquemas disponible, se usó el daysSupply de farmacia.
	MethodBasic Method = "basic"
	// MethodBasicFallback: el camino enhanced falló y se degradó al básico.
	MethodBasicFallback Method = "basic_fallback"
)

// Result es el resultado de una proyección de refill. Valor efímero,
// se produce fresco por llamada y no se muta.
type Result struct {
	RefillDate       time.Time
	ConsumptionRate  float64 // dosis/día
	ActualDaysSupply int
	Method           Method
}

type ReminderType string

const (
	TypeEarlyRefillDue ReminderType = "early_refill_due"
	TypeRefillDue      ReminderType = "refill_due"
	TypeLowSupply      ReminderType = "low_supply"
	TypeRefillExpiring ReminderType = "refill_expiring"
)

// Reminder es un evento de recordatorio generado. La persistencia idempotente
// (upsert por user+medicación+fecha+tipo) es responsabilidad del caller;
// el core no deduplica entre llamadas.
type Reminder struct {
	Date     time.Time
	Type     ReminderType
	Message  string
	Priority string
}

// MedicationInfo es la vista de una medicación que necesita el calculador.
// Los campos de farmacia son todos opcionales: su ausencia es un caso normal,
// no un error.
type MedicationInfo struct {
	Name      string
	Schedule  string
	CreatedAt time.Time

	DateFilled       *time.Time
	Quantity         *int
	DaysSupply       *int
	RefillsRemaining *int
	RefillExpiryDate *time.Time
}

// Status resume el estado de refill de una medicación.
// HasRefillData en false invalida el resto de los campos: chequearlo siempre.
type Status struct {
	HasRefillData   bool
	Status          string // overdue | low | due_soon | good
	Urgency         string // high | medium | ""
	DaysUntilRefill int
	RefillDate      time.Time
}

// Comparison contrasta la estimación de farmacia contra la enhanced.
// Es una herramienta de diagnóstico, no participa de la decisión primaria.
type Comparison struct {
	Comparison     string // available | unavailable
	DifferenceDays int    // enhanced - basic, en días (con signo)
	Recommendation string
	Basic          *Result
	Enhanced       *Result
}

// Validation es el resultado de los checks puros de datos de entrada.
type Validation struct {
	IsValid bool
	Errors  []string
}
