package refill

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidDaysSupply = errors.New("days supply must be a positive number")
	ErrInvalidDateFilled = errors.New("date filled is not a valid date")
	ErrFutureDateFilled  = errors.New("date filled cannot be in the future")
)

const (
	// DefaultAnalysisWindowDays: ventana de simulación para estimar la tasa de
	// consumo. Es una aproximación: para patrones cuyo período no divide la
	// ventana (semanal: tasa real 1/7), conviene pasar un múltiplo del período.
	DefaultAnalysisWindowDays = 30

	// DefaultDaysSupply se usa cuando la farmacia no mandó estimación propia.
	DefaultDaysSupply = 30
)

// RateScheduler es el parser de esquemas visto desde el calculador. Es una
// dependencia opcional: puede no estar cableada, y todos los caminos enhanced
// pasan por el chequeo centralizado de disponibilidad antes de usarla.
type RateScheduler interface {
	FrequencyPerDay(text string) (int, bool)
	ShouldTakeOnDate(text string, daysSinceStart int, target, createdAt time.Time) bool
}

// Calculator produce proyecciones de agotamiento de stock y recordatorios.
// Es puro y sin estado compartido mutable; seguro para llamadas concurrentes.
type Calculator struct {
	scheduler RateScheduler // puede ser nil
	now       func() time.Time
}

func New(scheduler RateScheduler) *Calculator {
	return &Calculator{
		scheduler: scheduler,
		now:       time.Now,
	}
}

// hasScheduler es el único lugar donde se decide si el parser está disponible.
func (c *Calculator) hasScheduler() bool {
	return c != nil && c.scheduler != nil
}

// ConsumptionRate estima dosis/día para un esquema. Frases de frecuencia
// inambiguas (bid/tid/qid y equivalentes) devuelven constantes exactas sin
// simular; el resto se simula día a día sobre la ventana preguntándole al
// parser si ese día hay toma. Cualquier falla (sin parser, texto vacío)
// degrada al default seguro de 1 dosis/día.
func (c *Calculator) ConsumptionRate(scheduleText string, windowDays int) float64 {
	if windowDays <= 0 {
		windowDays = DefaultAnalysisWindowDays
	}
	if !c.hasScheduler() || scheduleText == "" {
		return 1
	}

	if n, ok := c.scheduler.FrequencyPerDay(scheduleText); ok {
		return float64(n)
	}

	start := truncateToDate(c.now())
	taken := 0
	for i := 0; i < windowDays; i++ {
		target := start.AddDate(0, 0, i)
		if c.scheduler.ShouldTakeOnDate(scheduleText, i, target, start) {
			taken++
		}
	}

	if taken == 0 {
		return 1
	}
	return float64(taken) / float64(windowDays)
}

// RefillDate calcula dateFilled + daysSupply. A diferencia del parser, acá la
// política es estricta: daysSupply no positivo o fecha inválida/futura son
// bugs del caller o datos manuales malos, y deben saltar de inmediato en vez
// de producir una fecha sin sentido.
func (c *Calculator) RefillDate(dateFilled time.Time, daysSupply int) (time.Time, error) {
	if daysSupply <= 0 {
		return time.Time{}, fmt.Errorf("%w: got %d", ErrInvalidDaysSupply, daysSupply)
	}
	if dateFilled.IsZero() {
		return time.Time{}, ErrInvalidDateFilled
	}

	filled := truncateToDate(dateFilled)
	if filled.After(truncateToDate(c.now())) {
		return time.Time{}, ErrFutureDateFilled
	}

	return filled.AddDate(0, 0, daysSupply), nil
}

// RefillDateWithSchedule es la lógica central de mejora: tasa de consumo del
// esquema real, daysSupply efectivo = ceil(quantity / tasa), y de ahí la fecha.
// Sin parser cableado el resultado se tagea basic; si cualquier paso interno
// falla se degrada a basic_fallback con el daysSupply del caller (o 30).
func (c *Calculator) RefillDateWithSchedule(dateFilled time.Time, quantity int, scheduleText string, daysSupply *int) (Result, error) {
	if !c.hasScheduler() {
		return c.basicResult(dateFilled, daysSupply, MethodBasic)
	}
	if quantity <= 0 {
		return c.basicResult(dateFilled, daysSupply, MethodBasicFallback)
	}

	rate := c.ConsumptionRate(scheduleText, DefaultAnalysisWindowDays)
	actual := int(math.Ceil(float64(quantity) / rate))

	date, err := c.RefillDate(dateFilled, actual)
	if err != nil {
		return c.basicResult(dateFilled, daysSupply, MethodBasicFallback)
	}

	return Result{
		RefillDate:       date,
		ConsumptionRate:  rate,
		ActualDaysSupply: actual,
		Method:           MethodScheduleEnhanced,
	}, nil
}

func (c *Calculator) basicResult(dateFilled time.Time, daysSupply *int, method Method) (Result, error) {
	ds := DefaultDaysSupply
	if daysSupply != nil && *daysSupply > 0 {
		ds = *daysSupply
	}

	date, err := c.RefillDate(dateFilled, ds)
	if err != nil {
		// Ni el camino básico puede: la fecha de entrega es inválida de raíz.
		return Result{}, err
	}

	return Result{
		RefillDate:       date,
		ActualDaysSupply: ds,
		Method:           method,
	}, nil
}

// CompareMethods corre la estimación de farmacia y la enhanced lado a lado y
// reporta la diferencia con una recomendación legible. Herramienta de
// diagnóstico: nunca se usa para la decisión primaria de fecha.
func (c *Calculator) CompareMethods(dateFilled time.Time, quantity int, scheduleText string, pharmacyDaysSupply int) (Comparison, error) {
	if !c.hasScheduler() {
		return Comparison{Comparison: "unavailable"}, nil
	}

	basicDate, err := c.RefillDate(dateFilled, pharmacyDaysSupply)
	if err != nil {
		return Comparison{}, err
	}
	basic := Result{
		RefillDate:       basicDate,
		ActualDaysSupply: pharmacyDaysSupply,
		Method:           MethodBasic,
	}

	enhanced, err := c.RefillDateWithSchedule(dateFilled, quantity, scheduleText, &pharmacyDaysSupply)
	if err != nil {
		return Comparison{}, err
	}

	diff := daysBetween(basic.RefillDate, enhanced.RefillDate)

	var rec string
	switch {
	case diff >= -7 && diff <= 7:
		rec = "pharmacy estimate is accurate"
	case diff > 0:
		rec = fmt.Sprintf("pharmacy estimate is too conservative; actual supply lasts %d days longer", diff)
	default:
		rec = fmt.Sprintf("pharmacy estimate is too optimistic; medication runs out %d days sooner", -diff)
	}

	return Comparison{
		Comparison:     "available",
		DifferenceDays: diff,
		Recommendation: rec,
		Basic:          &basic,
		Enhanced:       &enhanced,
	}, nil
}

// projectedRefillDate es la fecha que usan reminders y status: enhanced cuando
// hay parser y quantity, básica si no. false si no se puede calcular nada.
func (c *Calculator) projectedRefillDate(med MedicationInfo) (time.Time, bool) {
	if med.DateFilled == nil {
		return time.Time{}, false
	}

	if c.hasScheduler() && med.Quantity != nil {
		res, err := c.RefillDateWithSchedule(*med.DateFilled, *med.Quantity, med.Schedule, med.DaysSupply)
		if err == nil {
			return res.RefillDate, true
		}
	}

	ds := DefaultDaysSupply
	if med.DaysSupply != nil && *med.DaysSupply > 0 {
		ds = *med.DaysSupply
	}
	date, err := c.RefillDate(*med.DateFilled, ds)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween: días calendario completos de a hasta b (con signo).
func daysBetween(a, b time.Time) int {
	return int(truncateToDate(b).Sub(truncateToDate(a)).Hours() / 24)
}
