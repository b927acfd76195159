package refill

import (
	"fmt"
)

// Escalera de recordatorios previos a la fecha de refill. Cada tier se emite
// solo si su fecha objetivo todavía está en el futuro.
type reminderTier struct {
	offsetDays int
	typ        ReminderType
	message    func(name string) string
}

var reminderTiers = []reminderTier{
	{14, TypeEarlyRefillDue, func(n string) string {
		return fmt.Sprintf("Refill for %s is due in 2 weeks", n)
	}},
	{7, TypeRefillDue, func(n string) string {
		return fmt.Sprintf("Refill for %s is due in 1 week", n)
	}},
	{3, TypeRefillDue, func(n string) string {
		return fmt.Sprintf("Urgent: refill for %s is due in 3 days", n)
	}},
	{1, TypeRefillDue, func(n string) string {
		return fmt.Sprintf("Final reminder: refill for %s is due tomorrow", n)
	}},
}

// GenerateReminders arma la secuencia escalonada de recordatorios para una
// medicación. Sin DateFilled devuelve lista vacía: la ausencia de datos de
// refill es un caso normal y común, no un error.
//
// Además de los cuatro tiers: un low_supply fechado hoy cuando quedan ≤7 días
// de stock (independiente de los tiers, pueden convivir), y un refill_expiring
// cuando la autorización vence dentro de los próximos 30 días.
func (c *Calculator) GenerateReminders(med MedicationInfo) []Reminder {
	out := []Reminder{}
	if med.DateFilled == nil {
		return out
	}

	refillDate, ok := c.projectedRefillDate(med)
	if !ok {
		return out
	}

	today := truncateToDate(c.now())

	for _, tier := range reminderTiers {
		target := refillDate.AddDate(0, 0, -tier.offsetDays)
		if !target.After(today) {
			continue
		}
		out = append(out, Reminder{
			Date:     target,
			Type:     tier.typ,
			Message:  tier.message(med.Name),
			Priority: Priority(tier.offsetDays),
		})
	}

	remaining := daysBetween(today, refillDate)
	if remaining <= lowSupplyThresholdDays {
		days := remaining
		if days < 0 {
			days = 0
		}
		out = append(out, Reminder{
			Date:     today,
			Type:     TypeLowSupply,
			Message:  fmt.Sprintf("Low supply: about %d days of %s remaining", days, med.Name),
			Priority: Priority(remaining),
		})
	}

	if med.RefillExpiryDate != nil {
		d := daysBetween(today, *med.RefillExpiryDate)
		if d >= 0 && d <= 30 {
			out = append(out, Reminder{
				Date:     today,
				Type:     TypeRefillExpiring,
				Message:  fmt.Sprintf("Refill authorization for %s expires on %s", med.Name, truncateToDate(*med.RefillExpiryDate).Format("2006-01-02")),
				Priority: "medium",
			})
		}
	}

	return out
}

// Priority mapea días-hasta-refill a una prioridad de display.
// Ojo con los bordes: 7 es medium y 8 ya es low (así viene del protocolo).
func Priority(daysUntil int) string {
	switch {
	case daysUntil <= 1:
		return "critical"
	case daysUntil <= 3:
		return "high"
	case daysUntil <= 7:
		return "medium"
	case daysUntil <= 14:
		return "low"
	default:
		return "healthy"
	}
}
