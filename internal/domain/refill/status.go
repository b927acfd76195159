package refill

const (
	lowSupplyThresholdDays = 7
	dueSoonWindowDays      = 7
)

const (
	StatusOverdue = "overdue"
	StatusLow     = "low"
	StatusDueSoon = "due_soon"
	StatusGood    = "good"
)

// RefillStatus clasifica el estado de refill de una medicación.
// Devuelve HasRefillData en false si no hay DateFilled; todo caller tiene que
// chequear ese flag antes de confiar en el resto de los campos.
func (c *Calculator) RefillStatus(med MedicationInfo) Status {
	if med.DateFilled == nil {
		return Status{HasRefillData: false}
	}

	refillDate, ok := c.projectedRefillDate(med)
	if !ok {
		return Status{HasRefillData: false}
	}

	today := truncateToDate(c.now())
	days := daysBetween(today, refillDate)

	st := Status{
		HasRefillData:   true,
		DaysUntilRefill: days,
		RefillDate:      refillDate,
	}

	switch {
	case days < 0:
		st.Status = StatusOverdue
		st.Urgency = "high"
	case days <= lowSupplyThresholdDays:
		st.Status = StatusLow
		if days <= 3 {
			st.Urgency = "high"
		} else {
			st.Urgency = "medium"
		}
	case days <= dueSoonWindowDays:
		// Ambos umbrales valen 7, así que "low" (chequeado antes) siempre gana
		// en el borde y esta rama hoy no se alcanza. Se conserva la precedencia
		// documentada tal cual; si es un bug latente lo decide producto, no
		// lo arreglamos en silencio acá.
		st.Status = StatusDueSoon
		st.Urgency = "medium"
	default:
		st.Status = StatusGood
	}

	return st
}
