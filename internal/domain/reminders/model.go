package reminders

import (
	"time"

	"med-adherence/internal/domain/refill"
)

// Status del recordatorio en la bandeja del usuario.
// @Enum pending, dismissed
type Status string

const (
	StatusPending   Status = "pending"
	StatusDismissed Status = "dismissed"
)

// Reminder es un recordatorio de resurtido materializado. La tupla
// (UserID, MedicationID, Date, Type) es única: resincronizar el mismo
// medicamento actualiza el mensaje/prioridad en lugar de duplicar filas.
type Reminder struct {
	ID           string
	UserID       string
	MedicationID string

	Date     time.Time // fecha del recordatorio, truncada a día
	Type     refill.ReminderType
	Message  string
	Priority string

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}
