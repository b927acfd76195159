package reminders

import (
	"context"
	"time"
)

type Repository interface {
	// Upsert inserta o actualiza por clave natural (userID, medicationID,
	// date, type). Un reminder ya descartado conserva su status.
	Upsert(ctx context.Context, rem Reminder) (Reminder, error)

	// ListByUser devuelve recordatorios con fecha >= from, ordenados por
	// fecha ascendente. Incluye los descartados; el caller filtra.
	ListByUser(ctx context.Context, userID string, from time.Time) ([]Reminder, error)

	GetByID(ctx context.Context, id string) (Reminder, error)
	SetStatus(ctx context.Context, id string, status Status) error

	// DeleteByMedication limpia los recordatorios de un medicamento que se
	// elimina o reemplaza por un resurtido.
	DeleteByMedication(ctx context.Context, medicationID string) error
}
