package doselogs

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, d DoseLog) error
	ListByUser(ctx context.Context, userID string, date *time.Time) ([]DoseLog, error)
	ListByMedication(ctx context.Context, medicationID string) ([]DoseLog, error)
}
