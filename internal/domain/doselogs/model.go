package doselogs

import (
	"time"

	"med-adherence/internal/domain/schedule"
)

// VerificationStatus indica qué dijo el modelo de visión sobre la foto.
// @Enum unverified, verified, mismatch
type VerificationStatus string

const (
	// VerificationUnverified: sin foto, o el modelo no estaba disponible.
	// No es un error: registrar la toma nunca se bloquea por la verificación.
	VerificationUnverified VerificationStatus = "unverified"
	VerificationVerified   VerificationStatus = "verified"
	VerificationMismatch   VerificationStatus = "mismatch"
)

type Verification struct {
	Status     VerificationStatus
	Confidence float64
	Note       string
}

// DoseLog es el registro de una toma. Append-only: no se edita, a lo sumo se
// registra otra toma.
type DoseLog struct {
	ID           string
	UserID       string
	MedicationID string

	Slot    schedule.TimeSlot
	TakenAt time.Time // momento declarado de la toma

	PhotoRef     string // referencia a la foto subida (opcional)
	Verification Verification

	RecordedAt time.Time
}
