package vision

import (
	"context"
	"time"
)

// PillCheck es el veredicto del modelo de visión sobre una foto de toma.
type PillCheck struct {
	Match      bool
	Confidence float64
	Note       string
}

// Label son los campos estructurados extraídos por OCR de una etiqueta de
// farmacia. Todo lo opcional puede venir vacío: el OCR es best-effort y el
// usuario confirma antes de crear nada.
type Label struct {
	Name     string
	Dosage   string
	Schedule string

	Quantity         *int
	DaysSupply       *int
	RefillsRemaining *int
	DateFilled       *time.Time
}

// Analyzer abstrae el cliente del modelo de visión externo.
type Analyzer interface {
	// VerifyPill compara la foto contra la medicación declarada.
	VerifyPill(ctx context.Context, photoRef, medName, dosage string) (PillCheck, error)

	// ReadLabel extrae los campos de una etiqueta de prescripción.
	ReadLabel(ctx context.Context, photoRef string) (Label, error)
}
