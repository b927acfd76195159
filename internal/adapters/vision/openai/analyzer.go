package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"med-adherence/internal/ports/vision"
)

// Analyzer implementa vision.Analyzer contra un endpoint compatible con la
// API de chat de OpenAI. No se integra automáticamente; queda listo para que
// lo instancien desde main/router cuando haya API key.
type Analyzer struct {
	client *Client
}

func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

func (a *Analyzer) IsConfigured() bool {
	return a != nil && a.client.IsConfigured()
}

// VerifyPill pregunta si la foto corresponde al medicamento declarado.
// Los errores se devuelven tal cual: la política de degradar a unverified
// vive en el caller, no acá.
func (a *Analyzer) VerifyPill(ctx context.Context, photoRef, medName, dosage string) (vision.PillCheck, error) {
	prompt := fmt.Sprintf(
		`You are verifying a medication photo. The patient says this is %q (%s). `+
			`Answer with a JSON object: {"match": bool, "confidence": number between 0 and 1, "note": string}.`,
		strings.TrimSpace(medName), strings.TrimSpace(dosage),
	)

	var out struct {
		Match      bool    `json:"match"`
		Confidence float64 `json:"confidence"`
		Note       string  `json:"note"`
	}
	if err := a.client.analyze(ctx, prompt, photoRef, &out); err != nil {
		return vision.PillCheck{}, err
	}

	return vision.PillCheck{
		Match:      out.Match,
		Confidence: out.Confidence,
		Note:       strings.TrimSpace(out.Note),
	}, nil
}

// ReadLabel extrae los campos de una etiqueta de farmacia fotografiada.
// Campos que el modelo no pudo leer vienen vacíos/nulos, nunca inventados.
func (a *Analyzer) ReadLabel(ctx context.Context, photoRef string) (vision.Label, error) {
	const prompt = `Read the pharmacy label in this photo. Answer with a JSON object: ` +
		`{"name": string, "dosage": string, "schedule": string, "quantity": int or null, ` +
		`"days_supply": int or null, "refills_remaining": int or null, "date_filled": "YYYY-MM-DD" or null}. ` +
		`Use null for anything you cannot read. Do not guess.`

	var out struct {
		Name             string  `json:"name"`
		Dosage           string  `json:"dosage"`
		Schedule         string  `json:"schedule"`
		Quantity         *int    `json:"quantity"`
		DaysSupply       *int    `json:"days_supply"`
		RefillsRemaining *int    `json:"refills_remaining"`
		DateFilled       *string `json:"date_filled"`
	}
	if err := a.client.analyze(ctx, prompt, photoRef, &out); err != nil {
		return vision.Label{}, err
	}

	label := vision.Label{
		Name:             strings.TrimSpace(out.Name),
		Dosage:           strings.TrimSpace(out.Dosage),
		Schedule:         strings.TrimSpace(out.Schedule),
		Quantity:         out.Quantity,
		DaysSupply:       out.DaysSupply,
		RefillsRemaining: out.RefillsRemaining,
	}
	if out.DateFilled != nil {
		if d, err := time.Parse("2006-01-02", strings.TrimSpace(*out.DateFilled)); err == nil {
			label.DateFilled = &d
		}
	}
	return label, nil
}
