package doselogs

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"med-adherence/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/medications/{medicationID}/doses", logDoseHandler(svc))
	r.Get("/medications/{medicationID}/doses", listByMedicationHandler(svc))
	r.Get("/me/doses", listMyDosesHandler(svc))
}

type logDoseRequest struct {
	Slot     string `json:"slot"`
	TakenAt  string `json:"taken_at"` // RFC3339 opcional; vacío = ahora
	PhotoRef string `json:"photo_ref"`
}

type doseLogResponse struct {
	ID           string    `json:"id"`
	MedicationID string    `json:"medication_id"`
	Slot         string    `json:"slot"`
	TakenAt      time.Time `json:"taken_at"`
	RecordedAt   time.Time `json:"recorded_at"`

	PhotoRef     string  `json:"photo_ref,omitempty"`
	Verification string  `json:"verification"`
	Confidence   float64 `json:"confidence,omitempty"`
	Note         string  `json:"note,omitempty"`
}

func logDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req logDoseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var takenAt time.Time
		if strings.TrimSpace(req.TakenAt) != "" {
			t, err := time.Parse(time.RFC3339, req.TakenAt)
			if err != nil {
				http.Error(w, "taken_at must be RFC3339", http.StatusBadRequest)
				return
			}
			takenAt = t
		}

		d, err := svc.Log(r.Context(), claims.UserID, chi.URLParam(r, "medicationID"), LogInput{
			Slot:     req.Slot,
			TakenAt:  takenAt,
			PhotoRef: req.PhotoRef,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "medication not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toDoseLogResponse(d))
	}
}

func listByMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByMedication(r.Context(), claims.UserID, chi.URLParam(r, "medicationID"))
		if err != nil {
			http.Error(w, "medication not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toDoseLogResponses(items))
	}
}

func listMyDosesHandler(svc *Service) http.HandlerFunc {
	// ?date=YYYY-MM-DD opcional para filtrar un día puntual.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var date *time.Time
		if q := strings.TrimSpace(r.URL.Query().Get("date")); q != "" {
			t, err := time.Parse("2006-01-02", q)
			if err != nil {
				http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			date = &t
		}

		items, err := svc.ListByUser(r.Context(), claims.UserID, date)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toDoseLogResponses(items))
	}
}

func toDoseLogResponse(d DoseLog) doseLogResponse {
	return doseLogResponse{
		ID:           d.ID,
		MedicationID: d.MedicationID,
		Slot:         string(d.Slot),
		TakenAt:      d.TakenAt,
		RecordedAt:   d.RecordedAt,
		PhotoRef:     d.PhotoRef,
		Verification: string(d.Verification.Status),
		Confidence:   d.Verification.Confidence,
		Note:         d.Verification.Note,
	}
}

func toDoseLogResponses(in []DoseLog) []doseLogResponse {
	out := make([]doseLogResponse, 0, len(in))
	for _, d := range in {
		out = append(out, toDoseLogResponse(d))
	}
	return out
}

// writeJSON duplicado a propósito (ver medications/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
