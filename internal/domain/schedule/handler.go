package schedule

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"med-adherence/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Esquema del día del usuario autenticado.
	r.Get("/me/schedule", getScheduleHandler(svc))
}

type entryResponse struct {
	MedicationID string `json:"medication_id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Time         string `json:"time"`
}

type scheduleResponse struct {
	Date      string          `json:"date"`
	Morning   []entryResponse `json:"morning"`
	Afternoon []entryResponse `json:"afternoon"`
	Evening   []entryResponse `json:"evening"`
}

// getScheduleHandler devuelve el esquema de tres franjas para una fecha.
// ?date=YYYY-MM-DD opcional; default hoy.
func getScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		date := svc.now()
		if q := strings.TrimSpace(r.URL.Query().Get("date")); q != "" {
			t, err := time.Parse("2006-01-02", q)
			if err != nil {
				http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			date = t
		}

		day, err := svc.ForDate(r.Context(), claims.UserID, date)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleResponse(day))
	}
}

func toScheduleResponse(day DaySchedule) scheduleResponse {
	return scheduleResponse{
		Date:      day.Date,
		Morning:   toEntries(day.Slots[SlotMorning]),
		Afternoon: toEntries(day.Slots[SlotAfternoon]),
		Evening:   toEntries(day.Slots[SlotEvening]),
	}
}

func toEntries(in []Entry) []entryResponse {
	out := make([]entryResponse, 0, len(in))
	for _, e := range in {
		out = append(out, entryResponse{
			MedicationID: e.MedicationID,
			Name:         e.Name,
			Dosage:       e.Dosage,
			Time:         e.Time,
		})
	}
	return out
}

// writeJSON se duplica a propósito en los handlers de cada módulo
// (ver nota en medications/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
