package reminders

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
	r.Get("/me/reminders", listRemindersHandler(svc))
	r.Get("/me/reminders/calendar.ics", exportICSHandler(svc))
	r.Post("/reminders/{reminderID}/dismiss", dismissHandler(svc))
}

type reminderResponse struct {
	ID           string `json:"id"`
	MedicationID string `json:"medication_id"`
	Date         string `json:"date"`
	Type         string `json:"type"`
	Message      string `json:"message"`
	Priority     string `json:"priority"`
	Status       string `json:"status"`
}

func listRemindersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListUpcoming(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]reminderResponse, 0, len(items))
		for _, rem := range items {
			out = append(out, reminderResponse{
				ID:           rem.ID,
				MedicationID: rem.MedicationID,
				Date:         rem.Date.Format("2006-01-02"),
				Type:         string(rem.Type),
				Message:      rem.Message,
				Priority:     rem.Priority,
				Status:       string(rem.Status),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func exportICSHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="refills.ics"`)
		if err := svc.ExportICS(r.Context(), w, claims.UserID); err != nil {
			// Los headers ya salieron; solo queda cortar la respuesta.
			return
		}
	}
}

func dismissHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id := chi.URLParam(r, "reminderID")
		if err := svc.Dismiss(r.Context(), claims.UserID, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "reminder not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"id":           id,
			"status":       string(StatusDismissed),
			"dismissed_at": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// writeJSON duplicado a propósito (ver medications/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
