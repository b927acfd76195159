package medications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"med-adherence/internal/domain/refill"
	"med-adherence/internal/middleware"
	"med-adherence/internal/ports/vision"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RegisterRoutes monta el CRUD de medicaciones más los endpoints de refill que
// dependen del calculador. analyzer puede ser nil (visión no configurada).
func RegisterRoutes(r chi.Router, svc *Service, calc *refill.Calculator, analyzer vision.Analyzer) {
	r.Route("/medications", func(mr chi.Router) {
		mr.Post("/", createMedicationHandler(svc))
		mr.Get("/", listMedicationsHandler(svc))
		mr.Post("/scan", scanLabelHandler(analyzer))

		mr.Route("/{medicationID}", func(ir chi.Router) {
			ir.Get("/", getMedicationHandler(svc))
			ir.Patch("/", updateMedicationHandler(svc))
			ir.Delete("/", deleteMedicationHandler(svc))

			ir.Post("/refills", createRefillHandler(svc))
			ir.Get("/refill/status", refillStatusHandler(svc, calc))
			ir.Get("/refill/comparison", refillComparisonHandler(svc, calc))
		})
	})
}

type createMedicationRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Dosage   string `json:"dosage" validate:"required,max=200"`
	Schedule string `json:"schedule" validate:"required,max=500"`

	UseSpecificTime bool    `json:"use_specific_time"`
	SpecificTime    *string `json:"specific_time" validate:"omitempty,len=5"` // HH:MM

	DateFilled       string `json:"date_filled"` // YYYY-MM-DD opcional
	Quantity         *int   `json:"quantity" validate:"omitempty,gt=0"`
	DaysSupply       *int   `json:"days_supply" validate:"omitempty,gte=1,lte=365"`
	RefillsRemaining *int   `json:"refills_remaining" validate:"omitempty,gte=0"`
	RefillExpiryDate string `json:"refill_expiry_date"` // YYYY-MM-DD opcional
}

type updateMedicationRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name     *string `json:"name"`
	Dosage   *string `json:"dosage"`
	Schedule *string `json:"schedule"`

	UseSpecificTime *bool `json:"use_specific_time"`
	// specific_time admite null para limpiar; la presencia se detecta aparte.

	DateFilled       *string `json:"date_filled"`
	Quantity         *int    `json:"quantity"`
	DaysSupply       *int    `json:"days_supply"`
	RefillsRemaining *int    `json:"refills_remaining"`
	RefillExpiryDate *string `json:"refill_expiry_date"`
}

type createRefillRequest struct {
	DateFilled       string `json:"date_filled" validate:"required"`
	Quantity         *int   `json:"quantity" validate:"omitempty,gt=0"`
	DaysSupply       *int   `json:"days_supply" validate:"omitempty,gte=1,lte=365"`
	RefillsRemaining *int   `json:"refills_remaining" validate:"omitempty,gte=0"`
	RefillExpiryDate string `json:"refill_expiry_date"`
}

type scanRequest struct {
	PhotoRef string `json:"photo_ref" validate:"required"`
}

type medicationResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Schedule string `json:"schedule"`

	UseSpecificTime bool    `json:"use_specific_time"`
	SpecificTime    *string `json:"specific_time,omitempty"`
	RefillOfID      *string `json:"refill_of_id,omitempty"`

	DateFilled       *string `json:"date_filled,omitempty"`
	Quantity         *int    `json:"quantity,omitempty"`
	DaysSupply       *int    `json:"days_supply,omitempty"`
	RefillsRemaining *int    `json:"refills_remaining,omitempty"`
	RefillExpiryDate *string `json:"refill_expiry_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func createMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		df, ok := parseOptionalDate(req.DateFilled)
		if !ok {
			http.Error(w, "date_filled must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		exp, ok := parseOptionalDate(req.RefillExpiryDate)
		if !ok {
			http.Error(w, "refill_expiry_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		m, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:             req.Name,
			Dosage:           req.Dosage,
			Schedule:         req.Schedule,
			UseSpecificTime:  req.UseSpecificTime,
			SpecificTime:     req.SpecificTime,
			DateFilled:       df,
			Quantity:         req.Quantity,
			DaysSupply:       req.DaysSupply,
			RefillsRemaining: req.RefillsRemaining,
			RefillExpiryDate: exp,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicationResponse(m))
	}
}

func listMedicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByUser(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]medicationResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMedicationResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		m, err := svc.GetForUser(r.Context(), claims.UserID, chi.URLParam(r, "medicationID"))
		if err != nil {
			http.Error(w, "medication not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(m))
	}
}

func updateMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Para soportar "specific_time": null (= limpiar) hay que detectar
		// presencia del campo: decodificamos primero a map crudo.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var req updateMedicationRequest
		{
			b, _ := json.Marshal(raw)
			if err := json.Unmarshal(b, &req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		st := PatchString{}
		if v, exists := raw["specific_time"]; exists {
			st.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "specific_time must be HH:MM or null", http.StatusBadRequest)
					return
				}
				st.Value = &s
			}
		}

		df, ok := parseOptionalDatePtr(req.DateFilled)
		if !ok {
			http.Error(w, "date_filled must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		exp, ok := parseOptionalDatePtr(req.RefillExpiryDate)
		if !ok {
			http.Error(w, "refill_expiry_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		m, err := svc.Update(r.Context(), claims.UserID, chi.URLParam(r, "medicationID"), UpdateInput{
			Name:             req.Name,
			Dosage:           req.Dosage,
			Schedule:         req.Schedule,
			UseSpecificTime:  req.UseSpecificTime,
			SpecificTime:     st,
			DateFilled:       df,
			Quantity:         req.Quantity,
			DaysSupply:       req.DaysSupply,
			RefillsRemaining: req.RefillsRemaining,
			RefillExpiryDate: exp,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(m))
	}
}

func deleteMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), claims.UserID, chi.URLParam(r, "medicationID")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createRefillHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createRefillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		df, err := time.Parse("2006-01-02", req.DateFilled)
		if err != nil {
			http.Error(w, "date_filled must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		exp, ok := parseOptionalDate(req.RefillExpiryDate)
		if !ok {
			http.Error(w, "refill_expiry_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		m, err := svc.CreateRefill(r.Context(), claims.UserID, chi.URLParam(r, "medicationID"), RefillInput{
			DateFilled:       df,
			Quantity:         req.Quantity,
			DaysSupply:       req.DaysSupply,
			RefillsRemaining: req.RefillsRemaining,
			RefillExpiryDate: exp,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMedicationResponse(m))
	}
}

type refillStatusResponse struct {
	HasRefillData bool   `json:"has_refill_data"`
	Status        string `json:"status"`
	Urgency       string `json:"urgency,omitempty"`
	// Sin omitempty: 0 días significa "el resurtido cae hoy" y tiene que
	// viajar en la respuesta.
	DaysUntilRefill int    `json:"days_until_refill"`
	RefillDate      string `json:"refill_date,omitempty"`
}

func refillStatusHandler(svc *Service, calc *refill.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		m, err := svc.GetForUser(r.Context(), claims.UserID, chi.URLParam(r, "medicationID"))
		if err != nil {
			http.Error(w, "medication not found", http.StatusNotFound)
			return
		}

		st := calc.RefillStatus(m.RefillInfo())
		resp := refillStatusResponse{
			HasRefillData:   st.HasRefillData,
			Status:          st.Status,
			Urgency:         st.Urgency,
			DaysUntilRefill: st.DaysUntilRefill,
		}
		if st.HasRefillData {
			resp.RefillDate = st.RefillDate.Format("2006-01-02")
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// refillComparisonHandler corre las dos estimaciones lado a lado.
// Solo diagnóstico; la decisión primaria no pasa por acá.
func refillComparisonHandler(svc *Service, calc *refill.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		m, err := svc.GetForUser(r.Context(), claims.UserID, chi.URLParam(r, "medicationID"))
		if err != nil {
			http.Error(w, "medication not found", http.StatusNotFound)
			return
		}

		if m.DateFilled == nil || m.Quantity == nil {
			http.Error(w, "medication has no refill data", http.StatusBadRequest)
			return
		}

		ds := refill.DefaultDaysSupply
		if m.DaysSupply != nil {
			ds = *m.DaysSupply
		}
		if q := strings.TrimSpace(r.URL.Query().Get("days_supply")); q != "" {
			v, err := strconv.Atoi(q)
			if err != nil || v <= 0 {
				http.Error(w, "days_supply must be a positive integer", http.StatusBadRequest)
				return
			}
			ds = v
		}

		cmp, err := calc.CompareMethods(*m.DateFilled, *m.Quantity, m.Schedule, ds)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, cmp)
	}
}

type scanResponse struct {
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Schedule string `json:"schedule"`

	Quantity         *int    `json:"quantity,omitempty"`
	DaysSupply       *int    `json:"days_supply,omitempty"`
	RefillsRemaining *int    `json:"refills_remaining,omitempty"`
	DateFilled       *string `json:"date_filled,omitempty"`
}

// scanLabelHandler: OCR de etiqueta vía el modelo de visión. Devuelve un
// payload pre-armado para el form de alta; el usuario confirma antes de crear.
func scanLabelHandler(analyzer vision.Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if analyzer == nil {
			http.Error(w, "label scanning not available", http.StatusServiceUnavailable)
			return
		}

		var req scanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		label, err := analyzer.ReadLabel(r.Context(), req.PhotoRef)
		if err != nil {
			http.Error(w, "label scan failed", http.StatusBadGateway)
			return
		}

		resp := scanResponse{
			Name:             label.Name,
			Dosage:           label.Dosage,
			Schedule:         label.Schedule,
			Quantity:         label.Quantity,
			DaysSupply:       label.DaysSupply,
			RefillsRemaining: label.RefillsRemaining,
		}
		if label.DateFilled != nil {
			s := label.DateFilled.Format("2006-01-02")
			resp.DateFilled = &s
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func toMedicationResponse(m Medication) medicationResponse {
	resp := medicationResponse{
		ID:               m.ID,
		Name:             m.Name,
		Dosage:           m.Dosage,
		Schedule:         m.Schedule,
		UseSpecificTime:  m.UseSpecificTime,
		SpecificTime:     m.SpecificTime,
		RefillOfID:       m.RefillOfID,
		Quantity:         m.Quantity,
		DaysSupply:       m.DaysSupply,
		RefillsRemaining: m.RefillsRemaining,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.DateFilled != nil {
		s := m.DateFilled.Format("2006-01-02")
		resp.DateFilled = &s
	}
	if m.RefillExpiryDate != nil {
		s := m.RefillExpiryDate.Format("2006-01-02")
		resp.RefillExpiryDate = &s
	}
	return resp
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "medication not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseOptionalDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func parseOptionalDatePtr(s *string) (*time.Time, bool) {
	if s == nil {
		return nil, true
	}
	return parseOptionalDate(*s)
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
