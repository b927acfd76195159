package refill

import (
	"fmt"
	"strings"
	"time"
)

// Checks puros para los write-paths que rodean al calculador (alta manual de
// datos de farmacia, edición de medicación). Los métodos de cálculo no los
// usan internamente: tienen sus propios guards inline, más angostos.

// ValidateMedicationData valida los campos mínimos de una medicación.
func (c *Calculator) ValidateMedicationData(name, dosage, scheduleText string) Validation {
	var errs []string

	if strings.TrimSpace(name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(dosage) == "" {
		errs = append(errs, "dosage is required")
	}
	if strings.TrimSpace(scheduleText) == "" {
		errs = append(errs, "schedule is required")
	}

	return Validation{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateRefillData valida datos de farmacia cargados a mano:
// enteros positivos, dateFilled no futura, daysSupply dentro de [1,365].
func (c *Calculator) ValidateRefillData(dateFilled *time.Time, quantity, daysSupply, refillsRemaining *int) Validation {
	var errs []string

	if dateFilled != nil {
		if dateFilled.IsZero() {
			errs = append(errs, "date filled is not a valid date")
		} else if truncateToDate(*dateFilled).After(truncateToDate(c.now())) {
			errs = append(errs, "date filled cannot be in the future")
		}
	}

	if quantity != nil && *quantity <= 0 {
		errs = append(errs, "quantity must be a positive number")
	}

	if daysSupply != nil && (*daysSupply < 1 || *daysSupply > 365) {
		errs = append(errs, fmt.Sprintf("days supply must be between 1 and 365, got %d", *daysSupply))
	}

	if refillsRemaining != nil && *refillsRemaining < 0 {
		errs = append(errs, "refills remaining cannot be negative")
	}

	return Validation{IsValid: len(errs) == 0, Errors: errs}
}
