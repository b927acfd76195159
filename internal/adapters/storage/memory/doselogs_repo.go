package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"med-adherence/internal/domain/doselogs"
)

type doseLogsRepo struct {
	mu   sync.RWMutex
	byID map[string]doselogs.DoseLog
}

func NewDoseLogsRepo() doselogs.Repository {
	return &doseLogsRepo{
		byID: make(map[string]doselogs.DoseLog),
	}
}

func (r *doseLogsRepo) Create(ctx context.Context, d doselogs.DoseLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("dose log id required")
	}
	if _, exists := r.byID[d.ID]; exists {
		return errors.New("dose log already exists")
	}
	r.byID[d.ID] = d
	return nil
}

func (r *doseLogsRepo) ListByUser(ctx context.Context, userID string, date *time.Time) ([]doselogs.DoseLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]doselogs.DoseLog, 0)
	for _, d := range r.byID {
		if d.UserID != userID {
			continue
		}
		if date != nil && !sameDay(d.TakenAt, *date) {
			continue
		}
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TakenAt.Before(out[j].TakenAt)
	})
	return out, nil
}

func (r *doseLogsRepo) ListByMedication(ctx context.Context, medicationID string) ([]doselogs.DoseLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]doselogs.DoseLog, 0)
	for _, d := range r.byID {
		if d.MedicationID == medicationID {
			out = append(out, d)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TakenAt.Before(out[j].TakenAt)
	})
	return out, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
