package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"med-adherence/internal/domain/reminders"
)

type remindersRepo struct {
	mu    sync.RWMutex
	byKey map[string]reminders.Reminder
}

func NewRemindersRepo() reminders.Repository {
	return &remindersRepo{
		byKey: make(map[string]reminders.Reminder),
	}
}

// naturalKey replica la unique key de la tabla refill_reminders.
func naturalKey(rem reminders.Reminder) string {
	return rem.UserID + "|" + rem.MedicationID + "|" + rem.Date.Format("2006-01-02") + "|" + string(rem.Type)
}

func (r *remindersRepo) Upsert(ctx context.Context, rem reminders.Reminder) (reminders.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := naturalKey(rem)
	if existing, ok := r.byKey[k]; ok {
		// Mismo comportamiento que el ON CONFLICT de postgres: se refresca
		// mensaje/prioridad, el status y el ID originales se conservan.
		existing.Message = rem.Message
		existing.Priority = rem.Priority
		existing.UpdatedAt = rem.UpdatedAt
		r.byKey[k] = existing
		return existing, nil
	}

	r.byKey[k] = rem
	return rem, nil
}

func (r *remindersRepo) ListByUser(ctx context.Context, userID string, from time.Time) ([]reminders.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]reminders.Reminder, 0)
	for _, rem := range r.byKey {
		if rem.UserID == userID && !rem.Date.Before(from) {
			out = append(out, rem)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r *remindersRepo) GetByID(ctx context.Context, id string) (reminders.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rem := range r.byKey {
		if rem.ID == id {
			return rem, nil
		}
	}
	return reminders.Reminder{}, ErrNotFound
}

func (r *remindersRepo) SetStatus(ctx context.Context, id string, status reminders.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, rem := range r.byKey {
		if rem.ID == id {
			rem.Status = status
			r.byKey[k] = rem
			return nil
		}
	}
	return ErrNotFound
}

func (r *remindersRepo) DeleteByMedication(ctx context.Context, medicationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, rem := range r.byKey {
		if rem.MedicationID == medicationID {
			delete(r.byKey, k)
		}
	}
	return nil
}
