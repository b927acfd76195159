// Package scheduler corre el job nocturno que materializa los recordatorios
// de resurtido de todos los usuarios, para que el feed ICS y las bandejas
// estén al día aunque nadie haya abierto la app.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"med-adherence/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

// UserLister enumera los usuarios con medicaciones registradas.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// ReminderSyncer recalcula y persiste los recordatorios de un usuario.
type ReminderSyncer interface {
	SyncAllForUser(ctx context.Context, userID string) error
}

const DefaultSpec = "0 3 * * *" // 3 AM, después del cambio de día en cualquier TZ razonable

type Scheduler struct {
	cron    *cron.Cron
	users   UserLister
	syncer  ReminderSyncer
	log     logger.Logger
	spec    string
	timeout time.Duration
}

type Options struct {
	Users  UserLister
	Syncer ReminderSyncer
	Log    logger.Logger

	// Spec de cron (5 campos). Vacío = DefaultSpec.
	Spec string

	// Timeout de la corrida completa. Cero = 5 minutos.
	Timeout time.Duration
}

func New(opts Options) *Scheduler {
	spec := strings.TrimSpace(opts.Spec)
	if spec == "" {
		spec = DefaultSpec
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Scheduler{
		cron:    cron.New(),
		users:   opts.Users,
		syncer:  opts.Syncer,
		log:     opts.Log,
		spec:    spec,
		timeout: timeout,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		return fmt.Errorf("add reminder sync job: %w", err)
	}

	s.cron.Start()
	s.log.Info("scheduler started", map[string]any{"spec": s.spec})
	return nil
}

// Stop frena el cron y espera a que termine la corrida en curso.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped", nil)
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		s.log.Error("list users for reminder sync", map[string]any{"error": err.Error()})
		return
	}

	synced := 0
	for _, userID := range userIDs {
		if err := s.syncer.SyncAllForUser(ctx, userID); err != nil {
			// Un usuario con datos rotos no frena la corrida de los demás.
			s.log.Warn("reminder sync failed", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
			continue
		}
		synced++
	}

	s.log.Info("reminder sync finished", map[string]any{
		"users_total":  len(userIDs),
		"users_synced": synced,
	})
}
