package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"med-adherence/internal/domain/refill"
	"med-adherence/internal/domain/reminders"
)

type RemindersRepo struct {
	db *sql.DB
}

func NewRemindersRepo(db *sql.DB) *RemindersRepo {
	return &RemindersRepo{db: db}
}

const reminderColumns = `
	id, user_id, medication_id,
	reminder_date, reminder_type, message, priority,
	status, created_at, updated_at
`

// Upsert usa la unique key (user_id, medication_id, reminder_date,
// reminder_type). El status NO se pisa: un reminder descartado sigue
// descartado aunque el job lo regenere cada noche.
func (r *RemindersRepo) Upsert(ctx context.Context, rem reminders.Reminder) (reminders.Reminder, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO refill_reminders (`+reminderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (user_id, medication_id, reminder_date, reminder_type)
		DO UPDATE SET
			message = EXCLUDED.message,
			priority = EXCLUDED.priority,
			updated_at = EXCLUDED.updated_at
		RETURNING `+reminderColumns+`
	`,
		rem.ID,
		rem.UserID,
		rem.MedicationID,
		rem.Date,
		string(rem.Type),
		rem.Message,
		rem.Priority,
		string(rem.Status),
		rem.CreatedAt,
		rem.UpdatedAt,
	)
	return scanReminder(row)
}

func (r *RemindersRepo) ListByUser(ctx context.Context, userID string, from time.Time) ([]reminders.Reminder, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM refill_reminders
		WHERE user_id = $1 AND reminder_date >= $2::date
		ORDER BY reminder_date ASC
	`, userID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reminders.Reminder, 0)
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r *RemindersRepo) GetByID(ctx context.Context, id string) (reminders.Reminder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return reminders.Reminder{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+reminderColumns+`
		FROM refill_reminders
		WHERE id = $1
	`, id)

	rem, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return reminders.Reminder{}, ErrNotFound
	}
	return rem, err
}

func (r *RemindersRepo) SetStatus(ctx context.Context, id string, status reminders.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE refill_reminders
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, id, string(status))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RemindersRepo) DeleteByMedication(ctx context.Context, medicationID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM refill_reminders WHERE medication_id = $1
	`, medicationID)
	return err
}

func scanReminder(row rowScanner) (reminders.Reminder, error) {
	var rem reminders.Reminder
	var typ, status string
	if err := row.Scan(
		&rem.ID,
		&rem.UserID,
		&rem.MedicationID,
		&rem.Date,
		&typ,
		&rem.Message,
		&rem.Priority,
		&status,
		&rem.CreatedAt,
		&rem.UpdatedAt,
	); err != nil {
		return reminders.Reminder{}, err
	}
	rem.Type = refill.ReminderType(typ)
	rem.Status = reminders.Status(status)
	return rem, nil
}
