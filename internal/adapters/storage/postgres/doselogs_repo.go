package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"med-adherence/internal/domain/doselogs"
	"med-adherence/internal/domain/schedule"
)

type DoseLogsRepo struct {
	db *sql.DB
}

func NewDoseLogsRepo(db *sql.DB) *DoseLogsRepo {
	return &DoseLogsRepo{db: db}
}

const doseLogColumns = `
	id, user_id, medication_id,
	slot, taken_at,
	photo_ref, verification_status, verification_confidence, verification_note,
	recorded_at
`

func (r *DoseLogsRepo) Create(ctx context.Context, d doselogs.DoseLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dose_logs (`+doseLogColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		d.ID,
		d.UserID,
		d.MedicationID,
		string(d.Slot),
		d.TakenAt,
		d.PhotoRef,
		string(d.Verification.Status),
		d.Verification.Confidence,
		d.Verification.Note,
		d.RecordedAt,
	)
	return err
}

func (r *DoseLogsRepo) ListByUser(ctx context.Context, userID string, date *time.Time) ([]doselogs.DoseLog, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	query := `
		SELECT ` + doseLogColumns + `
		FROM dose_logs
		WHERE user_id = $1
	`
	args := []any{userID}
	if date != nil {
		// taken_at::date compara contra el día calendario pedido.
		query += ` AND taken_at::date = $2::date`
		args = append(args, *date)
	}
	query += ` ORDER BY taken_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDoseLogs(rows)
}

func (r *DoseLogsRepo) ListByMedication(ctx context.Context, medicationID string) ([]doselogs.DoseLog, error) {
	medicationID = strings.TrimSpace(medicationID)
	if medicationID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+doseLogColumns+`
		FROM dose_logs
		WHERE medication_id = $1
		ORDER BY taken_at ASC
	`, medicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDoseLogs(rows)
}

func collectDoseLogs(rows *sql.Rows) ([]doselogs.DoseLog, error) {
	out := make([]doselogs.DoseLog, 0)
	for rows.Next() {
		var d doselogs.DoseLog
		var slot, status string
		if err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.MedicationID,
			&slot,
			&d.TakenAt,
			&d.PhotoRef,
			&status,
			&d.Verification.Confidence,
			&d.Verification.Note,
			&d.RecordedAt,
		); err != nil {
			return nil, err
		}
		d.Slot = schedule.TimeSlot(slot)
		d.Verification.Status = doselogs.VerificationStatus(status)
		out = append(out, d)
	}
	return out, rows.Err()
}
