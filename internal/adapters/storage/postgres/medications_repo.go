package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"med-adherence/internal/domain/medications"
)

type MedicationsRepo struct {
	db *sql.DB
}

func NewMedicationsRepo(db *sql.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

const medicationColumns = `
	id, user_id,
	name, dosage, schedule,
	use_specific_time, specific_time,
	refill_of_id,
	date_filled, quantity, days_supply, refills_remaining, refill_expiry_date,
	created_at, updated_at
`

func (r *MedicationsRepo) Create(ctx context.Context, m medications.Medication) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medications (`+medicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		m.ID,
		m.UserID,
		m.Name,
		m.Dosage,
		m.Schedule,
		m.UseSpecificTime,
		toNullString(m.SpecificTime),
		toNullString(m.RefillOfID),
		toNullDate(m.DateFilled),
		toNullInt(m.Quantity),
		toNullInt(m.DaysSupply),
		toNullInt(m.RefillsRemaining),
		toNullDate(m.RefillExpiryDate),
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *MedicationsRepo) Update(ctx context.Context, m medications.Medication) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET
			name = $2,
			dosage = $3,
			schedule = $4,
			use_specific_time = $5,
			specific_time = $6,
			refill_of_id = $7,
			date_filled = $8,
			quantity = $9,
			days_supply = $10,
			refills_remaining = $11,
			refill_expiry_date = $12,
			updated_at = $13
		WHERE id = $1
	`,
		m.ID,
		m.Name,
		m.Dosage,
		m.Schedule,
		m.UseSpecificTime,
		toNullString(m.SpecificTime),
		toNullString(m.RefillOfID),
		toNullDate(m.DateFilled),
		toNullInt(m.Quantity),
		toNullInt(m.DaysSupply),
		toNullInt(m.RefillsRemaining),
		toNullDate(m.RefillExpiryDate),
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MedicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medications.Medication{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE id = $1
	`, id)

	m, err := scanMedication(row)
	if err == sql.ErrNoRows {
		return medications.Medication{}, ErrNotFound
	}
	return m, err
}

func (r *MedicationsRepo) ListByUser(ctx context.Context, userID string) ([]medications.Medication, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MedicationsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MedicationsRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM medications`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedication(row rowScanner) (medications.Medication, error) {
	var m medications.Medication
	var specificTime, refillOfID sql.NullString
	var dateFilled, expiry sql.NullTime
	var quantity, daysSupply, refillsRemaining sql.NullInt64

	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Dosage,
		&m.Schedule,
		&m.UseSpecificTime,
		&specificTime,
		&refillOfID,
		&dateFilled,
		&quantity,
		&daysSupply,
		&refillsRemaining,
		&expiry,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return medications.Medication{}, err
	}

	m.SpecificTime = fromNullString(specificTime)
	m.RefillOfID = fromNullString(refillOfID)
	m.DateFilled = fromNullTime(dateFilled)
	m.RefillExpiryDate = fromNullTime(expiry)
	m.Quantity = fromNullInt(quantity)
	m.DaysSupply = fromNullInt(daysSupply)
	m.RefillsRemaining = fromNullInt(refillsRemaining)

	return m, nil
}

// date_filled y refill_expiry_date son DATE; pgx los mapea a time.Time
// midnight UTC, que es exactamente lo que el cálculo de resurtido espera.
func toNullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func toNullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
