package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medibook/scheduler-api/internal/model"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
)

func (r *availabilityRepository) ListWindows(ctx context.Context, clinicianID uuid.UUID) ([]model.WeeklyWindow, error) {
	var windows []model.WeeklyWindow
	err := r.db.SelectContext(ctx, &windows, `
		SELECT id, clinician_id, weekday, start_minute, end_minute, enabled, created_at, updated_at
		FROM availability_windows
		WHERE clinician_id = $1
		ORDER BY weekday ASC, created_at ASC
	`, clinicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability windows: %w", err)
	}
	return windows, nil
}

func (r *availabilityRepository) ReplaceWindows(ctx context.Context, clinicianID uuid.UUID, windows []model.WeeklyWindow) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM availability_windows WHERE clinician_id = $1`, clinicianID,
		); err != nil {
			return fmt.Errorf("failed to clear availability windows: %w", err)
		}

		now := time.Now()
		for i := range windows {
			w := &windows[i]
			w.ID = uuid.New()
			w.ClinicianID = clinicianID
			w.CreatedAt = now
			w.UpdatedAt = now

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO availability_windows (
					id, clinician_id, weekday, start_minute, end_minute, enabled, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, w.ID, w.ClinicianID, w.Weekday, w.StartMinute, w.EndMinute, w.Enabled, w.CreatedAt, w.UpdatedAt); err != nil {
				return fmt.Errorf("failed to insert availability window: %w", err)
			}
		}
		return nil
	})
}

func (r *availabilityRepository) ListHolidays(ctx context.Context, clinicianID uuid.UUID) ([]model.Holiday, error) {
	var holidays []model.Holiday
	err := r.db.SelectContext(ctx, &holidays, `
		SELECT id, clinician_id, date, reason, recurring, created_at, updated_at
		FROM holidays
		WHERE clinician_id = $1
		ORDER BY date ASC
	`, clinicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	return holidays, nil
}

func (r *availabilityRepository) AddHoliday(ctx context.Context, holiday *model.Holiday) error {
	now := time.Now()
	holiday.ID = uuid.New()
	holiday.CreatedAt = now
	holiday.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO holidays (id, clinician_id, date, reason, recurring, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, holiday.ID, holiday.ClinicianID, holiday.Date, holiday.Reason, holiday.Recurring, holiday.CreatedAt, holiday.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to add holiday: %w", err)
	}
	return nil
}

func (r *availabilityRepository) DeleteHoliday(ctx context.Context, clinicianID, holidayID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM holidays WHERE id = $1 AND clinician_id = $2
	`, holidayID, clinicianID)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("holiday", nil)
	}
	return nil
}

func (r *availabilityRepository) ListConsultationTypes(ctx context.Context, clinicianID uuid.UUID) ([]model.ConsultationType, error) {
	var types []model.ConsultationType
	err := r.db.SelectContext(ctx, &types, `
		SELECT id, clinician_id, mode, fee, duration_mins, created_at, updated_at
		FROM consultation_types
		WHERE clinician_id = $1
		ORDER BY mode ASC
	`, clinicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultation types: %w", err)
	}
	return types, nil
}

func (r *availabilityRepository) GetConsultationType(ctx context.Context, clinicianID uuid.UUID, mode model.ConsultationMode) (*model.ConsultationType, error) {
	var ct model.ConsultationType
	err := r.db.GetContext(ctx, &ct, `
		SELECT id, clinician_id, mode, fee, duration_mins, created_at, updated_at
		FROM consultation_types
		WHERE clinician_id = $1 AND mode = $2
	`, clinicianID, mode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("consultation type", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation type: %w", err)
	}
	return &ct, nil
}

func (r *availabilityRepository) UpsertConsultationType(ctx context.Context, ct *model.ConsultationType) error {
	now := time.Now()
	if ct.ID == uuid.Nil {
		ct.ID = uuid.New()
		ct.CreatedAt = now
	}
	ct.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO consultation_types (id, clinician_id, mode, fee, duration_mins, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (clinician_id, mode) DO UPDATE
		SET fee = EXCLUDED.fee, duration_mins = EXCLUDED.duration_mins, updated_at = EXCLUDED.updated_at
	`, ct.ID, ct.ClinicianID, ct.Mode, ct.Fee, ct.DurationMins, ct.CreatedAt, ct.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert consultation type: %w", err)
	}
	return nil
}
