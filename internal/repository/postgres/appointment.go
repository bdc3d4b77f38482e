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

const appointmentColumns = `
	id, display_code, patient_id, clinician_id, date, start_minute,
	duration_mins, mode, status, reason, symptoms, notes,
	follow_up_required, follow_up_date,
	payment_amount, payment_status, payment_method,
	cancelled_by, cancel_reason, cancelled_at, refund_amount,
	review_eligible, created_at, updated_at
`

// Reserve serializes bookings per clinician with a transaction-scoped
// advisory lock, re-checks the interval, and inserts the appointment and
// its outbox event as one atomic write.
func (r *appointmentRepository) Reserve(ctx context.Context, apt *model.Appointment, eventFn func(*model.Appointment) (*model.OutboxEvent, error)) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtext($1))`, apt.ClinicianID.String(),
		); err != nil {
			return fmt.Errorf("failed to acquire clinician lock: %w", err)
		}

		var taken bool
		err := tx.GetContext(ctx, &taken, `
			SELECT EXISTS (
				SELECT 1 FROM appointments
				WHERE clinician_id = $1
				AND date = $2
				AND status IN ('scheduled', 'confirmed', 'in_progress')
				AND start_minute < $4
				AND start_minute + duration_mins > $3
			)
		`, apt.ClinicianID, apt.Date, apt.StartMinute, apt.StartMinute+apt.DurationMins)
		if err != nil {
			return fmt.Errorf("failed to check conflicts: %w", err)
		}
		if taken {
			return apperrors.SlotTaken()
		}

		var seq int64
		if err := tx.GetContext(ctx, &seq, `SELECT nextval('appointment_code_seq')`); err != nil {
			return fmt.Errorf("failed to allocate display code: %w", err)
		}
		apt.DisplayCode = fmt.Sprintf("APT%06d", seq)

		now := time.Now()
		apt.CreatedAt = now
		apt.UpdatedAt = now

		_, err = tx.ExecContext(ctx, `
			INSERT INTO appointments (`+appointmentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
				$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		`,
			apt.ID, apt.DisplayCode, apt.PatientID, apt.ClinicianID,
			apt.Date, apt.StartMinute, apt.DurationMins, apt.Mode,
			apt.Status, apt.Reason, apt.Symptoms, apt.Notes,
			apt.FollowUpRequired, apt.FollowUpDate,
			apt.PaymentAmount, apt.PaymentStatus, apt.PaymentMethod,
			apt.CancelledBy, apt.CancelReason, apt.CancelledAt, apt.RefundAmount,
			apt.ReviewEligible, apt.CreatedAt, apt.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		evt, err := eventFn(apt)
		if err != nil {
			return fmt.Errorf("failed to build booking event: %w", err)
		}
		return insertOutboxEvent(ctx, tx, evt)
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE 1=1
	`
	var args []interface{}
	argCount := 1

	if filters.ClinicianID != nil {
		query += fmt.Sprintf(" AND clinician_id = $%d", argCount)
		args = append(args, *filters.ClinicianID)
		argCount++
	}
	if filters.PatientID != nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, *filters.PatientID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if filters.From != nil {
		query += fmt.Sprintf(" AND date >= $%d", argCount)
		args = append(args, *filters.From)
		argCount++
	}
	if filters.To != nil {
		query += fmt.Sprintf(" AND date <= $%d", argCount)
		args = append(args, *filters.To)
		argCount++
	}

	query += " ORDER BY date ASC, start_minute ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListForClinicianDay(ctx context.Context, clinicianID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinician_id = $1
		AND date = $2
		AND status IN ('scheduled', 'confirmed', 'in_progress')
		ORDER BY start_minute ASC
	`, clinicianID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get clinician appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, apt *model.Appointment, from model.AppointmentStatus, evt *model.OutboxEvent) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		apt.UpdatedAt = time.Now()

		// The status guard makes the write a compare-and-set: a transition
		// validated against a snapshot another request has since moved
		// matches no row and must not overwrite the newer state.
		result, err := tx.ExecContext(ctx, `
			UPDATE appointments
			SET status = $1, notes = $2,
				cancelled_by = $3, cancel_reason = $4, cancelled_at = $5,
				refund_amount = $6, payment_status = $7,
				review_eligible = $8, updated_at = $9
			WHERE id = $10 AND status = $11
		`,
			apt.Status, apt.Notes,
			apt.CancelledBy, apt.CancelReason, apt.CancelledAt,
			apt.RefundAmount, apt.PaymentStatus,
			apt.ReviewEligible, apt.UpdatedAt,
			apt.ID, from,
		)
		if err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return transitionConflict(ctx, tx, apt.ID, apt.Status)
		}

		return insertOutboxEvent(ctx, tx, evt)
	})
}

// transitionConflict classifies a guarded update that matched no row:
// either the appointment is gone or another transition committed after
// this one was validated.
func transitionConflict(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, target model.AppointmentStatus) error {
	var current model.AppointmentStatus
	err := tx.GetContext(ctx, &current, `SELECT status FROM appointments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound("appointment", nil)
	}
	if err != nil {
		return fmt.Errorf("failed to re-read appointment status: %w", err)
	}
	if current.Terminal() {
		return apperrors.Immutable(string(current))
	}
	return apperrors.InvalidTransition(string(current), string(target))
}

func insertOutboxEvent(ctx context.Context, tx *sqlx.Tx, evt *model.OutboxEvent) error {
	if evt == nil {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		evt.ID, evt.EventType, evt.Payload, evt.Status,
		evt.RetryCount, evt.CreatedAt, evt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
