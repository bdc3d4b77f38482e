package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/scheduler-api/internal/model"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
)

func (r *clinicianRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinician, error) {
	var c model.Clinician
	err := r.db.GetContext(ctx, &c, `
		SELECT id, email, name, specialty, status, created_at, updated_at
		FROM clinicians
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("clinician", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clinician: %w", err)
	}
	return &c, nil
}

func (r *clinicianRepository) Create(ctx context.Context, c *model.Clinician) error {
	now := time.Now()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clinicians (id, email, name, specialty, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Email, c.Name, c.Specialty, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create clinician: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var p model.Patient
	err := r.db.GetContext(ctx, &p, `
		SELECT id, email, name, phone, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &p, nil
}

func (r *patientRepository) Create(ctx context.Context, p *model.Patient) error {
	now := time.Now()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO patients (id, email, name, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Email, p.Name, p.Phone, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}
