package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/scheduler-api/internal/model"
)

type AppointmentRepository interface {
	// Reserve atomically re-checks the requested interval against the
	// clinician's timeline and inserts the appointment together with its
	// outbox event. eventFn runs inside the transaction once the display
	// code is assigned. Returns SLOT_TAKEN when the interval is occupied.
	Reserve(ctx context.Context, apt *model.Appointment, eventFn func(*model.Appointment) (*model.OutboxEvent, error)) error

	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	ListForClinicianDay(ctx context.Context, clinicianID uuid.UUID, date time.Time) ([]*model.Appointment, error)

	// UpdateStatus persists a validated transition and its outbox event
	// in a single transaction. The write is guarded on the status the
	// validation observed; when a concurrent transition has committed in
	// between, the current state is re-read and a transition error
	// returned instead of overwriting it.
	UpdateStatus(ctx context.Context, apt *model.Appointment, from model.AppointmentStatus, evt *model.OutboxEvent) error
}

type AvailabilityRepository interface {
	ListWindows(ctx context.Context, clinicianID uuid.UUID) ([]model.WeeklyWindow, error)
	ReplaceWindows(ctx context.Context, clinicianID uuid.UUID, windows []model.WeeklyWindow) error

	ListHolidays(ctx context.Context, clinicianID uuid.UUID) ([]model.Holiday, error)
	AddHoliday(ctx context.Context, holiday *model.Holiday) error
	DeleteHoliday(ctx context.Context, clinicianID, holidayID uuid.UUID) error

	ListConsultationTypes(ctx context.Context, clinicianID uuid.UUID) ([]model.ConsultationType, error)
	GetConsultationType(ctx context.Context, clinicianID uuid.UUID, mode model.ConsultationMode) (*model.ConsultationType, error)
	UpsertConsultationType(ctx context.Context, ct *model.ConsultationType) error
}

type ClinicianRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Clinician, error)
	Create(ctx context.Context, c *model.Clinician) error
}

type PatientRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	Create(ctx context.Context, p *model.Patient) error
}

type OutboxRepository interface {
	// ClaimPendingEvents atomically marks a batch of due events as being
	// processed and returns them; a claimed event is invisible to other
	// workers until it is marked processed, rescheduled, or its claim
	// goes stale.
	ClaimPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	MarkSent(ctx context.Context, id uuid.UUID) error
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*model.Notification, error)
}
