package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusProcessed  OutboxStatus = "processed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// OutboxEvent is written in the same transaction as the state change it
// describes, and drained asynchronously by the dispatch worker.
type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Appointment lifecycle event types carried through the outbox.
const (
	EventAppointmentBooked    = "appointment.booked"
	EventAppointmentConfirmed = "appointment.confirmed"
	EventAppointmentStarted   = "appointment.started"
	EventAppointmentCompleted = "appointment.completed"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentNoShow    = "appointment.no_show"
)

// AppointmentEvent is the payload published for every lifecycle commit.
type AppointmentEvent struct {
	Type          string            `json:"type"`
	AppointmentID uuid.UUID         `json:"appointment_id"`
	DisplayCode   string            `json:"display_code"`
	PatientID     uuid.UUID         `json:"patient_id"`
	ClinicianID   uuid.UUID         `json:"clinician_id"`
	Date          string            `json:"date"`
	Time          string            `json:"time"`
	Status        AppointmentStatus `json:"status"`
	ActorRole     Role              `json:"actor_role,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	RefundAmount  *float64          `json:"refund_amount,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// NewOutboxEvent marshals an appointment event into an outbox row.
func NewOutboxEvent(evt *AppointmentEvent) (*OutboxEvent, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: evt.Type,
		Payload:   payload,
		Status:    OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
