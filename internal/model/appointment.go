package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusInProgress,
		AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// ActiveStatuses are the statuses that occupy a slot on the clinician's
// timeline for conflict purposes.
var ActiveStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusConfirmed,
	AppointmentStatusInProgress,
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type Appointment struct {
	Base
	DisplayCode  string            `db:"display_code" json:"display_code"`
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	ClinicianID  uuid.UUID         `db:"clinician_id" json:"clinician_id"`
	Date         time.Time         `db:"date" json:"date"`
	StartMinute  int               `db:"start_minute" json:"start_minute"`
	DurationMins int               `db:"duration_mins" json:"duration_mins"`
	Mode         ConsultationMode  `db:"mode" json:"consultation_type"`
	Status       AppointmentStatus `db:"status" json:"status"`
	Reason       string            `db:"reason" json:"reason,omitempty"`
	Symptoms     pq.StringArray    `db:"symptoms" json:"symptoms,omitempty"`
	Notes        string            `db:"notes" json:"notes,omitempty"`

	FollowUpRequired bool       `db:"follow_up_required" json:"follow_up_required"`
	FollowUpDate     *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`

	// Payment amount is snapshotted from the clinician's fee at booking
	// time and never updated retroactively.
	PaymentAmount float64       `db:"payment_amount" json:"payment_amount"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentMethod string        `db:"payment_method" json:"payment_method,omitempty"`

	CancelledBy  *Role      `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelReason *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	RefundAmount *float64   `db:"refund_amount" json:"refund_amount,omitempty"`

	ReviewEligible bool `db:"review_eligible" json:"review_eligible"`
}

// EndMinute is the exclusive end of the appointment interval.
func (a *Appointment) EndMinute() int {
	return a.StartMinute + a.DurationMins
}

// Overlaps reports whether a half-open minute interval on the same date
// intersects this appointment. Touching endpoints do not conflict.
func (a *Appointment) Overlaps(startMinute, durationMins int) bool {
	return a.StartMinute < startMinute+durationMins && startMinute < a.EndMinute()
}

type BookAppointmentRequest struct {
	ClinicianID      string           `json:"clinician_id" binding:"required,uuid"`
	Date             string           `json:"date" binding:"required,datetime=2006-01-02"`
	Time             string           `json:"time" binding:"required,clocktime"`
	ConsultationType ConsultationMode `json:"consultation_type" binding:"required,oneof=in_person video phone"`
	Reason           string           `json:"reason" binding:"required,max=1000"`
	Symptoms         []string         `json:"symptoms" binding:"max=20,dive,max=200"`
	PaymentMethod    string           `json:"payment_method" binding:"omitempty,oneof=card cash insurance"`
}

type UpdateStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required"`
	Notes  string            `json:"notes" binding:"max=2000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type AppointmentFilters struct {
	ClinicianID *uuid.UUID
	PatientID   *uuid.UUID
	Status      AppointmentStatus
	From        *time.Time
	To          *time.Time
}
