package model

import (
	"time"

	"github.com/google/uuid"
)

// ConsultationMode is how an appointment is delivered.
type ConsultationMode string

const (
	ConsultationInPerson ConsultationMode = "in_person"
	ConsultationVideo    ConsultationMode = "video"
	ConsultationPhone    ConsultationMode = "phone"
)

func (m ConsultationMode) Valid() bool {
	switch m {
	case ConsultationInPerson, ConsultationVideo, ConsultationPhone:
		return true
	}
	return false
}

// WeeklyWindow is a recurring availability window for one weekday.
// Start and end are minutes from midnight, half-open [start, end).
type WeeklyWindow struct {
	Base
	ClinicianID uuid.UUID    `db:"clinician_id" json:"clinician_id"`
	Weekday     time.Weekday `db:"weekday" json:"weekday"`
	StartMinute int          `db:"start_minute" json:"start_minute"`
	EndMinute   int          `db:"end_minute" json:"end_minute"`
	Enabled     bool         `db:"enabled" json:"enabled"`
}

// Holiday blocks out a whole day. A recurring holiday matches the same
// month and day every year; otherwise only the exact date matches.
type Holiday struct {
	Base
	ClinicianID uuid.UUID `db:"clinician_id" json:"clinician_id"`
	Date        time.Time `db:"date" json:"date"`
	Reason      string    `db:"reason" json:"reason"`
	Recurring   bool      `db:"recurring" json:"recurring"`
}

// ConsultationType is one (mode, fee, duration) offering of a clinician.
// Slot generation uses the duration of the requested type.
type ConsultationType struct {
	Base
	ClinicianID  uuid.UUID        `db:"clinician_id" json:"clinician_id"`
	Mode         ConsultationMode `db:"mode" json:"mode"`
	Fee          float64          `db:"fee" json:"fee"`
	DurationMins int              `db:"duration_mins" json:"duration_mins"`
}

type UpdateWindowsRequest struct {
	Windows []WindowInput `json:"windows" binding:"required,dive"`
}

type WindowInput struct {
	Weekday int    `json:"weekday" binding:"min=0,max=6"`
	Start   string `json:"start" binding:"required,clocktime"`
	End     string `json:"end" binding:"required,clocktime"`
	Enabled bool   `json:"enabled"`
}

type HolidayInput struct {
	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" binding:"max=500"`
	Recurring bool   `json:"recurring"`
}

type ConsultationTypeInput struct {
	Mode         ConsultationMode `json:"mode" binding:"required,oneof=in_person video phone"`
	Fee          float64          `json:"fee" binding:"min=0"`
	DurationMins int              `json:"duration_mins" binding:"required,min=5,max=240"`
}

// Slot is one bookable candidate for a given clinician, date and mode.
// Taken slots stay in the listing with Available set to false.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// SlotListing is the public view of a clinician's day.
type SlotListing struct {
	ClinicianID  uuid.UUID `json:"clinician_id"`
	Date         string    `json:"date"`
	Mode         ConsultationMode `json:"consultation_type"`
	DurationMins int       `json:"duration_mins"`
	Slots        []Slot    `json:"slots"`
	Reason       string    `json:"reason,omitempty"`
}
