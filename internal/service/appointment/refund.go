package appointment

import (
	"time"

	"github.com/medibook/scheduler-api/internal/model"
)

// RefundPolicy decides how much of the booking fee is returned when an
// appointment is cancelled. The production policy is expected to live with
// the payment collaborator; this interface is the seam.
type RefundPolicy interface {
	RefundAmount(apt *model.Appointment, cancelledAt time.Time) float64
}

// WindowRefundPolicy refunds the full fee when cancellation happens at
// least FullRefundBefore ahead of the appointment start, nothing otherwise.
type WindowRefundPolicy struct {
	FullRefundBefore time.Duration
}

func NewWindowRefundPolicy() *WindowRefundPolicy {
	return &WindowRefundPolicy{FullRefundBefore: 24 * time.Hour}
}

func (p *WindowRefundPolicy) RefundAmount(apt *model.Appointment, cancelledAt time.Time) float64 {
	start := apt.Date.Add(time.Duration(apt.StartMinute) * time.Minute)
	if start.Sub(cancelledAt) >= p.FullRefundBefore {
		return apt.PaymentAmount
	}
	return 0
}
