package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/medibook/scheduler-api/internal/model"
	"github.com/medibook/scheduler-api/internal/repository"
	"github.com/medibook/scheduler-api/internal/schedule"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
	"github.com/medibook/scheduler-api/pkg/logger"
	"github.com/medibook/scheduler-api/pkg/metrics"
)

// Service owns the appointment lifecycle: booking against the ledger and
// role-gated status transitions with their side effects.
type Service struct {
	repo          repository.AppointmentRepository
	availRepo     repository.AvailabilityRepository
	clinicianRepo repository.ClinicianRepository
	patientRepo   repository.PatientRepository
	refunds       RefundPolicy
	metrics       *metrics.Metrics
	logger        *logger.Logger

	now func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	availRepo repository.AvailabilityRepository,
	clinicianRepo repository.ClinicianRepository,
	patientRepo repository.PatientRepository,
	refunds RefundPolicy,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:          repo,
		availRepo:     availRepo,
		clinicianRepo: clinicianRepo,
		patientRepo:   patientRepo,
		refunds:       refunds,
		metrics:       m,
		logger:        log,
		now:           time.Now,
	}
}

// Book validates a patient's booking request against the clinician's
// availability and reserves the slot. The conflict re-check and the insert
// are atomic inside the repository; a lost race surfaces as SLOT_TAKEN.
func (s *Service) Book(ctx context.Context, actor model.Actor, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if actor.Role != model.RolePatient {
		return nil, apperrors.AccessDenied("only patients may book appointments")
	}

	clinicianID, err := uuid.Parse(req.ClinicianID)
	if err != nil {
		return nil, apperrors.Validation("invalid clinician ID", err)
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, apperrors.InvalidDate("invalid date format, expected YYYY-MM-DD")
	}
	date = schedule.DateOnly(date)
	if date.Before(schedule.DateOnly(s.now())) {
		return nil, apperrors.InvalidDate("appointment date is in the past")
	}

	startMinute, err := schedule.ParseClock(req.Time)
	if err != nil {
		return nil, apperrors.Validation("invalid time format, expected HH:MM", err)
	}

	if _, err := s.patientRepo.Get(ctx, actor.ID); err != nil {
		return nil, err
	}
	if _, err := s.clinicianRepo.Get(ctx, clinicianID); err != nil {
		return nil, err
	}

	ct, err := s.availRepo.GetConsultationType(ctx, clinicianID, req.ConsultationType)
	if err != nil {
		return nil, err
	}

	if err := s.validateRequestedSlot(ctx, clinicianID, date, startMinute, ct.DurationMins); err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		Base:         model.Base{ID: uuid.New()},
		PatientID:    actor.ID,
		ClinicianID:  clinicianID,
		Date:         date,
		StartMinute:  startMinute,
		DurationMins: ct.DurationMins,
		Mode:         req.ConsultationType,
		Status:       model.AppointmentStatusScheduled,
		Reason:       req.Reason,
		Symptoms:     pq.StringArray(req.Symptoms),
		// Fee snapshot: the amount charged is the fee at booking time.
		PaymentAmount: ct.Fee,
		PaymentStatus: model.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
	}

	err = s.repo.Reserve(ctx, apt, func(reserved *model.Appointment) (*model.OutboxEvent, error) {
		return model.NewOutboxEvent(s.event(model.EventAppointmentBooked, reserved, actor.Role, ""))
	})
	if err != nil {
		if apperrors.From(err).Code == apperrors.CodeSlotTaken {
			s.metrics.BookingAttempts.WithLabelValues("conflict").Inc()
			s.metrics.SlotConflicts.Inc()
		} else {
			s.metrics.BookingAttempts.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	s.metrics.BookingAttempts.WithLabelValues("success").Inc()

	s.logger.Info("appointment booked",
		"appointment_id", apt.ID.String(),
		"display_code", apt.DisplayCode,
		"clinician_id", clinicianID.String(),
	)
	return apt, nil
}

// validateRequestedSlot confirms the requested start time is one of the
// candidates generated from the clinician's availability.
func (s *Service) validateRequestedSlot(ctx context.Context, clinicianID uuid.UUID, date time.Time, startMinute, durationMins int) error {
	windows, err := s.availRepo.ListWindows(ctx, clinicianID)
	if err != nil {
		return err
	}
	holidays, err := s.availRepo.ListHolidays(ctx, clinicianID)
	if err != nil {
		return err
	}

	slots, reason, err := schedule.GenerateSlots(s.now(), date, windows, holidays, durationMins)
	if err != nil {
		return err
	}
	if reason == schedule.ReasonHoliday {
		return apperrors.Validation("clinician is on holiday on this date", nil)
	}
	if reason == schedule.ReasonNotAvailable {
		return apperrors.Validation("clinician is not available on this date", nil)
	}
	for _, slot := range slots {
		if slot == startMinute {
			return nil
		}
	}
	return apperrors.Validation("requested time is not a bookable slot", nil)
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(actor, apt); err != nil {
		return nil, err
	}
	return apt, nil
}

// List scopes the filters to the actor: patients and clinicians only see
// their own timeline, administrators see everything.
func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	switch actor.Role {
	case model.RolePatient:
		filters.PatientID = &actor.ID
	case model.RoleClinician:
		filters.ClinicianID = &actor.ID
	case model.RoleAdmin:
		// unrestricted
	default:
		return nil, apperrors.AccessDenied("")
	}
	return s.repo.List(ctx, filters)
}

// Transition moves an appointment to a new status on behalf of an actor.
// Validation happens entirely before the single atomic write.
func (s *Service) Transition(ctx context.Context, actor model.Actor, id uuid.UUID, target model.AppointmentStatus, notes string) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(actor, apt); err != nil {
		return nil, err
	}
	if err := CheckTransition(actor.Role, apt.Status, target); err != nil {
		return nil, err
	}

	from := apt.Status
	apt.Status = target
	if notes != "" {
		apt.Notes = notes
	}

	var cancelReason string
	switch target {
	case model.AppointmentStatusCompleted:
		// Completion makes the appointment eligible for exactly one
		// patient review; uniqueness is enforced by the review subsystem.
		apt.ReviewEligible = true
	case model.AppointmentStatusCancelled:
		cancelReason = s.applyCancellation(apt, actor.Role, "")
	case model.AppointmentStatusNoShow:
		s.applyNoShow(apt, actor.Role)
	}

	evt, err := model.NewOutboxEvent(s.event(eventTypeFor(target), apt, actor.Role, cancelReason))
	if err != nil {
		return nil, fmt.Errorf("failed to build lifecycle event: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, apt, from, evt); err != nil {
		return nil, err
	}

	s.logger.Info("appointment transitioned",
		"appointment_id", apt.ID.String(),
		"from", string(from),
		"to", string(target),
		"actor_role", string(actor.Role),
	)
	return apt, nil
}

// Cancel is the cancellation transition with an explicit caller reason.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(actor, apt); err != nil {
		return nil, err
	}
	if err := CheckTransition(actor.Role, apt.Status, model.AppointmentStatusCancelled); err != nil {
		return nil, err
	}

	from := apt.Status
	apt.Status = model.AppointmentStatusCancelled
	reason = s.applyCancellation(apt, actor.Role, reason)

	evt, err := model.NewOutboxEvent(s.event(model.EventAppointmentCancelled, apt, actor.Role, reason))
	if err != nil {
		return nil, fmt.Errorf("failed to build cancellation event: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, apt, from, evt); err != nil {
		return nil, err
	}

	s.logger.Info("appointment cancelled",
		"appointment_id", apt.ID.String(),
		"cancelled_by", string(actor.Role),
		"refund_amount", apt.RefundAmount,
	)
	return apt, nil
}

func (s *Service) applyCancellation(apt *model.Appointment, role model.Role, reason string) string {
	if reason == "" {
		reason = "cancelled by " + string(role)
	}
	now := s.now()
	refund := s.refunds.RefundAmount(apt, now)

	apt.CancelledBy = &role
	apt.CancelReason = &reason
	apt.CancelledAt = &now
	apt.RefundAmount = &refund
	if refund > 0 && apt.PaymentStatus == model.PaymentStatusPaid {
		apt.PaymentStatus = model.PaymentStatusRefunded
	}
	return reason
}

func (s *Service) applyNoShow(apt *model.Appointment, role model.Role) {
	now := s.now()
	reason := "patient did not attend"
	refund := 0.0

	apt.CancelledBy = &role
	apt.CancelReason = &reason
	apt.CancelledAt = &now
	apt.RefundAmount = &refund
}

func (s *Service) event(eventType string, apt *model.Appointment, role model.Role, reason string) *model.AppointmentEvent {
	evt := &model.AppointmentEvent{
		Type:          eventType,
		AppointmentID: apt.ID,
		DisplayCode:   apt.DisplayCode,
		PatientID:     apt.PatientID,
		ClinicianID:   apt.ClinicianID,
		Date:          apt.Date.Format("2006-01-02"),
		Time:          schedule.FormatClock(apt.StartMinute),
		Status:        apt.Status,
		ActorRole:     role,
		Reason:        reason,
		OccurredAt:    s.now(),
	}
	if apt.RefundAmount != nil {
		evt.RefundAmount = apt.RefundAmount
	}
	return evt
}

// checkOwnership denies patients and clinicians access to appointments
// that are not theirs. Administrators pass.
func checkOwnership(actor model.Actor, apt *model.Appointment) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RolePatient:
		if apt.PatientID == actor.ID {
			return nil
		}
	case model.RoleClinician:
		if apt.ClinicianID == actor.ID {
			return nil
		}
	}
	return apperrors.AccessDenied("")
}
