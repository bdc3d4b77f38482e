package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/medibook/scheduler-api/internal/model"
	"github.com/medibook/scheduler-api/internal/repository"
	"github.com/medibook/scheduler-api/pkg/logger"
)

// Mailer delivers a rendered notification over email.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

// Service fans appointment lifecycle events out into per-recipient
// notifications: a stored inbox row plus a best-effort email.
type Service struct {
	repo          repository.NotificationRepository
	clinicianRepo repository.ClinicianRepository
	patientRepo   repository.PatientRepository
	mailer        Mailer
	logger        *logger.Logger
}

func NewService(
	repo repository.NotificationRepository,
	clinicianRepo repository.ClinicianRepository,
	patientRepo repository.PatientRepository,
	mailer Mailer,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:          repo,
		clinicianRepo: clinicianRepo,
		patientRepo:   patientRepo,
		mailer:        mailer,
		logger:        log,
	}
}

type recipient struct {
	id    uuid.UUID
	email string
}

// HandleEvent persists notifications for every recipient of the event and
// attempts email delivery. A failed email leaves the stored notification
// pending; storage errors are returned so the caller can retry the event.
func (s *Service) HandleEvent(ctx context.Context, evt *model.AppointmentEvent) error {
	recipients, err := s.recipientsFor(ctx, evt)
	if err != nil {
		return err
	}

	title, message := render(evt)
	for _, rcpt := range recipients {
		n := &model.Notification{
			ID:          uuid.New(),
			RecipientID: rcpt.id,
			Type:        evt.Type,
			Title:       title,
			Message:     message,
			Data: map[string]interface{}{
				"appointment_id": evt.AppointmentID.String(),
				"display_code":   evt.DisplayCode,
				"date":           evt.Date,
				"time":           evt.Time,
				"status":         string(evt.Status),
			},
			Status: model.NotificationStatusPending,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			return fmt.Errorf("failed to store notification: %w", err)
		}

		if s.mailer == nil || rcpt.email == "" {
			continue
		}
		if err := s.mailer.Send(rcpt.email, title, message); err != nil {
			s.logger.Warn("email delivery failed",
				"notification_id", n.ID.String(),
				"event_type", evt.Type,
				"error", err.Error(),
			)
			continue
		}
		if err := s.repo.MarkSent(ctx, n.ID); err != nil {
			s.logger.Warn("failed to mark notification sent",
				"notification_id", n.ID.String(),
				"error", err.Error(),
			)
		}
	}
	return nil
}

// recipientsFor selects who hears about the event. Bookings notify the
// clinician, confirmations and completions notify the patient,
// cancellations and no-shows notify both sides.
func (s *Service) recipientsFor(ctx context.Context, evt *model.AppointmentEvent) ([]recipient, error) {
	var out []recipient

	addPatient := func() error {
		p, err := s.patientRepo.Get(ctx, evt.PatientID)
		if err != nil {
			return err
		}
		out = append(out, recipient{id: p.ID, email: p.Email})
		return nil
	}
	addClinician := func() error {
		c, err := s.clinicianRepo.Get(ctx, evt.ClinicianID)
		if err != nil {
			return err
		}
		out = append(out, recipient{id: c.ID, email: c.Email})
		return nil
	}

	switch evt.Type {
	case model.EventAppointmentBooked:
		if err := addClinician(); err != nil {
			return nil, err
		}
	case model.EventAppointmentConfirmed, model.EventAppointmentStarted, model.EventAppointmentCompleted:
		if err := addPatient(); err != nil {
			return nil, err
		}
	case model.EventAppointmentCancelled, model.EventAppointmentNoShow:
		if err := addPatient(); err != nil {
			return nil, err
		}
		if err := addClinician(); err != nil {
			return nil, err
		}
	default:
		s.logger.Warn("unknown event type, no recipients", "event_type", evt.Type)
	}
	return out, nil
}

func render(evt *model.AppointmentEvent) (title, message string) {
	when := fmt.Sprintf("%s at %s", evt.Date, evt.Time)
	switch evt.Type {
	case model.EventAppointmentBooked:
		title = "New appointment booked"
		message = fmt.Sprintf("Appointment %s has been booked for %s.", evt.DisplayCode, when)
	case model.EventAppointmentConfirmed:
		title = "Appointment confirmed"
		message = fmt.Sprintf("Your appointment %s on %s has been confirmed.", evt.DisplayCode, when)
	case model.EventAppointmentStarted:
		title = "Appointment started"
		message = fmt.Sprintf("Your appointment %s is now in progress.", evt.DisplayCode)
	case model.EventAppointmentCompleted:
		title = "Appointment completed"
		message = fmt.Sprintf("Your appointment %s on %s is complete. You can now leave a review.", evt.DisplayCode, when)
	case model.EventAppointmentCancelled:
		title = "Appointment cancelled"
		message = fmt.Sprintf("Appointment %s on %s has been cancelled.", evt.DisplayCode, when)
		if evt.Reason != "" {
			message += " Reason: " + evt.Reason + "."
		}
		if evt.RefundAmount != nil && *evt.RefundAmount > 0 {
			message += fmt.Sprintf(" A refund of %.2f will be issued.", *evt.RefundAmount)
		}
	case model.EventAppointmentNoShow:
		title = "Missed appointment"
		message = fmt.Sprintf("Appointment %s on %s was marked as a no-show.", evt.DisplayCode, when)
	default:
		title = "Appointment update"
		message = fmt.Sprintf("Appointment %s on %s was updated.", evt.DisplayCode, when)
	}
	return title, message
}

// ListForRecipient returns the newest notifications for one user.
func (s *Service) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListForRecipient(ctx, recipientID, limit)
}
