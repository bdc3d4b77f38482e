package notification

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/scheduler-api/internal/model"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
	"github.com/medibook/scheduler-api/pkg/logger"
)

type fakeNotificationRepo struct {
	created []*model.Notification
	sent    map[uuid.UUID]bool
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	copied := *n
	r.created = append(r.created, &copied)
	return nil
}

func (r *fakeNotificationRepo) MarkSent(_ context.Context, id uuid.UUID) error {
	if r.sent == nil {
		r.sent = make(map[uuid.UUID]bool)
	}
	r.sent[id] = true
	return nil
}

func (r *fakeNotificationRepo) ListForRecipient(_ context.Context, recipientID uuid.UUID, limit int) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range r.created {
		if n.RecipientID == recipientID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeClinicianRepo struct{ clinician model.Clinician }

func (r *fakeClinicianRepo) Get(_ context.Context, id uuid.UUID) (*model.Clinician, error) {
	if id != r.clinician.ID {
		return nil, apperrors.NotFound("clinician", nil)
	}
	c := r.clinician
	return &c, nil
}

func (r *fakeClinicianRepo) Create(context.Context, *model.Clinician) error { return nil }

type fakePatientRepo struct{ patient model.Patient }

func (r *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	if id != r.patient.ID {
		return nil, apperrors.NotFound("patient", nil)
	}
	p := r.patient
	return &p, nil
}

func (r *fakePatientRepo) Create(context.Context, *model.Patient) error { return nil }

type fakeMailer struct {
	sent []string
	fail bool
}

func (m *fakeMailer) Send(to, _, _ string) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, to)
	return nil
}

var (
	clinicianID = uuid.New()
	patientID   = uuid.New()
)

func newTestService(mailer Mailer) (*Service, *fakeNotificationRepo) {
	repo := &fakeNotificationRepo{}
	svc := NewService(
		repo,
		&fakeClinicianRepo{clinician: model.Clinician{Base: model.Base{ID: clinicianID}, Email: "dr@clinic.test"}},
		&fakePatientRepo{patient: model.Patient{Base: model.Base{ID: patientID}, Email: "ada@mail.test"}},
		mailer,
		logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard}),
	)
	return svc, repo
}

func event(eventType string) *model.AppointmentEvent {
	return &model.AppointmentEvent{
		Type:          eventType,
		AppointmentID: uuid.New(),
		DisplayCode:   "APT000042",
		PatientID:     patientID,
		ClinicianID:   clinicianID,
		Date:          "2026-09-07",
		Time:          "10:00",
	}
}

func TestBookedEventNotifiesClinician(t *testing.T) {
	mailer := &fakeMailer{}
	svc, repo := newTestService(mailer)

	require.NoError(t, svc.HandleEvent(context.Background(), event(model.EventAppointmentBooked)))

	require.Len(t, repo.created, 1)
	assert.Equal(t, clinicianID, repo.created[0].RecipientID)
	assert.Equal(t, model.EventAppointmentBooked, repo.created[0].Type)
	assert.Equal(t, "APT000042", repo.created[0].Data["display_code"])
	assert.Equal(t, []string{"dr@clinic.test"}, mailer.sent)
	assert.True(t, repo.sent[repo.created[0].ID])
}

func TestConfirmedEventNotifiesPatient(t *testing.T) {
	mailer := &fakeMailer{}
	svc, repo := newTestService(mailer)

	require.NoError(t, svc.HandleEvent(context.Background(), event(model.EventAppointmentConfirmed)))

	require.Len(t, repo.created, 1)
	assert.Equal(t, patientID, repo.created[0].RecipientID)
	assert.Equal(t, []string{"ada@mail.test"}, mailer.sent)
}

func TestCancelledEventNotifiesBothSides(t *testing.T) {
	mailer := &fakeMailer{}
	svc, repo := newTestService(mailer)

	refund := 80.0
	evt := event(model.EventAppointmentCancelled)
	evt.Reason = "cancelled by patient"
	evt.RefundAmount = &refund
	require.NoError(t, svc.HandleEvent(context.Background(), evt))

	require.Len(t, repo.created, 2)
	assert.Equal(t, patientID, repo.created[0].RecipientID)
	assert.Equal(t, clinicianID, repo.created[1].RecipientID)
	assert.Contains(t, repo.created[0].Message, "cancelled by patient")
	assert.Contains(t, repo.created[0].Message, "80.00")
}

func TestFailedEmailLeavesNotificationPending(t *testing.T) {
	svc, repo := newTestService(&fakeMailer{fail: true})

	require.NoError(t, svc.HandleEvent(context.Background(), event(model.EventAppointmentConfirmed)))

	require.Len(t, repo.created, 1)
	assert.False(t, repo.sent[repo.created[0].ID])
}

func TestNilMailerSkipsDelivery(t *testing.T) {
	svc, repo := newTestService(nil)

	require.NoError(t, svc.HandleEvent(context.Background(), event(model.EventAppointmentNoShow)))
	require.Len(t, repo.created, 2)
	assert.Empty(t, repo.sent)
}
