package availability

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/scheduler-api/internal/model"
	"github.com/medibook/scheduler-api/internal/schedule"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
	"github.com/medibook/scheduler-api/pkg/logger"
)

type fakeAvailRepo struct {
	windows  []model.WeeklyWindow
	holidays []model.Holiday
	types    map[model.ConsultationMode]model.ConsultationType
}

func (r *fakeAvailRepo) ListWindows(context.Context, uuid.UUID) ([]model.WeeklyWindow, error) {
	return r.windows, nil
}

func (r *fakeAvailRepo) ReplaceWindows(_ context.Context, _ uuid.UUID, windows []model.WeeklyWindow) error {
	r.windows = windows
	return nil
}

func (r *fakeAvailRepo) ListHolidays(context.Context, uuid.UUID) ([]model.Holiday, error) {
	return r.holidays, nil
}

func (r *fakeAvailRepo) AddHoliday(_ context.Context, h *model.Holiday) error {
	r.holidays = append(r.holidays, *h)
	return nil
}

func (r *fakeAvailRepo) DeleteHoliday(_ context.Context, _, holidayID uuid.UUID) error {
	for i, h := range r.holidays {
		if h.ID == holidayID {
			r.holidays = append(r.holidays[:i], r.holidays[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("holiday", nil)
}

func (r *fakeAvailRepo) ListConsultationTypes(context.Context, uuid.UUID) ([]model.ConsultationType, error) {
	var out []model.ConsultationType
	for _, ct := range r.types {
		out = append(out, ct)
	}
	return out, nil
}

func (r *fakeAvailRepo) GetConsultationType(_ context.Context, _ uuid.UUID, mode model.ConsultationMode) (*model.ConsultationType, error) {
	ct, ok := r.types[mode]
	if !ok {
		return nil, apperrors.NotFound("consultation type", nil)
	}
	return &ct, nil
}

func (r *fakeAvailRepo) UpsertConsultationType(_ context.Context, ct *model.ConsultationType) error {
	r.types[ct.Mode] = *ct
	return nil
}

type fakeApptRepo struct {
	booked []*model.Appointment
}

func (r *fakeApptRepo) Reserve(context.Context, *model.Appointment, func(*model.Appointment) (*model.OutboxEvent, error)) error {
	return nil
}

func (r *fakeApptRepo) Get(context.Context, uuid.UUID) (*model.Appointment, error) {
	return nil, apperrors.NotFound("appointment", nil)
}

func (r *fakeApptRepo) List(context.Context, *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}

func (r *fakeApptRepo) ListForClinicianDay(context.Context, uuid.UUID, time.Time) ([]*model.Appointment, error) {
	return r.booked, nil
}

func (r *fakeApptRepo) UpdateStatus(context.Context, *model.Appointment, model.AppointmentStatus, *model.OutboxEvent) error {
	return nil
}

type fakeClinicianRepo struct{ id uuid.UUID }

func (r *fakeClinicianRepo) Get(_ context.Context, id uuid.UUID) (*model.Clinician, error) {
	if id != r.id {
		return nil, apperrors.NotFound("clinician", nil)
	}
	return &model.Clinician{Base: model.Base{ID: id}, Name: "Dr. Osei"}, nil
}

func (r *fakeClinicianRepo) Create(context.Context, *model.Clinician) error { return nil }

var (
	testClinicianID = uuid.New()
	ownerActor      = model.Actor{ID: testClinicianID, Role: model.RoleClinician}
	adminActor      = model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
)

func newTestService() (*Service, *fakeAvailRepo, *fakeApptRepo) {
	start, _ := schedule.ParseClock("09:00")
	end, _ := schedule.ParseClock("11:00")
	availRepo := &fakeAvailRepo{
		windows: []model.WeeklyWindow{{
			ClinicianID: testClinicianID,
			Weekday:     time.Monday,
			StartMinute: start,
			EndMinute:   end,
			Enabled:     true,
		}},
		types: map[model.ConsultationMode]model.ConsultationType{
			model.ConsultationVideo: {ClinicianID: testClinicianID, Mode: model.ConsultationVideo, Fee: 80, DurationMins: 30},
		},
	}
	apptRepo := &fakeApptRepo{}
	svc := NewService(availRepo, apptRepo, &fakeClinicianRepo{id: testClinicianID},
		logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard}))
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	return svc, availRepo, apptRepo
}

func slotTimes(listing *model.SlotListing) []string {
	out := make([]string, 0, len(listing.Slots))
	for _, s := range listing.Slots {
		out = append(out, s.Time)
	}
	return out
}

func TestSlotsListsCandidatesWithBookedMarked(t *testing.T) {
	svc, _, apptRepo := newTestService()
	apptRepo.booked = []*model.Appointment{{
		ClinicianID:  testClinicianID,
		Date:         time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		StartMinute:  9*60 + 30,
		DurationMins: 30,
		Status:       model.AppointmentStatusScheduled,
	}}

	listing, err := svc.Slots(context.Background(), testClinicianID, "2026-09-07", model.ConsultationVideo)
	require.NoError(t, err)

	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, slotTimes(listing))
	assert.True(t, listing.Slots[0].Available)
	assert.False(t, listing.Slots[1].Available)
	assert.True(t, listing.Slots[2].Available)
	assert.Empty(t, listing.Reason)
	assert.Equal(t, 30, listing.DurationMins)
}

func TestSlotsIgnoresCancelledBookings(t *testing.T) {
	svc, _, apptRepo := newTestService()
	apptRepo.booked = []*model.Appointment{{
		ClinicianID:  testClinicianID,
		Date:         time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		StartMinute:  9 * 60,
		DurationMins: 30,
		Status:       model.AppointmentStatusCancelled,
	}}

	listing, err := svc.Slots(context.Background(), testClinicianID, "2026-09-07", model.ConsultationVideo)
	require.NoError(t, err)
	assert.True(t, listing.Slots[0].Available)
}

func TestSlotsReportsOffDayReason(t *testing.T) {
	svc, _, _ := newTestService()

	// 2026-09-08 is a Tuesday with no window.
	listing, err := svc.Slots(context.Background(), testClinicianID, "2026-09-08", model.ConsultationVideo)
	require.NoError(t, err)
	assert.Empty(t, listing.Slots)
	assert.Equal(t, string(schedule.ReasonNotAvailable), listing.Reason)
}

func TestSlotsReportsHolidayReason(t *testing.T) {
	svc, availRepo, _ := newTestService()
	availRepo.holidays = []model.Holiday{{
		ClinicianID: testClinicianID,
		Date:        time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		Reason:      "public holiday",
	}}

	listing, err := svc.Slots(context.Background(), testClinicianID, "2026-09-07", model.ConsultationVideo)
	require.NoError(t, err)
	assert.Empty(t, listing.Slots)
	assert.Equal(t, string(schedule.ReasonHoliday), listing.Reason)
}

func TestSlotsPastDate(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Slots(context.Background(), testClinicianID, "2026-08-31", model.ConsultationVideo)
	assert.ErrorIs(t, err, apperrors.PastDate())
}

func TestSlotsUnknownClinician(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Slots(context.Background(), uuid.New(), "2026-09-07", model.ConsultationVideo)
	assert.ErrorIs(t, err, apperrors.NotFound("", nil))
}

func TestReplaceWindowsValidatesOrder(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ReplaceWindows(context.Background(), ownerActor, testClinicianID, &model.UpdateWindowsRequest{
		Windows: []model.WindowInput{{Weekday: 1, Start: "17:00", End: "09:00", Enabled: true}},
	})
	assert.ErrorIs(t, err, apperrors.Validation("", nil))
}

func TestReplaceWindowsStoresParsedMinutes(t *testing.T) {
	svc, availRepo, _ := newTestService()

	windows, err := svc.ReplaceWindows(context.Background(), ownerActor, testClinicianID, &model.UpdateWindowsRequest{
		Windows: []model.WindowInput{
			{Weekday: 1, Start: "08:30", End: "12:00", Enabled: true},
			{Weekday: 3, Start: "13:00", End: "17:00", Enabled: false},
		},
	})
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, 8*60+30, windows[0].StartMinute)
	assert.Equal(t, 12*60, windows[0].EndMinute)
	assert.Equal(t, time.Wednesday, windows[1].Weekday)
	assert.False(t, windows[1].Enabled)
	assert.Len(t, availRepo.windows, 2)
}

func TestScheduleWritesRequireOwnership(t *testing.T) {
	svc, _, _ := newTestService()
	stranger := model.Actor{ID: uuid.New(), Role: model.RoleClinician}
	patient := model.Actor{ID: testClinicianID, Role: model.RolePatient}

	req := &model.UpdateWindowsRequest{
		Windows: []model.WindowInput{{Weekday: 1, Start: "09:00", End: "10:00", Enabled: true}},
	}
	for _, actor := range []model.Actor{stranger, patient} {
		_, err := svc.ReplaceWindows(context.Background(), actor, testClinicianID, req)
		assert.ErrorIs(t, err, apperrors.AccessDenied(""), string(actor.Role))
	}

	// Administrators bypass ownership.
	_, err := svc.ReplaceWindows(context.Background(), adminActor, testClinicianID, req)
	assert.NoError(t, err)
}

func TestAddAndDeleteHoliday(t *testing.T) {
	svc, availRepo, _ := newTestService()

	holiday, err := svc.AddHoliday(context.Background(), ownerActor, testClinicianID, &model.HolidayInput{
		Date:      "2026-12-25",
		Reason:    "christmas",
		Recurring: true,
	})
	require.NoError(t, err)
	assert.True(t, holiday.Recurring)
	assert.Equal(t, time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC), holiday.Date)
	assert.Len(t, availRepo.holidays, 1)

	require.NoError(t, svc.DeleteHoliday(context.Background(), ownerActor, testClinicianID, holiday.ID))
	assert.Empty(t, availRepo.holidays)
}

func TestUpsertConsultationTypeReplacesOffering(t *testing.T) {
	svc, availRepo, _ := newTestService()

	ct, err := svc.UpsertConsultationType(context.Background(), ownerActor, testClinicianID, &model.ConsultationTypeInput{
		Mode:         model.ConsultationVideo,
		Fee:          95,
		DurationMins: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, 95.0, ct.Fee)
	assert.Equal(t, 45, availRepo.types[model.ConsultationVideo].DurationMins)
}
