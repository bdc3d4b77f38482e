package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/scheduler-api/internal/model"
	"github.com/medibook/scheduler-api/internal/repository"
	"github.com/medibook/scheduler-api/internal/schedule"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
	"github.com/medibook/scheduler-api/pkg/logger"
)

// Service manages a clinician's recurring schedule, holidays and
// consultation offerings, and exposes the public slot listing that merges
// the generated candidates with the booking ledger.
type Service struct {
	availRepo     repository.AvailabilityRepository
	apptRepo      repository.AppointmentRepository
	clinicianRepo repository.ClinicianRepository
	logger        *logger.Logger

	now func() time.Time
}

func NewService(
	availRepo repository.AvailabilityRepository,
	apptRepo repository.AppointmentRepository,
	clinicianRepo repository.ClinicianRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		availRepo:     availRepo,
		apptRepo:      apptRepo,
		clinicianRepo: clinicianRepo,
		logger:        log,
		now:           time.Now,
	}
}

// Slots lists the day's candidates for one clinician and consultation
// mode. Booked candidates remain in the listing marked unavailable.
func (s *Service) Slots(ctx context.Context, clinicianID uuid.UUID, dateStr string, mode model.ConsultationMode) (*model.SlotListing, error) {
	if _, err := s.clinicianRepo.Get(ctx, clinicianID); err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, apperrors.InvalidDate("invalid date format, expected YYYY-MM-DD")
	}
	date = schedule.DateOnly(date)

	ct, err := s.availRepo.GetConsultationType(ctx, clinicianID, mode)
	if err != nil {
		return nil, err
	}

	windows, err := s.availRepo.ListWindows(ctx, clinicianID)
	if err != nil {
		return nil, err
	}
	holidays, err := s.availRepo.ListHolidays(ctx, clinicianID)
	if err != nil {
		return nil, err
	}

	candidates, reason, err := schedule.GenerateSlots(s.now(), date, windows, holidays, ct.DurationMins)
	if err != nil {
		return nil, err
	}

	listing := &model.SlotListing{
		ClinicianID:  clinicianID,
		Date:         date.Format("2006-01-02"),
		Mode:         mode,
		DurationMins: ct.DurationMins,
		Reason:       string(reason),
	}
	if len(candidates) == 0 {
		return listing, nil
	}

	booked, err := s.apptRepo.ListForClinicianDay(ctx, clinicianID, date)
	if err != nil {
		return nil, err
	}

	listing.Slots = make([]model.Slot, 0, len(candidates))
	for _, start := range candidates {
		listing.Slots = append(listing.Slots, model.Slot{
			Time:      schedule.FormatClock(start),
			Available: !slotOccupied(start, ct.DurationMins, booked),
		})
	}
	return listing, nil
}

func slotOccupied(startMinute, durationMins int, booked []*model.Appointment) bool {
	for _, apt := range booked {
		if apt.Status.Terminal() {
			continue
		}
		if apt.Overlaps(startMinute, durationMins) {
			return true
		}
	}
	return false
}

// ListWindows returns the clinician's weekly schedule, disabled windows
// included.
func (s *Service) ListWindows(ctx context.Context, clinicianID uuid.UUID) ([]model.WeeklyWindow, error) {
	if _, err := s.clinicianRepo.Get(ctx, clinicianID); err != nil {
		return nil, err
	}
	return s.availRepo.ListWindows(ctx, clinicianID)
}

// ReplaceWindows swaps the clinician's whole weekly schedule. Only the
// owning clinician or an administrator may write it.
func (s *Service) ReplaceWindows(ctx context.Context, actor model.Actor, clinicianID uuid.UUID, req *model.UpdateWindowsRequest) ([]model.WeeklyWindow, error) {
	if err := checkScheduleOwnership(actor, clinicianID); err != nil {
		return nil, err
	}
	if _, err := s.clinicianRepo.Get(ctx, clinicianID); err != nil {
		return nil, err
	}

	windows := make([]model.WeeklyWindow, 0, len(req.Windows))
	for _, in := range req.Windows {
		w, err := windowFromInput(clinicianID, in)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}

	if err := s.availRepo.ReplaceWindows(ctx, clinicianID, windows); err != nil {
		return nil, err
	}
	s.logger.Info("weekly schedule replaced",
		"clinician_id", clinicianID.String(),
		"windows", len(windows),
	)
	return windows, nil
}

func windowFromInput(clinicianID uuid.UUID, in model.WindowInput) (model.WeeklyWindow, error) {
	start, err := schedule.ParseClock(in.Start)
	if err != nil {
		return model.WeeklyWindow{}, apperrors.Validation("invalid window start time", err)
	}
	end, err := schedule.ParseClock(in.End)
	if err != nil {
		return model.WeeklyWindow{}, apperrors.Validation("invalid window end time", err)
	}
	if start >= end {
		return model.WeeklyWindow{}, apperrors.Validation("window start must be before end", nil)
	}
	return model.WeeklyWindow{
		Base:        model.Base{ID: uuid.New()},
		ClinicianID: clinicianID,
		Weekday:     time.Weekday(in.Weekday),
		StartMinute: start,
		EndMinute:   end,
		Enabled:     in.Enabled,
	}, nil
}

func (s *Service) ListHolidays(ctx context.Context, clinicianID uuid.UUID) ([]model.Holiday, error) {
	if _, err := s.clinicianRepo.Get(ctx, clinicianID); err != nil {
		return nil, err
	}
	return s.availRepo.ListHolidays(ctx, clinicianID)
}

func (s *Service) AddHoliday(ctx context.Context, actor model.Actor, clinicianID uuid.UUID, req *model.HolidayInput) (*model.Holiday, error) {
	if err := checkScheduleOwnership(actor, clinicianID); err != nil {
		return nil, err
	}
	if _, err := s.clinicianRepo.Get(ctx, clinicianID); err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, apperrors.InvalidDate("invalid date format, expected YYYY-MM-DD")
	}

	holiday := &model.Holiday{
		Base:        model.Base{ID: uuid.New()},
		ClinicianID: clinicianID,
		Date:        schedule.DateOnly(date),
		Reason:      req.Reason,
		Recurring:   req.Recurring,
	}
	if err := s.availRepo.AddHoliday(ctx, holiday); err != nil {
		return nil, err
	}
	return holiday, nil
}

func (s *Service) DeleteHoliday(ctx context.Context, actor model.Actor, clinicianID, holidayID uuid.UUID) error {
	if err := checkScheduleOwnership(actor, clinicianID); err != nil {
		return err
	}
	return s.availRepo.DeleteHoliday(ctx, clinicianID, holidayID)
}

func (s *Service) ListConsultationTypes(ctx context.Context, clinicianID uuid.UUID) ([]model.ConsultationType, error) {
	if _, err := s.clinicianRepo.Get(ctx, clinicianID); err != nil {
		return nil, err
	}
	return s.availRepo.ListConsultationTypes(ctx, clinicianID)
}

// UpsertConsultationType creates or replaces the clinician's offering for
// one mode. Changing the fee never touches already booked appointments.
func (s *Service) UpsertConsultationType(ctx context.Context, actor model.Actor, clinicianID uuid.UUID, req *model.ConsultationTypeInput) (*model.ConsultationType, error) {
	if err := checkScheduleOwnership(actor, clinicianID); err != nil {
		return nil, err
	}
	if _, err := s.clinicianRepo.Get(ctx, clinicianID); err != nil {
		return nil, err
	}
	if !req.Mode.Valid() {
		return nil, apperrors.Validation("unknown consultation mode", nil)
	}

	ct := &model.ConsultationType{
		Base:         model.Base{ID: uuid.New()},
		ClinicianID:  clinicianID,
		Mode:         req.Mode,
		Fee:          req.Fee,
		DurationMins: req.DurationMins,
	}
	if err := s.availRepo.UpsertConsultationType(ctx, ct); err != nil {
		return nil, err
	}
	return ct, nil
}

func checkScheduleOwnership(actor model.Actor, clinicianID uuid.UUID) error {
	if actor.Role == model.RoleAdmin {
		return nil
	}
	if actor.Role == model.RoleClinician && actor.ID == clinicianID {
		return nil
	}
	return apperrors.AccessDenied("only the owning clinician may change the schedule")
}
