// Package schedule turns a clinician's recurring weekly availability and
// holiday exceptions into bookable time slots. Everything here is pure:
// no I/O, deterministic output for identical input.
package schedule

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/medibook/scheduler-api/internal/model"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
)

// Reason explains why a day yields no candidate slots.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonNotAvailable Reason = "NOT_AVAILABLE"
	ReasonHoliday      Reason = "HOLIDAY"
)

// GenerateSlots produces the ordered candidate start minutes for date.
//
// today anchors the past-date check; slots on today itself are NOT
// filtered by current time of day. The first enabled window matching the
// weekday wins when duplicates exist. A trailing interval that would
// cross the window end is dropped.
func GenerateSlots(today, date time.Time, windows []model.WeeklyWindow, holidays []model.Holiday, durationMins int) ([]int, Reason, error) {
	if durationMins <= 0 {
		return nil, ReasonNone, apperrors.Validation("slot duration must be positive", nil)
	}

	day := DateOnly(date)
	if day.Before(DateOnly(today)) {
		return nil, ReasonNone, apperrors.PastDate()
	}

	for _, h := range holidays {
		if matchesHoliday(day, h) {
			return nil, ReasonHoliday, nil
		}
	}

	window, ok := windowFor(day.Weekday(), windows)
	if !ok {
		return nil, ReasonNotAvailable, nil
	}

	var slots []int
	for start := window.StartMinute; start+durationMins <= window.EndMinute; start += durationMins {
		slots = append(slots, start)
	}
	if len(slots) == 0 {
		return nil, ReasonNotAvailable, nil
	}
	return slots, ReasonNone, nil
}

// windowFor returns the first enabled window for the weekday.
func windowFor(weekday time.Weekday, windows []model.WeeklyWindow) (model.WeeklyWindow, bool) {
	for _, w := range windows {
		if w.Weekday == weekday && w.Enabled {
			return w, true
		}
	}
	return model.WeeklyWindow{}, false
}

func matchesHoliday(day time.Time, h model.Holiday) bool {
	hd := DateOnly(h.Date)
	if !h.Recurring {
		return day.Equal(hd)
	}

	// A recurring holiday is a yearly rule anchored on its month/day.
	// The anchor year is a leap year so Feb 29 holidays stay valid.
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.YEARLY,
		Dtstart: time.Date(1972, hd.Month(), hd.Day(), 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return false
	}
	return len(rule.Between(day, day, true)) > 0
}

// DateOnly truncates t to midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
