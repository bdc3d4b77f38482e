package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/scheduler-api/internal/model"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
)

var (
	// 2026-09-07 is a Monday.
	monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	today  = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
)

func window(day time.Weekday, start, end string, enabled bool) model.WeeklyWindow {
	s, _ := ParseClock(start)
	e, _ := ParseClock(end)
	return model.WeeklyWindow{Weekday: day, StartMinute: s, EndMinute: e, Enabled: enabled}
}

func TestGenerateSlotsBasic(t *testing.T) {
	windows := []model.WeeklyWindow{window(time.Monday, "09:00", "11:00", true)}

	slots, reason, err := GenerateSlots(today, monday, windows, nil, 30)
	require.NoError(t, err)
	assert.Equal(t, ReasonNone, reason)

	var formatted []string
	for _, s := range slots {
		formatted = append(formatted, FormatClock(s))
	}
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, formatted)
}

func TestGenerateSlotsDropsTrailingPartialInterval(t *testing.T) {
	windows := []model.WeeklyWindow{window(time.Monday, "09:00", "10:45", true)}

	slots, _, err := GenerateSlots(today, monday, windows, nil, 30)
	require.NoError(t, err)
	// 10:30-11:00 would cross 10:45, so only three slots remain.
	assert.Equal(t, []int{540, 570, 600}, slots)
}

func TestGenerateSlotsUsesRequestedDuration(t *testing.T) {
	windows := []model.WeeklyWindow{window(time.Monday, "09:00", "11:00", true)}

	slots, _, err := GenerateSlots(today, monday, windows, nil, 60)
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

func TestGenerateSlotsNoWindowForWeekday(t *testing.T) {
	windows := []model.WeeklyWindow{window(time.Tuesday, "09:00", "11:00", true)}

	slots, reason, err := GenerateSlots(today, monday, windows, nil, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.Equal(t, ReasonNotAvailable, reason)
}

func TestGenerateSlotsDisabledWindow(t *testing.T) {
	windows := []model.WeeklyWindow{window(time.Monday, "09:00", "11:00", false)}

	slots, reason, err := GenerateSlots(today, monday, windows, nil, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.Equal(t, ReasonNotAvailable, reason)
}

func TestGenerateSlotsFirstWindowWinsOnDuplicates(t *testing.T) {
	// Duplicate entries for the same weekday are not deduplicated at
	// write time; the first enabled one wins deterministically.
	windows := []model.WeeklyWindow{
		window(time.Monday, "09:00", "10:00", false),
		window(time.Monday, "13:00", "14:00", true),
		window(time.Monday, "08:00", "12:00", true),
	}

	slots, _, err := GenerateSlots(today, monday, windows, nil, 30)
	require.NoError(t, err)
	assert.Equal(t, []int{13 * 60, 13*60 + 30}, slots)
}

func TestGenerateSlotsExactHoliday(t *testing.T) {
	windows := []model.WeeklyWindow{window(time.Monday, "09:00", "11:00", true)}
	holidays := []model.Holiday{{Date: monday, Reason: "conference", Recurring: false}}

	slots, reason, err := GenerateSlots(today, monday, windows, holidays, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.Equal(t, ReasonHoliday, reason)
}

func TestGenerateSlotsNonRecurringHolidayOtherYearIgnored(t *testing.T) {
	windows := []model.WeeklyWindow{window(time.Monday, "09:00", "11:00", true)}
	lastYear := time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC)
	holidays := []model.Holiday{{Date: lastYear, Recurring: false}}

	slots, reason, err := GenerateSlots(today, monday, windows, holidays, 30)
	require.NoError(t, err)
	assert.Equal(t, ReasonNone, reason)
	assert.Len(t, slots, 4)
}

func TestGenerateSlotsRecurringHolidayMatchesAnyYear(t *testing.T) {
	windows := []model.WeeklyWindow{window(time.Monday, "09:00", "11:00", true)}
	yearsAgo := time.Date(2019, 9, 7, 0, 0, 0, 0, time.UTC)
	holidays := []model.Holiday{{Date: yearsAgo, Reason: "founding day", Recurring: true}}

	slots, reason, err := GenerateSlots(today, monday, windows, holidays, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.Equal(t, ReasonHoliday, reason)
}

func TestGenerateSlotsRecurringHolidayOtherDayIgnored(t *testing.T) {
	windows := []model.WeeklyWindow{window(time.Monday, "09:00", "11:00", true)}
	holidays := []model.Holiday{{Date: time.Date(2019, 12, 25, 0, 0, 0, 0, time.UTC), Recurring: true}}

	slots, _, err := GenerateSlots(today, monday, windows, holidays, 30)
	require.NoError(t, err)
	assert.Len(t, slots, 4)
}

func TestGenerateSlotsPastDate(t *testing.T) {
	windows := []model.WeeklyWindow{window(time.Monday, "09:00", "11:00", true)}
	yesterday := today.AddDate(0, 0, -1)

	_, _, err := GenerateSlots(today, yesterday, windows, nil, 30)
	assert.ErrorIs(t, err, apperrors.PastDate())
}

func TestGenerateSlotsCurrentDateNotTimeFiltered(t *testing.T) {
	// Slots earlier than the current time of day are still returned for
	// today; only whole past dates are rejected.
	windows := []model.WeeklyWindow{window(today.Weekday(), "09:00", "11:00", true)}
	lateToday := time.Date(today.Year(), today.Month(), today.Day(), 23, 50, 0, 0, time.UTC)

	slots, _, err := GenerateSlots(lateToday, today, windows, nil, 30)
	require.NoError(t, err)
	assert.Len(t, slots, 4)
}

func TestGenerateSlotsDeterministic(t *testing.T) {
	windows := []model.WeeklyWindow{window(time.Monday, "09:00", "17:00", true)}
	holidays := []model.Holiday{{Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Recurring: true}}

	a, ra, errA := GenerateSlots(today, monday, windows, holidays, 45)
	b, rb, errB := GenerateSlots(today, monday, windows, holidays, 45)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)
	assert.Equal(t, ra, rb)
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9am", 0, true},
		{"12:60", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.in, FormatClock(got))
	}
}
