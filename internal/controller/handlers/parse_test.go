package handlers

import (
	"testing"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateFormats(t *testing.T) {
	now := time.Date(2025, time.June, 2, 18, 0, 0, 0, time.UTC)
	want := time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC)

	for _, input := range []string{"2025-06-05", "05.06.2025", "5.6.2025", "05.06", "06月05日", "6月5日"} {
		got, err := parseDate(input, now)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestParseDateRejectsPastAndGarbage(t *testing.T) {
	now := time.Date(2025, time.June, 2, 18, 0, 0, 0, time.UTC)

	today, err := parseDate("02.06", now)
	require.NoError(t, err)
	assert.Equal(t, model.DateOf(now), today)

	_, err = parseDate("01.06.2025", now)
	assert.ErrorIs(t, err, errPastDate)

	_, err = parseDate("tomorrow", now)
	assert.ErrorIs(t, err, errBadDate)

	_, err = parseDate("31.02", now)
	assert.Error(t, err)

	_, err = parseDate("29.02", now)
	assert.ErrorIs(t, err, errBadDate, "2025 is not a leap year")
}

func TestParsePeriodAliases(t *testing.T) {
	cases := map[string]model.Period{
		"morning":   model.PeriodMorning,
		"AM":        model.PeriodMorning,
		"Утро":      model.PeriodMorning,
		"上午":        model.PeriodMorning,
		"afternoon": model.PeriodAfternoon,
		"pm":        model.PeriodAfternoon,
		"день":      model.PeriodAfternoon,
		"下午":        model.PeriodAfternoon,
	}
	for input, want := range cases {
		got, err := parsePeriod(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := parsePeriod("evening")
	assert.ErrorIs(t, err, model.ErrInvalidPeriod)
}

func TestParseSlot(t *testing.T) {
	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

	doctorID, date, period, err := parseSlot(commandArgs("/book 3 2025-06-03 pm"), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), doctorID)
	assert.Equal(t, time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, model.PeriodAfternoon, period)

	_, _, _, err = parseSlot(commandArgs("/book 3 2025-06-03"), now)
	assert.Error(t, err)

	_, _, _, err = parseSlot(commandArgs("/book -1 2025-06-03 am"), now)
	assert.Error(t, err)
}

func TestParseScheduleArgs(t *testing.T) {
	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

	entries, err := parseScheduleArgs(commandArgs("/setschedule 02.06 2 1 03.06 0 4"), now)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ScheduleInput{Date: model.DateOf(now), MorningLimit: 2, AfternoonLimit: 1}, entries[0])
	assert.Equal(t, 4, entries[1].AfternoonLimit)

	_, err = parseScheduleArgs(commandArgs("/setschedule 02.06 2"), now)
	assert.Error(t, err)

	_, err = parseScheduleArgs(commandArgs("/setschedule 02.06 -1 2"), now)
	assert.ErrorIs(t, err, model.ErrInvalidLimit)
}

func TestParseIDsAndCapabilities(t *testing.T) {
	ids, err := parseIDs([]string{"1,2", "5"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 5}, ids)

	_, err = parseIDs([]string{"x"})
	assert.Error(t, err)

	caps, err := parseCapabilities([]string{"set_schedule,view_notifications"})
	require.NoError(t, err)
	assert.Equal(t, []model.Capability{model.CapSetSchedule, model.CapViewNotifications}, caps)

	_, err = parseCapabilities([]string{"root"})
	assert.ErrorIs(t, err, model.ErrInvalidCapability)
}

func TestParseDoctorArgs(t *testing.T) {
	d, err := parseDoctorArgs("/adddoctor  Dr. Gregory House ; Diagnostics;;101")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Gregory House", d.Name)
	assert.Equal(t, "Diagnostics", d.Department)
	assert.Empty(t, d.Title)
	assert.Equal(t, "101", d.OfficeNumber)
	assert.Empty(t, d.Phone)

	_, err = parseDoctorArgs("/adddoctor")
	assert.ErrorIs(t, err, model.ErrDoctorNameEmpty)

	_, err = parseDoctorArgs("/adddoctor ; Surgery")
	assert.ErrorIs(t, err, model.ErrDoctorNameEmpty)

	_, err = parseDoctorArgs("/adddoctor a;b;c;d;e;f")
	assert.Error(t, err)
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, msgInternalError, errorText(model.ErrNegativeBookingCount))
	assert.Equal(t, msgInternalError, errorText(model.ErrScheduleNotFound))
	assert.Equal(t, msgInternalError, errorText(assert.AnError))
	assert.NotEqual(t, msgInternalError, errorText(model.ErrSlotFull))
	assert.NotEqual(t, errorText(model.ErrSlotFull), errorText(model.ErrDuplicateBooking))
}
