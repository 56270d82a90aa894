package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/Freeeeeet/hospital_booking/internal/repository/memory"
	"github.com/Freeeeeet/hospital_booking/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)

type env struct {
	store         *memory.Store
	booking       *service.BookingService
	schedules     *service.ScheduleService
	notifications *service.NotificationService
	availability  *service.AvailabilityService
	users         *service.UserService
	today         time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := memory.NewStore()
	horizon := service.Horizon{Days: 3, Now: func() time.Time { return fixedNow }}

	notifications := service.NewNotificationService(store, logger)
	return &env{
		store:         store,
		booking:       service.NewBookingService(store, notifications, logger),
		schedules:     service.NewScheduleService(store, horizon, logger),
		notifications: notifications,
		availability:  service.NewAvailabilityService(store, horizon),
		users:         service.NewUserService(store, []int64{1}, logger),
		today:         model.DateOf(fixedNow),
	}
}

func (e *env) user(t *testing.T, telegramID int64, name string) *model.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), telegramID, "", name)
	require.NoError(t, err)
	return u
}

func (e *env) doctor(t *testing.T, name string) *model.Doctor {
	t.Helper()
	d := &model.Doctor{Name: name, Department: "General", Permissions: model.DefaultCapabilities}
	require.NoError(t, e.store.Doctors().Create(context.Background(), d))
	return d
}

func (e *env) setDay(t *testing.T, doctorID int64, date time.Time, morning, afternoon int) {
	t.Helper()
	err := e.schedules.SetSchedule(context.Background(), doctorID, []model.ScheduleInput{
		{Date: date, MorningLimit: morning, AfternoonLimit: afternoon},
	})
	require.NoError(t, err)
}

func (e *env) entry(t *testing.T, doctorID int64, date time.Time) *model.ScheduleEntry {
	t.Helper()
	entry, err := e.store.Schedules().GetEntry(context.Background(), doctorID, date)
	require.NoError(t, err)
	require.NotNil(t, entry)
	return entry
}

// requireCountersMatchLedger счётчики каждого слота равны числу записей в журнале
func (e *env) requireCountersMatchLedger(t *testing.T, doctorID int64, date time.Time) {
	t.Helper()
	all, err := e.store.Appointments().ListByDoctor(context.Background(), doctorID)
	require.NoError(t, err)

	counts := map[model.Period]int{}
	for _, a := range all {
		if a.Date.Equal(model.DateOf(date)) {
			counts[a.Period]++
		}
	}

	entry := e.entry(t, doctorID, date)
	require.Equal(t, counts[model.PeriodMorning], entry.MorningBooked, "morning counter")
	require.Equal(t, counts[model.PeriodAfternoon], entry.AfternoonBooked, "afternoon counter")
}
