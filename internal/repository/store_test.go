package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/app"
	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/Freeeeeet/hospital_booking/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testDay = time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

// setupStore поднимает чистую схему в базе из TEST_DB_DSN
func setupStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping PostgreSQL tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))

	migrator, err := app.NewMigrator(pool, "../../migrations", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = migrator.Close() })

	require.NoError(t, migrator.Reset(ctx))
	require.NoError(t, migrator.Run(ctx))

	return NewStore(pool)
}

func seedDoctor(t *testing.T, s *Store, morning, afternoon int) (*model.User, *model.Doctor) {
	t.Helper()
	ctx := context.Background()

	user := &model.User{TelegramID: time.Now().UnixNano(), Username: "patient", Name: "Patient", Role: model.RoleUser}
	require.NoError(t, s.Users().Create(ctx, user))

	doctor := &model.Doctor{Name: "Dr. Li", Department: "Internal medicine", Permissions: model.DefaultCapabilities}
	require.NoError(t, s.Doctors().Create(ctx, doctor))
	require.NoError(t, s.Schedules().SetLimits(ctx, doctor.ID, testDay, morning, afternoon))

	return user, doctor
}

func TestSlotLockIDsSortedAndUnique(t *testing.T) {
	k1 := model.NewSlotKey(1, testDay, model.PeriodMorning)
	k2 := model.NewSlotKey(1, testDay, model.PeriodAfternoon)
	k3 := model.NewSlotKey(2, testDay, model.PeriodMorning)

	ids := slotLockIDs([]model.SlotKey{k3, k1, k2, k1})
	require.Len(t, ids, 3)
	assert.IsNonDecreasing(t, ids)
	assert.Equal(t, slotLockIDs([]model.SlotKey{k1, k2, k3}), ids)
	assert.NotEqual(t, slotLockID(k1), slotLockID(k2))
}

func TestWithinSlotsCommitsAndRollsBack(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	user, doctor := seedDoctor(t, s, 2, 2)
	key := model.NewSlotKey(doctor.ID, testDay, model.PeriodMorning)

	err := s.WithinSlots(ctx, []model.SlotKey{key}, func(ctx context.Context, tx service.SlotRepositories) error {
		a := &model.Appointment{Reference: uuid.New(), UserID: user.ID, DoctorID: doctor.ID, Date: testDay, Period: model.PeriodMorning}
		if err := tx.Appointments().Create(ctx, a); err != nil {
			return err
		}
		return tx.Schedules().AdjustBooked(ctx, doctor.ID, testDay, model.PeriodMorning, 1)
	})
	require.NoError(t, err)

	failure := errors.New("boom")
	err = s.WithinSlots(ctx, []model.SlotKey{key}, func(ctx context.Context, tx service.SlotRepositories) error {
		if err := tx.Schedules().AdjustBooked(ctx, doctor.ID, testDay, model.PeriodMorning, 1); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	entry, err := s.Schedules().GetEntry(ctx, doctor.ID, testDay)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.MorningBooked)

	list, err := s.Appointments().ListByDoctor(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWithinSlotsSerializesSameSlot(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	_, doctor := seedDoctor(t, s, 100, 0)
	key := model.NewSlotKey(doctor.ID, testDay, model.PeriodMorning)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.WithinSlots(ctx, []model.SlotKey{key}, func(ctx context.Context, tx service.SlotRepositories) error {
				entry, err := tx.Schedules().GetEntry(ctx, doctor.ID, testDay)
				if err != nil {
					return err
				}
				if entry.MorningBooked >= entry.MorningLimit {
					return model.ErrSlotFull
				}
				return tx.Schedules().AdjustBooked(ctx, doctor.ID, testDay, model.PeriodMorning, 1)
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	entry, err := s.Schedules().GetEntry(ctx, doctor.ID, testDay)
	require.NoError(t, err)
	assert.Equal(t, workers, entry.MorningBooked)
}

func TestScheduleRepository(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	_, doctor := seedDoctor(t, s, 3, 1)
	repo := s.Schedules()

	missing, err := repo.GetEntry(ctx, doctor.ID, testDay.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.AdjustBooked(ctx, doctor.ID, testDay.AddDate(0, 0, 5), model.PeriodMorning, 1)
	assert.ErrorIs(t, err, model.ErrScheduleNotFound)

	err = repo.AdjustBooked(ctx, doctor.ID, testDay, model.PeriodAfternoon, -1)
	assert.ErrorIs(t, err, model.ErrNegativeBookingCount)

	require.NoError(t, repo.AdjustBooked(ctx, doctor.ID, testDay, model.PeriodAfternoon, 1))

	// Смена лимитов не трогает счётчики
	require.NoError(t, repo.SetLimits(ctx, doctor.ID, testDay, 5, 0))
	entry, err := repo.GetEntry(ctx, doctor.ID, testDay)
	require.NoError(t, err)
	assert.Equal(t, 5, entry.MorningLimit)
	assert.Equal(t, 0, entry.AfternoonLimit)
	assert.Equal(t, 1, entry.AfternoonBooked)
	assert.True(t, entry.Date.Equal(testDay))

	require.NoError(t, repo.SetLimits(ctx, doctor.ID, testDay.AddDate(0, 0, 1), 1, 1))
	entries, err := repo.ListByDoctor(ctx, doctor.ID, testDay, testDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	err = repo.SetLimits(ctx, doctor.ID+100, testDay, 1, 1)
	assert.ErrorIs(t, err, model.ErrDoctorNotFound)
}

func TestAppointmentRepository(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	user, doctor := seedDoctor(t, s, 2, 2)
	repo := s.Appointments()

	a := &model.Appointment{Reference: uuid.New(), UserID: user.ID, DoctorID: doctor.ID, Date: testDay, Period: model.PeriodAfternoon}
	require.NoError(t, repo.Create(ctx, a))
	assert.NotZero(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	dup := &model.Appointment{Reference: uuid.New(), UserID: user.ID, DoctorID: doctor.ID, Date: testDay, Period: model.PeriodAfternoon}
	assert.ErrorIs(t, repo.Create(ctx, dup), model.ErrDuplicateBooking)

	orphan := &model.Appointment{Reference: uuid.New(), UserID: user.ID + 100, DoctorID: doctor.ID, Date: testDay, Period: model.PeriodMorning}
	assert.ErrorIs(t, repo.Create(ctx, orphan), model.ErrUserNotFound)

	found, err := repo.Find(ctx, user.ID, doctor.ID, testDay, model.PeriodAfternoon)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, a.Reference, found.Reference)

	found, err = repo.Find(ctx, user.ID, doctor.ID, testDay, model.PeriodMorning)
	require.NoError(t, err)
	assert.Nil(t, found)

	byUser, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	removed, err := repo.Remove(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Remove(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNotificationRepository(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	user, doctor := seedDoctor(t, s, 1, 1)
	other := &model.Doctor{Name: "Dr. Chen", Permissions: model.DefaultCapabilities}
	require.NoError(t, s.Doctors().Create(ctx, other))
	repo := s.Notifications()

	n1 := &model.Notification{DoctorID: doctor.ID, Message: "first"}
	n2 := &model.Notification{DoctorID: doctor.ID, Message: "second"}
	foreign := &model.Notification{DoctorID: other.ID, Message: "foreign"}
	for _, n := range []*model.Notification{n1, n2, foreign} {
		require.NoError(t, repo.Create(ctx, n))
	}
	assert.ErrorIs(t, repo.Create(ctx, &model.Notification{DoctorID: other.ID + 100, Message: "x"}), model.ErrDoctorNotFound)

	marked, err := repo.MarkRead(ctx, doctor.ID, []int64{n1.ID, foreign.ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	unread, err := repo.ListUnread(ctx, doctor.ID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "second", unread[0].Message)

	// Доставка только врачам с привязанным Telegram
	pending, err := repo.ListUndelivered(ctx, time.Now(), 3, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.Doctors().LinkUser(ctx, doctor.ID, user.ID))
	pending, err = repo.ListUndelivered(ctx, time.Now(), 3, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, user.TelegramID, pending[0].ChatID)
	assert.Equal(t, n1.ID, pending[0].Notification.ID)

	require.NoError(t, repo.MarkDelivered(ctx, n1.ID, time.Now()))
	pending, err = repo.ListUndelivered(ctx, time.Now(), 3, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, n2.ID, pending[0].Notification.ID)

	// Отложенное уведомление возвращается после next_attempt_at, исчерпавшее попытки нет
	now := time.Now()
	require.NoError(t, repo.MarkDeliveryFailed(ctx, n2.ID, 1, now.Add(time.Minute)))
	pending, err = repo.ListUndelivered(ctx, now, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	pending, err = repo.ListUndelivered(ctx, now.Add(2*time.Minute), 3, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Notification.DeliveryAttempts)

	require.NoError(t, repo.MarkDeliveryFailed(ctx, n2.ID, 3, now))
	pending, err = repo.ListUndelivered(ctx, now.Add(2*time.Minute), 3, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUserAndDoctorRepositories(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	user := &model.User{TelegramID: 42, Username: "house", Name: "Greg", Role: model.RoleUser}
	require.NoError(t, s.Users().Create(ctx, user))

	got, err := s.Users().GetByTelegramID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.RoleUser, got.Role)

	got.Role = model.RoleDoctor
	require.NoError(t, s.Users().Update(ctx, got))
	got, err = s.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, got.Role)

	assert.ErrorIs(t, s.Users().Update(ctx, &model.User{ID: 9999, Role: model.RoleUser}), model.ErrUserNotFound)

	// Явный ID не ломает последовательность
	explicit := &model.Doctor{ID: 10, Name: "Dr. Zhang", Permissions: model.DefaultCapabilities}
	require.NoError(t, s.Doctors().Create(ctx, explicit))
	next := &model.Doctor{Name: "Dr. Wang", Permissions: []model.Capability{model.CapSetSchedule}}
	require.NoError(t, s.Doctors().Create(ctx, next))
	assert.Greater(t, next.ID, explicit.ID)

	require.NoError(t, s.Doctors().LinkUser(ctx, explicit.ID, user.ID))
	assert.Error(t, s.Doctors().LinkUser(ctx, next.ID, user.ID))
	assert.ErrorIs(t, s.Doctors().LinkUser(ctx, 9999, user.ID), model.ErrDoctorNotFound)

	linked, err := s.Doctors().GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, linked)
	assert.Equal(t, explicit.ID, linked.ID)

	require.NoError(t, s.Doctors().UpdatePermissions(ctx, next.ID, []model.Capability{model.CapViewAppointments}))
	d, err := s.Doctors().GetByID(ctx, next.ID)
	require.NoError(t, err)
	assert.True(t, d.Can(model.CapViewAppointments))
	assert.False(t, d.Can(model.CapSetSchedule))

	all, err := s.Doctors().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestConcurrentBookingsOnLastPlace(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	_, doctor := seedDoctor(t, s, 1, 0)

	notifications := service.NewNotificationService(s, logger)
	booking := service.NewBookingService(s, notifications, logger)

	const n = 16
	users := make([]*model.User, n)
	for i := range users {
		users[i] = &model.User{TelegramID: int64(1000 + i), Name: "U", Role: model.RoleUser}
		require.NoError(t, s.Users().Create(ctx, users[i]))
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, u := range users {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := booking.Book(ctx, userID, doctor.ID, testDay, model.PeriodMorning)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}(u.ID)
	}
	wg.Wait()

	succeeded, full := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, model.ErrSlotFull):
			full++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, full)

	entry, err := s.Schedules().GetEntry(ctx, doctor.ID, testDay)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.MorningBooked)

	appointments, err := s.Appointments().ListByDoctor(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Len(t, appointments, 1)

	unread, err := notifications.Unread(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Len(t, unread, 1)
}
