package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService распределяет места в слотах врачей.
// Запись, отмена и счётчики меняются только здесь.
type BookingService struct {
	store    Store
	notifier *NotificationService
	logger   *zap.Logger
}

func NewBookingService(store Store, notifier *NotificationService, logger *zap.Logger) *BookingService {
	return &BookingService{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Book записывает пользователя к врачу на дату и период
func (s *BookingService) Book(ctx context.Context, userID, doctorID int64, date time.Time, period model.Period) (*model.Appointment, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("book: %w: %q", model.ErrInvalidPeriod, period)
	}

	key := model.NewSlotKey(doctorID, date, period)
	appointment := &model.Appointment{
		Reference: uuid.New(),
		UserID:    userID,
		DoctorID:  doctorID,
		Date:      key.Date,
		Period:    period,
	}

	err := s.store.WithinSlots(ctx, []model.SlotKey{key}, func(ctx context.Context, tx SlotRepositories) error {
		entry, err := tx.Schedules().GetEntry(ctx, doctorID, key.Date)
		if err != nil {
			return fmt.Errorf("get schedule entry: %w", err)
		}
		if entry == nil {
			return model.ErrScheduleUnavailable
		}

		if !entry.HasCapacity(period) {
			return model.ErrSlotFull
		}

		existing, err := tx.Appointments().Find(ctx, userID, doctorID, key.Date, period)
		if err != nil {
			return fmt.Errorf("find appointment: %w", err)
		}
		if existing != nil {
			return model.ErrDuplicateBooking
		}

		if err := tx.Appointments().Create(ctx, appointment); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		if err := tx.Schedules().AdjustBooked(ctx, doctorID, key.Date, period, 1); err != nil {
			return fmt.Errorf("increment booked: %w", err)
		}

		_, err = s.notifier.push(ctx, tx.Notifications(), doctorID, bookingMessage(key))
		return err
	})
	if err != nil {
		s.logFailure("Booking failed", key, err, zap.Int64("user_id", userID))
		return nil, err
	}

	s.logger.Info("Appointment booked",
		zap.Int64("appointment_id", appointment.ID),
		zap.String("reference", appointment.Reference.String()),
		zap.Int64("user_id", userID),
		zap.Stringer("slot", key),
	)

	return appointment, nil
}

// Cancel отменяет запись пользователя на слот
func (s *BookingService) Cancel(ctx context.Context, userID, doctorID int64, date time.Time, period model.Period) error {
	if !period.Valid() {
		return fmt.Errorf("cancel: %w: %q", model.ErrInvalidPeriod, period)
	}

	key := model.NewSlotKey(doctorID, date, period)

	var appointmentID int64
	err := s.store.WithinSlots(ctx, []model.SlotKey{key}, func(ctx context.Context, tx SlotRepositories) error {
		appointment, err := tx.Appointments().Find(ctx, userID, doctorID, key.Date, period)
		if err != nil {
			return fmt.Errorf("find appointment: %w", err)
		}
		if appointment == nil {
			return model.ErrAppointmentNotFound
		}

		appointmentID = appointment.ID
		return release(ctx, tx, appointment)
	})
	if err != nil {
		s.logFailure("Cancellation failed", key, err, zap.Int64("user_id", userID))
		return err
	}

	s.logger.Info("Appointment cancelled",
		zap.Int64("appointment_id", appointmentID),
		zap.Int64("user_id", userID),
		zap.Stringer("slot", key),
	)

	return nil
}

// CancelByID снимает запись по ID (администратор). Счётчик слота уменьшается так же, как при отмене.
func (s *BookingService) CancelByID(ctx context.Context, appointmentID int64) (*model.Appointment, error) {
	appointment, err := s.store.Appointments().GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appointment == nil {
		return nil, model.ErrAppointmentNotFound
	}

	key := appointment.Slot()
	err = s.store.WithinSlots(ctx, []model.SlotKey{key}, func(ctx context.Context, tx SlotRepositories) error {
		// Запись могла исчезнуть, пока ждали блокировку
		current, err := tx.Appointments().GetByID(ctx, appointmentID)
		if err != nil {
			return fmt.Errorf("get appointment: %w", err)
		}
		if current == nil {
			return model.ErrAppointmentNotFound
		}
		return release(ctx, tx, current)
	})
	if err != nil {
		s.logFailure("Removal failed", key, err, zap.Int64("appointment_id", appointmentID))
		return nil, err
	}

	s.logger.Info("Appointment removed",
		zap.Int64("appointment_id", appointmentID),
		zap.Int64("user_id", appointment.UserID),
		zap.Stringer("slot", key),
	)

	return appointment, nil
}

// release удаляет запись из журнала и освобождает место в слоте
func release(ctx context.Context, tx SlotRepositories, appointment *model.Appointment) error {
	removed, err := tx.Appointments().Remove(ctx, appointment.ID)
	if err != nil {
		return fmt.Errorf("remove appointment: %w", err)
	}
	if !removed {
		return model.ErrAppointmentNotFound
	}

	err = tx.Schedules().AdjustBooked(ctx, appointment.DoctorID, appointment.Date, appointment.Period, -1)
	if err != nil {
		return fmt.Errorf("decrement booked: %w", err)
	}

	return nil
}

// DoctorAppointments получает записи к врачу вместе с пациентами
func (s *BookingService) DoctorAppointments(ctx context.Context, doctorID int64) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list doctor appointments: %w", err)
	}
	return s.enrich(ctx, appointments)
}

// UserAppointments получает записи пользователя вместе с врачами
func (s *BookingService) UserAppointments(ctx context.Context, userID int64) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user appointments: %w", err)
	}
	return s.enrich(ctx, appointments)
}

// AllAppointments получает все записи (администратор)
func (s *BookingService) AllAppointments(ctx context.Context) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return s.enrich(ctx, appointments)
}

func (s *BookingService) enrich(ctx context.Context, appointments []*model.Appointment) ([]*model.Appointment, error) {
	users := make(map[int64]*model.User)
	doctors := make(map[int64]*model.Doctor)

	for _, a := range appointments {
		user, ok := users[a.UserID]
		if !ok {
			var err error
			user, err = s.store.Users().GetByID(ctx, a.UserID)
			if err != nil {
				return nil, fmt.Errorf("get user: %w", err)
			}
			users[a.UserID] = user
		}
		a.User = user

		doctor, ok := doctors[a.DoctorID]
		if !ok {
			var err error
			doctor, err = s.store.Doctors().GetByID(ctx, a.DoctorID)
			if err != nil {
				return nil, fmt.Errorf("get doctor: %w", err)
			}
			doctors[a.DoctorID] = doctor
		}
		a.Doctor = doctor
	}

	return appointments, nil
}

func (s *BookingService) logFailure(msg string, key model.SlotKey, err error, fields ...zap.Field) {
	fields = append(fields, zap.Stringer("slot", key), zap.Error(err))

	if model.IsConsistencyError(err) {
		s.logger.Error("Slot counters out of sync with appointments", fields...)
		return
	}

	if isRejection(err) {
		s.logger.Debug(msg, fields...)
		return
	}

	s.logger.Warn(msg, fields...)
}

// isRejection ошибки, которые означают отказ пользователю, а не сбой
func isRejection(err error) bool {
	return errors.Is(err, model.ErrScheduleUnavailable) ||
		errors.Is(err, model.ErrSlotFull) ||
		errors.Is(err, model.ErrDuplicateBooking) ||
		errors.Is(err, model.ErrAppointmentNotFound) ||
		errors.Is(err, model.ErrUserNotFound) ||
		errors.Is(err, model.ErrDoctorNotFound)
}

func bookingMessage(key model.SlotKey) string {
	return fmt.Sprintf("New appointment on %s %s", key.Date.Format(model.DateLayout), key.Period)
}
