package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"go.uber.org/zap"
)

// farFuture верхняя граница для неограниченного горизонта
var farFuture = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// Horizon окно дат, которое видят пользователи и врачи: [сегодня, сегодня + Days).
// Days == 0 означает окно без верхней границы.
type Horizon struct {
	Days int
	Now  func() time.Time
}

// Range возвращает границы окна: from включительно, to не включительно
func (h Horizon) Range() (from, to time.Time) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	from = model.DateOf(now())
	if h.Days <= 0 {
		return from, farFuture
	}
	return from, from.AddDate(0, 0, h.Days)
}

type ScheduleService struct {
	store   Store
	horizon Horizon
	logger  *zap.Logger
}

func NewScheduleService(store Store, horizon Horizon, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		store:   store,
		horizon: horizon,
		logger:  logger,
	}
}

// SetSchedule выставляет лимиты врача на даты. Счётчики занятых мест не меняются.
func (s *ScheduleService) SetSchedule(ctx context.Context, doctorID int64, entries []model.ScheduleInput) error {
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		if e.MorningLimit < 0 || e.AfternoonLimit < 0 {
			return fmt.Errorf("set schedule for %s: %w", e.Date.Format(model.DateLayout), model.ErrInvalidLimit)
		}
	}

	doctor, err := s.store.Doctors().GetByID(ctx, doctorID)
	if err != nil {
		return fmt.Errorf("get doctor: %w", err)
	}
	if doctor == nil {
		return model.ErrDoctorNotFound
	}

	// Те же блокировки, что у записи и отмены, на оба периода каждой даты
	keys := make([]model.SlotKey, 0, len(entries)*len(model.Periods))
	for _, e := range entries {
		keys = append(keys, model.DayKeys(doctorID, e.Date)...)
	}

	err = s.store.WithinSlots(ctx, keys, func(ctx context.Context, tx SlotRepositories) error {
		for _, e := range entries {
			current, err := tx.Schedules().GetEntry(ctx, doctorID, e.Date)
			if err != nil {
				return fmt.Errorf("get schedule entry: %w", err)
			}

			if current != nil && (e.MorningLimit < current.MorningBooked || e.AfternoonLimit < current.AfternoonBooked) {
				s.logger.Warn("Limit set below booked count, booking frozen until cancellations",
					zap.Int64("doctor_id", doctorID),
					zap.String("date", e.Date.Format(model.DateLayout)),
					zap.Int("morning_booked", current.MorningBooked),
					zap.Int("morning_limit", e.MorningLimit),
					zap.Int("afternoon_booked", current.AfternoonBooked),
					zap.Int("afternoon_limit", e.AfternoonLimit),
				)
			}

			err = tx.Schedules().SetLimits(ctx, doctorID, e.Date, e.MorningLimit, e.AfternoonLimit)
			if err != nil {
				return fmt.Errorf("set limits: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Schedule updated",
		zap.Int64("doctor_id", doctorID),
		zap.Int("dates", len(entries)),
	)

	return nil
}

// GetDoctorSchedule получает расписание врача в пределах горизонта
func (s *ScheduleService) GetDoctorSchedule(ctx context.Context, doctorID int64) ([]*model.ScheduleEntry, error) {
	from, to := s.horizon.Range()

	entries, err := s.store.Schedules().ListByDoctor(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}

	return entries, nil
}
