package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/hospital_booking/internal/model"
)

// AvailabilityService строит картину свободных мест для пользователя.
// Только чтение, без блокировок: к моменту записи данные могут устареть.
type AvailabilityService struct {
	store   Store
	horizon Horizon
}

func NewAvailabilityService(store Store, horizon Horizon) *AvailabilityService {
	return &AvailabilityService{
		store:   store,
		horizon: horizon,
	}
}

// ListAvailability возвращает по всем врачам занятость слотов и отметку о записи пользователя
func (s *AvailabilityService) ListAvailability(ctx context.Context, userID int64) ([]*model.DoctorAvailability, error) {
	doctors, err := s.store.Doctors().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	own, err := s.store.Appointments().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user appointments: %w", err)
	}

	booked := make(map[model.SlotKey]struct{}, len(own))
	for _, a := range own {
		booked[a.Slot()] = struct{}{}
	}

	from, to := s.horizon.Range()

	result := make([]*model.DoctorAvailability, 0, len(doctors))
	for _, doctor := range doctors {
		entries, err := s.store.Schedules().ListByDoctor(ctx, doctor.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("list schedule of doctor %d: %w", doctor.ID, err)
		}

		dates := make([]model.DateAvailability, 0, len(entries))
		for _, entry := range entries {
			dates = append(dates, project(entry, booked))
		}

		result = append(result, &model.DoctorAvailability{
			Doctor: doctor,
			Dates:  dates,
		})
	}

	return result, nil
}

func project(entry *model.ScheduleEntry, userSlots map[model.SlotKey]struct{}) model.DateAvailability {
	slots := make([]model.SlotAvailability, 0, len(model.Periods))
	for _, p := range model.Periods {
		booked, limit := entry.Counts(p)
		_, mine := userSlots[model.NewSlotKey(entry.DoctorID, entry.Date, p)]

		slots = append(slots, model.SlotAvailability{
			Period:     p,
			Booked:     booked,
			Limit:      limit,
			Available:  limit-booked > 0,
			UserBooked: mine,
		})
	}

	return model.DateAvailability{Date: entry.Date, Slots: slots}
}
