package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
)

type scheduleKey struct {
	doctorID int64
	date     string
}

func newScheduleKey(doctorID int64, date time.Time) scheduleKey {
	return scheduleKey{doctorID: doctorID, date: model.DateOf(date).Format(model.DateLayout)}
}

type scheduleRepo struct {
	s    *Store
	undo *undoLog
}

func (r *scheduleRepo) GetEntry(ctx context.Context, doctorID int64, date time.Time) (*model.ScheduleEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entry, ok := r.s.schedules[newScheduleKey(doctorID, date)]
	if !ok {
		return nil, nil
	}
	clone := *entry
	return &clone, nil
}

func (r *scheduleRepo) SetLimits(ctx context.Context, doctorID int64, date time.Time, morningLimit, afternoonLimit int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.doctors[doctorID]; !ok {
		return fmt.Errorf("set limits: %w", model.ErrDoctorNotFound)
	}

	key := newScheduleKey(doctorID, date)
	entry, ok := r.s.schedules[key]
	if !ok {
		r.s.lastScheduleID++
		r.s.schedules[key] = &model.ScheduleEntry{
			ID:             r.s.lastScheduleID,
			DoctorID:       doctorID,
			Date:           model.DateOf(date),
			MorningLimit:   morningLimit,
			AfternoonLimit: afternoonLimit,
		}
		r.undo.push(func() { delete(r.s.schedules, key) })
		return nil
	}

	prevMorning, prevAfternoon := entry.MorningLimit, entry.AfternoonLimit
	entry.MorningLimit = morningLimit
	entry.AfternoonLimit = afternoonLimit
	r.undo.push(func() {
		entry.MorningLimit = prevMorning
		entry.AfternoonLimit = prevAfternoon
	})
	return nil
}

func (r *scheduleRepo) AdjustBooked(ctx context.Context, doctorID int64, date time.Time, period model.Period, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := newScheduleKey(doctorID, date)
	entry, ok := r.s.schedules[key]
	if !ok {
		return fmt.Errorf("adjust booked %d/%s: %w", doctorID, key.date, model.ErrScheduleNotFound)
	}

	counter := &entry.MorningBooked
	if period == model.PeriodAfternoon {
		counter = &entry.AfternoonBooked
	}

	next := *counter + delta
	if next < 0 {
		return fmt.Errorf("adjust booked %d/%s/%s: %w", doctorID, key.date, period, model.ErrNegativeBookingCount)
	}

	prev := *counter
	*counter = next
	r.undo.push(func() { *counter = prev })
	return nil
}

func (r *scheduleRepo) ListByDoctor(ctx context.Context, doctorID int64, from, to time.Time) ([]*model.ScheduleEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	from, to = model.DateOf(from), model.DateOf(to)

	var entries []*model.ScheduleEntry
	for _, entry := range r.s.schedules {
		if entry.DoctorID != doctorID {
			continue
		}
		if entry.Date.Before(from) || !entry.Date.Before(to) {
			continue
		}
		clone := *entry
		entries = append(entries, &clone)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	return entries, nil
}
