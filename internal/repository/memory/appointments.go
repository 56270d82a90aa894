package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
)

type appointmentKey struct {
	userID   int64
	doctorID int64
	date     string
	period   model.Period
}

func newAppointmentKey(userID, doctorID int64, date time.Time, period model.Period) appointmentKey {
	return appointmentKey{
		userID:   userID,
		doctorID: doctorID,
		date:     model.DateOf(date).Format(model.DateLayout),
		period:   period,
	}
}

type appointmentRepo struct {
	s    *Store
	undo *undoLog
}

func (r *appointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[a.UserID]; !ok {
		return fmt.Errorf("create appointment: %w", model.ErrUserNotFound)
	}
	if _, ok := r.s.doctors[a.DoctorID]; !ok {
		return fmt.Errorf("create appointment: %w", model.ErrDoctorNotFound)
	}

	key := newAppointmentKey(a.UserID, a.DoctorID, a.Date, a.Period)
	if _, exists := r.s.appointmentIdx[key]; exists {
		return fmt.Errorf("create appointment: %w", model.ErrDuplicateBooking)
	}

	r.s.lastAppointmentID++
	a.ID = r.s.lastAppointmentID
	a.Date = model.DateOf(a.Date)
	a.CreatedAt = time.Now()

	stored := *a
	stored.User, stored.Doctor = nil, nil
	r.s.appointments[a.ID] = &stored
	r.s.appointmentIdx[key] = a.ID

	id := a.ID
	r.undo.push(func() {
		delete(r.s.appointments, id)
		delete(r.s.appointmentIdx, key)
	})
	return nil
}

func (r *appointmentRepo) Remove(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return false, nil
	}

	key := newAppointmentKey(a.UserID, a.DoctorID, a.Date, a.Period)
	delete(r.s.appointments, id)
	delete(r.s.appointmentIdx, key)

	r.undo.push(func() {
		r.s.appointments[id] = a
		r.s.appointmentIdx[key] = id
	})
	return true, nil
}

func (r *appointmentRepo) Find(ctx context.Context, userID, doctorID int64, date time.Time, period model.Period) (*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.appointmentIdx[newAppointmentKey(userID, doctorID, date, period)]
	if !ok {
		return nil, nil
	}
	clone := *r.s.appointments[id]
	return &clone, nil
}

func (r *appointmentRepo) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, nil
	}
	clone := *a
	return &clone, nil
}

func (r *appointmentRepo) ListByDoctor(ctx context.Context, doctorID int64) ([]*model.Appointment, error) {
	return r.list(func(a *model.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (r *appointmentRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Appointment, error) {
	return r.list(func(a *model.Appointment) bool { return a.UserID == userID }), nil
}

func (r *appointmentRepo) ListAll(ctx context.Context) ([]*model.Appointment, error) {
	return r.list(func(*model.Appointment) bool { return true }), nil
}

func (r *appointmentRepo) list(match func(a *model.Appointment) bool) []*model.Appointment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.Appointment
	for _, a := range r.s.appointments {
		if !match(a) {
			continue
		}
		clone := *a
		out = append(out, &clone)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
