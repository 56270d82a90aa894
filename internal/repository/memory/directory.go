package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.usersByTelegram[u.TelegramID]; exists {
		return fmt.Errorf("create user: telegram id %d already registered", u.TelegramID)
	}

	r.s.lastUserID++
	u.ID = r.s.lastUserID
	u.CreatedAt = time.Now()

	stored := *u
	r.s.users[u.ID] = &stored
	r.s.usersByTelegram[u.TelegramID] = u.ID
	return nil
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[u.ID]
	if !ok {
		return fmt.Errorf("update user: %w", model.ErrUserNotFound)
	}
	existing.Username = u.Username
	existing.Name = u.Name
	existing.Role = u.Role
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (r *userRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.usersByTelegram[telegramID]
	if !ok {
		return nil, nil
	}
	clone := *r.s.users[id]
	return &clone, nil
}

type doctorRepo struct {
	s *Store
}

func cloneDoctor(d *model.Doctor) *model.Doctor {
	clone := *d
	clone.Permissions = slices.Clone(d.Permissions)
	if d.UserID != nil {
		userID := *d.UserID
		clone.UserID = &userID
	}
	return &clone
}

func (r *doctorRepo) Create(ctx context.Context, d *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if d.ID == 0 {
		r.s.lastDoctorID++
		d.ID = r.s.lastDoctorID
	} else if _, exists := r.s.doctors[d.ID]; exists {
		return fmt.Errorf("create doctor: id %d already exists", d.ID)
	} else if d.ID > r.s.lastDoctorID {
		r.s.lastDoctorID = d.ID
	}

	r.s.doctors[d.ID] = cloneDoctor(d)
	return nil
}

func (r *doctorRepo) GetByID(ctx context.Context, id int64) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return nil, nil
	}
	return cloneDoctor(d), nil
}

func (r *doctorRepo) GetByUserID(ctx context.Context, userID int64) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, d := range r.s.doctors {
		if d.UserID != nil && *d.UserID == userID {
			return cloneDoctor(d), nil
		}
	}
	return nil, nil
}

func (r *doctorRepo) List(ctx context.Context) ([]*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Doctor, 0, len(r.s.doctors))
	for _, d := range r.s.doctors {
		out = append(out, cloneDoctor(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *doctorRepo) LinkUser(ctx context.Context, doctorID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.doctors[doctorID]
	if !ok {
		return fmt.Errorf("link doctor: %w", model.ErrDoctorNotFound)
	}
	if _, ok := r.s.users[userID]; !ok {
		return fmt.Errorf("link doctor: %w", model.ErrUserNotFound)
	}
	for _, other := range r.s.doctors {
		if other.ID != doctorID && other.UserID != nil && *other.UserID == userID {
			return fmt.Errorf("link doctor: user %d already linked to doctor %d", userID, other.ID)
		}
	}

	d.UserID = &userID
	return nil
}

func (r *doctorRepo) UpdatePermissions(ctx context.Context, doctorID int64, permissions []model.Capability) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.doctors[doctorID]
	if !ok {
		return fmt.Errorf("update permissions: %w", model.ErrDoctorNotFound)
	}
	d.Permissions = slices.Clone(permissions)
	return nil
}
