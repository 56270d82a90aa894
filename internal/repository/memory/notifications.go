package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
)

type notificationRepo struct {
	s    *Store
	undo *undoLog
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.doctors[n.DoctorID]; !ok {
		return fmt.Errorf("create notification: %w", model.ErrDoctorNotFound)
	}

	r.s.lastNotificationID++
	n.ID = r.s.lastNotificationID
	n.CreatedAt = time.Now()

	stored := *n
	r.s.notifications[n.ID] = &stored

	id := n.ID
	r.undo.push(func() { delete(r.s.notifications, id) })
	return nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, doctorID int64, ids []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var affected int64
	for _, id := range ids {
		n, ok := r.s.notifications[id]
		if !ok || n.DoctorID != doctorID {
			continue
		}
		n.IsRead = true
		affected++
	}
	return affected, nil
}

func (r *notificationRepo) ListUnread(ctx context.Context, doctorID int64) ([]*model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.Notification
	for _, n := range r.s.notifications {
		if n.DoctorID != doctorID || n.IsRead {
			continue
		}
		clone := *n
		out = append(out, &clone)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *notificationRepo) ListUndelivered(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*model.NotificationDelivery, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.NotificationDelivery
	for _, n := range r.s.notifications {
		if n.DeliveredAt != nil || n.DeliveryAttempts >= maxAttempts {
			continue
		}
		if n.NextAttemptAt != nil && n.NextAttemptAt.After(now) {
			continue
		}
		doctor, ok := r.s.doctors[n.DoctorID]
		if !ok || doctor.UserID == nil {
			continue
		}
		user, ok := r.s.users[*doctor.UserID]
		if !ok || user.TelegramID == 0 {
			continue
		}
		clone := *n
		out = append(out, &model.NotificationDelivery{Notification: &clone, ChatID: user.TelegramID})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Notification.ID < out[j].Notification.ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *notificationRepo) MarkDelivered(ctx context.Context, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return fmt.Errorf("notification %d not found", id)
	}
	n.DeliveredAt = &at
	return nil
}

func (r *notificationRepo) MarkDeliveryFailed(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return fmt.Errorf("notification %d not found", id)
	}
	n.DeliveryAttempts = attempts
	n.NextAttemptAt = &nextAttemptAt
	return nil
}
