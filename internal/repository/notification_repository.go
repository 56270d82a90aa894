package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/Freeeeeet/hospital_booking/internal/repository/base"
)

type NotificationRepository struct {
	*base.Repository
}

func NewNotificationRepository(db base.DBTX) *NotificationRepository {
	return &NotificationRepository{Repository: base.NewRepository(db)}
}

// Create добавляет непрочитанное уведомление врачу
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (doctor_id, message, is_read)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, n.DoctorID, n.Message, n.IsRead).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		if base.IsForeignKeyViolation(err) {
			return fmt.Errorf("create notification: %w", model.ErrDoctorNotFound)
		}
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

// MarkRead отмечает прочитанными уведомления врача из списка
func (r *NotificationRepository) MarkRead(ctx context.Context, doctorID int64, ids []int64) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE doctor_id = $1 AND id = ANY($2)
	`

	affected, err := r.ExecAffected(ctx, query, doctorID, ids)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}

	return affected, nil
}

// ListUnread получает непрочитанные уведомления врача
func (r *NotificationRepository) ListUnread(ctx context.Context, doctorID int64) ([]*model.Notification, error) {
	query := `
		SELECT id, doctor_id, message, is_read, delivered_at, delivery_attempts, next_attempt_at, created_at
		FROM notifications
		WHERE doctor_id = $1 AND is_read = FALSE
		ORDER BY id
	`

	rows, err := r.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list unread notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		var n model.Notification
		err := rows.Scan(&n.ID, &n.DoctorID, &n.Message, &n.IsRead, &n.DeliveredAt, &n.DeliveryAttempts, &n.NextAttemptAt, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// ListUndelivered получает неотправленные уведомления врачей с привязанным аккаунтом.
// Уведомления с отложенной повторной попыткой и исчерпавшие maxAttempts пропускаются.
func (r *NotificationRepository) ListUndelivered(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*model.NotificationDelivery, error) {
	query := `
		SELECT n.id, n.doctor_id, n.message, n.is_read, n.delivered_at, n.delivery_attempts, n.next_attempt_at, n.created_at, u.telegram_id
		FROM notifications n
		JOIN doctors d ON d.id = n.doctor_id
		JOIN users u ON u.id = d.user_id
		WHERE n.delivered_at IS NULL
		  AND n.delivery_attempts < $2
		  AND (n.next_attempt_at IS NULL OR n.next_attempt_at <= $1)
		ORDER BY n.id
		LIMIT $3
	`

	rows, err := r.Query(ctx, query, now, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("list undelivered notifications: %w", err)
	}
	defer rows.Close()

	var deliveries []*model.NotificationDelivery
	for rows.Next() {
		var (
			n      model.Notification
			chatID int64
		)
		err := rows.Scan(&n.ID, &n.DoctorID, &n.Message, &n.IsRead, &n.DeliveredAt, &n.DeliveryAttempts, &n.NextAttemptAt, &n.CreatedAt, &chatID)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		deliveries = append(deliveries, &model.NotificationDelivery{Notification: &n, ChatID: chatID})
	}

	return deliveries, rows.Err()
}

// MarkDelivered фиксирует отправку уведомления в Telegram
func (r *NotificationRepository) MarkDelivered(ctx context.Context, id int64, at time.Time) error {
	affected, err := r.ExecAffected(ctx, `UPDATE notifications SET delivered_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("notification %d not found", id)
	}

	return nil
}

// MarkDeliveryFailed сохраняет число неудачных попыток и откладывает следующую
func (r *NotificationRepository) MarkDeliveryFailed(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE notifications SET delivery_attempts = $2, next_attempt_at = $3 WHERE id = $1`,
		id, attempts, nextAttemptAt,
	)
	if err != nil {
		return fmt.Errorf("mark notification delivery failed: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("notification %d not found", id)
	}

	return nil
}
