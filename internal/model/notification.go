package model

import "time"

type Notification struct {
	ID               int64      `json:"id"`
	DoctorID         int64      `json:"doctor_id"`
	Message          string     `json:"message"`
	IsRead           bool       `json:"is_read"`
	DeliveredAt      *time.Time `json:"delivered_at"`      // nil пока не отправлено в Telegram
	DeliveryAttempts int        `json:"delivery_attempts"` // Неудачные попытки отправки
	NextAttemptAt    *time.Time `json:"next_attempt_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NotificationDelivery уведомление вместе с чатом, куда его доставить
type NotificationDelivery struct {
	Notification *Notification
	ChatID       int64
}
