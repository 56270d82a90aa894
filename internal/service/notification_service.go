package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"go.uber.org/zap"
)

// Повторная отправка: задержка удваивается от deliveryRetryBase до deliveryRetryMax,
// после MaxDeliveryAttempts неудач уведомление больше не отправляется
const (
	MaxDeliveryAttempts = 8
	deliveryRetryBase   = time.Minute
	deliveryRetryMax    = time.Hour
)

// NotificationService входящие уведомления врачей
type NotificationService struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

func NewNotificationService(store Store, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// Push добавляет врачу непрочитанное уведомление
func (s *NotificationService) Push(ctx context.Context, doctorID int64, message string) (*model.Notification, error) {
	return s.push(ctx, s.store.Notifications(), doctorID, message)
}

// push пишет уведомление через переданный inbox, в том числе внутри транзакции записи
func (s *NotificationService) push(ctx context.Context, inbox NotificationInbox, doctorID int64, message string) (*model.Notification, error) {
	notification := &model.Notification{
		DoctorID: doctorID,
		Message:  message,
	}

	if err := inbox.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	s.logger.Debug("Notification queued",
		zap.Int64("notification_id", notification.ID),
		zap.Int64("doctor_id", doctorID),
	)

	return notification, nil
}

// MarkRead отмечает уведомления врача прочитанными. Чужие и неизвестные id пропускаются.
func (s *NotificationService) MarkRead(ctx context.Context, doctorID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, model.ErrNoNotificationIDs
	}

	affected, err := s.store.Notifications().MarkRead(ctx, doctorID, ids)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}

	s.logger.Info("Notifications marked read",
		zap.Int64("doctor_id", doctorID),
		zap.Int("requested", len(ids)),
		zap.Int64("updated", affected),
	)

	return affected, nil
}

// Unread получает непрочитанные уведомления врача
func (s *NotificationService) Unread(ctx context.Context, doctorID int64) ([]*model.Notification, error) {
	return s.store.Notifications().ListUnread(ctx, doctorID)
}

// Pending уведомления, которые ещё не отправлены в Telegram
func (s *NotificationService) Pending(ctx context.Context, limit int) ([]*model.NotificationDelivery, error) {
	return s.store.Notifications().ListUndelivered(ctx, s.now(), MaxDeliveryAttempts, limit)
}

// MarkDelivered фиксирует отправку. Прочитанность не меняется.
func (s *NotificationService) MarkDelivered(ctx context.Context, notificationID int64) error {
	return s.store.Notifications().MarkDelivered(ctx, notificationID, s.now())
}

// RetryLater учитывает неудачную отправку и откладывает следующую попытку.
// Пока уведомление ждёт, Pending его не возвращает.
func (s *NotificationService) RetryLater(ctx context.Context, n *model.Notification) error {
	attempts := n.DeliveryAttempts + 1
	next := s.now().Add(retryDelay(attempts))

	if err := s.store.Notifications().MarkDeliveryFailed(ctx, n.ID, attempts, next); err != nil {
		return err
	}
	n.DeliveryAttempts = attempts
	n.NextAttemptAt = &next

	if attempts >= MaxDeliveryAttempts {
		s.logger.Warn("Notification delivery abandoned",
			zap.Int64("notification_id", n.ID),
			zap.Int64("doctor_id", n.DoctorID),
			zap.Int("attempts", attempts),
		)
	}

	return nil
}

func retryDelay(attempts int) time.Duration {
	delay := deliveryRetryBase
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= deliveryRetryMax {
			return deliveryRetryMax
		}
	}
	return delay
}
