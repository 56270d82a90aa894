package app

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"go.uber.org/zap"
)

const deliveryBatchSize = 50

// Sender доставляет текст в чат Telegram
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// DeliveryQueue источник неотправленных уведомлений
type DeliveryQueue interface {
	Pending(ctx context.Context, limit int) ([]*model.NotificationDelivery, error)
	MarkDelivered(ctx context.Context, notificationID int64) error
	// RetryLater откладывает уведомление после неудачной отправки
	RetryLater(ctx context.Context, n *model.Notification) error
}

// Scheduler периодически отправляет врачам новые уведомления
type Scheduler struct {
	queue    DeliveryQueue
	sender   Sender
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewScheduler(queue DeliveryQueue, sender Sender, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		queue:    queue,
		sender:   sender,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Run крутит цикл доставки до отмены ctx или вызова Stop
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting notification delivery", zap.Duration("interval", s.interval))

	// Первый запуск сразу при старте
	s.DeliverPending(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.DeliverPending(ctx)
		case <-s.stopChan:
			s.logger.Info("Notification delivery stopped")
			return nil
		case <-ctx.Done():
			s.logger.Info("Notification delivery cancelled")
			return nil
		}
	}
}

// Stop останавливает цикл доставки
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// DeliverPending отправляет одну пачку и возвращает число доставленных уведомлений.
// Неотправленные откладываются и не занимают место в следующих пачках.
func (s *Scheduler) DeliverPending(ctx context.Context) int {
	pending, err := s.queue.Pending(ctx, deliveryBatchSize)
	if err != nil {
		s.logger.Error("Failed to load pending notifications", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, d := range pending {
		if ctx.Err() != nil {
			break
		}

		if err := s.sender.Send(ctx, d.ChatID, d.Notification.Message); err != nil {
			s.logger.Warn("Failed to send notification",
				zap.Int64("notification_id", d.Notification.ID),
				zap.Int64("chat_id", d.ChatID),
				zap.Error(err),
			)
			if err := s.queue.RetryLater(ctx, d.Notification); err != nil {
				s.logger.Error("Failed to postpone notification",
					zap.Int64("notification_id", d.Notification.ID),
					zap.Error(err),
				)
			}
			continue
		}

		if err := s.queue.MarkDelivered(ctx, d.Notification.ID); err != nil {
			s.logger.Error("Failed to mark notification delivered",
				zap.Int64("notification_id", d.Notification.ID),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}

	if delivered > 0 {
		s.logger.Info("Notifications delivered", zap.Int("count", delivered))
	}

	return delivered
}
