package handlers

import (
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService         *service.UserService
	bookingService      *service.BookingService
	scheduleService     *service.ScheduleService
	availabilityService *service.AvailabilityService
	notificationService *service.NotificationService
	limiter             *UserLimiter
	now                 func() time.Time
	logger              *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	bookingService *service.BookingService,
	scheduleService *service.ScheduleService,
	availabilityService *service.AvailabilityService,
	notificationService *service.NotificationService,
	limiter *UserLimiter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:         userService,
		bookingService:      bookingService,
		scheduleService:     scheduleService,
		availabilityService: availabilityService,
		notificationService: notificationService,
		limiter:             limiter,
		now:                 time.Now,
		logger:              logger,
	}
}
