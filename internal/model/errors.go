package model

import "errors"

// Отказы, о которых сообщаем пользователю
var (
	ErrScheduleUnavailable = errors.New("doctor has no open schedule for this date")
	ErrSlotFull            = errors.New("no free places left in this period")
	ErrDuplicateBooking    = errors.New("appointment for this slot already exists")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Нарушения согласованности счётчиков и журнала записей
var (
	ErrScheduleNotFound     = errors.New("schedule entry not found")
	ErrNegativeBookingCount = errors.New("booking counter would become negative")
)

// Ошибки валидации
var (
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrInvalidLimit      = errors.New("limit must be non-negative")
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrDoctorNameEmpty   = errors.New("doctor name is required")
	ErrUserNotFound      = errors.New("user not found")
	ErrNoNotificationIDs = errors.New("no notification ids provided")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidCapability = errors.New("unknown capability")
)

// IsConsistencyError true для ошибок, которые означают баг или обход аллокатора.
// Такие ошибки отдаются наружу как внутренние.
func IsConsistencyError(err error) bool {
	return errors.Is(err, ErrScheduleNotFound) || errors.Is(err, ErrNegativeBookingCount)
}
