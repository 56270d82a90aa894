package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
)

// ScheduleStore счётчики и лимиты приёма по (врач, дата)
type ScheduleStore interface {
	GetEntry(ctx context.Context, doctorID int64, date time.Time) (*model.ScheduleEntry, error)
	// SetLimits создаёт запись с нулевыми счётчиками или меняет только лимиты
	SetLimits(ctx context.Context, doctorID int64, date time.Time, morningLimit, afternoonLimit int) error
	// AdjustBooked меняет счётчик периода на delta.
	// ErrScheduleNotFound если записи нет, ErrNegativeBookingCount если счётчик ушёл бы в минус.
	AdjustBooked(ctx context.Context, doctorID int64, date time.Time, period model.Period, delta int) error
	// ListByDoctor записи врача с from включительно до to не включительно
	ListByDoctor(ctx context.Context, doctorID int64, from, to time.Time) ([]*model.ScheduleEntry, error)
}

// AppointmentLedger журнал действующих записей к врачам
type AppointmentLedger interface {
	// Create заполняет ID и CreatedAt. ErrDuplicateBooking при повторе кортежа.
	Create(ctx context.Context, a *model.Appointment) error
	Remove(ctx context.Context, id int64) (bool, error)
	Find(ctx context.Context, userID, doctorID int64, date time.Time, period model.Period) (*model.Appointment, error)
	GetByID(ctx context.Context, id int64) (*model.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID int64) ([]*model.Appointment, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Appointment, error)
	ListAll(ctx context.Context) ([]*model.Appointment, error)
}

// NotificationInbox входящие уведомления врачей
type NotificationInbox interface {
	Create(ctx context.Context, n *model.Notification) error
	// MarkRead отмечает прочитанными уведомления врача, чужие и несуществующие id пропускаются
	MarkRead(ctx context.Context, doctorID int64, ids []int64) (int64, error)
	ListUnread(ctx context.Context, doctorID int64) ([]*model.Notification, error)
	// ListUndelivered неотправленные уведомления врачей с привязанным Telegram,
	// у которых меньше maxAttempts неудачных попыток и подошло время следующей
	ListUndelivered(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*model.NotificationDelivery, error)
	MarkDelivered(ctx context.Context, id int64, at time.Time) error
	MarkDeliveryFailed(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time) error
}

type UserDirectory interface {
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
}

type DoctorDirectory interface {
	Create(ctx context.Context, d *model.Doctor) error
	GetByID(ctx context.Context, id int64) (*model.Doctor, error)
	GetByUserID(ctx context.Context, userID int64) (*model.Doctor, error)
	List(ctx context.Context) ([]*model.Doctor, error)
	LinkUser(ctx context.Context, doctorID, userID int64) error
	UpdatePermissions(ctx context.Context, doctorID int64, permissions []model.Capability) error
}

// SlotRepositories репозитории, изменяемые атомарно внутри WithinSlots
type SlotRepositories interface {
	Schedules() ScheduleStore
	Appointments() AppointmentLedger
	Notifications() NotificationInbox
}

// Store общий дескриптор хранилища, создаётся один раз при старте
type Store interface {
	SlotRepositories
	Users() UserDirectory
	Doctors() DoctorDirectory

	// WithinSlots выполняет fn атомарно, удерживая блокировки всех keys.
	// Операции с непересекающимися слотами не блокируют друг друга.
	// Ошибка fn откатывает все изменения, сделанные через tx.
	WithinSlots(ctx context.Context, keys []model.SlotKey, fn func(ctx context.Context, tx SlotRepositories) error) error
}
