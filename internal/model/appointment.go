package model

import (
	"time"

	"github.com/google/uuid"
)

type Appointment struct {
	ID        int64     `json:"id"`
	Reference uuid.UUID `json:"reference"` // Код записи, который видит пациент
	UserID    int64     `json:"user_id"`
	DoctorID  int64     `json:"doctor_id"`
	Date      time.Time `json:"date"`
	Period    Period    `json:"period"`
	CreatedAt time.Time `json:"created_at"`

	// Дополнительные поля для удобства (не из БД)
	User   *User   `json:"user,omitempty"`
	Doctor *Doctor `json:"doctor,omitempty"`
}

// Slot возвращает ключ слота записи
func (a *Appointment) Slot() SlotKey {
	return NewSlotKey(a.DoctorID, a.Date, a.Period)
}
