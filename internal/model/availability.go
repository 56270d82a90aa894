package model

import "time"

// SlotAvailability состояние одного периода для конкретного пользователя
type SlotAvailability struct {
	Period     Period `json:"period"`
	Booked     int    `json:"booked"`
	Limit      int    `json:"limit"`
	Available  bool   `json:"available"`
	UserBooked bool   `json:"user_booked"`
}

type DateAvailability struct {
	Date  time.Time          `json:"date"`
	Slots []SlotAvailability `json:"slots"`
}

type DoctorAvailability struct {
	Doctor *Doctor            `json:"doctor"`
	Dates  []DateAvailability `json:"available_times"`
}
