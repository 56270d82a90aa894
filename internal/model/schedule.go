package model

import (
	"fmt"
	"strings"
	"time"
)

// Period половина дня, на которую записываются к врачу
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
)

// Periods все периоды в порядке отображения
var Periods = []Period{PeriodMorning, PeriodAfternoon}

// Valid проверяет что период один из двух допустимых
func (p Period) Valid() bool {
	return p == PeriodMorning || p == PeriodAfternoon
}

// ParsePeriod разбирает каноническое имя периода
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

// DateLayout формат календарной даты во всех внутренних представлениях
const DateLayout = "2006-01-02"

// DateOf приводит момент времени к календарному дню (полночь UTC).
// День берётся в локации t.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ScheduleEntry счётчики приёма врача на конкретную дату
type ScheduleEntry struct {
	ID              int64     `json:"id"`
	DoctorID        int64     `json:"doctor_id"`
	Date            time.Time `json:"date"`
	MorningBooked   int       `json:"morning_booked"`
	MorningLimit    int       `json:"morning_limit"`
	AfternoonBooked int       `json:"afternoon_booked"`
	AfternoonLimit  int       `json:"afternoon_limit"`
}

// Counts возвращает занятые места и лимит для периода
func (e *ScheduleEntry) Counts(p Period) (booked, limit int) {
	if p == PeriodMorning {
		return e.MorningBooked, e.MorningLimit
	}
	return e.AfternoonBooked, e.AfternoonLimit
}

// HasCapacity true если в периоде ещё есть свободные места
func (e *ScheduleEntry) HasCapacity(p Period) bool {
	booked, limit := e.Counts(p)
	return booked < limit
}

// SlotKey идентифицирует слот: врач, дата, период
type SlotKey struct {
	DoctorID int64
	Date     time.Time
	Period   Period
}

// NewSlotKey создаёт ключ с нормализованной датой
func NewSlotKey(doctorID int64, date time.Time, period Period) SlotKey {
	return SlotKey{DoctorID: doctorID, Date: DateOf(date), Period: period}
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.DoctorID, k.Date.Format(DateLayout), k.Period)
}

// DayKeys ключи обоих периодов одной даты
func DayKeys(doctorID int64, date time.Time) []SlotKey {
	keys := make([]SlotKey, 0, len(Periods))
	for _, p := range Periods {
		keys = append(keys, NewSlotKey(doctorID, date, p))
	}
	return keys
}

// ScheduleInput лимиты, которые врач выставляет на дату
type ScheduleInput struct {
	Date           time.Time `json:"date"`
	MorningLimit   int       `json:"morning_limit"`
	AfternoonLimit int       `json:"afternoon_limit"`
}
