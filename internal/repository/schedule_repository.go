package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/Freeeeeet/hospital_booking/internal/repository/base"
)

type ScheduleRepository struct {
	*base.Repository
}

func NewScheduleRepository(db base.DBTX) *ScheduleRepository {
	return &ScheduleRepository{Repository: base.NewRepository(db)}
}

// GetEntry получает счётчики врача на дату
func (r *ScheduleRepository) GetEntry(ctx context.Context, doctorID int64, date time.Time) (*model.ScheduleEntry, error) {
	query := `
		SELECT id, doctor_id, date, morning_booked, morning_limit, afternoon_booked, afternoon_limit
		FROM doctor_schedules
		WHERE doctor_id = $1 AND date = $2
	`

	var entry model.ScheduleEntry
	err := r.QueryRow(ctx, query, doctorID, model.DateOf(date)).Scan(
		&entry.ID,
		&entry.DoctorID,
		&entry.Date,
		&entry.MorningBooked,
		&entry.MorningLimit,
		&entry.AfternoonBooked,
		&entry.AfternoonLimit,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get schedule entry: %w", err)
	}

	return &entry, nil
}

// SetLimits создаёт запись с нулевыми счётчиками или обновляет только лимиты
func (r *ScheduleRepository) SetLimits(ctx context.Context, doctorID int64, date time.Time, morningLimit, afternoonLimit int) error {
	query := `
		INSERT INTO doctor_schedules (doctor_id, date, morning_booked, morning_limit, afternoon_booked, afternoon_limit)
		VALUES ($1, $2, 0, $3, 0, $4)
		ON CONFLICT (doctor_id, date) DO UPDATE
		SET morning_limit = EXCLUDED.morning_limit,
		    afternoon_limit = EXCLUDED.afternoon_limit
	`

	_, err := r.ExecAffected(ctx, query, doctorID, model.DateOf(date), morningLimit, afternoonLimit)
	if err != nil {
		if base.IsForeignKeyViolation(err) {
			return fmt.Errorf("set limits: %w", model.ErrDoctorNotFound)
		}
		return fmt.Errorf("set limits: %w", err)
	}

	return nil
}

// AdjustBooked блокирует строку и меняет счётчик периода
func (r *ScheduleRepository) AdjustBooked(ctx context.Context, doctorID int64, date time.Time, period model.Period, delta int) error {
	column := "morning_booked"
	if period == model.PeriodAfternoon {
		column = "afternoon_booked"
	}
	day := model.DateOf(date)

	var current int
	err := r.QueryRow(ctx,
		`SELECT `+column+` FROM doctor_schedules WHERE doctor_id = $1 AND date = $2 FOR UPDATE`,
		doctorID, day,
	).Scan(&current)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("adjust booked %d/%s: %w", doctorID, day.Format(model.DateLayout), model.ErrScheduleNotFound)
		}
		return fmt.Errorf("lock schedule entry: %w", err)
	}

	if current+delta < 0 {
		return fmt.Errorf("adjust booked %d/%s/%s: %w", doctorID, day.Format(model.DateLayout), period, model.ErrNegativeBookingCount)
	}

	_, err = r.ExecAffected(ctx,
		`UPDATE doctor_schedules SET `+column+` = `+column+` + $3 WHERE doctor_id = $1 AND date = $2`,
		doctorID, day, delta,
	)
	if err != nil {
		return fmt.Errorf("adjust booked: %w", err)
	}

	return nil
}

// ListByDoctor получает записи расписания врача в диапазоне дат
func (r *ScheduleRepository) ListByDoctor(ctx context.Context, doctorID int64, from, to time.Time) ([]*model.ScheduleEntry, error) {
	query := `
		SELECT id, doctor_id, date, morning_booked, morning_limit, afternoon_booked, afternoon_limit
		FROM doctor_schedules
		WHERE doctor_id = $1
		  AND date >= $2
		  AND date < $3
		ORDER BY date
	`

	rows, err := r.Query(ctx, query, doctorID, model.DateOf(from), model.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.ScheduleEntry
	for rows.Next() {
		var entry model.ScheduleEntry
		err := rows.Scan(
			&entry.ID,
			&entry.DoctorID,
			&entry.Date,
			&entry.MorningBooked,
			&entry.MorningLimit,
			&entry.AfternoonBooked,
			&entry.AfternoonLimit,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
