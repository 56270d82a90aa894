package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/Freeeeeet/hospital_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const appointmentColumns = `id, reference, user_id, doctor_id, date, period, created_at`

type AppointmentRepository struct {
	*base.Repository
}

func NewAppointmentRepository(db base.DBTX) *AppointmentRepository {
	return &AppointmentRepository{Repository: base.NewRepository(db)}
}

// Create добавляет запись в журнал
func (r *AppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (reference, user_id, doctor_id, date, period)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	a.Date = model.DateOf(a.Date)
	err := r.QueryRow(
		ctx, query,
		a.Reference,
		a.UserID,
		a.DoctorID,
		a.Date,
		string(a.Period),
	).Scan(&a.ID, &a.CreatedAt)

	if err != nil {
		switch {
		case base.IsUniqueViolation(err):
			return fmt.Errorf("create appointment: %w", model.ErrDuplicateBooking)
		case base.IsForeignKeyViolation(err) && base.ConstraintName(err) == "appointments_user_id_fkey":
			return fmt.Errorf("create appointment: %w", model.ErrUserNotFound)
		case base.IsForeignKeyViolation(err):
			return fmt.Errorf("create appointment: %w", model.ErrDoctorNotFound)
		}
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

// Remove удаляет запись, возвращает false если её не было
func (r *AppointmentRepository) Remove(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("remove appointment: %w", err)
	}
	return affected > 0, nil
}

// Find ищет запись пользователя на конкретный слот
func (r *AppointmentRepository) Find(ctx context.Context, userID, doctorID int64, date time.Time, period model.Period) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE user_id = $1 AND doctor_id = $2 AND date = $3 AND period = $4
	`

	a, err := scanAppointment(r.QueryRow(ctx, query, userID, doctorID, model.DateOf(date), string(period)))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}

	return a, nil
}

// GetByID получает запись по ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	a, err := scanAppointment(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}

	return a, nil
}

// ListByDoctor получает все записи к врачу
func (r *AppointmentRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE doctor_id = $1 ORDER BY date, id`
	return r.list(ctx, "list appointments by doctor", query, doctorID)
}

// ListByUser получает все записи пользователя
func (r *AppointmentRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE user_id = $1 ORDER BY date, id`
	return r.list(ctx, "list appointments by user", query, userID)
}

// ListAll получает все записи
func (r *AppointmentRepository) ListAll(ctx context.Context) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY date, id`
	return r.list(ctx, "list appointments", query)
}

func (r *AppointmentRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Appointment, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}

	return appointments, rows.Err()
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var (
		a      model.Appointment
		period string
	)
	err := row.Scan(
		&a.ID,
		&a.Reference,
		&a.UserID,
		&a.DoctorID,
		&a.Date,
		&period,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Period = model.Period(period)
	return &a, nil
}
