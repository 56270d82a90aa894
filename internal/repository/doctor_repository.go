package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/Freeeeeet/hospital_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const doctorColumns = `id, user_id, name, gender, title, department, office_number, phone, permissions`

type DoctorRepository struct {
	*base.Repository
}

func NewDoctorRepository(db base.DBTX) *DoctorRepository {
	return &DoctorRepository{Repository: base.NewRepository(db)}
}

// Create создаёт врача. Если ID задан явно, сдвигает последовательность.
func (r *DoctorRepository) Create(ctx context.Context, d *model.Doctor) error {
	permissions := capabilitiesToStrings(d.Permissions)

	if d.ID == 0 {
		query := `
			INSERT INTO doctors (user_id, name, gender, title, department, office_number, phone, permissions)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		err := r.QueryRow(ctx, query,
			d.UserID, d.Name, d.Gender, d.Title, d.Department, d.OfficeNumber, d.Phone, permissions,
		).Scan(&d.ID)
		if err != nil {
			return fmt.Errorf("create doctor: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO doctors (id, user_id, name, gender, title, department, office_number, phone, permissions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.ExecAffected(ctx, query,
		d.ID, d.UserID, d.Name, d.Gender, d.Title, d.Department, d.OfficeNumber, d.Phone, permissions,
	)
	if err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}

	_, err = r.ExecAffected(ctx,
		`SELECT setval(pg_get_serial_sequence('doctors', 'id'), (SELECT MAX(id) FROM doctors))`)
	if err != nil {
		return fmt.Errorf("advance doctors sequence: %w", err)
	}

	return nil
}

// GetByID получает врача по ID
func (r *DoctorRepository) GetByID(ctx context.Context, id int64) (*model.Doctor, error) {
	d, err := scanDoctor(r.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get doctor by id: %w", err)
	}
	return d, nil
}

// GetByUserID получает врача, привязанного к аккаунту
func (r *DoctorRepository) GetByUserID(ctx context.Context, userID int64) (*model.Doctor, error) {
	d, err := scanDoctor(r.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE user_id = $1`, userID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get doctor by user id: %w", err)
	}
	return d, nil
}

// List получает всех врачей
func (r *DoctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	rows, err := r.Query(ctx, `SELECT `+doctorColumns+` FROM doctors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var doctors []*model.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		doctors = append(doctors, d)
	}

	return doctors, rows.Err()
}

// LinkUser привязывает аккаунт пользователя к врачу
func (r *DoctorRepository) LinkUser(ctx context.Context, doctorID, userID int64) error {
	affected, err := r.ExecAffected(ctx, `UPDATE doctors SET user_id = $2 WHERE id = $1`, doctorID, userID)
	if err != nil {
		switch {
		case base.IsForeignKeyViolation(err):
			return fmt.Errorf("link doctor: %w", model.ErrUserNotFound)
		case base.IsUniqueViolation(err):
			return fmt.Errorf("link doctor: user %d already linked to another doctor", userID)
		}
		return fmt.Errorf("link doctor: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("link doctor: %w", model.ErrDoctorNotFound)
	}

	return nil
}

// UpdatePermissions заменяет набор прав врача
func (r *DoctorRepository) UpdatePermissions(ctx context.Context, doctorID int64, permissions []model.Capability) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE doctors SET permissions = $2 WHERE id = $1`,
		doctorID, capabilitiesToStrings(permissions),
	)
	if err != nil {
		return fmt.Errorf("update permissions: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update permissions: %w", model.ErrDoctorNotFound)
	}

	return nil
}

func scanDoctor(row pgx.Row) (*model.Doctor, error) {
	var (
		d           model.Doctor
		permissions []string
	)
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Gender,
		&d.Title,
		&d.Department,
		&d.OfficeNumber,
		&d.Phone,
		&permissions,
	)
	if err != nil {
		return nil, err
	}

	d.Permissions = make([]model.Capability, 0, len(permissions))
	for _, p := range permissions {
		d.Permissions = append(d.Permissions, model.Capability(p))
	}
	return &d, nil
}

func capabilitiesToStrings(caps []model.Capability) []string {
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		out = append(out, string(c))
	}
	return out
}
