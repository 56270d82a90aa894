package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"go.uber.org/zap"
)

type UserService struct {
	store    Store
	adminIDs map[int64]struct{}
	logger   *zap.Logger
}

// NewUserService adminTelegramIDs получают роль администратора при регистрации
func NewUserService(store Store, adminTelegramIDs []int64, logger *zap.Logger) *UserService {
	admins := make(map[int64]struct{}, len(adminTelegramIDs))
	for _, id := range adminTelegramIDs {
		admins[id] = struct{}{}
	}

	return &UserService{
		store:    store,
		adminIDs: admins,
		logger:   logger,
	}
}

// Register регистрирует или обновляет пользователя
func (s *UserService) Register(ctx context.Context, telegramID int64, username, name string) (*model.User, error) {
	_, isAdmin := s.adminIDs[telegramID]

	// Проверяем существует ли пользователь
	existingUser, err := s.store.Users().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	// Если пользователь уже существует, обновляем данные
	if existingUser != nil {
		existingUser.Username = username
		existingUser.Name = name

		switch {
		case isAdmin:
			existingUser.Role = model.RoleAdmin
		case existingUser.Role == model.RoleAdmin:
			// id убрали из ADMIN_TELEGRAM_IDS
			role, err := s.roleWithoutAdmin(ctx, existingUser.ID)
			if err != nil {
				return nil, err
			}
			existingUser.Role = role
			s.logger.Info("Admin role revoked",
				zap.Int64("telegram_id", telegramID),
				zap.String("role", string(role)),
			)
		}

		if err := s.store.Users().Update(ctx, existingUser); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		s.logger.Debug("User updated",
			zap.Int64("telegram_id", telegramID),
			zap.String("username", username),
		)

		return existingUser, nil
	}

	user := &model.User{
		TelegramID: telegramID,
		Username:   username,
		Name:       name,
		Role:       model.RoleUser,
	}
	if isAdmin {
		user.Role = model.RoleAdmin
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
		zap.String("role", string(user.Role)),
	)

	return user, nil
}

// roleWithoutAdmin роль бывшего администратора: врач, если к нему привязан профиль
func (s *UserService) roleWithoutAdmin(ctx context.Context, userID int64) (model.Role, error) {
	doctor, err := s.store.Doctors().GetByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get linked doctor: %w", err)
	}
	if doctor != nil {
		return model.RoleDoctor, nil
	}
	return model.RoleUser, nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.store.Users().GetByTelegramID(ctx, telegramID)
}

// DoctorForUser получает профиль врача, привязанный к аккаунту, или nil
func (s *UserService) DoctorForUser(ctx context.Context, userID int64) (*model.Doctor, error) {
	return s.store.Doctors().GetByUserID(ctx, userID)
}

// ListDoctors получает всех врачей
func (s *UserService) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	return s.store.Doctors().List(ctx)
}

// CreateDoctor добавляет профиль врача (администратор).
// Без явных прав врач получает DefaultCapabilities.
func (s *UserService) CreateDoctor(ctx context.Context, doctor *model.Doctor) error {
	doctor.Name = strings.TrimSpace(doctor.Name)
	if doctor.Name == "" {
		return model.ErrDoctorNameEmpty
	}

	if len(doctor.Permissions) == 0 {
		doctor.Permissions = slices.Clone(model.DefaultCapabilities)
	}
	for _, p := range doctor.Permissions {
		if _, err := model.ParseCapability(string(p)); err != nil {
			return err
		}
	}

	if err := s.store.Doctors().Create(ctx, doctor); err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}

	s.logger.Info("Doctor created",
		zap.Int64("doctor_id", doctor.ID),
		zap.String("name", doctor.Name),
		zap.String("department", doctor.Department),
	)

	return nil
}

// LinkDoctor привязывает Telegram-аккаунт к профилю врача (администратор)
func (s *UserService) LinkDoctor(ctx context.Context, telegramID, doctorID int64) (*model.Doctor, error) {
	user, err := s.store.Users().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}

	if err := s.store.Doctors().LinkUser(ctx, doctorID, user.ID); err != nil {
		return nil, err
	}

	// Администратор остаётся администратором
	if user.Role == model.RoleUser {
		user.Role = model.RoleDoctor
		if err := s.store.Users().Update(ctx, user); err != nil {
			return nil, fmt.Errorf("update user role: %w", err)
		}
	}

	doctor, err := s.store.Doctors().GetByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}

	s.logger.Info("Doctor linked to account",
		zap.Int64("doctor_id", doctorID),
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
	)

	return doctor, nil
}

// UpdatePermissions заменяет набор прав врача (администратор)
func (s *UserService) UpdatePermissions(ctx context.Context, doctorID int64, permissions []model.Capability) error {
	for _, p := range permissions {
		if _, err := model.ParseCapability(string(p)); err != nil {
			return err
		}
	}

	if err := s.store.Doctors().UpdatePermissions(ctx, doctorID, permissions); err != nil {
		return err
	}

	s.logger.Info("Doctor permissions updated",
		zap.Int64("doctor_id", doctorID),
		zap.Any("permissions", permissions),
	)

	return nil
}
