package handlers

import (
	"bytes"
	"context"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireUser проверяет что пользователь зарегистрирован
// Возвращает user и true если OK, nil и false если нет
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.GetByTelegramID(ctx, telegramID)

	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, msgInternalError)
		return nil, false
	}

	if user == nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Пользователь не найден. Используйте /start для регистрации.")
		return nil, false
	}

	return user, true
}

// requireDoctor проверяет что аккаунт привязан к врачу и у врача есть право capability
func (h *Handlers) requireDoctor(ctx context.Context, b *bot.Bot, update *models.Update, capability model.Capability) (*model.Doctor, bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, false
	}

	doctor, err := h.userService.DoctorForUser(ctx, user.ID)
	if err != nil {
		h.logger.Error("Failed to get doctor for user", zap.Int64("user_id", user.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, msgInternalError)
		return nil, false
	}

	if doctor == nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Эта команда доступна только врачам.")
		return nil, false
	}

	if !doctor.Can(capability) {
		h.logger.Info("Doctor lacks capability",
			zap.Int64("doctor_id", doctor.ID),
			zap.String("capability", string(capability)),
		)
		h.sendError(ctx, b, update.Message.Chat.ID, errorText(model.ErrPermissionDenied))
		return nil, false
	}

	return doctor, true
}

// requireAdmin проверяет роль администратора
func (h *Handlers) requireAdmin(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, false
	}

	if !user.IsAdmin() {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Эта команда доступна только администраторам.")
		return nil, false
	}

	return user, true
}

// allowBooking проверяет лимит частоты записи и отмены
func (h *Handlers) allowBooking(ctx context.Context, b *bot.Bot, update *models.Update) bool {
	if h.limiter == nil || h.limiter.Allow(update.Message.From.ID) {
		return true
	}

	h.logger.Info("Booking command throttled", zap.Int64("telegram_id", update.Message.From.ID))
	h.sendError(ctx, b, update.Message.Chat.ID, "⏳ Слишком много запросов. Попробуйте через минуту.")
	return false
}

// replyError сообщает пользователю причину отказа или общую ошибку
func (h *Handlers) replyError(ctx context.Context, b *bot.Bot, chatID int64, op string, err error) {
	if model.IsConsistencyError(err) || errorText(err) == msgInternalError {
		h.logger.Error("Command failed", zap.String("op", op), zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.sendError(ctx, b, chatID, errorText(err))
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (h *Handlers) sendPhoto(ctx context.Context, b *bot.Bot, chatID int64, filename string, data []byte, caption string) {
	_, err := b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(data)},
		Caption: caption,
	})
	if err != nil {
		h.logger.Error("Failed to send photo",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
