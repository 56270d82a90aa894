package handlers

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/hospital_booking/internal/controller/render"
	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const (
	usageSetSchedule = "/setschedule <дата> <утро> <день> [<дата> <утро> <день> ...]"
	usageRead        = "/read <id> [<id> ...]"
)

// HandleSchedule показывает расписание врача текстом и картинкой
func (h *Handlers) HandleSchedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	doctor, ok := h.requireDoctor(ctx, b, update, model.CapSetSchedule)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	entries, err := h.scheduleService.GetDoctorSchedule(ctx, doctor.ID)
	if err != nil {
		h.replyError(ctx, b, chatID, "get schedule", err)
		return
	}

	text := formatSchedule(entries)
	if len(entries) == 0 {
		h.sendMessage(ctx, b, chatID, text)
		return
	}

	image, err := render.ScheduleImage(doctor, entries, h.now())
	if err != nil {
		// Картинка необязательна, отправляем текст
		h.logger.Warn("Failed to render schedule image", zap.Int64("doctor_id", doctor.ID), zap.Error(err))
		h.sendMessage(ctx, b, chatID, text)
		return
	}

	h.sendPhoto(ctx, b, chatID, "schedule.png", image, text)
}

// HandleSetSchedule выставляет лимиты приёма
func (h *Handlers) HandleSetSchedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	doctor, ok := h.requireDoctor(ctx, b, update, model.CapSetSchedule)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	entries, err := parseScheduleArgs(commandArgs(update.Message.Text), h.now())
	if err != nil {
		h.replyUsage(ctx, b, chatID, usageSetSchedule, err)
		return
	}

	if err := h.scheduleService.SetSchedule(ctx, doctor.ID, entries); err != nil {
		h.replyError(ctx, b, chatID, "set schedule", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Расписание обновлено: %d дн.\n\nПосмотреть: /schedule", len(entries)))
}

// HandleAppointments показывает записи к врачу
func (h *Handlers) HandleAppointments(ctx context.Context, b *bot.Bot, update *models.Update) {
	doctor, ok := h.requireDoctor(ctx, b, update, model.CapViewAppointments)
	if !ok {
		return
	}

	appointments, err := h.bookingService.DoctorAppointments(ctx, doctor.ID)
	if err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, "list doctor appointments", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, formatAppointments("👥 Записи к вам:", appointments, true, false))
}

// HandleNotifications показывает непрочитанные уведомления
func (h *Handlers) HandleNotifications(ctx context.Context, b *bot.Bot, update *models.Update) {
	doctor, ok := h.requireDoctor(ctx, b, update, model.CapViewNotifications)
	if !ok {
		return
	}

	notifications, err := h.notificationService.Unread(ctx, doctor.ID)
	if err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, "list notifications", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, formatNotifications(notifications))
}

// HandleRead отмечает уведомления прочитанными
func (h *Handlers) HandleRead(ctx context.Context, b *bot.Bot, update *models.Update) {
	doctor, ok := h.requireDoctor(ctx, b, update, model.CapViewNotifications)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	ids, err := parseIDs(commandArgs(update.Message.Text))
	if err != nil {
		h.replyUsage(ctx, b, chatID, usageRead, err)
		return
	}

	updated, err := h.notificationService.MarkRead(ctx, doctor.ID, ids)
	if err != nil {
		h.replyError(ctx, b, chatID, "mark read", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Прочитано: %d", updated))
}
