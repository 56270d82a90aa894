package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	usageAddDoctor   = "/adddoctor <имя>; <отделение>; <должность>; <кабинет>; <телефон>"
	usageRemove      = "/removeappointment <id записи>"
	usageLinkDoctor  = "/linkdoctor <telegram id> <id врача>"
	usagePermissions = "/permissions <id врача> <set_schedule,view_appointments,view_notifications>"
)

// HandleAllAppointments показывает все записи
func (h *Handlers) HandleAllAppointments(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireAdmin(ctx, b, update); !ok {
		return
	}

	appointments, err := h.bookingService.AllAppointments(ctx)
	if err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, "list appointments", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, formatAppointments("📋 Все записи:", appointments, true, true))
}

// HandleRemoveAppointment удаляет запись по id с освобождением места
func (h *Handlers) HandleRemoveAppointment(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireAdmin(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		h.replyUsage(ctx, b, chatID, usageRemove, nil)
		return
	}
	id, err := parseID(args[0])
	if err != nil {
		h.replyUsage(ctx, b, chatID, usageRemove, err)
		return
	}

	appointment, err := h.bookingService.CancelByID(ctx, id)
	if err != nil {
		h.replyError(ctx, b, chatID, "remove appointment", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Удалена запись "+formatAppointment(appointment, false, false))
}

// HandleAddDoctor добавляет врача с правами по умолчанию
func (h *Handlers) HandleAddDoctor(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireAdmin(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	doctor, err := parseDoctorArgs(update.Message.Text)
	if err != nil {
		h.replyUsage(ctx, b, chatID, usageAddDoctor, err)
		return
	}

	if err := h.userService.CreateDoctor(ctx, doctor); err != nil {
		h.replyError(ctx, b, chatID, "create doctor", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf(
		"✅ Добавлен врач #%d %s\nПривязать аккаунт: /linkdoctor <telegram id> %d\nЗадать расписание врач может командой /setschedule",
		doctor.ID, doctor.Name, doctor.ID,
	))
}

// HandleLinkDoctor привязывает Telegram-аккаунт к врачу
func (h *Handlers) HandleLinkDoctor(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireAdmin(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) != 2 {
		h.replyUsage(ctx, b, chatID, usageLinkDoctor, nil)
		return
	}
	telegramID, err := parseID(args[0])
	if err != nil {
		h.replyUsage(ctx, b, chatID, usageLinkDoctor, err)
		return
	}
	doctorID, err := parseID(args[1])
	if err != nil {
		h.replyUsage(ctx, b, chatID, usageLinkDoctor, err)
		return
	}

	doctor, err := h.userService.LinkDoctor(ctx, telegramID, doctorID)
	if err != nil {
		h.replyError(ctx, b, chatID, "link doctor", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Аккаунт %d привязан к врачу #%d %s", telegramID, doctor.ID, doctor.Name))
}

// HandlePermissions заменяет права врача
func (h *Handlers) HandlePermissions(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireAdmin(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) < 1 {
		h.replyUsage(ctx, b, chatID, usagePermissions, nil)
		return
	}
	doctorID, err := parseID(args[0])
	if err != nil {
		h.replyUsage(ctx, b, chatID, usagePermissions, err)
		return
	}
	caps, err := parseCapabilities(args[1:])
	if err != nil {
		h.replyUsage(ctx, b, chatID, usagePermissions, err)
		return
	}

	if err := h.userService.UpdatePermissions(ctx, doctorID, caps); err != nil {
		h.replyError(ctx, b, chatID, "update permissions", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Права врача #%d: %s", doctorID, formatCapabilities(caps)))
}
