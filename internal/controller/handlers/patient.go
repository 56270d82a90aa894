package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	usageBook   = "/book <id врача> <дата> <morning|afternoon>"
	usageCancel = "/cancel <id врача> <дата> <morning|afternoon>"
)

// HandleDoctors показывает врачей и свободные места
func (h *Handlers) HandleDoctors(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	items, err := h.availabilityService.ListAvailability(ctx, user.ID)
	if err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, "list availability", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, formatAvailability(items))
}

// HandleBook записывает пользователя на приём
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	doctorID, date, period, err := parseSlot(commandArgs(update.Message.Text), h.now())
	if err != nil {
		h.replyUsage(ctx, b, chatID, usageBook, err)
		return
	}

	if !h.allowBooking(ctx, b, update) {
		return
	}

	appointment, err := h.bookingService.Book(ctx, user.ID, doctorID, date, period)
	if err != nil {
		h.replyError(ctx, b, chatID, "book", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf(
		"✅ Вы записаны!\n\nЗапись #%d\nДата: %s\nПериод: %s\nКод записи: %s",
		appointment.ID,
		appointment.Date.Format(displayDate),
		periodName(appointment.Period),
		appointment.Reference,
	))
}

// HandleCancel отменяет запись пользователя
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	doctorID, date, period, err := parseSlot(commandArgs(update.Message.Text), h.now())
	if err != nil {
		h.replyUsage(ctx, b, chatID, usageCancel, err)
		return
	}

	if !h.allowBooking(ctx, b, update) {
		return
	}

	if err := h.bookingService.Cancel(ctx, user.ID, doctorID, date, period); err != nil {
		h.replyError(ctx, b, chatID, "cancel", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Запись на %s (%s) отменена.", date.Format(displayDate), periodName(period)))
}

// HandleMyBookings показывает записи пользователя
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	appointments, err := h.bookingService.UserAppointments(ctx, user.ID)
	if err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, "list user appointments", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, formatAppointments("📅 Ваши записи:", appointments, false, true))
}
