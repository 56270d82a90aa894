package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Справка по командам:\n\n" +
	"Для пациентов:\n" +
	"/start - Регистрация\n" +
	"/doctors - Врачи и свободные места\n" +
	"/book <id врача> <дата> <morning|afternoon> - Записаться\n" +
	"/cancel <id врача> <дата> <morning|afternoon> - Отменить запись\n" +
	"/mybookings - Мои записи\n\n" +
	"Для врачей:\n" +
	"/schedule - Моё расписание\n" +
	"/setschedule <дата> <утро> <день> [...] - Задать лимиты приёма\n" +
	"/appointments - Записи ко мне\n" +
	"/notifications - Новые уведомления\n" +
	"/read <id> [...] - Отметить уведомления прочитанными\n\n" +
	"Для администраторов:\n" +
	"/allappointments - Все записи\n" +
	"/adddoctor <имя>; <отделение>; ... - Добавить врача\n" +
	"/removeappointment <id> - Удалить запись\n" +
	"/linkdoctor <telegram id> <id врача> - Привязать аккаунт к врачу\n" +
	"/permissions <id врача> <права через запятую> - Права врача\n\n" +
	"Даты: 2025-06-01, 01.06.2025, 01.06 или 6月1日"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)

	user, err := h.userService.Register(ctx, from.ID, from.Username, name)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Int64("telegram_id", from.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	welcome := fmt.Sprintf(
		"👋 Здравствуйте, %s!\n\n"+
			"Это бот записи на приём к врачу.\n"+
			"Ваша роль: %s\n\n"+
			"Посмотреть врачей и свободные места: /doctors\n"+
			"Все команды: /help",
		user.Name,
		user.Role,
	)

	h.sendMessage(ctx, b, update.Message.Chat.ID, welcome)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// replyUsage на понятную ошибку разбора отвечает её текстом, иначе подсказкой по формату
func (h *Handlers) replyUsage(ctx context.Context, b *bot.Bot, chatID int64, usage string, err error) {
	text := errorText(err)
	if text == msgInternalError {
		text = "ℹ️ Формат: " + usage
	}
	h.sendError(ctx, b, chatID, text)
}
