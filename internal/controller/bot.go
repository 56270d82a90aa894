package controller

import (
	"context"

	"github.com/Freeeeeet/hospital_booking/internal/controller/handlers"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, cmdHandlers *handlers.Handlers, logger *zap.Logger) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// command команда бота и её обработчик
type command struct {
	name        string
	description string
	handler     bot.HandlerFunc
}

func (c *BotController) commands() []command {
	h := c.handlers
	return []command{
		{"start", "🚀 Регистрация", h.HandleStart},
		{"help", "❓ Справка по командам", h.HandleHelp},

		{"doctors", "🩺 Врачи и свободные места", h.HandleDoctors},
		{"book", "📝 Записаться на приём", h.HandleBook},
		{"cancel", "❌ Отменить запись", h.HandleCancel},
		{"mybookings", "📅 Мои записи", h.HandleMyBookings},

		// Команды для врачей
		{"schedule", "🗓 Моё расписание (врач)", h.HandleSchedule},
		{"setschedule", "✏️ Задать лимиты приёма (врач)", h.HandleSetSchedule},
		{"appointments", "👥 Записи ко мне (врач)", h.HandleAppointments},
		{"notifications", "🔔 Уведомления (врач)", h.HandleNotifications},
		{"read", "✔️ Отметить уведомления (врач)", h.HandleRead},

		// Команды для администраторов
		{"allappointments", "📋 Все записи (админ)", h.HandleAllAppointments},
		{"adddoctor", "➕ Добавить врача (админ)", h.HandleAddDoctor},
		{"removeappointment", "🗑 Удалить запись (админ)", h.HandleRemoveAppointment},
		{"linkdoctor", "🔗 Привязать врача (админ)", h.HandleLinkDoctor},
		{"permissions", "🔐 Права врача (админ)", h.HandlePermissions},
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	for _, cmd := range c.commands() {
		// Точное совпадение для команды без аргументов и префикс "/cmd " для команды с аргументами
		c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/"+cmd.name, bot.MatchTypeExact, cmd.handler)
		c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/"+cmd.name+" ", bot.MatchTypePrefix, cmd.handler)
	}

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	cmds := c.commands()
	menu := make([]models.BotCommand, 0, len(cmds))
	for _, cmd := range cmds {
		menu = append(menu, models.BotCommand{Command: cmd.name, Description: cmd.description})
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: menu,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set", zap.Int("commands", len(menu)))
	return nil
}

// Start запускает long polling до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
