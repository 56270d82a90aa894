package handlers

import (
	"errors"

	"github.com/Freeeeeet/hospital_booking/internal/model"
)

const msgInternalError = "❌ Произошла ошибка. Попробуйте позже."

// rejections тексты отказов по доменным ошибкам
var rejections = []struct {
	err  error
	text string
}{
	{model.ErrScheduleUnavailable, "❌ У врача нет приёма в этот день."},
	{model.ErrSlotFull, "❌ Свободных мест на этот период нет."},
	{model.ErrDuplicateBooking, "❌ Вы уже записаны на этот период."},
	{model.ErrAppointmentNotFound, "❌ Запись не найдена."},
	{model.ErrInvalidPeriod, "❌ Период должен быть morning или afternoon."},
	{model.ErrInvalidLimit, "❌ Лимит должен быть неотрицательным числом."},
	{model.ErrDoctorNotFound, "❌ Врач не найден."},
	{model.ErrDoctorNameEmpty, "❌ Укажите имя врача."},
	{model.ErrUserNotFound, "❌ Пользователь не найден."},
	{model.ErrNoNotificationIDs, "❌ Укажите хотя бы один номер уведомления."},
	{model.ErrPermissionDenied, "❌ Недостаточно прав для этой команды."},
	{model.ErrInvalidCapability, "❌ Неизвестное право. Доступны: set_schedule, view_appointments, view_notifications."},
	{errBadDate, "❌ Не удалось разобрать дату. Форматы: 2025-06-01, 01.06.2025, 01.06, 6月1日."},
	{errPastDate, "❌ Дата уже прошла."},
}

// errorText текст ответа пользователю. Ошибки согласованности и неизвестные ошибки
// превращаются в общее сообщение без подробностей.
func errorText(err error) string {
	if model.IsConsistencyError(err) {
		return msgInternalError
	}

	for _, r := range rejections {
		if errors.Is(err, r.err) {
			return r.text
		}
	}

	return msgInternalError
}
