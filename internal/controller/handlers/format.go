package handlers

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/hospital_booking/internal/model"
)

const displayDate = "02.01.2006"

func periodName(p model.Period) string {
	if p == model.PeriodMorning {
		return "утро"
	}
	return "день"
}

// formatAvailability список врачей со свободными местами
func formatAvailability(items []*model.DoctorAvailability) string {
	if len(items) == 0 {
		return "Врачей пока нет."
	}

	var sb strings.Builder
	sb.WriteString("🩺 Врачи и свободные места:\n")

	for _, item := range items {
		d := item.Doctor
		fmt.Fprintf(&sb, "\n#%d %s, %s (%s), каб. %s\n", d.ID, d.Name, d.Title, d.Department, d.OfficeNumber)

		if len(item.Dates) == 0 {
			sb.WriteString("   приёма нет\n")
			continue
		}

		for _, date := range item.Dates {
			fmt.Fprintf(&sb, "   %s:", date.Date.Format(displayDate))
			for _, slot := range date.Slots {
				mark := "✅"
				switch {
				case slot.UserBooked:
					mark = "📌"
				case !slot.Available:
					mark = "⛔"
				}
				fmt.Fprintf(&sb, " %s %s %d/%d", mark, periodName(slot.Period), slot.Booked, slot.Limit)
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n✅ есть места  ⛔ мест нет  📌 вы записаны\n")
	sb.WriteString("Записаться: /book <id врача> <дата> <morning|afternoon>")
	return sb.String()
}

// formatSchedule расписание врача с занятостью
func formatSchedule(entries []*model.ScheduleEntry) string {
	if len(entries) == 0 {
		return "🗓 Расписание пустое.\n\nЗадать: /setschedule <дата> <утро> <день>"
	}

	var sb strings.Builder
	sb.WriteString("🗓 Ваше расписание:\n\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s  утро %d/%d  день %d/%d\n",
			e.Date.Format(displayDate),
			e.MorningBooked, e.MorningLimit,
			e.AfternoonBooked, e.AfternoonLimit,
		)
	}
	return sb.String()
}

// formatAppointment одна запись. withPatient и withDoctor управляют подробностями.
func formatAppointment(a *model.Appointment, withPatient, withDoctor bool) string {
	line := fmt.Sprintf("#%d %s %s", a.ID, a.Date.Format(displayDate), periodName(a.Period))

	if withDoctor && a.Doctor != nil {
		line += fmt.Sprintf(", врач #%d %s, каб. %s", a.Doctor.ID, a.Doctor.Name, a.Doctor.OfficeNumber)
	}

	if withPatient {
		patient := "неизвестный пациент"
		if a.User != nil {
			patient = a.User.Name
			if a.User.Username != "" {
				patient += " @" + a.User.Username
			}
		}
		line += ", пациент " + patient
	}

	return line
}

func formatAppointments(title string, appointments []*model.Appointment, withPatient, withDoctor bool) string {
	if len(appointments) == 0 {
		return title + "\n\nЗаписей нет."
	}

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")
	for _, a := range appointments {
		sb.WriteString(formatAppointment(a, withPatient, withDoctor))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatNotifications(notifications []*model.Notification) string {
	if len(notifications) == 0 {
		return "🔔 Новых уведомлений нет."
	}

	var sb strings.Builder
	sb.WriteString("🔔 Непрочитанные уведомления:\n\n")
	for _, n := range notifications {
		fmt.Fprintf(&sb, "#%d %s (%s)\n", n.ID, n.Message, n.CreatedAt.Format("02.01.2006 15:04"))
	}
	sb.WriteString("\nОтметить прочитанными: /read <id> [...]")
	return sb.String()
}

func formatCapabilities(caps []model.Capability) string {
	if len(caps) == 0 {
		return "нет"
	}
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
