package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
)

var (
	errBadDate  = errors.New("unrecognized date")
	errPastDate = errors.New("date is in the past")
)

// Форматы с годом и без него. Без года подставляется текущий.
var (
	dateLayoutsWithYear = []string{model.DateLayout, "2.1.2006"}
	dateLayoutsNoYear   = []string{"2.1", "1月2日"}
)

// periodAliases подписи периодов, которые понимает бот
var periodAliases = map[string]model.Period{
	"morning":   model.PeriodMorning,
	"am":        model.PeriodMorning,
	"утро":      model.PeriodMorning,
	"上午":        model.PeriodMorning,
	"afternoon": model.PeriodAfternoon,
	"pm":        model.PeriodAfternoon,
	"день":      model.PeriodAfternoon,
	"下午":        model.PeriodAfternoon,
}

// parseDate приводит дату из сообщения к календарному дню. Прошедшие дни отклоняются.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	today := model.DateOf(now)

	for _, layout := range dateLayoutsWithYear {
		if t, err := time.Parse(layout, s); err == nil {
			return notPast(model.DateOf(t), today)
		}
	}

	for _, layout := range dateLayoutsNoYear {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(today.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			if d.Month() != t.Month() {
				// 29.02 в невисокосный год
				break
			}
			return notPast(d, today)
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", errBadDate, s)
}

func notPast(d, today time.Time) (time.Time, error) {
	if d.Before(today) {
		return time.Time{}, fmt.Errorf("%w: %s", errPastDate, d.Format(model.DateLayout))
	}
	return d, nil
}

// parsePeriod понимает канонические имена и локальные подписи
func parsePeriod(s string) (model.Period, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if p, ok := periodAliases[key]; ok {
		return p, nil
	}
	return model.ParsePeriod(s)
}

// parseID разбирает положительный числовой идентификатор
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseLimit(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", s)
	}
	if v < 0 {
		return 0, model.ErrInvalidLimit
	}
	return v, nil
}

// commandArgs аргументы команды без самой команды
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// parseDoctorArgs разбирает "<имя>; <отделение>; <должность>; <кабинет>; <телефон>".
// Обязательно только имя, поля разделены точкой с запятой, чтобы в них были пробелы.
func parseDoctorArgs(text string) (*model.Doctor, error) {
	_, rest, _ := strings.Cut(strings.TrimSpace(text), " ")
	parts := strings.Split(rest, ";")
	if len(parts) > 5 {
		return nil, errors.New("expected at most 5 fields separated by ';'")
	}

	fields := make([]string, 5)
	for i, p := range parts {
		fields[i] = strings.TrimSpace(p)
	}
	if fields[0] == "" {
		return nil, model.ErrDoctorNameEmpty
	}

	return &model.Doctor{
		Name:         fields[0],
		Department:   fields[1],
		Title:        fields[2],
		OfficeNumber: fields[3],
		Phone:        fields[4],
	}, nil
}

// parseSlot разбирает "<doctor_id> <date> <period>"
func parseSlot(args []string, now time.Time) (doctorID int64, date time.Time, period model.Period, err error) {
	if len(args) != 3 {
		return 0, time.Time{}, "", errors.New("expected <doctor_id> <date> <period>")
	}

	if doctorID, err = parseID(args[0]); err != nil {
		return 0, time.Time{}, "", err
	}
	if date, err = parseDate(args[1], now); err != nil {
		return 0, time.Time{}, "", err
	}
	if period, err = parsePeriod(args[2]); err != nil {
		return 0, time.Time{}, "", err
	}
	return doctorID, date, period, nil
}

// parseScheduleArgs разбирает тройки "<date> <morning_limit> <afternoon_limit>"
func parseScheduleArgs(args []string, now time.Time) ([]model.ScheduleInput, error) {
	if len(args) == 0 || len(args)%3 != 0 {
		return nil, errors.New("expected <date> <morning_limit> <afternoon_limit> [...]")
	}

	entries := make([]model.ScheduleInput, 0, len(args)/3)
	for i := 0; i < len(args); i += 3 {
		date, err := parseDate(args[i], now)
		if err != nil {
			return nil, err
		}
		morning, err := parseLimit(args[i+1])
		if err != nil {
			return nil, err
		}
		afternoon, err := parseLimit(args[i+2])
		if err != nil {
			return nil, err
		}
		entries = append(entries, model.ScheduleInput{
			Date:           date,
			MorningLimit:   morning,
			AfternoonLimit: afternoon,
		})
	}
	return entries, nil
}

// parseIDs разбирает список id через пробел или запятую
func parseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseCapabilities(args []string) ([]model.Capability, error) {
	var caps []model.Capability
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part == "" {
				continue
			}
			c, err := model.ParseCapability(part)
			if err != nil {
				return nil, err
			}
			caps = append(caps, c)
		}
	}
	return caps, nil
}
