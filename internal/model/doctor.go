package model

import (
	"fmt"
	"slices"
	"strings"
)

// Capability право врача в системе
type Capability string

const (
	CapSetSchedule       Capability = "set_schedule"
	CapViewAppointments  Capability = "view_appointments"
	CapViewNotifications Capability = "view_notifications"
)

// DefaultCapabilities набор прав нового врача
var DefaultCapabilities = []Capability{CapSetSchedule, CapViewAppointments, CapViewNotifications}

// ParseCapability разбирает имя права
func ParseCapability(s string) (Capability, error) {
	c := Capability(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(DefaultCapabilities, c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCapability, s)
	}
	return c, nil
}

type Doctor struct {
	ID           int64        `json:"id"`
	UserID       *int64       `json:"user_id"` // Привязанный аккаунт, может быть nil
	Name         string       `json:"name"`
	Gender       string       `json:"gender"`
	Title        string       `json:"title"`
	Department   string       `json:"department"`
	OfficeNumber string       `json:"office_number"`
	Phone        string       `json:"phone"`
	Permissions  []Capability `json:"permissions"`
}

// Can проверяет наличие права
func (d *Doctor) Can(c Capability) bool {
	return slices.Contains(d.Permissions, c)
}
