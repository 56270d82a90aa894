package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/Freeeeeet/hospital_booking/internal/service"
	"go.uber.org/zap"
)

const demoScheduleDays = 3

type demoDoctor struct {
	doctor model.Doctor
	limit  int
}

var demoDoctors = []demoDoctor{
	{model.Doctor{ID: 1, Name: "Dr. Zhang", Gender: "male", Title: "General practitioner", Department: "General medicine", OfficeNumber: "101", Phone: "1234567890"}, 10},
	{model.Doctor{ID: 2, Name: "Dr. Li", Gender: "female", Title: "Internist", Department: "Internal medicine", OfficeNumber: "102", Phone: "1234567891"}, 8},
	{model.Doctor{ID: 3, Name: "Dr. Wang", Gender: "male", Title: "Surgeon", Department: "Surgery", OfficeNumber: "103", Phone: "1234567892"}, 5},
	{model.Doctor{ID: 4, Name: "Dr. Zhao", Gender: "female", Title: "Pediatrician", Department: "Pediatrics", OfficeNumber: "104", Phone: "1234567893"}, 7},
	{model.Doctor{ID: 5, Name: "Dr. Chen", Gender: "male", Title: "Ophthalmologist", Department: "Ophthalmology", OfficeNumber: "105", Phone: "1234567894"}, 6},
}

// SeedDemo заполняет пустое хранилище демо-врачами и расписанием на три дня.
// Если врачи уже есть, ничего не делает.
func SeedDemo(ctx context.Context, store service.Store, schedules *service.ScheduleService, now time.Time, logger *zap.Logger) error {
	existing, err := store.Doctors().List(ctx)
	if err != nil {
		return fmt.Errorf("list doctors: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("Demo seed skipped, doctors already exist", zap.Int("doctors", len(existing)))
		return nil
	}

	today := model.DateOf(now)
	for _, demo := range demoDoctors {
		doctor := demo.doctor
		doctor.Permissions = append([]model.Capability(nil), model.DefaultCapabilities...)

		if err := store.Doctors().Create(ctx, &doctor); err != nil {
			return fmt.Errorf("create demo doctor %d: %w", doctor.ID, err)
		}

		entries := make([]model.ScheduleInput, 0, demoScheduleDays)
		for day := 0; day < demoScheduleDays; day++ {
			entries = append(entries, model.ScheduleInput{
				Date:           today.AddDate(0, 0, day),
				MorningLimit:   demo.limit,
				AfternoonLimit: demo.limit,
			})
		}

		if err := schedules.SetSchedule(ctx, doctor.ID, entries); err != nil {
			return fmt.Errorf("seed schedule of doctor %d: %w", doctor.ID, err)
		}
	}

	logger.Info("Demo data seeded",
		zap.Int("doctors", len(demoDoctors)),
		zap.Int("days", demoScheduleDays),
	)
	return nil
}
