package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/medibook/scheduler-api/internal/config"
	"github.com/medibook/scheduler-api/internal/model"
	"github.com/medibook/scheduler-api/internal/repository/postgres"
	"github.com/medibook/scheduler-api/pkg/logger"
)

// Seeds a development database with clinicians, their schedules and a
// pool of patients.
func main() {
	clinicians := flag.Int("clinicians", 5, "number of clinicians to create")
	patients := flag.Int("patients", 20, "number of patients to create")
	seed := flag.Int64("seed", 0, "deterministic seed, 0 for random")
	flag.Parse()

	if *seed != 0 {
		gofakeit.Seed(*seed)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	clinicianRepo := postgres.NewClinicianRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)

	ctx := context.Background()

	for i := 0; i < *clinicians; i++ {
		clinician := &model.Clinician{
			Base:      model.Base{ID: uuid.New()},
			Email:     gofakeit.Email(),
			Name:      "Dr. " + gofakeit.Name(),
			Specialty: gofakeit.RandomString([]string{"general", "dermatology", "cardiology", "pediatrics"}),
			Status:    "active",
		}
		if err := clinicianRepo.Create(ctx, clinician); err != nil {
			log.Fatal(err, "failed to create clinician")
		}

		if err := availabilityRepo.ReplaceWindows(ctx, clinician.ID, weekdayWindows(clinician.ID)); err != nil {
			log.Fatal(err, "failed to create availability windows")
		}

		for _, ct := range consultationTypes(clinician.ID) {
			if err := availabilityRepo.UpsertConsultationType(ctx, ct); err != nil {
				log.Fatal(err, "failed to create consultation type")
			}
		}

		// Everyone takes the same day off around the new year.
		if err := availabilityRepo.AddHoliday(ctx, &model.Holiday{
			Base:        model.Base{ID: uuid.New()},
			ClinicianID: clinician.ID,
			Date:        time.Date(time.Now().Year(), 1, 1, 0, 0, 0, 0, time.UTC),
			Reason:      "new year",
			Recurring:   true,
		}); err != nil {
			log.Fatal(err, "failed to create holiday")
		}

		log.Info("seeded clinician", "name", clinician.Name, "id", clinician.ID.String())
	}

	for i := 0; i < *patients; i++ {
		patient := &model.Patient{
			Base:  model.Base{ID: uuid.New()},
			Email: gofakeit.Email(),
			Name:  gofakeit.Name(),
			Phone: gofakeit.Phone(),
		}
		if err := patientRepo.Create(ctx, patient); err != nil {
			log.Fatal(err, "failed to create patient")
		}
	}

	log.Info("seeding complete", "clinicians", *clinicians, "patients", *patients)
}

func weekdayWindows(clinicianID uuid.UUID) []model.WeeklyWindow {
	windows := make([]model.WeeklyWindow, 0, 5)
	for day := time.Monday; day <= time.Friday; day++ {
		windows = append(windows, model.WeeklyWindow{
			Base:        model.Base{ID: uuid.New()},
			ClinicianID: clinicianID,
			Weekday:     day,
			StartMinute: 9 * 60,
			EndMinute:   17 * 60,
			Enabled:     true,
		})
	}
	return windows
}

func consultationTypes(clinicianID uuid.UUID) []*model.ConsultationType {
	return []*model.ConsultationType{
		{
			Base:         model.Base{ID: uuid.New()},
			ClinicianID:  clinicianID,
			Mode:         model.ConsultationInPerson,
			Fee:          gofakeit.Price(80, 200),
			DurationMins: 30,
		},
		{
			Base:         model.Base{ID: uuid.New()},
			ClinicianID:  clinicianID,
			Mode:         model.ConsultationVideo,
			Fee:          gofakeit.Price(40, 120),
			DurationMins: 20,
		},
	}
}
