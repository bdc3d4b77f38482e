package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/medibook/scheduler-api/internal/config"
	"github.com/medibook/scheduler-api/internal/handler"
	appointmentHandler "github.com/medibook/scheduler-api/internal/handler/appointment"
	availabilityHandler "github.com/medibook/scheduler-api/internal/handler/availability"
	"github.com/medibook/scheduler-api/internal/handler/health"
	notificationHandler "github.com/medibook/scheduler-api/internal/handler/notification"
	"github.com/medibook/scheduler-api/internal/handler/slot"
	"github.com/medibook/scheduler-api/internal/middleware"
	"github.com/medibook/scheduler-api/internal/repository/postgres"
	"github.com/medibook/scheduler-api/internal/router"
	appointmentService "github.com/medibook/scheduler-api/internal/service/appointment"
	availabilityService "github.com/medibook/scheduler-api/internal/service/availability"
	notificationService "github.com/medibook/scheduler-api/internal/service/notification"
	"github.com/medibook/scheduler-api/pkg/logger"
	"github.com/medibook/scheduler-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{
		Level:  level,
		Pretty: cfg.Logging.Pretty,
		Output: os.Stdout,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	appointmentRepo := postgres.NewAppointmentRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)
	clinicianRepo := postgres.NewClinicianRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	m := metrics.NewMetrics("scheduler", "api")
	appointmentSvc := appointmentService.NewService(
		appointmentRepo,
		availabilityRepo,
		clinicianRepo,
		patientRepo,
		appointmentService.NewWindowRefundPolicy(),
		m,
		log,
	)
	availabilitySvc := availabilityService.NewService(availabilityRepo, appointmentRepo, clinicianRepo, log)
	notificationSvc := notificationService.NewService(notificationRepo, clinicianRepo, patientRepo, nil, log)

	handler.RegisterValidations()

	actorMiddleware := middleware.NewActorMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(
		cfg,
		log.Zerolog(),
		actorMiddleware,
		health.NewHandler(db),
		slot.NewHandler(availabilitySvc),
		appointmentHandler.NewHandler(appointmentSvc),
		availabilityHandler.NewHandler(availabilitySvc),
		notificationHandler.NewHandler(notificationSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "forced shutdown")
	}
	log.Info("server stopped")
}
