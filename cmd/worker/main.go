package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/medibook/scheduler-api/internal/config"
	"github.com/medibook/scheduler-api/internal/model"
	"github.com/medibook/scheduler-api/internal/repository/postgres"
	notificationService "github.com/medibook/scheduler-api/internal/service/notification"
	"github.com/medibook/scheduler-api/pkg/logger"
	"github.com/medibook/scheduler-api/pkg/messaging"
	"github.com/medibook/scheduler-api/pkg/messaging/redis"
	"github.com/medibook/scheduler-api/pkg/metrics"
	"github.com/medibook/scheduler-api/pkg/worker"
)

var lifecycleChannels = []string{
	model.EventAppointmentBooked,
	model.EventAppointmentConfirmed,
	model.EventAppointmentStarted,
	model.EventAppointmentCompleted,
	model.EventAppointmentCancelled,
	model.EventAppointmentNoShow,
}

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

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log.Zerolog())
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics("scheduler", "worker")
	processor := worker.NewOutboxProcessor(
		postgres.NewOutboxRepository(db),
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
			RetainFor:     cfg.Outbox.RetainFor,
		},
		log,
		m,
	)

	var mailer notificationService.Mailer
	if cfg.SMTP.Enabled {
		mailer = notificationService.NewSMTPMailer(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Username,
			cfg.SMTP.Password,
			cfg.SMTP.From,
		)
	}
	notifier := notificationService.NewService(
		postgres.NewNotificationRepository(db),
		postgres.NewClinicianRepository(db),
		postgres.NewPatientRepository(db),
		mailer,
		log,
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()

	for _, channel := range lifecycleChannels {
		wg.Add(1)
		go func(channel string) {
			defer wg.Done()
			consumeChannel(ctx, broker, channel, notifier, log)
		}(channel)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down worker")
	cancel()
	wg.Wait()
	log.Info("worker stopped")
}

// consumeChannel turns published lifecycle events into notifications.
func consumeChannel(ctx context.Context, broker messaging.Broker, channel string, notifier *notificationService.Service, log *logger.Logger) {
	messages, err := broker.Subscribe(ctx, channel)
	if err != nil {
		log.Error(err, "failed to subscribe", "channel", channel)
		return
	}
	log.Info("subscribed", "channel", channel)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var evt model.AppointmentEvent
			if err := json.Unmarshal(msg, &evt); err != nil {
				log.Error(err, "failed to decode event", "channel", channel)
				continue
			}
			if err := notifier.HandleEvent(ctx, &evt); err != nil {
				log.Error(err, "failed to handle event",
					"channel", channel,
					"appointment_id", evt.AppointmentID.String())
			}
		}
	}
}
