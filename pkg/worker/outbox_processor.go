package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/medibook/scheduler-api/internal/model"
	"github.com/medibook/scheduler-api/internal/repository"
	"github.com/medibook/scheduler-api/pkg/logger"
	"github.com/medibook/scheduler-api/pkg/messaging"
	"github.com/medibook/scheduler-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	RetainFor     time.Duration
}

// OutboxProcessor drains pending lifecycle events and publishes them to
// the broker. Failed publishes are rescheduled with a delay until the
// retry budget runs out, then parked as failed for manual inspection.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processEvents(ctx); err != nil {
				p.logger.Error(err, "failed to process events")
			}
		case <-cleanup.C:
			p.cleanupProcessed(ctx)
		}
	}
}

func (p *OutboxProcessor) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.ClaimPendingEvents(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("claim_pending_events", "error").Inc()
		return fmt.Errorf("failed to claim pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("claim_pending_events", "success").Inc()

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
		}
	}
	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	if err := p.broker.Publish(ctx, event.EventType, event.Payload); err != nil {
		p.metrics.OutboxEventsFailed.Inc()
		return p.reschedule(ctx, event, err)
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// reschedule pushes the event's retry time forward, or parks it after the
// last attempt.
func (p *OutboxProcessor) reschedule(ctx context.Context, event *model.OutboxEvent, cause error) error {
	var retryAt *time.Time
	if event.RetryCount+1 < p.config.RetryAttempts {
		next := time.Now().Add(p.config.RetryDelay)
		retryAt = &next
		p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
	} else {
		p.logger.Warn("event exhausted retries, parking as failed",
			"event_id", event.ID.String(),
			"event_type", event.EventType,
			"attempts", event.RetryCount+1)
	}

	if err := p.repo.MarkFailed(ctx, event.ID, cause.Error(), retryAt); err != nil {
		return fmt.Errorf("failed to record publish failure: %w", err)
	}
	return cause
}

func (p *OutboxProcessor) cleanupProcessed(ctx context.Context) {
	if p.config.RetainFor <= 0 {
		return
	}
	deleted, err := p.repo.DeleteProcessedBefore(ctx, time.Now().Add(-p.config.RetainFor))
	if err != nil {
		p.logger.Error(err, "failed to clean up processed events")
		return
	}
	if deleted > 0 {
		p.logger.Info("cleaned up processed events", "deleted", deleted)
	}
}
