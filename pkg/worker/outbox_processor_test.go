package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/scheduler-api/internal/model"
	"github.com/medibook/scheduler-api/pkg/logger"
	"github.com/medibook/scheduler-api/pkg/metrics"
)

type fakeOutboxRepo struct {
	pending   []*model.OutboxEvent
	processed []uuid.UUID
	failed    map[uuid.UUID]*time.Time
}

func (r *fakeOutboxRepo) ClaimPendingEvents(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	var claimed []*model.OutboxEvent
	for _, evt := range r.pending {
		if len(claimed) == limit {
			break
		}
		if evt.Status != model.OutboxStatusPending {
			continue
		}
		evt.Status = model.OutboxStatusProcessing
		claimed = append(claimed, evt)
	}
	return claimed, nil
}

func (r *fakeOutboxRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	r.processed = append(r.processed, id)
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, _ string, retryAt *time.Time) error {
	if r.failed == nil {
		r.failed = make(map[uuid.UUID]*time.Time)
	}
	r.failed[id] = retryAt
	return nil
}

func (r *fakeOutboxRepo) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeBroker struct {
	published map[string][][]byte
	fail      bool
}

func (b *fakeBroker) Publish(_ context.Context, channel string, message interface{}) error {
	if b.fail {
		return errors.New("broker unavailable")
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if b.published == nil {
		b.published = make(map[string][][]byte)
	}
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *fakeBroker) Close() error { return nil }

var testMetrics = metrics.NewMetrics("scheduler_test", "outbox")

func newProcessor(repo *fakeOutboxRepo, broker *fakeBroker) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Minute,
	}, logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard}), testMetrics)
}

func pendingEvent(retries int) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:         uuid.New(),
		EventType:  model.EventAppointmentBooked,
		Payload:    []byte(`{"type":"appointment.booked"}`),
		Status:     model.OutboxStatusPending,
		RetryCount: retries,
	}
}

func TestProcessEventsPublishesAndMarksProcessed(t *testing.T) {
	evt := pendingEvent(0)
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{evt}}
	broker := &fakeBroker{}

	require.NoError(t, newProcessor(repo, broker).processEvents(context.Background()))

	assert.Equal(t, []uuid.UUID{evt.ID}, repo.processed)
	require.Len(t, broker.published[model.EventAppointmentBooked], 1)
	assert.JSONEq(t, `{"type":"appointment.booked"}`, string(broker.published[model.EventAppointmentBooked][0]))
}

func TestClaimedEventsAreNotPublishedTwice(t *testing.T) {
	evt := pendingEvent(0)
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{evt}}
	broker := &fakeBroker{}
	p := newProcessor(repo, broker)

	// A second drain pass must not see the already-claimed event.
	require.NoError(t, p.processEvents(context.Background()))
	require.NoError(t, p.processEvents(context.Background()))

	assert.Len(t, broker.published[model.EventAppointmentBooked], 1)
	assert.Equal(t, []uuid.UUID{evt.ID}, repo.processed)
}

func TestFailedPublishSchedulesRetry(t *testing.T) {
	evt := pendingEvent(0)
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{evt}}

	require.NoError(t, newProcessor(repo, &fakeBroker{fail: true}).processEvents(context.Background()))

	assert.Empty(t, repo.processed)
	retryAt, ok := repo.failed[evt.ID]
	require.True(t, ok)
	require.NotNil(t, retryAt, "retries remaining, event should be rescheduled")
	assert.True(t, retryAt.After(time.Now()))
}

func TestExhaustedRetriesParkEvent(t *testing.T) {
	evt := pendingEvent(2)
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{evt}}

	require.NoError(t, newProcessor(repo, &fakeBroker{fail: true}).processEvents(context.Background()))

	retryAt, ok := repo.failed[evt.ID]
	require.True(t, ok)
	assert.Nil(t, retryAt, "no retries left, event should be parked")
}
