package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/library-seat-api/internal/models"
	"github.com/noah-isme/library-seat-api/pkg/jobs"
)

const jobTypeSeatAssigned = "seat.assigned"

type eventPublisher interface {
	Publish(ctx context.Context, queue string, payload interface{}) error
}

// EventConfig configures asynchronous event delivery.
type EventConfig struct {
	Queue jobs.QueueConfig
	Topic string
}

// EventService hands seat events to a worker pool that publishes them with retries.
// A nil EventService discards events.
type EventService struct {
	publisher eventPublisher
	queue     *jobs.Queue
	topic     string
	logger    *zap.Logger
}

// NewEventService wires the worker pool around publisher. Call Start before publishing.
func NewEventService(publisher eventPublisher, metrics *MetricsService, logger *zap.Logger, cfg EventConfig) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Topic == "" {
		cfg.Topic = jobTypeSeatAssigned
	}
	svc := &EventService{publisher: publisher, topic: cfg.Topic, logger: logger}

	qcfg := cfg.Queue
	qcfg.Logger = logger
	qcfg.OnDrop = func(job jobs.Job, err error) {
		metrics.RecordEventDropped()
		logger.Error("seat event dropped", zap.String("event_id", job.ID), zap.Error(err))
	}
	svc.queue = jobs.NewQueue("events", svc.deliver, qcfg)
	return svc
}

// Start launches the delivery workers.
func (s *EventService) Start(ctx context.Context) {
	if s == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop waits for in-flight deliveries to finish.
func (s *EventService) Stop() {
	if s == nil {
		return
	}
	s.queue.Stop()
}

// SeatAssigned enqueues a seat.assigned event. Failures are logged, never returned to the workflow.
func (s *EventService) SeatAssigned(ctx context.Context, event models.SeatAssignedEvent) {
	if s == nil {
		return
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	job := jobs.Job{ID: event.EventID, Type: jobTypeSeatAssigned, Payload: event}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.logger.Warn("failed to enqueue seat event", zap.String("booking_id", event.BookingID), zap.Error(err))
	}
}

func (s *EventService) deliver(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.SeatAssignedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	return s.publisher.Publish(ctx, s.topic, event)
}
