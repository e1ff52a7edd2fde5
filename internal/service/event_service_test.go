package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/library-seat-api/internal/models"
	"github.com/noah-isme/library-seat-api/pkg/jobs"
)

type fakePublisher struct {
	mu       sync.Mutex
	failures int
	queues   []string
	events   []models.SeatAssignedEvent
}

func (f *fakePublisher) Publish(ctx context.Context, queue string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unavailable")
	}
	f.queues = append(f.queues, queue)
	f.events = append(f.events, payload.(models.SeatAssignedEvent))
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func TestEventServiceDeliversWithRetry(t *testing.T) {
	pub := &fakePublisher{failures: 1}
	svc := NewEventService(pub, nil, nil, EventConfig{Queue: jobs.QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond}})
	svc.Start(context.Background())
	defer svc.Stop()

	svc.SeatAssigned(context.Background(), models.SeatAssignedEvent{BookingID: "17", StudentID: "A001", SeatNumber: 1})

	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"seat.assigned"}, pub.queues)
	assert.NotEmpty(t, pub.events[0].EventID)
}

func TestEventServiceCountsDroppedEvents(t *testing.T) {
	metrics := NewMetricsService()
	pub := &fakePublisher{failures: 10}
	svc := NewEventService(pub, metrics, nil, EventConfig{Topic: "seats", Queue: jobs.QueueConfig{MaxRetries: 0, RetryDelay: time.Millisecond}})
	svc.Start(context.Background())
	defer svc.Stop()

	svc.SeatAssigned(context.Background(), models.SeatAssignedEvent{BookingID: "9"})

	require.Eventually(t, func() bool { return testutil.ToFloat64(metrics.eventsDropped) == 1 }, time.Second, 5*time.Millisecond)
}

func TestNilEventServiceIsNoop(t *testing.T) {
	var svc *EventService
	svc.Start(context.Background())
	svc.SeatAssigned(context.Background(), models.SeatAssignedEvent{BookingID: "1"})
	svc.Stop()
}
