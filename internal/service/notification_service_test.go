package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pda-bills-api/internal/models"
)

func sampleEvent() models.NotificationEvent {
	return models.NotificationEvent{
		BillID:     "bill-1",
		EmployeeID: "emp-1",
		Department: models.OverallStudentPurchase,
		Stage:      models.StageSNP,
		Action:     models.ActionHold,
		Remark:     "need vendor quote",
		Actor:      "Asha",
		Timestamp:  fixedNow,
	}
}

type flakyNotifier struct {
	mu       sync.Mutex
	failures int
	calls    int
	received []models.NotificationEvent
}

func (n *flakyNotifier) Name() string { return "flaky" }

func (n *flakyNotifier) Notify(_ context.Context, event models.NotificationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.calls <= n.failures {
		return errors.New("smtp unavailable")
	}
	n.received = append(n.received, event)
	return nil
}

func (n *flakyNotifier) delivered() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.received)
}

type enqueuerStub struct {
	task *asynq.Task
	opts []asynq.Option
	err  error
}

func (s *enqueuerStub) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	s.task = task
	s.opts = opts
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

func TestRedisNotifierPublishesJSON(t *testing.T) {
	client := newServiceRedis(t)
	sub := client.Subscribe(context.Background(), "bills:remarks")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	notifier := NewRedisNotifier(client, "")
	require.NoError(t, notifier.Notify(context.Background(), sampleEvent()))

	select {
	case msg := <-sub.Channel():
		var event models.NotificationEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, "bill-1", event.BillID)
		assert.Equal(t, models.ActionHold, event.Action)
		assert.Equal(t, "need vendor quote", event.Remark)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}

func TestAsynqNotifierEnqueuesTask(t *testing.T) {
	stub := &enqueuerStub{}
	notifier := NewAsynqNotifier(stub, "")

	require.NoError(t, notifier.Notify(context.Background(), sampleEvent()))
	require.NotNil(t, stub.task)
	assert.Equal(t, TaskBillRemark, stub.task.Type())
	assert.Len(t, stub.opts, 3)

	var event models.NotificationEvent
	require.NoError(t, json.Unmarshal(stub.task.Payload(), &event))
	assert.Equal(t, "emp-1", event.EmployeeID)

	stub.err = errors.New("redis down")
	assert.Error(t, notifier.Notify(context.Background(), sampleEvent()))
}

func TestNotificationServiceRetriesDelivery(t *testing.T) {
	notifier := &flakyNotifier{failures: 1}
	metrics := NewMetricsService()
	svc := NewNotificationService(notifier, NotificationConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond}, metrics, nil)
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)

	svc.Publish(sampleEvent())

	assert.Eventually(t, func() bool { return notifier.delivered() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, uint64(1), metrics.Snapshot().NotificationsFailed)
}

func TestNotificationServicePublishNeverFails(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewNotificationService(&flakyNotifier{}, NotificationConfig{}, metrics, nil)

	assert.NotPanics(t, func() { svc.Publish(sampleEvent()) })
	assert.Equal(t, uint64(1), metrics.Snapshot().NotificationsFailed)

	var nilSvc *NotificationService
	assert.NotPanics(t, func() { nilSvc.Publish(sampleEvent()) })
}

func TestLogNotifierAcceptsEvents(t *testing.T) {
	notifier := NewLogNotifier(nil)
	assert.Equal(t, "log", notifier.Name())
	assert.NoError(t, notifier.Notify(context.Background(), sampleEvent()))
}
