package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/pda-bills-api/internal/models"
	"github.com/noah-isme/pda-bills-api/pkg/jobs"
)

// TaskBillRemark is the asynq task type consumed by the external mailer.
const TaskBillRemark = "bill:remark"

// Notifier delivers remark change events to the outside world.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, event models.NotificationEvent) error
}

// LogNotifier writes events to the structured log. It is the default driver
// for local development.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a log notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Name implements Notifier.
func (n *LogNotifier) Name() string { return "log" }

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, event models.NotificationEvent) error {
	n.logger.Info("bill remark notification",
		zap.String("bill_id", event.BillID),
		zap.String("employee_id", event.EmployeeID),
		zap.String("department", string(event.Department)),
		zap.String("action", string(event.Action)),
		zap.String("remark", event.Remark),
		zap.Time("timestamp", event.Timestamp))
	return nil
}

// RedisNotifier publishes events as JSON on a Redis pub/sub channel.
type RedisNotifier struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisNotifier constructs a Redis notifier.
func NewRedisNotifier(client redis.UniversalClient, channel string) *RedisNotifier {
	if channel == "" {
		channel = "bills:remarks"
	}
	return &RedisNotifier{client: client, channel: channel}
}

// Name implements Notifier.
func (n *RedisNotifier) Name() string { return "redis" }

// Notify implements Notifier.
func (n *RedisNotifier) Notify(ctx context.Context, event models.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqNotifier hands events to the mailer as asynq tasks.
type AsynqNotifier struct {
	client taskEnqueuer
	queue  string
}

// NewAsynqNotifier constructs an asynq notifier.
func NewAsynqNotifier(client taskEnqueuer, queue string) *AsynqNotifier {
	if queue == "" {
		queue = "mail"
	}
	return &AsynqNotifier{client: client, queue: queue}
}

// Name implements Notifier.
func (n *AsynqNotifier) Name() string { return "asynq" }

// Notify implements Notifier.
func (n *AsynqNotifier) Notify(ctx context.Context, event models.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	task := asynq.NewTask(TaskBillRemark, payload)
	taskID := fmt.Sprintf("%s:%s:%d", event.BillID, event.Action, event.Timestamp.UnixNano())
	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue(n.queue), asynq.TaskID(taskID), asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue notification task: %w", err)
	}
	return nil
}

// NotificationConfig tunes the dispatcher worker pool.
type NotificationConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// NotificationService delivers events on background workers so failures never
// reach the committed workflow transition.
type NotificationService struct {
	notifier Notifier
	queue    *jobs.Queue[models.NotificationEvent]
	metrics  *MetricsService
	logger   *zap.Logger
	timeout  time.Duration
}

// NewNotificationService constructs the dispatcher.
func NewNotificationService(notifier Notifier, cfg NotificationConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	svc := &NotificationService{notifier: notifier, metrics: metrics, logger: logger, timeout: cfg.Timeout}
	svc.queue = jobs.NewQueue("notifications", svc.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnGiveUp: func(jobID, jobType string, err error) {
			logger.Error("notification dropped", zap.String("job_id", jobID), zap.Error(err))
		},
	})
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop halts the delivery workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Publish schedules delivery of event. Failures are logged, never returned.
func (s *NotificationService) Publish(event models.NotificationEvent) {
	if s == nil {
		return
	}
	job := jobs.Job[models.NotificationEvent]{ID: uuid.NewString(), Type: string(event.Action), Payload: event}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordNotification(s.notifier.Name(), err)
		s.logger.Error("failed to enqueue notification", zap.String("bill_id", event.BillID), zap.Error(err))
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job[models.NotificationEvent]) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.notifier.Notify(ctx, job.Payload)
	s.metrics.RecordNotification(s.notifier.Name(), err)
	return err
}
