package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/folio-studio/folio/internal/config"
	"github.com/folio-studio/folio/internal/logging"
	"github.com/folio-studio/folio/internal/metrics"
	"github.com/folio-studio/folio/pkg/models"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ThumbnailQueueName = "thumbnail_jobs"
	ExchangeName       = "folio"
)

// Handler processes one thumbnail job. A returned error schedules a retry.
type Handler func(ctx context.Context, job *models.ThumbnailJob) error

// publisher is the part of *amqp.Channel used to route messages
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Queue provides message queue operations
type Queue struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	pub        publisher
	maxRetries int
	logger     *logging.Logger
}

// New creates a new queue client and declares the job, retry and dead
// letter topology
func New(cfg config.QueueConfig, logger *logging.Logger) (*Queue, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Vhost)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q := newQueue(channel, cfg.MaxRetries, logger)
	q.conn = conn
	q.channel = channel

	if err := q.declare(); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return q, nil
}

func newQueue(pub publisher, maxRetries int, logger *logging.Logger) *Queue {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Queue{pub: pub, maxRetries: maxRetries, logger: logger}
}

func (q *Queue) declare() error {
	err := q.channel.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = q.channel.QueueDeclare(
		ThumbnailQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = q.channel.QueueBind(
		ThumbnailQueueName,
		ThumbnailQueueName,
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	return q.setupDeadLetterQueue()
}

// Close closes the queue connection
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// PublishThumbnailJob publishes a thumbnail job to the queue
func (q *Queue) PublishThumbnailJob(ctx context.Context, job *models.ThumbnailJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.pub.PublishWithContext(ctx,
		ExchangeName,
		ThumbnailQueueName,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    job.ID,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	return nil
}

// ConsumeThumbnailJobs runs workers goroutines delivering jobs to handler
// until ctx is cancelled or the channel closes. Failed jobs go to the retry
// queue, and to the dead letter queue once retries run out.
func (q *Queue) ConsumeThumbnailJobs(ctx context.Context, workers int, handler Handler) error {
	if workers < 1 {
		workers = 1
	}

	// One unacked job per worker; frame selection is CPU bound.
	err := q.channel.Qos(
		workers, // prefetch count
		0,       // prefetch size
		false,   // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := q.channel.Consume(
		ThumbnailQueueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-msgs:
					if !ok {
						return
					}
					q.handleDelivery(ctx, msg, handler)
				}
			}
		}()
	}

	return nil
}

// handleDelivery runs handler on one message and settles it
func (q *Queue) handleDelivery(ctx context.Context, msg amqp.Delivery, handler Handler) {
	var job models.ThumbnailJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		q.logger.WithError(err).Warn("Dropping malformed thumbnail job")
		metrics.RecordError("worker", "malformed_job")
		msg.Nack(false, false)
		return
	}

	err := handler(ctx, &job)
	if err == nil {
		msg.Ack(false)
		return
	}

	if err := q.PublishToRetryQueue(ctx, &job, err.Error()); err != nil {
		q.logger.WithJobID(job.ID).WithError(err).Error("Failed to reschedule thumbnail job")
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}

// GetQueueDepth returns the number of messages in the queue
func (q *Queue) GetQueueDepth() (int, error) {
	info, err := q.channel.QueueInspect(ThumbnailQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue: %w", err)
	}

	return info.Messages, nil
}
