package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/folio-studio/folio/pkg/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DeadLetterExchange = "folio_dlq"
	DeadLetterQueue    = "thumbnail_jobs_dlq"
	RetryQueue         = "thumbnail_jobs_retry"

	DefaultMaxRetries = 3

	baseRetryDelay = 30 * time.Second
	maxRetryDelay  = 10 * time.Minute
)

// setupDeadLetterQueue declares the dead letter exchange and queue, and a
// retry queue whose expired messages flow back to the job queue
func (q *Queue) setupDeadLetterQueue() error {
	err := q.channel.ExchangeDeclare(
		DeadLetterExchange,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	_, err = q.channel.QueueDeclare(
		DeadLetterQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	err = q.channel.QueueBind(
		DeadLetterQueue,
		DeadLetterQueue,
		DeadLetterExchange,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	// Messages wait here until their expiration, then dead-letter back onto
	// the job queue.
	_, err = q.channel.QueueDeclare(
		RetryQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange":    ExchangeName,
			"x-dead-letter-routing-key": ThumbnailQueueName,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	return nil
}

// PublishToRetryQueue schedules another attempt of a failed job, or moves it
// to the dead letter queue once it has used up its retries
func (q *Queue) PublishToRetryQueue(ctx context.Context, job *models.ThumbnailJob, reason string) error {
	if job.Attempt+1 >= q.maxRetries {
		return q.PublishToDeadLetterQueue(ctx, job, reason)
	}

	retry := *job
	retry.Attempt++

	body, err := json.Marshal(&retry)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	delay := calculateBackoffDelay(retry.Attempt)

	err = q.pub.PublishWithContext(ctx,
		"", // default exchange routes by queue name
		RetryQueue,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    retry.ID,
			Body:         body,
			Expiration:   fmt.Sprintf("%d", delay.Milliseconds()),
			Headers: amqp.Table{
				"x-retry-count":    int32(retry.Attempt),
				"x-failure-reason": reason,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to retry queue: %w", err)
	}

	q.logger.WithJobID(job.ID).WithWorkID(job.WorkID).WithFields(map[string]interface{}{
		"attempt": retry.Attempt,
		"delay":   delay.String(),
		"reason":  reason,
	}).Warn("Thumbnail job scheduled for retry")

	return nil
}

// PublishToDeadLetterQueue parks a job that will not be retried
func (q *Queue) PublishToDeadLetterQueue(ctx context.Context, job *models.ThumbnailJob, reason string) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.pub.PublishWithContext(ctx,
		DeadLetterExchange,
		DeadLetterQueue,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    job.ID,
			Body:         body,
			Headers: amqp.Table{
				"x-failure-reason": reason,
				"x-failed-at":      time.Now().Unix(),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to DLQ: %w", err)
	}

	q.logger.WithJobID(job.ID).WithWorkID(job.WorkID).WithField("reason", reason).
		Error("Thumbnail job moved to dead letter queue")

	return nil
}

// GetDLQDepth returns the number of messages in the dead letter queue
func (q *Queue) GetDLQDepth() (int, error) {
	info, err := q.channel.QueueInspect(DeadLetterQueue)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect DLQ: %w", err)
	}

	return info.Messages, nil
}

// calculateBackoffDelay doubles the delay per attempt, capped at maxRetryDelay
func calculateBackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := time.Duration(float64(baseRetryDelay) * math.Pow(2, float64(attempt-1)))
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
