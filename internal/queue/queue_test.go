package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/folio-studio/folio/pkg/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

type fakeAck struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *fakeAck) Ack(tag uint64, multiple bool) error {
	a.acked++
	return nil
}

func (a *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *fakeAck) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func delivery(t *testing.T, job *models.ThumbnailJob, ack *fakeAck) amqp.Delivery {
	body, err := json.Marshal(job)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func TestCalculateBackoffDelay(t *testing.T) {
	assert.Equal(t, 30*time.Second, calculateBackoffDelay(0))
	assert.Equal(t, 30*time.Second, calculateBackoffDelay(1))
	assert.Equal(t, 60*time.Second, calculateBackoffDelay(2))
	assert.Equal(t, 2*time.Minute, calculateBackoffDelay(3))
	assert.Equal(t, maxRetryDelay, calculateBackoffDelay(10))
}

func TestPublishThumbnailJob(t *testing.T) {
	pub := &fakePublisher{}
	q := newQueue(pub, 3, nil)

	ts := 12.5
	job := &models.ThumbnailJob{WorkID: 4, MediaKey: "works/4/media/a.mp4", Timestamp: &ts}
	require.NoError(t, q.PublishThumbnailJob(context.Background(), job))

	assert.NotEmpty(t, job.ID)
	assert.False(t, job.CreatedAt.IsZero())
	require.Len(t, pub.sent, 1)
	assert.Equal(t, ExchangeName, pub.sent[0].exchange)
	assert.Equal(t, ThumbnailQueueName, pub.sent[0].key)
	assert.Equal(t, amqp.Persistent, pub.sent[0].msg.DeliveryMode)

	var decoded models.ThumbnailJob
	require.NoError(t, json.Unmarshal(pub.sent[0].msg.Body, &decoded))
	assert.Equal(t, job.ID, decoded.ID)
	assert.Equal(t, models.ThumbnailModeManual, decoded.Mode())
	assert.Equal(t, 12.5, *decoded.Timestamp)
}

func TestHandleDelivery_Success(t *testing.T) {
	pub := &fakePublisher{}
	q := newQueue(pub, 3, nil)
	ack := &fakeAck{}

	var got *models.ThumbnailJob
	q.handleDelivery(context.Background(), delivery(t, &models.ThumbnailJob{ID: "j1", WorkID: 1}, ack),
		func(ctx context.Context, job *models.ThumbnailJob) error {
			got = job
			return nil
		})

	require.NotNil(t, got)
	assert.Equal(t, "j1", got.ID)
	assert.Equal(t, 1, ack.acked)
	assert.Empty(t, pub.sent)
}

func TestHandleDelivery_RetriesThenDeadLetters(t *testing.T) {
	pub := &fakePublisher{}
	q := newQueue(pub, 3, nil)
	failing := func(ctx context.Context, job *models.ThumbnailJob) error {
		return errors.New("decode failed")
	}

	ack := &fakeAck{}
	q.handleDelivery(context.Background(), delivery(t, &models.ThumbnailJob{ID: "j1", WorkID: 1}, ack), failing)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, RetryQueue, pub.sent[0].key)
	assert.Equal(t, "30000", pub.sent[0].msg.Expiration)
	assert.Equal(t, 1, ack.acked)

	var retried models.ThumbnailJob
	require.NoError(t, json.Unmarshal(pub.sent[0].msg.Body, &retried))
	assert.Equal(t, 1, retried.Attempt)

	ack = &fakeAck{}
	q.handleDelivery(context.Background(), delivery(t, &models.ThumbnailJob{ID: "j1", WorkID: 1, Attempt: 2}, ack), failing)

	require.Len(t, pub.sent, 2)
	assert.Equal(t, DeadLetterExchange, pub.sent[1].exchange)
	assert.Equal(t, DeadLetterQueue, pub.sent[1].key)
	assert.Equal(t, "decode failed", pub.sent[1].msg.Headers["x-failure-reason"])
	assert.Equal(t, 1, ack.acked)
}

func TestHandleDelivery_RequeuesWhenRescheduleFails(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	q := newQueue(pub, 3, nil)
	ack := &fakeAck{}

	q.handleDelivery(context.Background(), delivery(t, &models.ThumbnailJob{ID: "j1"}, ack),
		func(ctx context.Context, job *models.ThumbnailJob) error {
			return errors.New("boom")
		})

	assert.Equal(t, 0, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.True(t, ack.requeue)
}

func TestHandleDelivery_MalformedBody(t *testing.T) {
	q := newQueue(&fakePublisher{}, 3, nil)
	ack := &fakeAck{}
	called := false

	q.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")},
		func(ctx context.Context, job *models.ThumbnailJob) error {
			called = true
			return nil
		})

	assert.False(t, called)
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
}
