// Package queue routes enrichment jobs through named work queues.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

// Queues lists every queue the application declares.
var Queues = []string{domain.QueueSpeech, domain.QueueImage, domain.QueueDefault}

// RabbitMQ is a JobQueue on durable RabbitMQ queues with manual acks.
type RabbitMQ struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	pub      *amqp.Channel
	prefetch int
	logger   *slog.Logger
}

var _ ports.JobQueue = (*RabbitMQ)(nil)

// NewRabbitMQ dials the broker and declares the work queues.
func NewRabbitMQ(url string, prefetch int, logger *slog.Logger) (*RabbitMQ, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if prefetch <= 0 {
		prefetch = 1
	}

	conn, err := amqp.DialConfig(url, amqp.Config{Heartbeat: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	pub, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	for _, name := range Queues {
		if _, err := pub.QueueDeclare(name, true, false, false, false, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", name, err)
		}
	}

	return &RabbitMQ{
		conn:     conn,
		pub:      pub,
		prefetch: prefetch,
		logger:   logger.With("component", "rabbitmq"),
	}, nil
}

// Publish sends a persistent JSON message to queue.
func (r *RabbitMQ) Publish(ctx context.Context, queue string, job domain.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.pub.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.TaskID,
		Timestamp:    job.EnqueuedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

// Consume opens a dedicated channel for queue. The returned channel closes
// when ctx ends or the broker drops the subscription.
func (r *RabbitMQ) Consume(ctx context.Context, queue string) (<-chan ports.Delivery, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consumer channel: %w", err)
	}
	if err := ch.Qos(r.prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.Consume(
		queue,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}

	out := make(chan ports.Delivery)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					r.logger.Warn("subscription closed", "queue", queue)
					return
				}
				var job domain.Job
				if err := json.Unmarshal(msg.Body, &job); err != nil {
					r.logger.Error("dropping malformed job", "queue", queue, "error", err)
					_ = msg.Nack(false, false)
					continue
				}
				select {
				case out <- &rabbitDelivery{job: job, msg: msg}:
				case <-ctx.Done():
					_ = msg.Nack(false, true)
					return
				}
			}
		}
	}()

	return out, nil
}

// Close tears down the connection and every channel opened on it.
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

type rabbitDelivery struct {
	job domain.Job
	msg amqp.Delivery
}

func (d *rabbitDelivery) Job() domain.Job         { return d.job }
func (d *rabbitDelivery) Ack() error              { return d.msg.Ack(false) }
func (d *rabbitDelivery) Nack(requeue bool) error { return d.msg.Nack(false, requeue) }
