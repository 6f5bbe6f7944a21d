package queue

import (
	"context"
	"sync"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

const memoryBuffer = 1024

// Memory is an in-process JobQueue. Consumers of the same queue compete for
// jobs; a nack with requeue puts the job back.
type Memory struct {
	mu     sync.Mutex
	queues map[string]chan domain.Job
}

var _ ports.JobQueue = (*Memory)(nil)

// NewMemory constructs an in-process job queue.
func NewMemory() *Memory {
	return &Memory{queues: make(map[string]chan domain.Job)}
}

func (m *Memory) queue(name string) chan domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		q = make(chan domain.Job, memoryBuffer)
		m.queues[name] = q
	}
	return q
}

// Publish blocks while the queue buffer is full.
func (m *Memory) Publish(ctx context.Context, queue string, job domain.Job) error {
	select {
	case m.queue(queue) <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Memory) Consume(ctx context.Context, queue string) (<-chan ports.Delivery, error) {
	q := m.queue(queue)
	out := make(chan ports.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-q:
				d := &memoryDelivery{job: job, requeue: func() { q <- job }}
				select {
				case out <- d:
				case <-ctx.Done():
					q <- job
					return
				}
			}
		}
	}()
	return out, nil
}

// Pending reports how many jobs wait in queue.
func (m *Memory) Pending(queue string) int {
	return len(m.queue(queue))
}

type memoryDelivery struct {
	job     domain.Job
	requeue func()
	once    sync.Once
}

func (d *memoryDelivery) Job() domain.Job { return d.job }

func (d *memoryDelivery) Ack() error {
	d.once.Do(func() {})
	return nil
}

func (d *memoryDelivery) Nack(requeue bool) error {
	d.once.Do(func() {
		if requeue {
			d.requeue()
		}
	})
	return nil
}
