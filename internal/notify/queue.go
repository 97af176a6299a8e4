package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrQueueClosed = errors.New("mail queue is shutting down")

// Job is one queued delivery.
type Job struct {
	To        string
	Path      string
	Subject   string
	Body      string
	RequestID string
}

// Queue runs deliveries on a fixed set of workers so callers never wait on SMTP.
type Queue struct {
	sender  Sender
	logger  *slog.Logger
	workers int
	timeout time.Duration
	onDone  func(Job, Outcome)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu      sync.Mutex
	closed  bool
	done    chan struct{} // closed when Shutdown begins
	senders sync.WaitGroup
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithSendTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithOnDone observes each finished delivery.
func WithOnDone(fn func(Job, Outcome)) Option {
	return func(q *Queue) { q.onDone = fn }
}

func NewQueue(sender Sender, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		sender:  sender,
		logger:  logger,
		workers: 2,
		timeout: time.Minute,
		ch:      make(chan Job, 64),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("mail worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					out := q.sender.Send(ctx, job.To, job.Path, job.Subject, job.Body)
					cancel()

					if out.Sent {
						q.logger.Info("notify.queue.sent", "worker_id", workerID, "req_id", job.RequestID, "to", job.To)
					} else {
						q.logger.Warn("notify.queue.not_sent", "worker_id", workerID, "req_id", job.RequestID, "to", job.To, "reason", out.Reason)
					}
					if q.onDone != nil {
						q.onDone(job, out)
					}
				}

				q.logger.Debug("mail worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue hands job to a worker. When the buffer is full it waits for room, ctx
// or Shutdown, without holding the queue lock.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "req_id", job.RequestID)
		return ErrQueueClosed
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	select {
	case q.ch <- job:
		q.logger.Info("notify.queue.queued", "req_id", job.RequestID, "to", job.To, "path", job.Path)
		return nil
	default:
	}
	q.logger.Warn("mail queue full, applying backpressure", "req_id", job.RequestID)
	select {
	case q.ch <- job:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for queued deliveries or ctx.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	// blocked enqueuers return on done; only then is ch safe to close
	q.senders.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("mail queue shutdown interrupted by context")
	case <-done:
		q.logger.Info("mail queue drained, shutdown complete")
	}
}
