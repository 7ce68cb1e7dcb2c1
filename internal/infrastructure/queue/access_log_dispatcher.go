package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
	"github.com/capachica/turismo-api/internal/pkg/metrics"
)

const (
	defaultWorkers      = 2
	channelBuffer       = 1024
	defaultWriteTimeout = 5 * time.Second
)

// AccessLogDispatcher implements ports.AccessLogger. Entries are queued and
// written by a fixed set of workers so request handlers never wait on the
// audit store. When the queue is full the entry is dropped and counted.
type AccessLogDispatcher struct {
	queue        chan domain.AccessLogEntry
	repo         ports.AccessLogRepository
	workers      int
	writeTimeout time.Duration
	log          zerolog.Logger
	now          func() time.Time

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAccessLogDispatcher creates a dispatcher with numWorkers writers.
// If numWorkers <= 0, defaultWorkers is used.
func NewAccessLogDispatcher(numWorkers int, repo ports.AccessLogRepository, log zerolog.Logger) *AccessLogDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &AccessLogDispatcher{
		queue:        make(chan domain.AccessLogEntry, channelBuffer),
		repo:         repo,
		workers:      numWorkers,
		writeTimeout: defaultWriteTimeout,
		log:          log,
		now:          time.Now,
	}
}

// Start launches the workers. They run until Close drains the queue.
func (d *AccessLogDispatcher) Start(ctx context.Context) {
	base := context.WithoutCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.runWorker(base, i)
	}
}

// Log enqueues entry without blocking. The request context is not retained:
// the write happens after the response has been sent.
func (d *AccessLogDispatcher) Log(_ context.Context, entry domain.AccessLogEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = d.now().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(entry, "dispatcher closed")
		return
	}

	select {
	case d.queue <- entry:
		metrics.AccessLogQueueDepth.Set(float64(len(d.queue)))
	default:
		d.drop(entry, "queue full")
	}
}

func (d *AccessLogDispatcher) drop(entry domain.AccessLogEntry, reason string) {
	metrics.AccessLogEntriesTotal.WithLabelValues("dropped").Inc()
	d.log.Warn().
		Str("event_type", string(entry.EventType)).
		Str("account_id", entry.AccountID).
		Str("reason", reason).
		Msg("access log entry dropped")
}

// Close stops accepting entries and waits for queued ones to be written, or
// for ctx to expire.
func (d *AccessLogDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *AccessLogDispatcher) runWorker(ctx context.Context, id int) {
	defer d.wg.Done()
	for entry := range d.queue {
		metrics.AccessLogQueueDepth.Set(float64(len(d.queue)))
		d.write(ctx, id, entry)
	}
}

func (d *AccessLogDispatcher) write(ctx context.Context, id int, entry domain.AccessLogEntry) {
	ctx, cancel := context.WithTimeout(ctx, d.writeTimeout)
	defer cancel()

	if err := d.repo.Insert(ctx, entry); err != nil {
		metrics.AccessLogEntriesTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("event_type", string(entry.EventType)).
			Str("account_id", entry.AccountID).
			Int("worker_id", id).
			Msg("access log write failed")
		return
	}
	metrics.AccessLogEntriesTotal.WithLabelValues("written").Inc()
}
