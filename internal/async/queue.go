package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/quoteproc/quote-processor/internal/document"
	"github.com/quoteproc/quote-processor/internal/pipeline"
)

// Job is one document waiting for a pipeline worker.
type Job struct {
	Doc         document.RawDocument
	SubmittedAt time.Time
}

// ReportFunc receives each finished document's report.
type ReportFunc func(document.Report)

// ProcessorQueue fans documents out to a bounded pool of pipeline
// workers. Each document gets its own timeout; a timed-out or failed
// document never affects the others in flight.
type ProcessorQueue struct {
	proc    *pipeline.Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration
	report  ReportFunc

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func WithReportFunc(f ReportFunc) Option {
	return func(q *ProcessorQueue) {
		q.report = f
	}
}

func NewProcessorQueue(proc *pipeline.Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					rep := q.proc.Process(ctx, job.Doc)
					cancel()

					if rep.Error != "" {
						q.logger.Warn("document processing ended with error",
							"worker_id", workerID, "doc_id", job.Doc.ID, "filename", job.Doc.Filename, "error", rep.Error)
					} else {
						q.logger.Info("document processed",
							"worker_id", workerID, "doc_id", job.Doc.ID, "filename", job.Doc.Filename, "items", rep.ExtractedCount)
					}
					if q.report != nil {
						q.report(rep)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "doc_id", job.Doc.ID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued document for processing", "doc_id", job.Doc.ID, "filename", job.Doc.Filename)
	default:
		q.logger.Warn("queue full, applying backpressure", "doc_id", job.Doc.ID)
		q.ch <- job
	}
	return nil
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
