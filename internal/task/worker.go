package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultQueueCapacity = 64
	defaultJobTimeout    = 30 * time.Second

	logEventJobDropped      = "dispatch_job_dropped"
	logEventJobUndelivered  = "dispatch_job_undelivered"
	logFieldJobName         = "job_name"
	logFieldQueueCapacity   = "queue_capacity"
)

// Job performs one unit of background work and reports whether it succeeded.
type Job func(context.Context) bool

type queuedJob struct {
	name string
	run  Job
}

// DispatchWorker runs queued jobs on a single background goroutine. The queue
// is bounded; enqueueing into a full queue drops the job and reports it.
type DispatchWorker struct {
	logger       *zap.Logger
	jobTimeout   time.Duration
	queue        chan queuedJob
	controlMutex sync.Mutex
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewDispatchWorker constructs a DispatchWorker. Non-positive capacity and
// timeout fall back to defaults.
func NewDispatchWorker(logger *zap.Logger, queueCapacity int, jobTimeout time.Duration) *DispatchWorker {
	if queueCapacity <= 0 {
		queueCapacity = defaultQueueCapacity
	}
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}
	return &DispatchWorker{
		logger:     logger,
		jobTimeout: jobTimeout,
		queue:      make(chan queuedJob, queueCapacity),
	}
}

// Start launches the worker loop. Starting an already started worker is a no-op.
func (worker *DispatchWorker) Start(ctx context.Context) {
	if worker == nil {
		return
	}
	worker.controlMutex.Lock()
	if worker.cancel != nil {
		worker.controlMutex.Unlock()
		return
	}
	runtimeCtx, cancel := context.WithCancel(ctx)
	worker.cancel = cancel
	done := make(chan struct{})
	worker.done = done
	worker.controlMutex.Unlock()

	go worker.loop(runtimeCtx, done)
}

// Stop cancels the worker loop and waits for it to drain the job in flight.
// Queued jobs that have not started are discarded.
func (worker *DispatchWorker) Stop() {
	if worker == nil {
		return
	}
	worker.controlMutex.Lock()
	cancel := worker.cancel
	done := worker.done
	worker.cancel = nil
	worker.done = nil
	worker.controlMutex.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Enqueue adds a job to the queue, reporting false when the queue is full.
func (worker *DispatchWorker) Enqueue(name string, job Job) bool {
	if worker == nil || job == nil {
		return false
	}
	select {
	case worker.queue <- queuedJob{name: name, run: job}:
		return true
	default:
		worker.logger.Warn(logEventJobDropped,
			zap.String(logFieldJobName, name),
			zap.Int(logFieldQueueCapacity, cap(worker.queue)))
		return false
	}
}

func (worker *DispatchWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case queued := <-worker.queue:
			worker.runJob(ctx, queued)
		}
	}
}

func (worker *DispatchWorker) runJob(ctx context.Context, queued queuedJob) {
	jobCtx, cancel := context.WithTimeout(ctx, worker.jobTimeout)
	defer cancel()

	if !queued.run(jobCtx) {
		worker.logger.Warn(logEventJobUndelivered,
			zap.String(logFieldJobName, queued.name))
	}
}
