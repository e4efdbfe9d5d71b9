package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/postbot/core/logger"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	errNilRun = errors.New("telegram sender: nil run function")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize int
	Workers   int
}

// Job is a single outbound call executed by Run. Attrs are added to its log lines.
type Job struct {
	Action   string
	Endpoint string
	Attrs    []slog.Attr
	Run      func(ctx context.Context) error
}

type job struct {
	ctx  context.Context
	spec Job
	done func(error)
}

// Dispatcher executes outbound Telegram calls on a fixed pool of workers.
// Calls are attempted once; failures are logged and counted, never retried.
type Dispatcher struct {
	opts Options
	jobs chan job
	stop chan struct{}
	mu   sync.RWMutex
	once sync.Once
	wg   sync.WaitGroup
	errs atomic.Uint64
}

// NewDispatcher starts a dispatcher with sane defaults if options are zeroed.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	d := &Dispatcher{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
		stop: make(chan struct{}),
	}

	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}

	return d
}

// Enqueue schedules run for asynchronous execution without waiting for it.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errNilRun
	}
	return d.push(job{
		ctx: ctx,
		spec: Job{
			Action:   action,
			Endpoint: endpoint,
			Run:      func(context.Context) error { return run() },
		},
	})
}

// Run executes all jobs on the pool and waits for them. The returned slice holds
// the outcome of jobs[i] at index i. A failing job never prevents the others from
// being attempted. Jobs the queue cannot accept run inline on the caller's goroutine.
func (d *Dispatcher) Run(ctx context.Context, jobs []Job) []error {
	results := make([]error, len(jobs))
	var wg sync.WaitGroup
	for i, spec := range jobs {
		if spec.Run == nil {
			results[i] = errNilRun
			continue
		}
		i := i
		wg.Add(1)
		j := job{
			ctx:  ctx,
			spec: spec,
			done: func(err error) {
				results[i] = err
				wg.Done()
			},
		}
		if err := d.push(j); err != nil {
			logger.Debug(ctx, "tg.sender", "queue.inline",
				append(sendLogAttrs(ctx, j), slog.String("err", err.Error()))...,
			)
			j.done(d.execute(j))
		}
	}
	wg.Wait()
	return results
}

func (d *Dispatcher) push(j job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	select {
	case <-d.stop:
		return ErrQueueClosed
	default:
	}
	select {
	case d.jobs <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits for workers to drain the queue.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		close(d.stop)
		close(d.jobs)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		err := d.execute(j)
		if j.done != nil {
			j.done(err)
		}
	}
}

func (d *Dispatcher) execute(j job) error {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		d.errs.Add(1)
		logSendFailure(ctx, j, err, 0)
		return err
	}

	start := time.Now()
	logger.Debug(ctx, "tg.sender", "send.start", sendLogAttrs(ctx, j)...)
	if err := j.spec.Run(ctx); err != nil {
		d.errs.Add(1)
		logSendFailure(ctx, j, err, time.Since(start))
		return err
	}
	logger.Debug(ctx, "tg.sender", "send.success",
		append(sendLogAttrs(ctx, j), slog.Int("elapsed_ms", durationToMS(time.Since(start))))...,
	)
	return nil
}

func sendLogAttrs(ctx context.Context, j job) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("action", j.spec.Action),
	}
	if j.spec.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.spec.Endpoint))
	}
	if rid := logger.RIDFrom(ctx); rid != "" {
		attrs = append(attrs, slog.String("rid", rid))
	}
	if userID := logger.UserIDFrom(ctx); userID != 0 {
		attrs = append(attrs, slog.Int64("user_id", userID))
	}
	return append(attrs, j.spec.Attrs...)
}

func logSendFailure(ctx context.Context, j job, err error, elapsed time.Duration) {
	attrs := sendLogAttrs(ctx, j)
	attrs = append(attrs,
		slog.String("err", SanitizeError(err)),
		slog.String("error_kind", ClassifyError(err)),
		slog.Int("elapsed_ms", durationToMS(elapsed)),
	)
	logger.Error(ctx, "tg.sender", "send.fail", attrs...)
}

func durationToMS(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(logger.RoundMS(d) / time.Millisecond)
}
