package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/pennyplan/internal/common"
	"github.com/dmitrijs2005/pennyplan/internal/logging"
)

const (
	DefaultQueueSize = 100
	DefaultWorkers   = 2
	DefaultTimeout   = 10 * time.Second
)

// Notifier is what the account services depend on.
type Notifier interface {
	// NotifyWelcome schedules a welcome email and returns immediately.
	NotifyWelcome(ctx context.Context, email, name string, method Method)
}

type DispatcherConfig struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
}

type job struct {
	ctx context.Context
	msg Message
}

// Dispatcher delivers messages on its own worker goroutines. Delivery
// failures never reach the caller; they are published on Errors().
type Dispatcher struct {
	mailer  Mailer
	log     logging.Logger
	timeout time.Duration
	workers int

	mu         sync.RWMutex
	closed     bool
	errsClosed bool
	queue      chan job
	errs       chan error

	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewDispatcher(mailer Mailer, cfg DispatcherConfig, log logging.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Dispatcher{
		mailer:  mailer,
		log:     log.With("module", "notify"),
		timeout: cfg.Timeout,
		workers: cfg.Workers,
		queue:   make(chan job, cfg.QueueSize),
		errs:    make(chan error, cfg.QueueSize),
	}
}

// Start launches the workers. Calling it more than once is a no-op.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.worker()
		}
	})
}

// Errors returns delivery failures, each wrapping common.ErrNotificationFailure.
// The channel is closed by Close once the workers have stopped.
func (d *Dispatcher) Errors() <-chan error {
	return d.errs
}

func (d *Dispatcher) NotifyWelcome(ctx context.Context, email, name string, method Method) {
	msg, err := RenderWelcome(email, name, method)
	if err != nil {
		d.report(ctx, fmt.Errorf("%w: render welcome: %v", common.ErrNotificationFailure, err))
		return
	}
	d.Enqueue(ctx, msg)
}

// Enqueue schedules msg without blocking. A full or closed queue drops the
// message and reports a failure.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) {
	// the request context ends with the response, keep only its values
	j := job{ctx: context.WithoutCancel(ctx), msg: msg}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.reportLocked(ctx, fmt.Errorf("%w: dispatcher closed, dropped mail to %s", common.ErrNotificationFailure, msg.To))
		return
	}

	select {
	case d.queue <- j:
	default:
		d.reportLocked(ctx, fmt.Errorf("%w: queue full, dropped mail to %s", common.ErrNotificationFailure, msg.To))
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.timeout)
	defer cancel()

	if err := d.mailer.Send(ctx, j.msg); err != nil {
		d.report(j.ctx, fmt.Errorf("%w: send to %s: %v", common.ErrNotificationFailure, j.msg.To, err))
		return
	}
	d.log.Debug(j.ctx, "email sent", "to", j.msg.To, "subject", j.msg.Subject)
}

func (d *Dispatcher) report(ctx context.Context, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.reportLocked(ctx, err)
}

// reportLocked requires d.mu held for reading.
func (d *Dispatcher) reportLocked(ctx context.Context, err error) {
	if d.errsClosed {
		d.log.Error(ctx, "notification failed after shutdown", "error", err)
		return
	}
	select {
	case d.errs <- err:
	default:
		d.log.Error(ctx, "notification error channel full", "error", err)
	}
}

// Close stops accepting jobs, waits for queued ones to be delivered and
// closes the error channel.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()

		d.Start()
		d.wg.Wait()

		d.mu.Lock()
		d.errsClosed = true
		close(d.errs)
		d.mu.Unlock()
	})
}

var _ Notifier = (*Dispatcher)(nil)
