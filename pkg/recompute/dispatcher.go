package recompute

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a queued recomputation of one derived entity.
type Task struct {
	// Key identifies the derived entity, e.g. "composite:stu1:unit1:sem1".
	// Tasks sharing a key are executed in FIFO order on one worker.
	Key      string
	Type     string
	Enqueued time.Time
}

// Handler executes a recomputation task.
type Handler func(context.Context, Task) error

// Config sizes the dispatcher.
type Config struct {
	Workers    int
	BufferSize int
	Logger     *zap.Logger
}

// Dispatcher fans recomputation tasks out to a fixed worker pool.
// A task's key is hashed to a worker lane, so two near-simultaneous
// recomputations of the same derived entity never race; independent
// keys run in parallel. Failed tasks are not retried: computations are
// deterministic, so a retry without fixing the input yields the same
// error.
type Dispatcher struct {
	handler Handler

	workers    int
	bufferSize int
	logger     *zap.Logger

	lanes   []chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewDispatcher builds a dispatcher with the provided handler.
func NewDispatcher(handler Handler, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Dispatcher{
		handler:    handler,
		workers:    cfg.Workers,
		bufferSize: cfg.BufferSize,
		logger:     cfg.Logger,
	}
}

// SetHandler installs the task handler. Must be called before Start;
// the services producing tasks and the handler routing back to them
// are built around the same dispatcher.
func (d *Dispatcher) SetHandler(handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.handler = handler
}

// Start begins worker consumption. Safe to call once.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.lanes = make([]chan Task, d.workers)
	for i := 0; i < d.workers; i++ {
		d.lanes[i] = make(chan Task, d.bufferSize)
		d.wg.Add(1)
		go d.worker(d.lanes[i])
	}
	d.started = true
	d.logger.Sugar().Infow("recompute dispatcher started", "workers", d.workers)
}

// Stop cancels workers and waits for them to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
	d.logger.Sugar().Infow("recompute dispatcher stopped")
}

// Enqueue routes a task onto the lane owning its key.
func (d *Dispatcher) Enqueue(task Task) error {
	d.mu.Lock()
	ctx := d.ctx
	started := d.started
	d.mu.Unlock()

	if !started {
		return fmt.Errorf("recompute dispatcher not started")
	}
	if task.Enqueued.IsZero() {
		task.Enqueued = time.Now().UTC()
	}

	lane := d.lanes[laneFor(task.Key, d.workers)]
	select {
	case <-ctx.Done():
		return fmt.Errorf("recompute dispatcher stopped: %w", ctx.Err())
	case lane <- task:
		return nil
	}
}

func (d *Dispatcher) worker(lane chan Task) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case task := <-lane:
			if err := d.handler(d.ctx, task); err != nil {
				d.logger.Sugar().Errorw("recompute failed", "key", task.Key, "type", task.Type, "error", err)
			}
		}
	}
}

func laneFor(key string, lanes int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(lanes))
}
