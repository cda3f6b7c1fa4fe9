// Package hashpool runs deliberately slow password hashing off the
// request path. A small set of worker goroutines executes one operation at
// a time; excess work queues FIFO, every task carries its own timeout, and
// crashed workers are replaced. All pool bookkeeping lives behind a single
// mutex so there is exactly one serialized mutator of queue, pending table
// and busy flags; workers share no state and communicate only by message.
package hashpool

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// DefaultTaskTimeout bounds how long a submitted task may wait for its
// result before settling with ErrTaskTimeout.
const DefaultTaskTimeout = 30 * time.Second

const (
	minWorkers = 2
	maxWorkers = 8
)

type poolState int

const (
	stateUninitialized poolState = iota
	stateReady
	stateShuttingDown
	stateTerminated
)

// Config holds pool tuning knobs. The zero value is usable: worker count is
// derived from available parallelism and the task timeout defaults to
// DefaultTaskTimeout.
type Config struct {
	// Workers fixes the pool size. Zero means clamp(NumCPU/2, 2, 8).
	Workers int

	// TaskTimeout is the default per-task timeout. Zero means
	// DefaultTaskTimeout.
	TaskTimeout time.Duration

	// SpawnProbe, when non-nil, is consulted before each worker spawn. An
	// error fails that spawn attempt without failing initialization; the
	// pool runs with however many workers succeeded.
	SpawnProbe func() error
}

// Pool schedules Requests onto supervised workers. Construct with New,
// start with Initialize (Submit initializes lazily if needed), and drain
// with Shutdown. A shut-down pool rejects all work until Initialize is
// called again.
type Pool struct {
	cfg    Config
	exec   Executor
	logger *slog.Logger

	mu           sync.Mutex
	state        poolState
	size         int
	workers      map[int]*worker
	queue        []*task
	pending      map[string]*task
	seq          uint64
	nextWorkerID int
	terminated   chan struct{}
	wg           sync.WaitGroup
}

// New creates a Pool around the given executor. No workers are spawned
// until Initialize or the first Submit.
func New(exec Executor, cfg Config, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		cfg:     cfg,
		exec:    exec,
		logger:  logger,
		workers: make(map[int]*worker),
		pending: make(map[string]*task),
	}
}

// Initialize spawns the pool's workers. It is idempotent: a ready or
// draining pool is left alone. Spawn failures are tolerated so that a
// permanently broken host does not cause an unbounded retry loop; the pool
// is marked initialized with however many workers came up, possibly zero.
// Calling Initialize on a terminated pool brings it back into service.
func (p *Pool) Initialize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initializeLocked()
}

func (p *Pool) initializeLocked() {
	if p.state == stateReady || p.state == stateShuttingDown {
		return
	}
	size := p.cfg.Workers
	if size <= 0 {
		size = defaultPoolSize()
	}
	for i := 0; i < size; i++ {
		if err := p.spawnLocked(); err != nil {
			p.logger.Warn("worker spawn failed during initialization", "error", err)
		}
	}
	p.size = size
	p.state = stateReady
	p.logger.Info("hash pool initialized", "configured", size, "live", len(p.workers))
}

// Submit schedules req with the pool's default timeout. See SubmitTimeout.
func (p *Pool) Submit(req Request) <-chan Result {
	return p.SubmitTimeout(req, 0)
}

// SubmitTimeout schedules req and returns a channel that receives exactly
// one Result: the operation's outcome, a scheduling error, or
// ErrTaskTimeout once timeout elapses (zero means the pool default). The
// channel is buffered; the caller may abandon it without leaking a
// goroutine.
//
// A timeout does not abort the operation already running on a worker. The
// worker keeps going, its eventual response is discarded, and only then
// does it rejoin the idle set.
func (p *Pool) SubmitTimeout(req Request, timeout time.Duration) <-chan Result {
	done := make(chan Result, 1)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == stateShuttingDown || p.state == stateTerminated {
		done <- Result{Err: ErrPoolShuttingDown}
		return done
	}
	if p.state == stateUninitialized {
		p.initializeLocked()
	}
	if len(p.workers) == 0 {
		done <- Result{Err: ErrNoWorkersAvailable}
		return done
	}

	t := &task{
		id:   fmt.Sprintf("%d-%d", time.Now().UnixMilli(), p.seq),
		req:  req,
		done: done,
	}
	p.seq++

	if timeout <= 0 {
		timeout = p.cfg.TaskTimeout
	}
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	t.timer = time.AfterFunc(timeout, func() { p.expire(t) })

	if w := p.idleWorkerLocked(); w != nil {
		p.dispatchLocked(w, t)
	} else {
		p.queue = append(p.queue, t)
	}
	return done
}

// expire settles t with ErrTaskTimeout if it has not completed yet,
// removing it from the queue or pending table it sits in.
func (p *Pool) expire(t *task) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t.settled {
		return
	}
	for i, qt := range p.queue {
		if qt == t {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			break
		}
	}
	p.settleLocked(t, Result{Err: ErrTaskTimeout})
}

// settleLocked delivers res to the task's caller. At most one settlement
// ever happens per task; later completions, timeouts and cancellations for
// the same task are no-ops.
func (p *Pool) settleLocked(t *task, res Result) {
	if t.settled {
		return
	}
	t.settled = true
	if t.timer != nil {
		t.timer.Stop()
	}
	delete(p.pending, t.id)
	t.done <- res
}

// Stats is a point-in-time snapshot of pool occupancy.
type Stats struct {
	Configured   int  `json:"configured"`
	Live         int  `json:"live"`
	Busy         int  `json:"busy"`
	Idle         int  `json:"idle"`
	QueueDepth   int  `json:"queue_depth"`
	Pending      int  `json:"pending"`
	Initialized  bool `json:"initialized"`
	ShuttingDown bool `json:"shutting_down"`
	Ready        bool `json:"ready"`
}

// Stats reports current pool occupancy and readiness.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	busy := 0
	for _, w := range p.workers {
		if w.busy {
			busy++
		}
	}
	s := Stats{
		Configured:   p.size,
		Live:         len(p.workers),
		Busy:         busy,
		Idle:         len(p.workers) - busy,
		QueueDepth:   len(p.queue),
		Pending:      len(p.pending),
		Initialized:  p.state == stateReady,
		ShuttingDown: p.state == stateShuttingDown,
	}
	s.Ready = s.Initialized && s.Live > 0 && !s.ShuttingDown
	return s
}

// Shutdown permanently stops intake, rejects every queued and in-flight
// task with ErrPoolShuttingDown, and blocks until every worker goroutine
// has exited. Every outstanding caller is guaranteed a settled result.
// Safe to call concurrently and more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	switch p.state {
	case stateTerminated:
		p.mu.Unlock()
		return
	case stateShuttingDown:
		done := p.terminated
		p.mu.Unlock()
		<-done
		return
	case stateUninitialized:
		p.state = stateTerminated
		p.mu.Unlock()
		return
	}

	p.state = stateShuttingDown
	p.terminated = make(chan struct{})

	for _, t := range p.queue {
		p.settleLocked(t, Result{Err: ErrPoolShuttingDown})
	}
	p.queue = nil
	for _, t := range p.pending {
		p.settleLocked(t, Result{Err: ErrPoolShuttingDown})
	}
	for _, w := range p.workers {
		close(w.requests)
	}
	live := len(p.workers)
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	p.workers = make(map[int]*worker)
	p.state = stateTerminated
	close(p.terminated)
	p.mu.Unlock()

	p.logger.Info("hash pool drained", "workers_terminated", live)
}

func defaultPoolSize() int {
	n := runtime.NumCPU() / 2
	if n < minWorkers {
		return minWorkers
	}
	if n > maxWorkers {
		return maxWorkers
	}
	return n
}
