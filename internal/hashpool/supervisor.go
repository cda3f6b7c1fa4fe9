package hashpool

import "fmt"

// Worker lifecycle and response routing. These methods are the supervisor
// half of the pool: they own spawning, crash replacement, and the hand-off
// of responses back to pending tasks. All of them take the pool mutex; the
// worker goroutines themselves never touch pool state directly.

// spawnLocked creates one worker and starts its goroutine. Failure is
// reported, not fatal: the caller decides whether degraded capacity is
// acceptable.
func (p *Pool) spawnLocked() error {
	if probe := p.cfg.SpawnProbe; probe != nil {
		if err := probe(); err != nil {
			return fmt.Errorf("%w: %v", ErrWorkerSpawn, err)
		}
	}
	p.nextWorkerID++
	w := &worker{
		id:       p.nextWorkerID,
		requests: make(chan *task, 1),
	}
	p.workers[w.id] = w
	p.wg.Add(1)
	go p.runWorker(w)
	return nil
}

// handleResponse routes a worker's response back to the pending task. If
// the task already settled (its timer fired first) the response is
// discarded, but the worker still rejoins the idle set.
func (p *Pool) handleResponse(w *worker, t *task, res Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w.busy = false
	w.current = nil
	p.settleLocked(t, res)
	p.drainLocked()
}

// handleCrash rejects the crashed worker's task, if any. The panic value is
// carried in the error so callers can see what killed the operation.
// Removal and replacement happen in handleExit, which always follows.
func (p *Pool) handleCrash(w *worker, panicVal any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.Error("worker crashed", "worker_id", w.id, "panic", panicVal)
	if t := w.current; t != nil {
		p.settleLocked(t, Result{Err: fmt.Errorf("%w: %v", ErrWorkerCrash, panicVal)})
		w.current = nil
	}
}

// handleExit runs when a worker goroutine terminates for any reason. An
// orphaned task is rejected, the worker leaves the live set, and unless the
// pool is draining a replacement is spawned and the queue drained onto it.
func (p *Pool) handleExit(w *worker) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t := w.current; t != nil {
		p.settleLocked(t, Result{Err: fmt.Errorf("%w: worker exited", ErrWorkerCrash)})
		w.current = nil
	}
	delete(p.workers, w.id)

	if p.state != stateReady {
		return
	}
	if err := p.spawnLocked(); err != nil {
		p.logger.Warn("worker respawn failed", "error", err)
	}
	p.drainLocked()
}

// drainLocked moves queued tasks onto idle workers, oldest first. Tasks are
// never reordered relative to submission.
func (p *Pool) drainLocked() {
	for len(p.queue) > 0 {
		w := p.idleWorkerLocked()
		if w == nil {
			return
		}
		t := p.queue[0]
		p.queue = p.queue[1:]
		p.dispatchLocked(w, t)
	}
}

func (p *Pool) dispatchLocked(w *worker, t *task) {
	w.busy = true
	w.current = t
	p.pending[t.id] = t
	// The request channel has capacity one and the worker is idle, so this
	// never blocks under the mutex.
	w.requests <- t
}

func (p *Pool) idleWorkerLocked() *worker {
	for _, w := range p.workers {
		if !w.busy {
			return w
		}
	}
	return nil
}
