package hashpool

import "errors"

var errUnknownOp = errors.New("unknown operation")

// worker is one supervised unit of execution. It is owned exclusively by
// the pool; the busy flag and current task are only ever read or written
// under the pool mutex.
type worker struct {
	id       int
	requests chan *task
	busy     bool
	current  *task
}

// runWorker is the worker-side shim: receive one request, produce exactly
// one response. A panic in the executor is reported as a crash and ends the
// goroutine; exit handling then replaces the worker.
func (p *Pool) runWorker(w *worker) {
	defer p.wg.Done()
	defer p.handleExit(w)
	defer func() {
		if r := recover(); r != nil {
			p.handleCrash(w, r)
		}
	}()

	for t := range w.requests {
		p.handleResponse(w, t, p.execute(t.req))
	}
}

// execute resolves the operation variant. The switch is exhaustive over Op;
// anything else is an operation error, not a crash.
func (p *Pool) execute(req Request) Result {
	switch req.Op {
	case OpHash:
		hash, err := p.exec.Hash(req.Plaintext, req.Cost)
		if err != nil {
			return Result{Err: &OperationError{Op: req.Op, Err: err}}
		}
		return Result{Hash: hash}
	case OpCompare:
		match, err := p.exec.Compare(req.Plaintext, req.Hash)
		if err != nil {
			return Result{Err: &OperationError{Op: req.Op, Err: err}}
		}
		return Result{Match: match}
	default:
		return Result{Err: &OperationError{Op: req.Op, Err: errUnknownOp}}
	}
}
