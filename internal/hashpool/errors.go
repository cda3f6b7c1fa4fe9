package hashpool

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkerSpawn is returned by a failed spawn attempt. It is logged and
	// handled inside the pool; callers only ever see it through its effect
	// on capacity.
	ErrWorkerSpawn = errors.New("hashpool: worker spawn failed")

	// ErrNoWorkersAvailable is returned when a task is submitted while zero
	// workers are alive. The task is rejected immediately, never queued.
	ErrNoWorkersAvailable = errors.New("hashpool: no workers available")

	// ErrPoolShuttingDown is returned for submissions after shutdown began
	// and for every task still outstanding when shutdown begins.
	ErrPoolShuttingDown = errors.New("hashpool: pool is shutting down")

	// ErrTaskTimeout is returned when a task's timer fires before a worker
	// response arrives.
	ErrTaskTimeout = errors.New("hashpool: task timed out")

	// ErrWorkerCrash is returned when the worker assigned to a task
	// terminated before responding. The task is not retried.
	ErrWorkerCrash = errors.New("hashpool: worker crashed before responding")
)

// OperationError reports a failure inside the operation itself, as opposed
// to a scheduling failure. The underlying executor error is preserved.
type OperationError struct {
	Op  Op
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("hashpool: %s operation failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
