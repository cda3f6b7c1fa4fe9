package hashpool

import "time"

// Op identifies which operation a task performs. The set is closed: the
// worker shim matches on it exhaustively and rejects anything else.
type Op int

const (
	OpHash Op = iota
	OpCompare
)

func (o Op) String() string {
	switch o {
	case OpHash:
		return "hash"
	case OpCompare:
		return "compare"
	default:
		return "unknown"
	}
}

// Request is one unit of requested work. Plaintext is used by both
// operations; Hash and Cost belong to compare and hash respectively.
type Request struct {
	Op        Op
	Plaintext string
	Hash      string
	Cost      int
}

// Result is the single settlement a submitted task receives. Exactly one of
// the fields is meaningful: Hash for a hash operation, Match for a compare,
// Err when the task failed, timed out, or was cancelled.
type Result struct {
	Hash  string
	Match bool
	Err   error
}

// Executor performs the actual slow operations. The pool treats it as
// opaque; it only schedules and supervises calls into it. Implementations
// must be safe for concurrent use by multiple workers.
type Executor interface {
	Hash(plaintext string, cost int) (string, error)
	Compare(plaintext, hash string) (bool, error)
}

// task correlates an in-flight request with the caller awaiting it. A task
// settles exactly once; the settled flag is guarded by the pool mutex.
type task struct {
	id      string
	req     Request
	done    chan Result
	timer   *time.Timer
	settled bool
}
