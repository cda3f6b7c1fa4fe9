package hashpool_test

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradearena/backend/internal/hashpool"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// funcExecutor lets a test script each operation directly.
type funcExecutor struct {
	hash    func(plaintext string, cost int) (string, error)
	compare func(plaintext, hash string) (bool, error)
}

func (f *funcExecutor) Hash(plaintext string, cost int) (string, error) {
	if f.hash == nil {
		return "hashed:" + plaintext, nil
	}
	return f.hash(plaintext, cost)
}

func (f *funcExecutor) Compare(plaintext, hash string) (bool, error) {
	if f.compare == nil {
		return hash == "hashed:"+plaintext, nil
	}
	return f.compare(plaintext, hash)
}

// gateExecutor blocks every operation until the test releases it, and
// reports each operation the moment it starts running on a worker. That
// gives tests precise control over which workers are busy and in which
// order queued tasks get picked up.
type gateExecutor struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
}

func newGateExecutor() *gateExecutor {
	return &gateExecutor{
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 64),
	}
}

func (g *gateExecutor) gate(plaintext string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[plaintext]
	if !ok {
		ch = make(chan struct{})
		g.gates[plaintext] = ch
	}
	return ch
}

func (g *gateExecutor) release(plaintext string) {
	ch := g.gate(plaintext)
	select {
	case <-ch:
	default:
		close(ch)
	}
}

func (g *gateExecutor) releaseAll() {
	g.mu.Lock()
	names := make([]string, 0, len(g.gates))
	for name := range g.gates {
		names = append(names, name)
	}
	g.mu.Unlock()
	for _, name := range names {
		g.release(name)
	}
}

func (g *gateExecutor) Hash(plaintext string, _ int) (string, error) {
	g.started <- plaintext
	<-g.gate(plaintext)
	return "hashed:" + plaintext, nil
}

func (g *gateExecutor) Compare(plaintext, hash string) (bool, error) {
	g.started <- plaintext
	<-g.gate(plaintext)
	return hash == "hashed:"+plaintext, nil
}

// waitStarted collects the next n operations to start, failing the test if
// they do not all arrive.
func waitStarted(t *testing.T, g *gateExecutor, n int) []string {
	t.Helper()
	got := make([]string, 0, n)
	for len(got) < n {
		select {
		case name := <-g.started:
			got = append(got, name)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %d operations to start, got %d: %v", n, len(got), got)
		}
	}
	return got
}

func hashReq(plaintext string) hashpool.Request {
	return hashpool.Request{Op: hashpool.OpHash, Plaintext: plaintext}
}

func TestInitializeIsIdempotent(t *testing.T) {
	pool := hashpool.New(&funcExecutor{}, hashpool.Config{Workers: 3}, discardLogger())
	defer pool.Shutdown()

	pool.Initialize()
	pool.Initialize()

	stats := pool.Stats()
	assert.Equal(t, 3, stats.Configured)
	assert.Equal(t, 3, stats.Live)
	assert.True(t, stats.Ready)
}

func TestSubmitLazilyInitializes(t *testing.T) {
	pool := hashpool.New(&funcExecutor{}, hashpool.Config{Workers: 2}, discardLogger())
	defer pool.Shutdown()

	res := <-pool.Submit(hashReq("secret"))
	require.NoError(t, res.Err)
	assert.Equal(t, "hashed:secret", res.Hash)
	assert.True(t, pool.Stats().Initialized)
}

func TestCompareOperation(t *testing.T) {
	pool := hashpool.New(&funcExecutor{}, hashpool.Config{Workers: 2}, discardLogger())
	defer pool.Shutdown()

	res := <-pool.Submit(hashpool.Request{Op: hashpool.OpCompare, Plaintext: "secret", Hash: "hashed:secret"})
	require.NoError(t, res.Err)
	assert.True(t, res.Match)

	res = <-pool.Submit(hashpool.Request{Op: hashpool.OpCompare, Plaintext: "secret", Hash: "hashed:other"})
	require.NoError(t, res.Err)
	assert.False(t, res.Match)
}

func TestOperationErrorPropagates(t *testing.T) {
	opErr := errors.New("cost out of range")
	exec := &funcExecutor{hash: func(string, int) (string, error) { return "", opErr }}
	pool := hashpool.New(exec, hashpool.Config{Workers: 1}, discardLogger())
	defer pool.Shutdown()

	res := <-pool.Submit(hashReq("secret"))
	require.Error(t, res.Err)

	var operr *hashpool.OperationError
	require.ErrorAs(t, res.Err, &operr)
	assert.Equal(t, hashpool.OpHash, operr.Op)
	assert.ErrorIs(t, res.Err, opErr)
}

func TestZeroWorkersFailsFast(t *testing.T) {
	cfg := hashpool.Config{
		Workers:    2,
		SpawnProbe: func() error { return errors.New("resources exhausted") },
	}
	pool := hashpool.New(&funcExecutor{}, cfg, discardLogger())
	pool.Initialize()

	stats := pool.Stats()
	assert.True(t, stats.Initialized, "initialization completes despite total spawn failure")
	assert.Equal(t, 0, stats.Live)
	assert.False(t, stats.Ready)

	res := <-pool.Submit(hashReq("secret"))
	assert.ErrorIs(t, res.Err, hashpool.ErrNoWorkersAvailable)
}

func TestCapacityDispatchesWithoutQueuing(t *testing.T) {
	exec := newGateExecutor()
	pool := hashpool.New(exec, hashpool.Config{Workers: 4}, discardLogger())
	pool.Initialize()
	defer func() {
		exec.releaseAll()
		pool.Shutdown()
	}()

	results := make([]<-chan hashpool.Result, 4)
	for i, name := range []string{"w", "x", "y", "z"} {
		results[i] = pool.Submit(hashReq(name))
	}
	waitStarted(t, exec, 4)

	stats := pool.Stats()
	assert.Equal(t, 4, stats.Busy)
	assert.Equal(t, 0, stats.QueueDepth, "at or below capacity nothing queues")
	assert.Equal(t, 4, stats.Pending)

	exec.releaseAll()
	for _, ch := range results {
		res := <-ch
		require.NoError(t, res.Err)
	}
}

func TestBackpressureDrainsInSubmissionOrder(t *testing.T) {
	exec := newGateExecutor()
	pool := hashpool.New(exec, hashpool.Config{Workers: 4}, discardLogger())
	pool.Initialize()
	defer func() {
		exec.releaseAll()
		pool.Shutdown()
	}()

	names := []string{"t1", "t2", "t3", "t4", "t5", "t6"}
	results := make(map[string]<-chan hashpool.Result, len(names))
	for _, name := range names {
		results[name] = pool.Submit(hashReq(name))
	}

	running := waitStarted(t, exec, 4)
	assert.ElementsMatch(t, []string{"t1", "t2", "t3", "t4"}, running)
	assert.Equal(t, 2, pool.Stats().QueueDepth)

	// Free one worker; the oldest queued task must go next, regardless of
	// which worker happened to become idle.
	exec.release("t3")
	require.NoError(t, (<-results["t3"]).Err)
	assert.Equal(t, []string{"t5"}, waitStarted(t, exec, 1))

	exec.release("t1")
	require.NoError(t, (<-results["t1"]).Err)
	assert.Equal(t, []string{"t6"}, waitStarted(t, exec, 1))

	exec.releaseAll()
	for _, name := range []string{"t2", "t4", "t5", "t6"} {
		require.NoError(t, (<-results[name]).Err)
	}
}

func TestDispatchedTaskTimesOut(t *testing.T) {
	exec := newGateExecutor()
	pool := hashpool.New(exec, hashpool.Config{Workers: 1, TaskTimeout: 30 * time.Millisecond}, discardLogger())
	pool.Initialize()
	defer func() {
		exec.releaseAll()
		pool.Shutdown()
	}()

	res := <-pool.Submit(hashReq("stuck"))
	assert.ErrorIs(t, res.Err, hashpool.ErrTaskTimeout)

	stats := pool.Stats()
	assert.Equal(t, 0, stats.Pending, "timed-out task leaves the pending table")
	assert.Equal(t, 0, stats.QueueDepth)
}

func TestQueuedTaskTimesOut(t *testing.T) {
	exec := newGateExecutor()
	pool := hashpool.New(exec, hashpool.Config{Workers: 1}, discardLogger())
	pool.Initialize()
	defer func() {
		exec.releaseAll()
		pool.Shutdown()
	}()

	blocked := pool.Submit(hashReq("stuck"))
	waitStarted(t, exec, 1)

	queued := pool.SubmitTimeout(hashReq("waiting"), 30*time.Millisecond)
	res := <-queued
	assert.ErrorIs(t, res.Err, hashpool.ErrTaskTimeout)
	assert.Equal(t, 0, pool.Stats().QueueDepth)

	exec.release("stuck")
	require.NoError(t, (<-blocked).Err)
}

func TestTimedOutWorkerRejoinsIdleOnLateResponse(t *testing.T) {
	exec := newGateExecutor()
	pool := hashpool.New(exec, hashpool.Config{Workers: 1, TaskTimeout: 30 * time.Millisecond}, discardLogger())
	pool.Initialize()
	defer func() {
		exec.releaseAll()
		pool.Shutdown()
	}()

	res := <-pool.Submit(hashReq("slow"))
	assert.ErrorIs(t, res.Err, hashpool.ErrTaskTimeout)
	assert.Equal(t, 1, pool.Stats().Busy, "worker stays busy until its late response arrives")

	// The late response is discarded but frees the worker.
	exec.release("slow")
	require.Eventually(t, func() bool {
		return pool.Stats().Idle == 1
	}, 2*time.Second, 5*time.Millisecond)

	done := pool.SubmitTimeout(hashReq("next"), 2*time.Second)
	exec.release("next")
	require.NoError(t, (<-done).Err)
}

func TestNoDoubleSettlement(t *testing.T) {
	// Race the timeout path against the completion path: whichever wins,
	// every task settles exactly once.
	exec := &funcExecutor{hash: func(plaintext string, _ int) (string, error) {
		time.Sleep(3 * time.Millisecond)
		return "hashed:" + plaintext, nil
	}}
	pool := hashpool.New(exec, hashpool.Config{Workers: 4}, discardLogger())
	pool.Initialize()
	defer pool.Shutdown()

	const n = 64
	channels := make([]<-chan hashpool.Result, n)
	for i := 0; i < n; i++ {
		channels[i] = pool.SubmitTimeout(hashReq("p"), 3*time.Millisecond)
	}

	for i, ch := range channels {
		select {
		case res := <-ch:
			if res.Err != nil {
				assert.ErrorIs(t, res.Err, hashpool.ErrTaskTimeout, "task %d", i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("task %d never settled", i)
		}
	}

	// Give any erroneous second settlement time to land, then verify the
	// buffered channels stay empty.
	time.Sleep(20 * time.Millisecond)
	for i, ch := range channels {
		select {
		case res := <-ch:
			t.Fatalf("task %d settled twice, second result: %+v", i, res)
		default:
		}
	}
}

func TestScenarioTwoWorkersThreeHashes(t *testing.T) {
	exec := newGateExecutor()
	pool := hashpool.New(exec, hashpool.Config{Workers: 2}, discardLogger())
	pool.Initialize()
	defer func() {
		exec.releaseAll()
		pool.Shutdown()
	}()

	resA := pool.Submit(hashReq("a"))
	resB := pool.Submit(hashReq("b"))
	resC := pool.Submit(hashReq("c"))

	assert.ElementsMatch(t, []string{"a", "b"}, waitStarted(t, exec, 2))
	assert.Equal(t, 1, pool.Stats().QueueDepth)

	exec.release("a")
	a := <-resA
	require.NoError(t, a.Err)
	assert.Equal(t, []string{"c"}, waitStarted(t, exec, 1), "c dispatches to the worker freed by a")

	exec.release("b")
	exec.release("c")
	b, c := <-resB, <-resC
	require.NoError(t, b.Err)
	require.NoError(t, c.Err)

	for plaintext, hash := range map[string]string{"a": a.Hash, "b": b.Hash, "c": c.Hash} {
		assert.NotEqual(t, plaintext, hash)
		assert.True(t, strings.HasPrefix(hash, "hashed:"))
	}
}

func TestShutdownRejectsOutstandingWork(t *testing.T) {
	exec := newGateExecutor()
	pool := hashpool.New(exec, hashpool.Config{Workers: 2}, discardLogger())
	pool.Initialize()

	inflight := []<-chan hashpool.Result{
		pool.Submit(hashReq("f1")),
		pool.Submit(hashReq("f2")),
	}
	waitStarted(t, exec, 2)
	queued := []<-chan hashpool.Result{
		pool.Submit(hashReq("q1")),
		pool.Submit(hashReq("q2")),
	}

	shutdownDone := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(shutdownDone)
	}()

	// Every outstanding caller settles with the shutdown error even while
	// workers are still finishing their operations.
	for _, ch := range append(inflight, queued...) {
		select {
		case res := <-ch:
			assert.ErrorIs(t, res.Err, hashpool.ErrPoolShuttingDown)
		case <-time.After(2 * time.Second):
			t.Fatal("outstanding task not settled during shutdown")
		}
	}

	select {
	case <-shutdownDone:
		t.Fatal("shutdown returned while workers were still running")
	case <-time.After(50 * time.Millisecond):
	}

	exec.releaseAll()
	select {
	case <-shutdownDone:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete after workers finished")
	}

	stats := pool.Stats()
	assert.Equal(t, 0, stats.Live)
	assert.False(t, stats.Ready)
}

func TestSubmitAfterShutdownIsRejected(t *testing.T) {
	pool := hashpool.New(&funcExecutor{}, hashpool.Config{Workers: 1}, discardLogger())
	pool.Initialize()
	pool.Shutdown()

	res := <-pool.Submit(hashReq("secret"))
	assert.ErrorIs(t, res.Err, hashpool.ErrPoolShuttingDown)
}

func TestShutdownIsIdempotent(t *testing.T) {
	pool := hashpool.New(&funcExecutor{}, hashpool.Config{Workers: 1}, discardLogger())
	pool.Initialize()
	pool.Shutdown()
	pool.Shutdown()
}

func TestReinitializeAfterShutdown(t *testing.T) {
	pool := hashpool.New(&funcExecutor{}, hashpool.Config{Workers: 2}, discardLogger())
	pool.Initialize()
	pool.Shutdown()

	pool.Initialize()
	defer pool.Shutdown()

	res := <-pool.Submit(hashReq("again"))
	require.NoError(t, res.Err)
	assert.Equal(t, "hashed:again", res.Hash)
}
