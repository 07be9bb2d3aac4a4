package threadcore

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
	"github.com/rs/zerolog"

	"github.com/llxisdsh/threadcore/internal/opt"
)

type workerState int32

const (
	stateInert workerState = iota
	stateInitialized
	stateRunning
)

var workerSeq atomic.Uint64

// Worker runs a dispatch loop on a dedicated thread, consuming messages
// posted from other goroutines through one FIFO per priority level.
//
// Lifecycle: NewWorker → Init → Start → PostMessage... → Stop. A stopped
// worker is inert again and must be re-initialized before the next Start.
// Close tears everything down and may be called in any state.
//
// The loop blocks on a counting semaphore whose value is the number of
// pending messages. Each wakeup takes the oldest message of the highest
// non-empty priority, so a steady stream at a high priority starves the
// lower ones indefinitely.
type Worker struct {
	_       noCopy
	handler Handler
	name    string
	log     zerolog.Logger
	limit   int
	onDtor  func()

	// ctl serializes Init, Start, Stop and Close.
	ctl sync.Mutex
	// post serializes producers, and guards queues, maxPriority and seq
	// against the controller.
	post  RecursiveMutex
	state atomic.Int32

	maxPriority int
	queues      []*MessageQueue
	sem         CountingSemaphore
	thread      *ThreadHandle
	seq         uint64
	loopGID     atomic.Int64
	// loopDead is set as soon as the dispatch loop gives up on a primitive
	// failure, before the destruct hooks run.
	loopDead atomic.Bool

	posted     opt.Counter_
	dispatched opt.Counter_
}

// WorkerStats is a snapshot of a worker's queues and counters.
type WorkerStats struct {
	Running     bool
	MaxPriority int
	// Pending holds the number of queued messages per priority.
	Pending []int
	// Semaphore is the value of the pending-message semaphore.
	Semaphore  int
	Posted     uint64
	Dispatched uint64
}

// NewWorker creates an inert worker dispatching to h.
func NewWorker(h Handler, opts ...Option) (*Worker, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil handler", ErrState)
	}
	cfg, err := resolveWorkerOptions(opts)
	if err != nil {
		return nil, err
	}
	name := cfg.name
	if name == "" {
		name = "worker-" + strconv.FormatUint(workerSeq.Add(1), 10)
	}
	base := logger()
	if cfg.logger != nil {
		base = cfg.logger
	}
	return &Worker{
		handler: h,
		name:    name,
		log:     base.With().Str("worker", name).Logger(),
		limit:   cfg.queueLimit,
		onDtor:  cfg.onDestruct,
	}, nil
}

// Name returns the worker's name.
func (w *Worker) Name() string { return w.name }

// Running reports whether the worker has been started and not yet stopped.
func (w *Worker) Running() bool {
	return workerState(w.state.Load()) == stateRunning
}

// MaxPriority returns the highest priority accepted by PostMessage, or -1
// before Init.
func (w *Worker) MaxPriority() int {
	l, err := Lock(&w.post)
	if err != nil {
		return -1
	}
	defer l.Release()
	if workerState(w.state.Load()) == stateInert {
		return -1
	}
	return w.maxPriority
}

// Init allocates maxPriority+1 queues and the pending-message semaphore.
// It fails with ErrAlreadyRunning while the worker runs; otherwise any
// previous initialization is replaced.
func (w *Worker) Init(maxPriority int) error {
	if maxPriority < 0 {
		return fmt.Errorf("%w: negative max priority %d", ErrState, maxPriority)
	}
	w.ctl.Lock()
	defer w.ctl.Unlock()
	if workerState(w.state.Load()) == stateRunning {
		return fmt.Errorf("%w: init of worker %s", ErrAlreadyRunning, w.name)
	}
	if err := w.post.Init(); err != nil {
		return err
	}
	l, err := Lock(&w.post)
	if err != nil {
		return err
	}
	defer l.Release()

	queues := make([]*MessageQueue, maxPriority+1)
	for i := range queues {
		queues[i] = NewMessageQueue(w.limit)
	}
	if err := w.sem.Init(0); err != nil {
		return err
	}
	w.queues = queues
	w.maxPriority = maxPriority
	w.state.Store(int32(stateInitialized))
	w.log.Debug().Int("maxPriority", maxPriority).Msg("worker initialized")
	return nil
}

// Start spawns the worker's thread.
func (w *Worker) Start() error {
	w.ctl.Lock()
	defer w.ctl.Unlock()
	switch workerState(w.state.Load()) {
	case stateInert:
		return fmt.Errorf("%w: start of worker %s", ErrNotInitialized, w.name)
	case stateRunning:
		return fmt.Errorf("%w: start of worker %s", ErrAlreadyRunning, w.name)
	}
	w.loopDead.Store(false)
	h, err := CreateThread(workerMain, w)
	if err != nil {
		return err
	}
	w.thread = h
	w.state.Store(int32(stateRunning))
	w.log.Debug().Uint64("thread", uint64(h.ID())).Msg("worker started")
	return nil
}

// PostMessage queues a message at the given priority and wakes the worker.
// It never blocks on the worker. priority must be within 0..MaxPriority and
// kind must not be KindStop; violating either panics.
//
// Concurrent producers are serialized, so messages of one priority are
// dispatched in the order their PostMessage calls took effect. If the
// message cannot be queued, the error is returned and nothing is changed.
func (w *Worker) PostMessage(kind Kind, p1, p2 uintptr, priority int) error {
	if kind == KindStop {
		panic("threadcore: KindStop is reserved for Stop")
	}
	return w.enqueue(Message{Kind: kind, Param1: p1, Param2: p2, Priority: priority})
}

func (w *Worker) enqueue(m Message) error {
	l, err := Lock(&w.post)
	if err != nil {
		return fmt.Errorf("%w: post to worker %s", ErrNotInitialized, w.name)
	}
	defer l.Release()
	switch workerState(w.state.Load()) {
	case stateInert:
		return fmt.Errorf("%w: post to worker %s", ErrNotInitialized, w.name)
	case stateInitialized:
		return fmt.Errorf("%w: post to worker %s", ErrNotRunning, w.name)
	}
	if m.Priority < 0 || m.Priority > w.maxPriority {
		panic(fmt.Sprintf("threadcore: priority %d out of range 0..%d", m.Priority, w.maxPriority))
	}

	w.seq++
	m.seq = w.seq
	q := w.queues[m.Priority]
	if m.Kind == KindStop {
		q.enqueueForced(m)
	} else if err := q.Enqueue(m); err != nil {
		return err
	}
	if err := w.sem.Increment(); err != nil {
		q.withdraw(m.seq)
		return err
	}
	w.posted.Add(1)
	return nil
}

// Stop asks the loop to exit and waits for its thread. An urgent stop is
// queued at MaxPriority and overtakes all pending work; otherwise it is
// queued at priority 0 behind the messages already waiting there. Messages
// still queued when the loop exits are discarded. Stop blocks as long as
// the current handler does.
func (w *Worker) Stop(urgent bool) error {
	if w.onLoop() {
		return fmt.Errorf("%w: worker %s cannot stop itself", ErrState, w.name)
	}
	w.ctl.Lock()
	defer w.ctl.Unlock()
	return w.stopLocked(urgent)
}

func (w *Worker) stopLocked(urgent bool) error {
	if workerState(w.state.Load()) != stateRunning {
		return fmt.Errorf("%w: stop of worker %s", ErrNotRunning, w.name)
	}
	priority := 0
	if urgent {
		priority = w.maxPriority
	}
	if err := w.enqueue(Message{Kind: KindStop, Priority: priority}); err != nil {
		// A loop that died on a primitive failure can no longer consume the
		// stop message, but it is on its way out and can still be joined.
		if !w.loopGone(err) {
			return fmt.Errorf("posting stop to worker %s: %w", w.name, err)
		}
		w.log.Debug().Err(err).Msg("stop not queued, joining a dead loop")
	}
	if err := WaitForThread(w.thread); err != nil {
		return err
	}
	if err := DestroyThread(w.thread); err != nil {
		return err
	}
	w.thread = nil
	w.teardown()
	w.log.Debug().Bool("urgent", urgent).Msg("worker stopped")
	return nil
}

// loopGone reports whether a failed stop post means the loop has exited or
// is exiting. A broken semaphore ends the loop on its next Decrement.
func (w *Worker) loopGone(postErr error) bool {
	return w.loopDead.Load() || w.thread.Exited() ||
		errors.Is(postErr, ErrState) || errors.Is(postErr, ErrNotInitialized)
}

// onLoop reports whether the caller is the worker's own dispatch loop.
func (w *Worker) onLoop() bool {
	return w.loopGID.Load() == goid.Get()
}

// teardown drops the queues and the semaphore and makes the worker inert.
func (w *Worker) teardown() {
	l, err := Lock(&w.post)
	if err != nil {
		return
	}
	defer l.Release()
	var dropped int
	for _, q := range w.queues {
		dropped += q.clear()
	}
	if dropped > 0 {
		w.log.Debug().Int("dropped", dropped).Msg("discarded undispatched messages")
	}
	if err := w.sem.Close(); err != nil {
		w.log.Debug().Err(err).Msg("closing semaphore")
	}
	w.queues = nil
	w.state.Store(int32(stateInert))
}

// Close stops the worker if it is running and releases its resources. A
// failed stop is logged and otherwise ignored. A worker that was never
// started is released without joining anything. Close is idempotent. Like
// Stop, it fails with ErrState when called from the worker's own handler.
func (w *Worker) Close() error {
	if w.onLoop() {
		return fmt.Errorf("%w: worker %s cannot close itself", ErrState, w.name)
	}
	w.ctl.Lock()
	defer w.ctl.Unlock()
	if workerState(w.state.Load()) == stateRunning {
		if err := w.stopLocked(true); err != nil {
			w.log.Warn().Err(err).Msg("stop during close failed")
			return nil
		}
	}
	if workerState(w.state.Load()) == stateInitialized {
		w.teardown()
	}
	if err := w.post.Close(); err != nil {
		w.log.Warn().Err(err).Msg("closing producer mutex")
	}
	return nil
}

// Stats returns a snapshot of the worker. With the loop idle or blocked in
// a handler, Semaphore equals the sum of Pending.
func (w *Worker) Stats() WorkerStats {
	st := WorkerStats{
		Posted:     w.posted.Load(),
		Dispatched: w.dispatched.Load(),
	}
	l, err := Lock(&w.post)
	if err != nil {
		return st
	}
	defer l.Release()
	st.Running = workerState(w.state.Load()) == stateRunning
	if workerState(w.state.Load()) == stateInert {
		return st
	}
	st.MaxPriority = w.maxPriority
	st.Pending = make([]int, len(w.queues))
	for i, q := range w.queues {
		st.Pending[i] = q.Len()
	}
	st.Semaphore = w.sem.Value()
	return st
}

func workerMain(arg any) {
	arg.(*Worker).run()
}

// run is the dispatch loop. It owns the worker's thread.
func (w *Worker) run() {
	w.loopGID.Store(goid.Get())
	defer w.loopGID.Store(0)
	defer w.destruct()

	for {
		if err := w.sem.Decrement(); err != nil {
			w.loopDead.Store(true)
			w.log.Error().Err(err).Msg("dispatch loop stopped: semaphore failure")
			return
		}
		m, ok := w.next()
		if !ok {
			w.log.Warn().Msg("woken without a pending message")
			continue
		}
		if m.Kind == KindStop {
			return
		}
		w.handler.HandleMessage(m.Kind, m.Param1, m.Param2)
		w.dispatched.Add(1)
	}
}

// next takes the oldest message of the highest non-empty priority.
func (w *Worker) next() (Message, bool) {
	for p := len(w.queues) - 1; p >= 0; p-- {
		if m, ok := w.queues[p].Dequeue(); ok {
			return m, true
		}
	}
	return Message{}, false
}

func (w *Worker) destruct() {
	if d, ok := w.handler.(Destructor); ok {
		d.OnDestruct()
	}
	if w.onDtor != nil {
		w.onDtor()
	}
}
