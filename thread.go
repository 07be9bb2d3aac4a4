package threadcore

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/llxisdsh/pb"

	"github.com/llxisdsh/threadcore/internal/opt"
)

// ThreadID identifies a thread created by CreateThread. Ids are never reused.
type ThreadID uint64

// ThreadFunc is the entry point of a thread.
type ThreadFunc func(arg any)

// DefaultMaxThreads is the initial limit on live threads created through
// CreateThread. It matches the Go runtime's own default OS thread limit.
const DefaultMaxThreads = 10000

// ThreadHandle is the opaque handle of a running or exited thread.
// It stays valid until DestroyThread.
type ThreadHandle struct {
	_     noCopy
	id    ThreadID
	osTID atomic.Int64
	done  Latch
}

// ID returns the handle's process-unique id.
func (h *ThreadHandle) ID() ThreadID { return h.id }

// OSThreadID returns the kernel id of the OS thread running the entry
// function, or 0 before it has started or where the platform has none.
func (h *ThreadHandle) OSThreadID() int64 { return h.osTID.Load() }

// Exited reports whether the entry function has returned.
func (h *ThreadHandle) Exited() bool { return h.done.IsOpen() }

// Process-wide thread table. The zero values are ready for use, so there is
// no lazy initialization to race on.
var (
	threads    pb.MapOf[ThreadID, *ThreadHandle]
	threadSeq  atomic.Uint64
	liveCount  int64
	maxThreads atomic.Int64
)

func init() {
	maxThreads.Store(DefaultMaxThreads)
}

// SetMaxThreads sets the limit on live threads and returns the previous
// limit. CreateThread fails with ErrResource once the limit is reached.
func SetMaxThreads(n int) int {
	return int(maxThreads.Swap(int64(max(n, 0))))
}

// ThreadCount returns the number of threads whose entry has not returned.
func ThreadCount() int {
	return int(atomic.LoadInt64(&liveCount))
}

// CreateThread starts a new thread executing entry(arg). The entry runs on
// a goroutine wired to its own OS thread for its whole life; the OS thread
// is torn down when the entry returns.
func CreateThread(entry ThreadFunc, arg any) (*ThreadHandle, error) {
	if entry == nil {
		return nil, fmt.Errorf("%w: nil thread entry", ErrState)
	}
	if !reserveThread() {
		return nil, fmt.Errorf("%w: thread limit %d reached", ErrResource, maxThreads.Load())
	}

	h := &ThreadHandle{id: ThreadID(threadSeq.Add(1))}
	threads.Store(h.id, h)

	go func() {
		// Never unlocked: the runtime terminates the OS thread when this
		// goroutine exits while still locked.
		runtime.LockOSThread()
		h.osTID.Store(opt.ThreadID())
		logger().Debug().
			Uint64("thread", uint64(h.id)).
			Int64("tid", h.osTID.Load()).
			Msg("thread started")
		defer func() {
			atomic.AddInt64(&liveCount, -1)
			h.done.Open()
			logger().Debug().Uint64("thread", uint64(h.id)).Msg("thread exited")
		}()
		entry(arg)
	}()
	return h, nil
}

func reserveThread() bool {
	for {
		n := atomic.LoadInt64(&liveCount)
		if n >= maxThreads.Load() {
			return false
		}
		if CompareAndSwap(&liveCount, n, n+1) == n {
			return true
		}
	}
}

// WaitForThread blocks until the thread's entry function returns.
func WaitForThread(h *ThreadHandle) error {
	if err := checkThread(h); err != nil {
		return err
	}
	h.done.Wait()
	return nil
}

// DestroyThread releases the handle of a thread that has exited. Destroying
// a thread that is still running is reported as ErrState; join it first.
func DestroyThread(h *ThreadHandle) error {
	if err := checkThread(h); err != nil {
		return err
	}
	if !h.done.IsOpen() {
		return fmt.Errorf("%w: thread %d is still running", ErrState, h.id)
	}
	if _, ok := threads.LoadAndDelete(h.id); !ok {
		return fmt.Errorf("%w: thread %d already destroyed", ErrResource, h.id)
	}
	return nil
}

func checkThread(h *ThreadHandle) error {
	if h == nil {
		return fmt.Errorf("%w: nil thread handle", ErrResource)
	}
	if v, ok := threads.Load(h.id); !ok || v != h {
		return fmt.Errorf("%w: unknown thread handle %d", ErrResource, h.id)
	}
	return nil
}
