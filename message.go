package threadcore

// Kind tags a message. Its meaning is defined by the Handler.
type Kind uint32

// KindStop is reserved: it terminates a worker's dispatch loop and is never
// handed to a Handler.
const KindStop = ^Kind(0)

// Message is one pending unit of work. Param1 and Param2 are opaque
// pointer-sized words owned by the poster and the handler.
type Message struct {
	Kind     Kind
	Param1   uintptr
	Param2   uintptr
	Priority int

	// seq orders messages within a worker; it identifies a message when
	// a post has to be withdrawn.
	seq uint64
}

// Handler receives the messages dispatched by a Worker. HandleMessage runs
// on the worker's own thread, one message at a time.
type Handler interface {
	HandleMessage(kind Kind, p1, p2 uintptr)
}

// Destructor is implemented by handlers that need a hook on the worker's
// thread after its loop ends.
type Destructor interface {
	OnDestruct()
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(kind Kind, p1, p2 uintptr)

// HandleMessage calls f(kind, p1, p2).
func (f HandlerFunc) HandleMessage(kind Kind, p1, p2 uintptr) {
	f(kind, p1, p2)
}
