// Package indexer maintains an inverted text index on a dedicated worker
// thread. Updates are posted asynchronously and applied in order; searches
// read the current index from any goroutine.
package indexer

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/llxisdsh/pb"
	"github.com/rs/zerolog"

	"github.com/llxisdsh/threadcore"
)

// DocID identifies an indexed document.
type DocID string

const (
	kindIndex threadcore.Kind = iota + 1
	kindRemove
	kindPurge
	kindSync
)

const (
	priorityUpdate = 0
	priorityPurge  = 1
)

type job struct {
	id   DocID
	text string
	done *barrier
}

// barrier is what a Sync waits on. dropped is set when the worker shut
// down without reaching it.
type barrier struct {
	threadcore.Latch
	dropped atomic.Bool
}

// Index is an inverted index whose updates run on a worker thread.
//
// IndexDocument, RemoveDocument and Sync share one priority and are applied
// in the order they were posted. Purge runs at a higher priority and clears
// the index ahead of updates still queued.
type Index struct {
	w   *threadcore.Worker
	log zerolog.Logger

	// jobs holds the payload of each posted update, keyed by the ticket
	// carried in the message's first parameter.
	jobs   pb.MapOf[uint64, job]
	ticket atomic.Uint64

	// Written only by the worker thread. Posting lists are sorted and
	// replaced rather than mutated, so readers never see a partial update.
	docs     pb.MapOf[DocID, []string]
	postings pb.MapOf[string, []DocID]
}

// New creates an index and starts its worker thread.
func New(opts ...Option) (*Index, error) {
	cfg := config{name: "indexer"}
	for _, o := range opts {
		o(&cfg)
	}
	x := &Index{log: zerolog.Nop()}
	if cfg.logger != nil {
		x.log = *cfg.logger
	}

	wopts := []threadcore.Option{
		threadcore.WithName(cfg.name),
		threadcore.WithLogger(x.log),
		threadcore.WithQueueLimit(cfg.queueLimit),
	}
	w, err := threadcore.NewWorker((*applier)(x), wopts...)
	if err != nil {
		return nil, err
	}
	if err := w.Init(priorityPurge); err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		_ = w.Close()
		return nil, err
	}
	x.w = w
	return x, nil
}

// IndexDocument queues text to be indexed under id, replacing any earlier
// content of the same document.
func (x *Index) IndexDocument(id DocID, text string) error {
	return x.post(kindIndex, job{id: id, text: text}, priorityUpdate)
}

// RemoveDocument queues the removal of id.
func (x *Index) RemoveDocument(id DocID) error {
	return x.post(kindRemove, job{id: id}, priorityUpdate)
}

// Purge clears the index ahead of any updates still queued.
func (x *Index) Purge() error {
	return x.post(kindPurge, job{}, priorityPurge)
}

// Sync waits until every update posted before it has been applied.
func (x *Index) Sync() error {
	done := &barrier{}
	if err := x.post(kindSync, job{done: done}, priorityUpdate); err != nil {
		return err
	}
	done.Wait()
	if done.dropped.Load() {
		return fmt.Errorf("indexer: sync abandoned at shutdown: %w", threadcore.ErrNotRunning)
	}
	return nil
}

func (x *Index) post(kind threadcore.Kind, j job, priority int) error {
	t := x.ticket.Add(1)
	x.jobs.Store(t, j)
	if err := x.w.PostMessage(kind, uintptr(t), 0, priority); err != nil {
		x.jobs.Delete(t)
		return fmt.Errorf("indexer: posting update: %w", err)
	}
	return nil
}

// Search returns the sorted ids of the documents containing every term of
// query. A query without terms matches nothing.
func (x *Index) Search(query string) []DocID {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}
	result, _ := x.postings.Load(terms[0])
	result = slices.Clone(result)
	for _, term := range terms[1:] {
		if len(result) == 0 {
			break
		}
		ids, _ := x.postings.Load(term)
		result = intersect(result, ids)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// Documents returns the number of indexed documents.
func (x *Index) Documents() int { return x.docs.Size() }

// Terms returns the number of distinct indexed terms.
func (x *Index) Terms() int { return x.postings.Size() }

// Stats exposes the state of the index worker.
func (x *Index) Stats() threadcore.WorkerStats { return x.w.Stats() }

// Close applies the updates already queued, then stops the worker. A Sync
// blocked when Close is called returns once its barrier is reached, or
// fails with threadcore.ErrNotRunning if the worker discarded it.
func (x *Index) Close() error {
	if err := x.w.Stop(false); err != nil && !errors.Is(err, threadcore.ErrNotRunning) {
		x.log.Warn().Err(err).Msg("indexer stop failed")
	}
	err := x.w.Close()
	x.dropPending()
	return err
}

// dropPending releases the updates the worker discarded when it stopped.
// Nothing can be posted once the worker is closed, so every job left in
// the table is an orphan.
func (x *Index) dropPending() {
	var n int
	x.jobs.Range(func(t uint64, j job) bool {
		if _, ok := x.jobs.LoadAndDelete(t); !ok {
			return true
		}
		n++
		if j.done != nil {
			j.done.dropped.Store(true)
			j.done.Open()
		}
		return true
	})
	if n > 0 {
		x.log.Warn().Int("updates", n).Msg("indexer closed with unapplied updates")
	}
}

// applier is the worker-side view of an Index.
type applier Index

// HandleMessage applies one update.
func (a *applier) HandleMessage(kind threadcore.Kind, p1, _ uintptr) {
	x := (*Index)(a)
	j, ok := x.jobs.LoadAndDelete(uint64(p1))
	if !ok {
		x.log.Warn().Uint64("ticket", uint64(p1)).Msg("update without payload")
		return
	}
	switch kind {
	case kindIndex:
		x.remove(j.id)
		x.add(j.id, Tokenize(j.text))
	case kindRemove:
		x.remove(j.id)
	case kindPurge:
		x.purge()
	case kindSync:
		j.done.Open()
	}
}

func (a *applier) OnDestruct() {
	x := (*Index)(a)
	x.log.Debug().Int("documents", x.docs.Size()).Msg("index worker exiting")
}

func (x *Index) add(id DocID, terms []string) {
	x.docs.Store(id, terms)
	for _, term := range terms {
		old, _ := x.postings.Load(term)
		i, found := slices.BinarySearch(old, id)
		if found {
			continue
		}
		x.postings.Store(term, slices.Insert(slices.Clone(old), i, id))
	}
}

func (x *Index) remove(id DocID) {
	terms, ok := x.docs.LoadAndDelete(id)
	if !ok {
		return
	}
	for _, term := range terms {
		old, _ := x.postings.Load(term)
		i, found := slices.BinarySearch(old, id)
		if !found {
			continue
		}
		if len(old) == 1 {
			x.postings.Delete(term)
			continue
		}
		x.postings.Store(term, slices.Delete(slices.Clone(old), i, i+1))
	}
}

func (x *Index) purge() {
	n := x.docs.Size()
	x.docs.Range(func(id DocID, _ []string) bool {
		x.docs.Delete(id)
		return true
	})
	x.postings.Range(func(term string, _ []DocID) bool {
		x.postings.Delete(term)
		return true
	})
	x.log.Debug().Int("documents", n).Msg("index purged")
}

// intersect returns the ids present in both sorted slices.
func intersect(a, b []DocID) []DocID {
	out := a[:0]
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
