// Package oncemap provides a concurrent map whose values are computed at most
// once per key.
//
// A [Map] never caches failure. When the computation for a key returns an
// error (or panics), the in-flight entry is discarded, every goroutine that
// was waiting on it retries from scratch, and a later call may succeed.
//
// Computations for distinct keys run in parallel: the map's lock is held only
// to look up, insert, or remove entries and never while a computation runs.
package oncemap

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// Map is a memoizing map from K to V. The zero value is ready to use.
// A Map must not be copied after first use.
type Map[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

// Stats is a snapshot of a [Map]'s lookup counters.
type Stats struct {
	// Hits counts lookups served by a completed entry, including waiters that
	// blocked on an in-flight computation which then succeeded.
	Hits int64
	// Misses counts computations started.
	Misses int64
	// Failures counts computations that returned an error or panicked.
	Failures int64
}

// ComputeFunc computes the value for key. It returns an owned copy of key
// (equal to key) along with the value; the owned key is stored in the map.
type ComputeFunc[K comparable, V any] func(key K) (K, V, error)

type entry[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// errAborted is observed only by waiters, which respond by retrying.
var errAborted = errors.New("oncemap: computation aborted")

// GetOrTryInsert returns the value stored for key, computing it with compute
// if absent, and converts it with adapt before returning.
//
// At most one compute for a given key runs at a time. Concurrent callers for
// the same key block until it finishes; on success they all observe the same
// stored value. On failure the computing caller receives the error, nothing is
// stored, and the blocked callers retry.
//
// compute must return a key equal to its argument; GetOrTryInsert panics
// otherwise.
func GetOrTryInsert[K comparable, V, R any](
	m *Map[K, V],
	key K,
	compute ComputeFunc[K, V],
	adapt func(V) R,
) (R, error) {
	v, err := m.GetOrTryInsert(key, compute)
	if err != nil {
		var zero R

		return zero, err
	}

	return adapt(v), nil
}

// GetOrTryInsert is [GetOrTryInsert] with the identity adaptation.
func (m *Map[K, V]) GetOrTryInsert(key K, compute ComputeFunc[K, V]) (V, error) {
	for {
		m.mu.Lock()

		if m.entries == nil {
			m.entries = make(map[K]*entry[V])
		}

		e, ok := m.entries[key]
		if !ok {
			e = &entry[V]{done: make(chan struct{})}
			m.entries[key] = e
			m.mu.Unlock()
			m.misses.Inc()

			return m.fill(key, e, compute)
		}

		m.mu.Unlock()

		<-e.done

		if e.err == nil {
			m.hits.Inc()

			return e.value, nil
		}
		// The entry was removed before done was closed; look again.
	}
}

// fill runs compute for the in-flight entry e and publishes the outcome.
func (m *Map[K, V]) fill(key K, e *entry[V], compute ComputeFunc[K, V]) (V, error) {
	published := false

	defer func() {
		if !published {
			// compute panicked, or returned a foreign key
			m.failures.Inc()
			m.discard(key, e, errAborted)
		}
	}()

	owned, value, err := compute(key)
	if err != nil {
		published = true

		m.failures.Inc()
		m.discard(key, e, err)

		var zero V

		return zero, err
	}

	if owned != key {
		panic(fmt.Sprintf("oncemap: computed key %v differs from requested key %v", owned, key))
	}

	e.value = value
	published = true

	// Re-store under the owned key so the map retains the computed copy.
	m.mu.Lock()
	m.entries[owned] = e
	m.mu.Unlock()

	close(e.done)

	return value, nil
}

// discard removes e from the map and wakes its waiters with err.
func (m *Map[K, V]) discard(key K, e *entry[V], err error) {
	m.mu.Lock()

	if m.entries[key] == e {
		delete(m.entries, key)
	}

	m.mu.Unlock()

	e.err = err
	close(e.done)
}

// Load returns the completed value stored for key, if any.
// It never blocks on an in-flight computation.
func (m *Map[K, V]) Load(key K) (V, bool) {
	m.mu.Lock()
	e, ok := m.entries[key]
	m.mu.Unlock()

	if ok {
		select {
		case <-e.done:
			if e.err == nil {
				return e.value, true
			}
		default:
		}
	}

	var zero V

	return zero, false
}

// Len returns the number of entries, including in-flight computations.
func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

// Stats returns a snapshot of the map's counters.
func (m *Map[K, V]) Stats() Stats {
	return Stats{
		Hits:     m.hits.Load(),
		Misses:   m.misses.Load(),
		Failures: m.failures.Load(),
	}
}
