// Package correlation matches asynchronously delivered results to the
// requests that are waiting for them.
//
// A caller registers a request identifier before it sends the request, waits
// on the returned Pending, and finally calls Take to remove the entry. The
// stream listener calls Resolve when a correlated event arrives. Whichever of
// Resolve and Take reaches an entry first decides its fate; the other becomes
// a no-op.
package correlation

import (
	"sync"
	"sync/atomic"

	"github.com/Yaswanth-ampolu/productdemo/src/mcperr"
)

// Result is the value delivered to a waiting caller.
type Result struct {
	Payload any
	Err     error
}

// Pending is a registered request awaiting its result.
type Pending struct {
	id       string
	done     chan struct{}
	result   Result
	resolved bool
}

// ID returns the request identifier.
func (p *Pending) ID() string { return p.id }

// Done is closed once the entry has been resolved.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Table is a concurrency-safe map from request identifier to Pending.
// The zero value is not usable; call NewTable.
type Table struct {
	mu        sync.Mutex
	entries   map[string]*Pending
	discarded atomic.Uint64
	onDiscard func(id string)
}

// NewTable returns an empty table. onDiscard, if non-nil, is called (outside
// the table lock) for every result that finds no waiting entry.
func NewTable(onDiscard func(id string)) *Table {
	return &Table{
		entries:   make(map[string]*Pending),
		onDiscard: onDiscard,
	}
}

// Register inserts a new entry for id. Registering an identifier that is
// already present is a caller bug and yields a DuplicateIdentifier error.
func (t *Table) Register(id string) (*Pending, error) {
	if id == "" {
		return nil, mcperr.Newf(mcperr.KindDuplicateIdentifier, id, "", "empty request identifier")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[id]; exists {
		return nil, mcperr.Newf(mcperr.KindDuplicateIdentifier, id, "", "identifier already registered")
	}
	p := &Pending{id: id, done: make(chan struct{})}
	t.entries[id] = p
	return p, nil
}

// Resolve stores res for id and wakes its waiter. It returns false, and
// counts a discard, when id is unknown or was already resolved.
func (t *Table) Resolve(id string, res Result) bool {
	t.mu.Lock()
	p, ok := t.entries[id]
	if ok && !p.resolved {
		p.result = res
		p.resolved = true
		close(p.done)
		t.mu.Unlock()
		return true
	}
	t.mu.Unlock()

	t.discarded.Add(1)
	if t.onDiscard != nil {
		t.onDiscard(id)
	}
	return false
}

// Take removes id from the table and returns its result if one was stored.
// Taking an absent or unresolved id is not an error; the entry is simply
// gone afterwards.
func (t *Table) Take(id string) (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.entries[id]
	if !ok {
		return Result{}, false
	}
	delete(t.entries, id)
	if !p.resolved {
		return Result{}, false
	}
	return p.result, true
}

// FailAll resolves every unresolved entry with err. Entries stay registered
// until their callers Take them.
func (t *Table) FailAll(err error) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, p := range t.entries {
		if p.resolved {
			continue
		}
		p.result = Result{Err: mcperr.WithCall(err, p.id, "")}
		p.resolved = true
		close(p.done)
		n++
	}
	return n
}

// Contains reports whether id is currently registered.
func (t *Table) Contains(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[id]
	return ok
}

// Len returns the number of registered entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Discarded returns how many results found no waiting entry.
func (t *Table) Discarded() uint64 {
	return t.discarded.Load()
}
