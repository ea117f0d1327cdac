// Package quark provides process-wide string interning.
//
// A quark is a small integer handle uniquely identifying a byte string
// for the lifetime of a Pool. Repeated short strings (station codes,
// channel names, datatype tags, file paths) dominate CSS 3.0 record
// traffic, so interning them once and comparing/hashing the handle
// instead of the string is the cheap win the rest of the module leans on.
package quark

import "sync"

// Handle is an opaque, comparable reference to an interned string.
// The zero Handle is reserved and never returned by Intern.
type Handle uint32

// Pool is a process-scoped intern table. Many readers, one writer at a
// time; Intern and Lookup are both safe for concurrent use.
//
// The package exposes a Default pool for convenience, but every entry
// point in the module accepts a *Pool so a test can construct an
// isolated instance rather than leaning on shared global state.
type Pool struct {
	mu      sync.RWMutex
	handles map[string]Handle
	strings []string // handle i lives at strings[i-1]; handle 0 is never issued
}

// NewPool constructs an empty, isolated intern pool.
func NewPool() *Pool {
	return &Pool{
		handles: make(map[string]Handle, 256),
		strings: make([]string, 0, 256),
	}
}

// Default is the process-wide pool used when callers don't need
// isolation (CLI entry points, package-level schema registration).
var Default = NewPool()

// Intern returns the handle for s, allocating a new one if s has not
// been seen before. Intern is deterministic and idempotent: interning
// the same string twice, even from different goroutines, returns the
// same handle.
func (p *Pool) Intern(s string) Handle {
	p.mu.RLock()
	if h, ok := p.handles[s]; ok {
		p.mu.RUnlock()
		return h
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	// Re-check under the write lock in case another writer raced us.
	if h, ok := p.handles[s]; ok {
		return h
	}
	p.strings = append(p.strings, s)
	h := Handle(len(p.strings))
	p.handles[s] = h
	return h
}

// Lookup returns the string a handle was interned from. It is
// infallible for any handle previously returned by Intern on this
// pool; ok is false only for a handle this pool never issued (the
// zero Handle, a handle from a different pool, or a stale handle from
// before a pool was discarded).
func (p *Pool) Lookup(h Handle) (string, bool) {
	if h == 0 {
		return "", false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	idx := int(h) - 1
	if idx < 0 || idx >= len(p.strings) {
		return "", false
	}
	return p.strings[idx], true
}

// Len reports the number of distinct strings interned so far.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.strings)
}
