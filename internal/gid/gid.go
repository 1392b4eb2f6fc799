// Package gid gives components a cheap way to assert thread affinity: the
// timer frontend and the task frames both require that their operations
// only ever run on their owning executor's goroutine.
package gid

import "runtime"

// ID is a goroutine identifier, as parsed from runtime.Stack. The zero value
// never compares equal to a running goroutine's Current ID, since goroutine
// 0 is reserved for the runtime itself — it's a safe "unowned" sentinel for
// an atomic.Uint64-backed owner field that hasn't been claimed yet.
type ID uint64

// IsCurrent reports whether id names the calling goroutine.
func (id ID) IsCurrent() bool { return id == Current() }

// Current parses the running goroutine's ID out of runtime.Stack, tagging
// "the owning goroutine" so reentrancy and cross-goroutine misuse can be
// asserted cheaply without plumbing a context value through every call.
func Current() ID {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id ID
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + ID(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
