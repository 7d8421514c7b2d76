// Package idgen issues monotonic T#### task IDs from a persistent counter
// kept in the project's _meta block (spec §4.3, component 4). IDs of
// deleted tasks are never reused; on collision the counter skips forward.
package idgen

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	prefix   = "T"
	minDigits = 3
)

// Next returns the next candidate ID given the current sequence cursor and
// advances cursor by reference. Callers must verify uniqueness against the
// active+archive+cancelled sets (EnsureUnique) before committing.
func Next(cursor *int) string {
	*cursor++
	return Format(*cursor)
}

// Format renders a sequence number as a T#### ID, zero-padded to at least
// minDigits.
func Format(n int) string {
	return fmt.Sprintf("%s%0*d", prefix, minDigits, n)
}

// Parse extracts the numeric sequence from a T#### ID. Returns ok=false
// for malformed IDs.
func Parse(id string) (n int, ok bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	digits := id[len(prefix):]
	if digits == "" {
		return 0, false
	}
	v, err := strconv.Atoi(digits)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// EnsureUnique advances cursor past any collision against exists, trying
// successive sequence numbers until one is free. It never reuses an ID
// that exists is aware of (active, archive, or cancelled).
func EnsureUnique(cursor *int, exists func(id string) bool) string {
	for {
		candidate := Next(cursor)
		if !exists(candidate) {
			return candidate
		}
		// Collision: the counter already points past this ID logically but
		// some external process inserted it directly; skip forward (§4.3).
	}
}
