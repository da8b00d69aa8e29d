//go:build !debug

package rtevent

// assertType is a no-op outside the 'debug' build tag.
func assertType(e Event, want ...Type) {}
