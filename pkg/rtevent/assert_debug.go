//go:build debug

package rtevent

import "fmt"

// assertType panics if e's tag is not one of want. It is compiled in only
// under the 'debug' build tag so release builds pay zero cost for the check
// on the realtime path, mirroring pkg/dsp/debug's allocation-tracking pattern.
func assertType(e Event, want ...Type) {
	for _, t := range want {
		if e.Type == t {
			return
		}
	}
	panic(fmt.Sprintf("rtevent: accessor called on event of type %d, expected one of %v", e.Type, want))
}
