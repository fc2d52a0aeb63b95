package actor

import "sync/atomic"

// nextActorID hands out process-wide unique actor identities.
var nextActorID atomic.Uint64

// Ref is an opaque handle to an actor, used to address a reply. The zero
// Ref denotes "no sender" (e.g. a message posted via Post rather than
// PostFrom).
type Ref struct {
	id uint64
}

// Valid reports whether r identifies an actual actor, as opposed to the
// zero Ref.
func (r Ref) Valid() bool {
	return r.id != 0
}
