package actor

import "errors"

// ErrActorBusy is returned by Receive when the actor is not Inactive: it is
// already scheduler-driven (PendingReact/Reacting) or another goroutine is
// already pinned inside Receive (Receiving). An actor supports at most one
// pinned receiver at a time, and Receive and the scheduler-driven React path
// are mutually exclusive.
var ErrActorBusy = errors.New("actor: actor is not inactive")
