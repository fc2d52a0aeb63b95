// ============================================================================
// Actor - Cooperative, Scheduler-Driven Message Loop
// ============================================================================
//
// Package: pkg/actor
// File: actor.go
// Function: A generic actor abstraction that multiplexes many logical
//           actors over a small number of goroutines via a pluggable
//           Scheduler (typically a pkg/pool.FairPool). Each actor owns a
//           plain FIFO mailbox and a 4-state machine: Inactive, Receiving,
//           PendingReact, Reacting.
//
// State machine:
//   Inactive     - idle, mailbox may or may not be empty, nobody is
//                  consuming it.
//   Receiving    - one goroutine is pinned inside Receive, waiting for the
//                  next message (or a timeout).
//   PendingReact - a reaction has been scheduled but has not started yet.
//   Reacting     - the scheduled reaction is actively draining the mailbox.
//
// Post transitions:
//   Inactive     -> PendingReact, and schedules runLoop on the Scheduler.
//   Receiving    -> unchanged; wakes the pinned Receive call directly,
//                   bypassing the scheduler entirely.
//   PendingReact -> unchanged; the already-scheduled reaction will see it.
//   Reacting     -> unchanged; the in-flight reaction will see it.
//
// loopBudget bounds how many messages a single runLoop invocation drains
// before yielding the underlying goroutine back to the scheduler (by
// rescheduling itself if the mailbox is still non-empty), so one busy actor
// cannot starve every other actor sharing the same pool.
//
// ============================================================================

package actor

import (
	"log/slog"
	"sync"
	"time"
)

var log = slog.Default()

type state int32

const (
	stateInactive state = iota
	stateReceiving
	statePendingReact
	stateReacting
)

// defaultLoopBudget bounds how many messages one runLoop invocation drains
// before rescheduling itself, when Config.LoopBudget is not set.
const defaultLoopBudget = 32

// Handler processes one message addressed to an actor. sender is the zero
// Ref if the message was posted via Post rather than PostFrom.
type Handler[M any] func(msg M, sender Ref)

// Config configures a Base actor at construction time.
type Config[M any] struct {
	// Handler processes each message drained from the mailbox. Required.
	Handler Handler[M]

	// Scheduler runs the actor's reaction loop. Required for Post-driven
	// actors; may be nil for actors that are only ever pumped via Receive.
	Scheduler Scheduler

	// LoopBudget bounds messages processed per scheduled reaction before
	// rescheduling. Values <= 0 default to 32.
	LoopBudget int
}

// Base is a cooperative actor over message type M. The zero value is not
// usable; use New.
type Base[M any] struct {
	id uint64

	mu     sync.Mutex
	mbox   mailbox[M]
	state  state
	waking chan struct{}

	handler    Handler[M]
	scheduler  Scheduler
	loopBudget int
}

// New constructs an actor from cfg. Panics if cfg.Handler is nil, since an
// actor with no handler can never make progress.
func New[M any](cfg Config[M]) *Base[M] {
	if cfg.Handler == nil {
		panic("actor: Config.Handler must not be nil")
	}
	budget := cfg.LoopBudget
	if budget <= 0 {
		budget = defaultLoopBudget
	}
	return &Base[M]{
		id:         nextActorID.Add(1),
		handler:    cfg.Handler,
		scheduler:  cfg.Scheduler,
		loopBudget: budget,
	}
}

// Ref returns this actor's opaque handle, suitable for passing to another
// actor's PostFrom so replies can be addressed back.
func (a *Base[M]) Ref() Ref {
	return Ref{id: a.id}
}

// Post enqueues msg with no sender.
func (a *Base[M]) Post(msg M) {
	a.post(msg, Ref{})
}

// PostFrom enqueues msg tagged with sender, so the eventual handler call can
// address a reply back.
func (a *Base[M]) PostFrom(msg M, sender Ref) {
	a.post(msg, sender)
}

func (a *Base[M]) post(msg M, sender Ref) {
	a.mu.Lock()
	a.mbox.pushBack(msg, sender)

	switch a.state {
	case stateInactive:
		if a.scheduler == nil {
			// Receive-only actor: the message waits for the next Receive.
			a.mu.Unlock()
			return
		}
		a.state = statePendingReact
		a.mu.Unlock()
		a.scheduler.Schedule(a.runLoop)
	case stateReceiving:
		w := a.waking
		a.waking = nil
		a.mu.Unlock()
		if w != nil {
			close(w)
		}
	default: // statePendingReact, stateReacting
		a.mu.Unlock()
	}
}

// Receive pins the calling goroutine to this actor: it blocks until a
// message arrives (or timeout elapses, if timeout > 0), bypassing the
// Scheduler entirely. It returns ErrActorBusy if the actor is not Inactive,
// since Receive and the scheduler-driven reaction path are mutually
// exclusive. ok is false on timeout; err is non-nil only for ErrActorBusy.
func (a *Base[M]) Receive(timeout time.Duration) (msg M, sender Ref, ok bool, err error) {
	a.mu.Lock()
	if a.state != stateInactive {
		a.mu.Unlock()
		var zero M
		return zero, Ref{}, false, ErrActorBusy
	}

	if e, got := a.mbox.popFront(); got {
		a.mu.Unlock()
		return e.msg, e.sender, true, nil
	}

	a.state = stateReceiving
	wake := make(chan struct{})
	a.waking = wake
	a.mu.Unlock()

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-wake:
		case <-timer.C:
			return a.receiveTimedOut()
		}
	} else {
		<-wake
	}

	a.mu.Lock()
	e, _ := a.mbox.popFront()
	a.state = stateInactive
	a.waking = nil
	a.mu.Unlock()
	return e.msg, e.sender, true, nil
}

// receiveTimedOut handles the race between a Post arriving and the Receive
// timer firing at roughly the same instant. If Post already woke us, the
// mailbox has an entry and the actor must not go Inactive silently, or that
// message would sit unclaimed forever: reschedule a reaction for it instead.
func (a *Base[M]) receiveTimedOut() (msg M, sender Ref, ok bool, err error) {
	a.mu.Lock()
	if a.state != stateReceiving {
		// Post already transitioned us away from Receiving (e.g. directly
		// into PendingReact is impossible from Receiving, but guard anyway).
		a.mu.Unlock()
		var zero M
		return zero, Ref{}, false, nil
	}
	a.waking = nil
	if !a.mbox.empty() && a.scheduler != nil {
		a.state = statePendingReact
		a.mu.Unlock()
		a.scheduler.Schedule(a.runLoop)
	} else {
		a.state = stateInactive
		a.mu.Unlock()
	}
	var zero M
	return zero, Ref{}, false, nil
}

// runLoop is scheduled via Scheduler.Schedule. It drains up to loopBudget
// messages, invoking handler for each; if the mailbox is still non-empty
// when the budget runs out, it reschedules itself instead of draining the
// rest inline, so no single actor monopolizes the scheduler.
func (a *Base[M]) runLoop() {
	a.mu.Lock()
	a.state = stateReacting

	for i := 0; i < a.loopBudget; i++ {
		e, got := a.mbox.popFront()
		if !got {
			a.state = stateInactive
			a.mu.Unlock()
			return
		}
		a.mu.Unlock()
		a.invokeHandler(e)
		a.mu.Lock()
	}

	if !a.mbox.empty() {
		a.state = statePendingReact
		a.mu.Unlock()
		a.scheduler.Schedule(a.runLoop)
		return
	}
	a.state = stateInactive
	a.mu.Unlock()
}

// invokeHandler calls handler, recovering a panic so one bad message cannot
// take down the actor's reaction loop (and, since runLoop may share a
// goroutine with other actors via a pool, cannot take them down either).
func (a *Base[M]) invokeHandler(e mailboxEntry[M]) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("actor: handler panicked", "actor", a.id, "recovered", r)
		}
	}()
	a.handler(e.msg, e.sender)
}
