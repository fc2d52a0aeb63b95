package pool

// poolScheduler adapts a FairPool into anything structurally matching
// pkg/actor's Scheduler interface ({ Schedule(job func()) }), without pkg/pool
// importing pkg/actor.
type poolScheduler struct {
	pool *FairPool
	tag  int64
}

// Schedule submits job to the pool under the scheduler's tag.
func (s poolScheduler) Schedule(job func()) {
	s.pool.Submit(s.tag, job)
}

// AsScheduler returns a value satisfying actor.Scheduler that dispatches
// scheduled jobs onto this pool under the given tag. Jobs of actors sharing a
// tag go into that tag's single FIFO bucket and run in submission order; the
// tag as a whole is rotated fairly against jobs submitted under other tags.
func (p *FairPool) AsScheduler(tag int64) interface{ Schedule(job func()) } {
	return poolScheduler{pool: p, tag: tag}
}
