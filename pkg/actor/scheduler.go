package actor

// Scheduler is the capability an actor needs to run its reaction loop
// without pinning a dedicated goroutine: something that will, eventually,
// invoke job. pkg/pool's FairPool.AsScheduler adapts a worker pool to this
// interface; GoScheduler below is the trivial one-goroutine-per-job
// adapter, useful for tests and for actors that don't share a pool.
type Scheduler interface {
	Schedule(job func())
}

// GoScheduler schedules each job on its own goroutine. It provides no
// fairness across actors and no bound on concurrency; prefer a FairPool
// scheduler (pkg/pool's AsScheduler) when many actors share a budget.
type GoScheduler struct{}

// Schedule launches job in a new goroutine.
func (GoScheduler) Schedule(job func()) {
	go job()
}
