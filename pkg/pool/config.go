package pool

import "time"

// defaultShutdownJoinTimeout bounds how long Dispose waits for any single
// worker to notice shutdown and exit before giving up on it.
const defaultShutdownJoinTimeout = 2 * time.Second

// Config configures a FairPool at construction time.
type Config struct {
	// Threads is the initial number of worker goroutines. Values <= 0
	// default to runtime.NumCPU().
	Threads int

	// ShutdownJoinTimeout bounds how long Dispose waits for each worker to
	// exit. Values <= 0 default to 2s.
	ShutdownJoinTimeout time.Duration
}
