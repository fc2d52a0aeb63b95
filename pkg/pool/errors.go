package pool

import "errors"

// ErrInvalidThreadCount is returned by SetThreads when n is not positive.
var ErrInvalidThreadCount = errors.New("pool: thread count must be >= 1")
