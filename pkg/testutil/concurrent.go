package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	dErrors "coffeereg/pkg/domain-errors"
	"coffeereg/pkg/platform/sentinel"
)

// ConcurrentResult counts the outcomes of a RunConcurrent call.
type ConcurrentResult struct {
	Successes int32
	Conflicts int32
	NotFounds int32
	Errors    int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.NotFounds + r.Errors
}

// RunConcurrent calls fn from n goroutines at once and sorts the results.
// Conflicts and not-founds are recognized both as store sentinels and as
// domain error codes.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	var successes, conflicts, notFounds, errs atomic.Int32
	start := make(chan struct{})
	var wg sync.WaitGroup

	for i := range n {
		wg.Go(func() {
			<-start
			err := fn(i)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict), dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrNotFound), dErrors.HasCode(err, dErrors.CodeNotFound):
				notFounds.Add(1)
			default:
				errs.Add(1)
			}
		})
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Conflicts: conflicts.Load(),
		NotFounds: notFounds.Load(),
		Errors:    errs.Load(),
	}
}
