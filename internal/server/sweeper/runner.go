package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophvault/internal/logging"
)

// Runner launches fire-and-forget tasks. A task outlives the request that
// started it and its failures go to the runner's logger only.
type Runner struct {
	wg     sync.WaitGroup
	logger logging.Logger
}

func NewRunner(logger logging.Logger) *Runner {
	return &Runner{logger: logger}
}

// Go runs fn in its own goroutine with a context that keeps the values of
// ctx but ignores its cancellation. attrs are added to every log line.
func (r *Runner) Go(ctx context.Context, fn func(ctx context.Context) error, attrs ...any) {
	ctx = context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error(ctx, "background task panicked", append(attrs, "panic", fmt.Sprint(p))...)
			}
		}()

		if err := fn(ctx); err != nil {
			fields := append([]any{}, attrs...)
			var se *StepError
			if errors.As(err, &se) {
				fields = append(fields, "step", se.Step)
			}
			r.logger.Error(ctx, "background task failed", append(fields, "error", err)...)
		}
	}()
}

// Wait blocks until every launched task has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}
