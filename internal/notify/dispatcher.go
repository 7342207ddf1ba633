package notify

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/concertify/internal/log"
)

// Dispatcher hands a job off for delivery without waiting for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// Handler processes a single job.  *Processor satisfies it.
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

// AsyncDispatcher runs each job on its own goroutine.  It is used when no
// broker is configured.
type AsyncDispatcher struct {
	handler Handler
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsyncDispatcher(h Handler, timeout time.Duration) *AsyncDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AsyncDispatcher{handler: h, timeout: timeout}
}

// Dispatch detaches job from ctx's cancellation, keeping its values so logs
// stay correlated with the originating request.
func (d *AsyncDispatcher) Dispatch(ctx context.Context, job Job) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := d.handler.Handle(jobCtx, job); err != nil {
			log.FromContext(jobCtx).WithField("component", "notify").
				WithField("job_id", job.ID).WithError(err).Error("notification failed")
		}
	}()
	return nil
}

// Wait blocks until all dispatched jobs finish or ctx ends.
func (d *AsyncDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
