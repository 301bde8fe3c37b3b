package async

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/utils/logging"
)

// Dispatcher runs handlers in background goroutines and tracks them so that
// shutdown can wait for in-flight notifications.
type Dispatcher struct {
	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Dispatch executes a handler asynchronously. The handler gets a context that is not
// cancelled with the request but keeps the request logger. Errors and panics are logged.
func (d *Dispatcher) Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.WithoutCancel(ctx), logging.From(ctx))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("async handler failed", "error", err)
		}
	}()
}

// Wait blocks until every dispatched handler returned or ctx is done
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "async handlers did not finish")
	}
}

var defaultDispatcher = NewDispatcher()

// Dispatch runs the handler on the default dispatcher
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	defaultDispatcher.Dispatch(ctx, handler)
}

// Wait waits for the default dispatcher
func Wait(ctx context.Context) error {
	return defaultDispatcher.Wait(ctx)
}
