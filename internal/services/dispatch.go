package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultNotifyTimeout bounds one detached send.
const DefaultNotifyTimeout = 15 * time.Second

// Dispatcher runs fire-and-forget side effects. Each task gets a context that
// survives the caller's cancellation, is bounded by Timeout, and has its own
// error boundary: errors and panics are logged and counted, never returned.
type Dispatcher struct {
	Timeout time.Duration

	wg sync.WaitGroup
}

// NewDispatcher returns a Dispatcher with the given per-task timeout.
func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	return &Dispatcher{Timeout: timeout}
}

// Go starts fn in its own goroutine and returns immediately. kind labels
// logs and metrics.
func (d *Dispatcher) Go(ctx context.Context, kind string, fn func(context.Context) error) {
	if d == nil || fn == nil {
		return
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	// keep trace and logger values, drop the request's cancellation
	base := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		tctx, cancel := context.WithTimeout(base, timeout)
		defer cancel()

		err := run(tctx, fn)
		if err != nil {
			loggerFrom(tctx).Error().Err(err).Str("kind", kind).Msg("notification failed")
			notificationsTotal.WithLabelValues(kind, outcomeError).Inc()
			return
		}
		notificationsTotal.WithLabelValues(kind, outcomeOK).Inc()
	}()
}

// Wait blocks until every dispatched task has finished.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// loggerFrom returns the logger attached to ctx by the HTTP middleware, or the
// global logger.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
