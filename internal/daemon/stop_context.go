package daemon

import (
	"context"
)

// stopAwareContext returns a context canceled when either the parent is
// done or the daemon stop channel closes, so a shutdown request over the
// control socket unblocks in-flight work even when the caller passed
// context.Background().
//
// Callers must call the returned cancel func once done with the derived
// context, or the stop-listener goroutine lives as long as the parent.
func (d *Daemon) stopAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-d.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
