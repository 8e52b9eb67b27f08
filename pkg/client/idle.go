package client

import (
	"context"
	"errors"
	"time"
)

// ErrIdleLogout is returned by IdleWatcher.Run after an inactivity logout.
var ErrIdleLogout = errors.New("client: logged out after inactivity")

// DefaultIdleTimeout is the inactivity delay before an automatic logout.
const DefaultIdleTimeout = 15 * time.Minute

// IdleWatcher logs the session out after a period without activity.
// Callers report activity with Touch.
type IdleWatcher struct {
	client   *Client
	timeout  time.Duration
	activity chan struct{}
}

// NewIdleWatcher returns a watcher for c. A non positive timeout selects
// DefaultIdleTimeout.
func NewIdleWatcher(c *Client, timeout time.Duration) *IdleWatcher {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &IdleWatcher{
		client:   c,
		timeout:  timeout,
		activity: make(chan struct{}, 1),
	}
}

// Touch restarts the inactivity timer. It never blocks.
func (w *IdleWatcher) Touch() {
	select {
	case w.activity <- struct{}{}:
	default:
	}
}

// Run blocks until ctx ends or the timer fires. On timeout it calls the
// logout endpoint, clears the session, invokes the session expiry
// capability and returns ErrIdleLogout. A failed logout call is logged and
// does not prevent the local cleanup.
func (w *IdleWatcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.activity:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.timeout)
		case <-timer.C:
			err := w.client.Logout(context.WithoutCancel(ctx))
			if errors.Is(err, ErrSessionExpired) {
				return ErrIdleLogout
			}
			if err != nil {
				w.client.logger.Warn("idle logout request failed", "error", err)
			}
			w.client.expire()
			return ErrIdleLogout
		}
	}
}
