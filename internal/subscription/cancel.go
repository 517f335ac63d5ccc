// ABOUTME: Cancellation-aware receive primitive
// ABOUTME: Races the blocking socket read against a timer or polled stop predicate
package subscription

import (
	"time"

	"github.com/gqlwire/gqlwire-go/internal/protocol"
)

// DefaultStopPollInterval is how often a stop predicate is polled when the
// caller does not choose an interval.
const DefaultStopPollInterval = 2 * time.Second

// Sentinel marks an early termination produced by the cancellation watcher.
// It is distinct from any frame and is not an error.
type Sentinel int

const (
	SentinelNone Sentinel = iota
	SentinelTimeout
	SentinelStop
)

func (s Sentinel) String() string {
	switch s {
	case SentinelTimeout:
		return "timeout"
	case SentinelStop:
		return "stop"
	}
	return "none"
}

// readOutcome is the single result of one cancellation-aware read: exactly
// one of frame, sentinel, or err is set.
type readOutcome struct {
	frame    *protocol.Frame
	sentinel Sentinel
	err      error
}

// awaitFrame performs one receive. Without a stop predicate or idle timeout
// it is a plain blocking call. Otherwise the receive races a watcher into a
// single-slot channel: a one-shot timer producing SentinelTimeout, or a
// poller producing SentinelStop once the predicate turns true. The loser's
// send is non-blocking and the loser is abandoned, never force-cancelled.
// The watcher is created fresh per call, so an idle timeout resets after
// every received frame.
func awaitFrame(recv func() (*protocol.Frame, error), idleTimeout time.Duration, stopFn func() bool, pollInterval time.Duration) readOutcome {
	if stopFn == nil && idleTimeout <= 0 {
		f, err := recv()
		return readOutcome{frame: f, err: err}
	}

	slot := make(chan readOutcome, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		f, err := recv()
		select {
		case slot <- readOutcome{frame: f, err: err}:
		default:
		}
	}()

	if stopFn != nil {
		if pollInterval <= 0 {
			pollInterval = DefaultStopPollInterval
		}
		go func() {
			ticker := time.NewTicker(pollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if stopFn() {
						select {
						case slot <- readOutcome{sentinel: SentinelStop}:
						default:
						}
						return
					}
				}
			}
		}()
	} else {
		go func() {
			timer := time.NewTimer(idleTimeout)
			defer timer.Stop()
			select {
			case <-done:
			case <-timer.C:
				select {
				case slot <- readOutcome{sentinel: SentinelTimeout}:
				default:
				}
			}
		}()
	}

	return <-slot
}
