// ABOUTME: Tests for the cancellation-aware receive primitive
// ABOUTME: Races frames against timers and stop predicates
package subscription

import (
	"testing"
	"time"

	"github.com/gqlwire/gqlwire-go/internal/protocol"
)

func frameAfter(d time.Duration) func() (*protocol.Frame, error) {
	return func() (*protocol.Frame, error) {
		time.Sleep(d)
		return &protocol.Frame{Type: "ka"}, nil
	}
}

func neverReturns() (*protocol.Frame, error) {
	select {}
}

func TestAwaitFramePlainBlocking(t *testing.T) {
	out := awaitFrame(frameAfter(0), 0, nil, 0)
	if out.err != nil {
		t.Fatalf("unexpected error: %v", out.err)
	}
	if out.sentinel != SentinelNone {
		t.Errorf("expected no sentinel, got %v", out.sentinel)
	}
	if out.frame == nil || out.frame.Type != "ka" {
		t.Errorf("expected frame, got %+v", out.frame)
	}
}

func TestAwaitFrameTimeout(t *testing.T) {
	start := time.Now()
	out := awaitFrame(neverReturns, 50*time.Millisecond, nil, 0)
	elapsed := time.Since(start)

	if out.sentinel != SentinelTimeout {
		t.Fatalf("expected timeout sentinel, got %+v", out)
	}
	if elapsed < 50*time.Millisecond || elapsed > time.Second {
		t.Errorf("timeout fired after %v", elapsed)
	}
}

func TestAwaitFrameFrameBeatsTimer(t *testing.T) {
	out := awaitFrame(frameAfter(10*time.Millisecond), 5*time.Second, nil, 0)
	if out.sentinel != SentinelNone || out.frame == nil {
		t.Errorf("expected frame to win the race, got %+v", out)
	}
}

func TestAwaitFrameStopPredicate(t *testing.T) {
	deadline := time.Now().Add(60 * time.Millisecond)
	start := time.Now()
	out := awaitFrame(neverReturns, 0, func() bool { return time.Now().After(deadline) }, 20*time.Millisecond)
	elapsed := time.Since(start)

	if out.sentinel != SentinelStop {
		t.Fatalf("expected stop sentinel, got %+v", out)
	}
	if elapsed > time.Second {
		t.Errorf("stop predicate took %v", elapsed)
	}
}

func TestAwaitFrameStopPredicateTakesPrecedenceOverTimeout(t *testing.T) {
	// With both configured, the stop predicate is the watcher; the idle
	// timeout applies only when no predicate is supplied.
	out := awaitFrame(neverReturns, 10*time.Millisecond, func() bool { return true }, 10*time.Millisecond)
	if out.sentinel != SentinelStop {
		t.Errorf("expected stop sentinel, got %v", out.sentinel)
	}
}

func TestAwaitFrameWatcherResetsPerCall(t *testing.T) {
	// Two consecutive reads each get their own idle window: a frame arriving
	// at 60ms is fine when the per-read timeout is 100ms, even though the
	// combined wall time exceeds it.
	for i := 0; i < 2; i++ {
		out := awaitFrame(frameAfter(60*time.Millisecond), 100*time.Millisecond, nil, 0)
		if out.sentinel != SentinelNone || out.frame == nil {
			t.Fatalf("read %d: expected frame, got %+v", i, out)
		}
	}
}
