package gesture

import (
	"testing"
	"time"

	"github.com/desertthunder/tunefeed/internal/shared"
)

func newNavigator() *Navigator {
	return NewNavigator(shared.FeedConfig{SwipeThreshold: 50, WheelThreshold: 100, WheelIdleMillis: 150})
}

// withClock replaces the navigator's clock with a manually advanced one.
func withClock(n *Navigator) func(d time.Duration) {
	current := time.Unix(1000, 0)
	n.now = func() time.Time { return current }
	return func(d time.Duration) { current = current.Add(d) }
}

func TestNavigatorTouch(t *testing.T) {
	cases := []struct {
		name     string
		start    float64
		end      float64
		expected Direction
	}{
		{"swipe up advances", 500, 400, Next},
		{"swipe down retreats", 400, 500, Prev},
		{"short swipe ignored", 500, 460, None},
		{"tap ignored", 500, 500, None},
		{"threshold not inclusive", 500, 450, None},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			nav := newNavigator()
			nav.TouchStart(tc.start)
			if got := nav.TouchEnd(tc.end); got != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}

	t.Run("end without start ignored", func(t *testing.T) {
		nav := newNavigator()
		if got := nav.TouchEnd(100); got != None {
			t.Errorf("expected None, got %v", got)
		}
	})
}

func TestNavigatorDrag(t *testing.T) {
	t.Run("drag up advances", func(t *testing.T) {
		nav := newNavigator()
		nav.DragStart(300)
		if got := nav.DragEnd(200); got != Next {
			t.Errorf("expected Next, got %v", got)
		}
	})

	t.Run("cancel resets", func(t *testing.T) {
		nav := newNavigator()
		nav.DragStart(300)
		nav.DragCancel()
		if got := nav.DragEnd(100); got != None {
			t.Errorf("expected None after cancel, got %v", got)
		}
	})
}

func TestNavigatorWheel(t *testing.T) {
	t.Run("accumulates small deltas", func(t *testing.T) {
		nav := newNavigator()
		withClock(nav)

		for i := 0; i < 3; i++ {
			if got := nav.Wheel(30); got != None {
				t.Fatalf("expected None at delta %d, got %v", i, got)
			}
		}
		if got := nav.Wheel(30); got != Next {
			t.Errorf("expected Next on crossing, got %v", got)
		}
	})

	t.Run("triggers once per burst", func(t *testing.T) {
		nav := newNavigator()
		withClock(nav)

		if got := nav.Wheel(120); got != Next {
			t.Fatalf("expected Next, got %v", got)
		}
		// accumulator was emptied on trigger
		if got := nav.Wheel(30); got != None {
			t.Errorf("expected None right after trigger, got %v", got)
		}
	})

	t.Run("negative deltas retreat", func(t *testing.T) {
		nav := newNavigator()
		withClock(nav)

		nav.Wheel(-60)
		if got := nav.Wheel(-60); got != Prev {
			t.Errorf("expected Prev, got %v", got)
		}
	})

	t.Run("opposite directions cancel", func(t *testing.T) {
		nav := newNavigator()
		withClock(nav)

		nav.Wheel(80)
		nav.Wheel(-80)
		if got := nav.Wheel(90); got != None {
			t.Errorf("expected None after cancellation, got %v", got)
		}
	})

	t.Run("idle gap resets accumulator", func(t *testing.T) {
		nav := newNavigator()
		advance := withClock(nav)

		nav.Wheel(80)
		advance(200 * time.Millisecond)
		if got := nav.Wheel(80); got != None {
			t.Errorf("expected stale delta discarded, got %v", got)
		}
		if got := nav.Wheel(30); got != Next {
			t.Errorf("expected fresh accumulation to cross, got %v", got)
		}
	})

	t.Run("rapid events keep accumulating", func(t *testing.T) {
		nav := newNavigator()
		advance := withClock(nav)

		nav.Wheel(60)
		advance(100 * time.Millisecond)
		if got := nav.Wheel(60); got != Next {
			t.Errorf("expected deltas within idle window to combine, got %v", got)
		}
	})
}
