// Package gesture turns raw pointer input into feed navigation intents.
//
// Three input families reduce to the same two intents, next and previous:
// touch swipes, mouse drags, and wheel scrolling. [Navigator] is a pure
// state machine; callers feed it events and act on the returned
// [Direction]. It knows nothing about the feed, so the same instance serves
// any vertical pager.
package gesture

import (
	"time"

	"github.com/desertthunder/tunefeed/internal/shared"
)

// Direction is a navigation intent.
type Direction int

const (
	None Direction = iota
	Next           // move down the feed
	Prev           // move up the feed
)

func (d Direction) String() string {
	switch d {
	case Next:
		return "next"
	case Prev:
		return "prev"
	default:
		return "none"
	}
}

// Defaults matching the feel of the touch deployment.
const (
	DefaultSwipeThreshold = 50  // px of finger or drag travel
	DefaultWheelThreshold = 100 // accumulated wheel delta
	DefaultWheelIdle      = 150 * time.Millisecond
)

// Navigator accumulates pointer events into navigation intents.
//
// Wheel deltas accumulate across events because trackpads emit many small
// ones per flick; the accumulator resets when input goes idle and
// immediately on trigger, so one flick is one intent.
type Navigator struct {
	swipeThreshold float64
	wheelThreshold float64
	wheelIdle      time.Duration
	now            func() time.Time

	touchActive bool
	touchStartY float64
	dragActive  bool
	dragStartY  float64
	wheelAccum  float64
	lastWheel   time.Time
}

// NewNavigator builds a [Navigator] from feed tuning. Zero values fall back
// to the defaults.
func NewNavigator(cfg shared.FeedConfig) *Navigator {
	n := &Navigator{
		swipeThreshold: float64(cfg.SwipeThreshold),
		wheelThreshold: float64(cfg.WheelThreshold),
		wheelIdle:      time.Duration(cfg.WheelIdleMillis) * time.Millisecond,
		now:            time.Now,
	}
	if n.swipeThreshold <= 0 {
		n.swipeThreshold = DefaultSwipeThreshold
	}
	if n.wheelThreshold <= 0 {
		n.wheelThreshold = DefaultWheelThreshold
	}
	if n.wheelIdle <= 0 {
		n.wheelIdle = DefaultWheelIdle
	}
	return n
}

// TouchStart records the first touch position.
func (n *Navigator) TouchStart(y float64) {
	n.touchActive = true
	n.touchStartY = y
}

// TouchEnd resolves the swipe. Travel below the threshold is a tap, not a
// navigation.
func (n *Navigator) TouchEnd(y float64) Direction {
	if !n.touchActive {
		return None
	}
	n.touchActive = false
	return n.resolveSwipe(n.touchStartY - y)
}

// DragStart records the mouse-down position.
func (n *Navigator) DragStart(y float64) {
	n.dragActive = true
	n.dragStartY = y
}

// DragEnd resolves the drag like a swipe.
func (n *Navigator) DragEnd(y float64) Direction {
	if !n.dragActive {
		return None
	}
	n.dragActive = false
	return n.resolveSwipe(n.dragStartY - y)
}

// DragCancel abandons an in-progress drag, e.g. when the pointer leaves the
// surface.
func (n *Navigator) DragCancel() {
	n.dragActive = false
}

// Wheel feeds one wheel event. Deltas accumulate; crossing the threshold
// yields an intent and empties the accumulator.
func (n *Navigator) Wheel(deltaY float64) Direction {
	now := n.now()
	if !n.lastWheel.IsZero() && now.Sub(n.lastWheel) > n.wheelIdle {
		n.wheelAccum = 0
	}
	n.lastWheel = now
	n.wheelAccum += deltaY

	switch {
	case n.wheelAccum >= n.wheelThreshold:
		n.wheelAccum = 0
		return Next
	case n.wheelAccum <= -n.wheelThreshold:
		n.wheelAccum = 0
		return Prev
	default:
		return None
	}
}

// resolveSwipe maps upward travel to Next and downward travel to Prev.
func (n *Navigator) resolveSwipe(travel float64) Direction {
	switch {
	case travel > n.swipeThreshold:
		return Next
	case travel < -n.swipeThreshold:
		return Prev
	default:
		return None
	}
}
