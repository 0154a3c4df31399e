// Package gesture turns the pointer stream of one history row into a swipe
// phase and a horizontal reveal offset.
//
// The row is a finite state machine (Idle, Pressing, Dragging, Revealed,
// Editing) driven by qmuntal/stateless. The offset is the only number carried
// alongside it and always stays within [0, MaxReveal].
package gesture

import (
	"context"
	"math"

	"github.com/qmuntal/stateless"

	"github.com/comigor/guruchat/internal/logger"
)

// Phase is the interaction state of a row.
type Phase string

const (
	Idle     Phase = "Idle"
	Pressing Phase = "Pressing"
	Dragging Phase = "Dragging"
	Revealed Phase = "Revealed"
	Editing  Phase = "Editing"
)

type trigger string

const (
	triggerDown      trigger = "PointerDown"
	triggerMove      trigger = "PointerMove"
	triggerRelease   trigger = "PointerRelease"
	triggerAbort     trigger = "PointerAbort"
	triggerBeginEdit trigger = "BeginEdit"
	triggerEndEdit   trigger = "EndEdit"
)

// Terminal identifies which pointer event ended a gesture.
type Terminal string

const (
	Up     Terminal = "up"
	Cancel Terminal = "cancel"
	Leave  Terminal = "leave"
)

// TerminalPolicy decides how cancel and leave resolve.
type TerminalPolicy int

const (
	// CommitOnAllTerminals resolves up, cancel and leave identically.
	CommitOnAllTerminals TerminalPolicy = iota
	// RevertOnInterrupt resolves only up against the thresholds; cancel and
	// leave close the row.
	RevertOnInterrupt
)

// AllTerminalEventsCommit reports whether the default policy treats an
// interrupted gesture like a deliberate release.
const AllTerminalEventsCommit = DefaultTerminalPolicy == CommitOnAllTerminals

// DefaultTerminalPolicy is the policy used by NewController.
const DefaultTerminalPolicy = CommitOnAllTerminals

// Thresholds are the swipe distances of a row, in logical pixels.
type Thresholds struct {
	// Jitter is the movement a press may make before it counts as a drag.
	Jitter float64
	// MaxReveal caps the offset.
	MaxReveal float64
	// RevealCommit is the offset a release must exceed to open the row.
	RevealCommit float64
	// RestingOpen is the offset of an open row.
	RestingOpen float64
	// TapMax is the largest release offset still counted as a tap.
	TapMax float64
	// DeleteVisible is the offset past which the delete action is fully opaque.
	DeleteVisible float64
}

// DefaultThresholds returns the stock swipe distances.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Jitter:        4,
		MaxReveal:     90,
		RevealCommit:  50,
		RestingOpen:   70,
		TapMax:        6,
		DeleteVisible: 10,
	}
}

// Resolution describes how a terminal pointer event ended a gesture.
type Resolution struct {
	Terminal Terminal
	// Tracked is false when the event arrived with no press in progress
	// (or while editing) and was ignored.
	Tracked bool
	// Origin is the phase the press started from.
	Origin Phase
	// ReleaseOffset is the offset at the moment of release, before snapping.
	ReleaseOffset float64
	Phase         Phase
	Offset        float64
}

// IsTap reports whether r is a tap: a tracked pointer-up on a row that was
// not already open, released without leaving the tap radius. A tap on an open
// row only keeps it open.
func IsTap(r Resolution, th Thresholds) bool {
	return r.Tracked &&
		r.Terminal == Up &&
		r.Origin != Revealed &&
		r.ReleaseOffset <= th.TapMax
}

// Controller is the gesture state machine of one row. It is not safe for
// concurrent use; a row receives its pointer events in order on one goroutine.
type Controller struct {
	fsm    *stateless.StateMachine
	th     Thresholds
	policy TerminalPolicy

	startX float64
	origin Phase
	offset float64
}

// Option configures a Controller.
type Option func(*Controller)

// WithThresholds overrides DefaultThresholds.
func WithThresholds(th Thresholds) Option {
	return func(c *Controller) { c.th = th }
}

// WithTerminalPolicy overrides DefaultTerminalPolicy.
func WithTerminalPolicy(p TerminalPolicy) Option {
	return func(c *Controller) { c.policy = p }
}

// NewController returns a controller in the Idle phase.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		th:     DefaultThresholds(),
		policy: DefaultTerminalPolicy,
		origin: Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.fsm = c.newFSM()
	return c
}

func offsetArg(args []any) float64 {
	if len(args) == 0 {
		return 0
	}
	v, _ := args[0].(float64)
	return v
}

func (c *Controller) newFSM() *stateless.StateMachine {
	fsm := stateless.NewStateMachine(Idle)

	beyondJitter := func(_ context.Context, args ...any) bool { return offsetArg(args) > c.th.Jitter }
	withinJitter := func(_ context.Context, args ...any) bool { return offsetArg(args) <= c.th.Jitter }
	opens := func(_ context.Context, args ...any) bool { return offsetArg(args) > c.th.RevealCommit }
	closes := func(_ context.Context, args ...any) bool { return offsetArg(args) <= c.th.RevealCommit }

	fsm.Configure(Idle).
		OnEntry(func(_ context.Context, _ ...any) error {
			c.offset = 0
			return nil
		}).
		Permit(triggerDown, Pressing).
		Permit(triggerBeginEdit, Editing).
		Ignore(triggerMove).
		Ignore(triggerRelease).
		Ignore(triggerAbort).
		Ignore(triggerEndEdit)

	fsm.Configure(Pressing).
		Permit(triggerMove, Dragging, beyondJitter).
		Ignore(triggerMove, withinJitter).
		Permit(triggerRelease, Revealed, opens).
		Permit(triggerRelease, Idle, closes).
		Permit(triggerAbort, Idle).
		Permit(triggerBeginEdit, Editing).
		Ignore(triggerDown).
		Ignore(triggerEndEdit)

	// No edit while a drag is under the finger.
	fsm.Configure(Dragging).
		Permit(triggerRelease, Revealed, opens).
		Permit(triggerRelease, Idle, closes).
		Permit(triggerAbort, Idle).
		Ignore(triggerMove).
		Ignore(triggerDown).
		Ignore(triggerBeginEdit).
		Ignore(triggerEndEdit)

	fsm.Configure(Revealed).
		OnEntry(func(_ context.Context, _ ...any) error {
			c.offset = c.th.RestingOpen
			return nil
		}).
		Permit(triggerDown, Pressing).
		Permit(triggerBeginEdit, Editing).
		Ignore(triggerMove).
		Ignore(triggerRelease).
		Ignore(triggerAbort).
		Ignore(triggerEndEdit)

	fsm.Configure(Editing).
		Permit(triggerEndEdit, Idle).
		Ignore(triggerDown).
		Ignore(triggerMove).
		Ignore(triggerRelease).
		Ignore(triggerAbort).
		Ignore(triggerBeginEdit)

	return fsm
}

func (c *Controller) fire(t trigger, args ...any) error {
	err := c.fsm.Fire(t, args...)
	if err != nil {
		logger.L.Warn("gesture trigger rejected", "trigger", t, "phase", c.Phase(), "error", err)
	}
	return err
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.fsm.MustState().(Phase)
}

// Offset returns the current reveal offset.
func (c *Controller) Offset() float64 {
	return c.offset
}

// Pressed reports whether a press is held but not yet recognised as a drag.
func (c *Controller) Pressed() bool {
	return c.Phase() == Pressing
}

// Editing reports whether the row is in the rename sub-flow.
func (c *Controller) Editing() bool {
	return c.Phase() == Editing
}

// Thresholds returns the thresholds the controller resolves against.
func (c *Controller) Thresholds() Thresholds {
	return c.th
}

func (c *Controller) tracking() bool {
	p := c.Phase()
	return p == Pressing || p == Dragging
}

// PointerDown starts a press at x. It is honoured from Idle and Revealed only.
func (c *Controller) PointerDown(x float64) {
	p := c.Phase()
	if p != Idle && p != Revealed {
		return
	}
	c.startX = x
	c.origin = p
	c.fire(triggerDown)
}

// PointerMove follows a held press. The offset tracks the rightward distance
// from the press, clamped to [0, MaxReveal], on every move; the press becomes
// a drag once that distance exceeds the jitter threshold. A move whose
// distance is not a finite number is ignored.
func (c *Controller) PointerMove(x float64) {
	if !c.tracking() {
		return
	}
	delta := x - c.startX
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return
	}
	delta = max(0, delta)
	c.offset = clamp(delta, 0, c.th.MaxReveal)
	c.fire(triggerMove, delta)
}

// PointerUp ends a press deliberately.
func (c *Controller) PointerUp() Resolution {
	return c.release(Up)
}

// PointerCancel ends a press the platform interrupted.
func (c *Controller) PointerCancel() Resolution {
	return c.release(Cancel)
}

// PointerLeave ends a press whose pointer left the row.
func (c *Controller) PointerLeave() Resolution {
	return c.release(Leave)
}

func (c *Controller) release(term Terminal) Resolution {
	res := Resolution{Terminal: term, Origin: c.origin, ReleaseOffset: c.offset}
	if !c.tracking() {
		res.Phase, res.Offset = c.Phase(), c.offset
		return res
	}
	res.Tracked = true

	var err error
	if term != Up && c.policy == RevertOnInterrupt {
		err = c.fire(triggerAbort)
	} else {
		err = c.fire(triggerRelease, c.offset)
	}
	// A press must never outlive its terminal event.
	if err != nil && c.tracking() {
		c.fire(triggerAbort)
	}
	res.Phase, res.Offset = c.Phase(), c.offset
	return res
}

// BeginEdit enters the Editing phase. It reports false while a drag is in
// progress or when already editing.
func (c *Controller) BeginEdit() bool {
	if c.Phase() == Editing {
		return false
	}
	c.fire(triggerBeginEdit)
	return c.Phase() == Editing
}

// EndEdit leaves Editing for Idle with the row closed.
func (c *Controller) EndEdit() {
	c.fire(triggerEndEdit)
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
